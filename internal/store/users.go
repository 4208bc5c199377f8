package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"rolepush/internal/models"
)

const userColumns = `id, name, email, password_hash, role, totp_secret, totp_enabled, created_at, updated_at`

// CreateUser inserts a user and returns the stored row.
func (s *SQLStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := s.now()
	query := s.db.Rebind(`INSERT INTO users (name, email, password_hash, role, totp_secret, totp_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := s.db.QueryRowxContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.TOTPSecret, user.TOTPEnabled, now, now,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// ListUsers returns every account, newest first.
func (s *SQLStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListUsersByRole returns accounts holding any of roles, newest first.
func (s *SQLStore) ListUsersByRole(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	users := []models.User{}
	if len(roles) == 0 {
		return users, nil
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE role IN (?) ORDER BY created_at DESC, id DESC`, names)
	if err != nil {
		return nil, fmt.Errorf("build role query: %w", err)
	}
	if err := s.db.SelectContext(ctx, &users, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

func (s *SQLStore) UpdateUserRole(ctx context.Context, id int64, role models.Role) error {
	query := s.db.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`)
	return s.execOne(ctx, query, role, s.now(), id)
}

func (s *SQLStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	query := s.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)
	return s.execOne(ctx, query, passwordHash, s.now(), id)
}

// UpdateUser2FA stores the TOTP secret and whether it is enforced at login.
func (s *SQLStore) UpdateUser2FA(ctx context.Context, id int64, secret string, enabled bool) error {
	query := s.db.Rebind(`UPDATE users SET totp_secret = ?, totp_enabled = ?, updated_at = ? WHERE id = ?`)
	return s.execOne(ctx, query, secret, enabled, s.now(), id)
}

// DeleteUser removes the subscriptions first so drivers without enforced
// foreign keys leave no orphans.
func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM push_subscriptions WHERE user_id = ?`), id); err != nil {
		return fmt.Errorf("delete subscriptions of user %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
