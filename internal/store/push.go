package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"rolepush/internal/models"
)

const pushColumns = `id, user_id, endpoint, p256dh, auth, created_at, updated_at`

// UpsertPushSubscription keys on endpoint. A browser re-subscribing under a
// different account moves the endpoint to that account.
func (s *SQLStore) UpsertPushSubscription(ctx context.Context, sub models.PushSubscription) (models.PushSubscription, error) {
	now := s.now()
	query := s.db.Rebind(`INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = excluded.user_id,
			p256dh = excluded.p256dh,
			auth = excluded.auth,
			updated_at = excluded.updated_at
		RETURNING id`)

	var id int64
	if err := s.db.QueryRowxContext(ctx, query, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, now, now).Scan(&id); err != nil {
		return models.PushSubscription{}, fmt.Errorf("upsert push subscription: %w", err)
	}

	var stored models.PushSubscription
	if err := s.db.GetContext(ctx, &stored, s.db.Rebind(`SELECT `+pushColumns+` FROM push_subscriptions WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PushSubscription{}, ErrNotFound
		}
		return models.PushSubscription{}, fmt.Errorf("reload push subscription: %w", err)
	}
	return stored, nil
}

func (s *SQLStore) DeletePushSubscription(ctx context.Context, userID int64, endpoint string) error {
	query := s.db.Rebind(`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`)
	if _, err := s.db.ExecContext(ctx, query, userID, endpoint); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// DeletePushSubscriptionByEndpoint prunes an endpoint the push service reported gone.
func (s *SQLStore) DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	query := s.db.Rebind(`DELETE FROM push_subscriptions WHERE endpoint = ?`)
	if _, err := s.db.ExecContext(ctx, query, endpoint); err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

func (s *SQLStore) ListPushSubscriptionsByUsers(ctx context.Context, userIDs []int64) ([]models.PushSubscription, error) {
	subs := []models.PushSubscription{}
	if len(userIDs) == 0 {
		return subs, nil
	}

	query, args, err := sqlx.In(`SELECT `+pushColumns+` FROM push_subscriptions WHERE user_id IN (?) ORDER BY user_id, id`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build subscription query: %w", err)
	}
	if err := s.db.SelectContext(ctx, &subs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}

type subscriberRow struct {
	ID           int64       `db:"id"`
	Endpoint     string      `db:"endpoint"`
	SubscribedAt time.Time   `db:"subscribed_at"`
	UserID       int64       `db:"user_id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Role         models.Role `db:"role"`
	TOTPEnabled  bool        `db:"totp_enabled"`
	UserCreated  time.Time   `db:"user_created_at"`
	UserUpdated  time.Time   `db:"user_updated_at"`
}

// ListSubscribers returns every subscription with its owner, newest first.
func (s *SQLStore) ListSubscribers(ctx context.Context) ([]models.SubscriberRecord, error) {
	var rows []subscriberRow
	query := `SELECT ps.id, ps.endpoint, ps.created_at AS subscribed_at,
			u.id AS user_id, u.name, u.email, u.role, u.totp_enabled,
			u.created_at AS user_created_at, u.updated_at AS user_updated_at
		FROM push_subscriptions ps
		JOIN users u ON u.id = ps.user_id
		ORDER BY ps.created_at DESC, ps.id DESC`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	out := make([]models.SubscriberRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.SubscriberRecord{
			ID:       r.ID,
			Endpoint: r.Endpoint,
			User: models.User{
				ID:          r.UserID,
				Name:        r.Name,
				Email:       r.Email,
				Role:        r.Role,
				TOTPEnabled: r.TOTPEnabled,
				CreatedAt:   r.UserCreated,
				UpdatedAt:   r.UserUpdated,
			},
			SubscribedAt: r.SubscribedAt,
		})
	}
	return out, nil
}
