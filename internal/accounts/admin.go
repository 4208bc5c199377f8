package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"

	"rolepush/internal/apierr"
	"rolepush/internal/auth"
	"rolepush/internal/models"
	"rolepush/internal/store"
	"rolepush/internal/validate"
)

const (
	generatedPasswordLength = 16
	passwordAlphabet        = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

func checkInput(in any) error {
	return validate.Struct(in)
}

type CreateAdminInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// CreatedAdmin carries the plaintext password exactly once.
type CreatedAdmin struct {
	Admin    models.User
	Password string
}

// CreateAdmin creates a role=admin account. A password is generated when none
// is given.
func (s *Service) CreateAdmin(ctx context.Context, actor models.User, in CreateAdminInput) (CreatedAdmin, error) {
	if err := auth.Require(actor, auth.CanManageAdmins); err != nil {
		return CreatedAdmin{}, err
	}
	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in); err != nil {
		return CreatedAdmin{}, err
	}

	plain := in.Password
	if plain == "" {
		generated, err := GeneratePassword(generatedPasswordLength)
		if err != nil {
			return CreatedAdmin{}, apierr.Internal("Could not generate password", err)
		}
		plain = generated
	}

	admin, err := s.createUser(ctx, in.Name, in.Email, plain, models.RoleAdmin)
	if err != nil {
		return CreatedAdmin{}, err
	}

	s.audit(ctx, actor, models.AuditCreateAdmin, "user", admin.ID, models.AuditMetadata(map[string]any{"email": admin.Email}))
	slog.Info("admin created", "actor_id", actor.ID, "admin_id", admin.ID)
	return CreatedAdmin{Admin: admin, Password: plain}, nil
}

// ListAdmins returns every account whose role is not user.
func (s *Service) ListAdmins(ctx context.Context, actor models.User) ([]models.User, error) {
	if err := auth.Require(actor, auth.CanManageAdmins); err != nil {
		return nil, err
	}
	admins, err := s.store.ListUsersByRole(ctx, models.AdminRoles()...)
	if err != nil {
		return nil, apierr.Internal("Could not list admins", err)
	}
	return admins, nil
}

func (s *Service) ListUsers(ctx context.Context, actor models.User) ([]models.User, error) {
	if err := auth.Require(actor, auth.CanManageUsers); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apierr.Internal("Could not list users", err)
	}
	return users, nil
}

// DeleteAdmin removes any account other than the actor's own or a super admin.
func (s *Service) DeleteAdmin(ctx context.Context, actor models.User, id int64) error {
	if err := auth.Require(actor, auth.CanManageAdmins); err != nil {
		return err
	}
	return s.deleteAccount(ctx, actor, id, models.AuditDeleteAdmin, "Admin not found.")
}

func (s *Service) DeleteUser(ctx context.Context, actor models.User, id int64) error {
	if err := auth.Require(actor, auth.CanManageUsers); err != nil {
		return err
	}
	return s.deleteAccount(ctx, actor, id, models.AuditDeleteUser, "User not found.")
}

func (s *Service) deleteAccount(ctx context.Context, actor models.User, id int64, action, notFound string) error {
	target, err := s.loadTarget(ctx, actor, id, notFound)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, target.ID); err != nil {
		return mapStoreErr(err, notFound)
	}

	s.audit(ctx, actor, action, "user", target.ID, models.AuditMetadata(map[string]any{"email": target.Email, "role": target.Role}))
	slog.Info("account deleted", "actor_id", actor.ID, "target_id", target.ID, "action", action)
	return nil
}

type UpdateRoleInput struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// UpdateRole switches a non super admin account between admin and user.
func (s *Service) UpdateRole(ctx context.Context, actor models.User, id int64, in UpdateRoleInput) (models.User, error) {
	if err := auth.Require(actor, auth.CanManageUsers); err != nil {
		return models.User{}, err
	}
	if err := checkInput(in); err != nil {
		return models.User{}, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return models.User{}, apierr.FieldError("role", "The selected role is invalid.")
	}

	target, err := s.loadTarget(ctx, actor, id, "User not found.")
	if err != nil {
		return models.User{}, err
	}
	if err := s.store.UpdateUserRole(ctx, target.ID, role); err != nil {
		return models.User{}, mapStoreErr(err, "User not found.")
	}

	updated, err := s.store.GetUser(ctx, target.ID)
	if err != nil {
		return models.User{}, mapStoreErr(err, "User not found.")
	}
	s.audit(ctx, actor, models.AuditUpdateRole, "user", target.ID, models.AuditMetadata(map[string]any{"from": target.Role, "to": role}))
	return updated, nil
}

// loadTarget fetches the account and applies self and super admin protection.
func (s *Service) loadTarget(ctx context.Context, actor models.User, id int64, notFound string) (models.User, error) {
	target, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, mapStoreErr(err, notFound)
	}

	switch err := auth.CheckTargetMutable(actor, target); {
	case errors.Is(err, auth.ErrSelfAction):
		return models.User{}, apierr.Conflict("You cannot modify your own account.")
	case errors.Is(err, auth.ErrSuperAdminProtected):
		return models.User{}, apierr.Conflict("Super admin accounts cannot be modified.")
	}
	return target, nil
}

func (s *Service) ListAudit(ctx context.Context, actor models.User, limit int) ([]models.AuditLog, error) {
	if err := auth.Require(actor, auth.CanManageAdmins); err != nil {
		return nil, err
	}
	entries, err := s.store.ListAudit(ctx, limit)
	if err != nil {
		return nil, apierr.Internal("Could not list audit log", err)
	}
	return entries, nil
}

type SuperAdminInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// EnsureSuperAdmin creates a super admin. When the email is already taken
// the account is promoted and its password reset only if force is set.
func (s *Service) EnsureSuperAdmin(ctx context.Context, in SuperAdminInput, force bool) (models.User, bool, error) {
	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in); err != nil {
		return models.User{}, false, err
	}

	existing, err := s.store.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user, err := s.createUser(ctx, in.Name, in.Email, in.Password, models.RoleSuperAdmin)
		if err != nil {
			return models.User{}, false, err
		}
		s.audit(ctx, user, models.AuditPromoteSuperAdmin, "user", user.ID, models.AuditMetadata(map[string]any{"created": true}))
		return user, true, nil
	case err != nil:
		return models.User{}, false, apierr.Internal("Could not look up user", err)
	}

	if !force {
		return existing, false, apierr.FieldError("email", "The email has already been taken.")
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return models.User{}, false, apierr.Internal("Could not hash password", err)
	}
	if err := s.store.UpdateUserPassword(ctx, existing.ID, hash); err != nil {
		return models.User{}, false, mapStoreErr(err, "User not found.")
	}
	if err := s.store.UpdateUserRole(ctx, existing.ID, models.RoleSuperAdmin); err != nil {
		return models.User{}, false, mapStoreErr(err, "User not found.")
	}

	user, err := s.store.GetUser(ctx, existing.ID)
	if err != nil {
		return models.User{}, false, mapStoreErr(err, "User not found.")
	}
	s.audit(ctx, user, models.AuditPromoteSuperAdmin, "user", user.ID, models.AuditMetadata(map[string]any{"from": existing.Role}))
	return user, false, nil
}

// GeneratePassword returns a random password drawn from an unambiguous alphabet.
func GeneratePassword(length int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
