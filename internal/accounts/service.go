// Package accounts implements registration, login, and the super admin
// operations over users and admins.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rolepush/internal/apierr"
	"rolepush/internal/auth"
	"rolepush/internal/models"
	"rolepush/internal/store"
)

const invalidCredentials = "The provided credentials are incorrect."

// ErrTwoFactorRequired is returned by Login when the account has 2FA enabled
// and no code was supplied.
var ErrTwoFactorRequired = errors.New("two-factor code required")

// Session is an authenticated login.
type Session struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	store      store.Store
	tokens     *auth.TokenManager
	revoker    auth.Revoker
	totpIssuer string
}

func NewService(st store.Store, tokens *auth.TokenManager, revoker auth.Revoker, totpIssuer string) *Service {
	return &Service{store: st, tokens: tokens, revoker: revoker, totpIssuer: totpIssuer}
}

func (s *Service) issue(user models.User) (Session, error) {
	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, apierr.Internal("Could not issue token", err)
	}
	return Session{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Authenticate resolves a bearer token to its user. Revoked tokens and
// tokens of deleted users are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, nil, apierr.Unauthenticated("Unauthenticated.")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.User{}, nil, apierr.Internal("Could not verify token", err)
	}
	if revoked {
		return models.User{}, nil, apierr.Unauthenticated("Unauthenticated.")
	}

	id, err := claims.UserID()
	if err != nil {
		return models.User{}, nil, apierr.Unauthenticated("Unauthenticated.")
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, nil, apierr.Unauthenticated("Unauthenticated.")
		}
		return models.User{}, nil, apierr.Internal("Could not load user", err)
	}
	return user, claims, nil
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a role=user account and logs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in); err != nil {
		return Session{}, err
	}

	user, err := s.createUser(ctx, in.Name, in.Email, in.Password, models.RoleUser)
	if err != nil {
		return Session{}, err
	}
	slog.Info("user registered", "email", user.Email, "user_id", user.ID)
	return s.issue(user)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code"`
}

// Login verifies credentials and, when enabled, the TOTP code.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in); err != nil {
		return Session{}, err
	}
	slog.Info("login attempt", "email", in.Email)

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("login failed: user not found", "email", in.Email)
			return Session{}, apierr.FieldError("email", invalidCredentials)
		}
		slog.Error("login error", "email", in.Email, "error", err)
		return Session{}, apierr.Internal("An error occurred during login", err)
	}

	if !user.CheckPassword(in.Password) {
		slog.Warn("login failed: invalid password", "email", in.Email)
		return Session{}, apierr.FieldError("email", invalidCredentials)
	}

	if user.TOTPEnabled {
		if in.Code == "" {
			return Session{}, ErrTwoFactorRequired
		}
		if !models.VerifyTOTPCode(user.TOTPSecret, in.Code) {
			slog.Warn("login failed: invalid 2fa code", "email", in.Email, "user_id", user.ID)
			return Session{}, apierr.FieldError("code", "The provided two factor code is invalid.")
		}
	}

	session, err := s.issue(user)
	if err != nil {
		return Session{}, err
	}
	slog.Info("login successful", "email", user.Email, "user_id", user.ID)
	return session, nil
}

// Logout revokes the token until it would have expired.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return nil
	}
	until := time.Now()
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revoker.Revoke(ctx, claims.ID, until); err != nil {
		return apierr.Internal("Could not revoke token", err)
	}
	return nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
}

func (s *Service) ChangePassword(ctx context.Context, user models.User, in ChangePasswordInput) error {
	if err := checkInput(in); err != nil {
		return err
	}
	if !user.CheckPassword(in.CurrentPassword) {
		return apierr.FieldError("current_password", "The current password is incorrect.")
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return apierr.Internal("Could not hash password", err)
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return mapStoreErr(err, "User not found.")
	}
	return nil
}

// Setup2FA returns a fresh enrollment. Nothing is stored until Enable2FA
// confirms a code generated from it.
func (s *Service) Setup2FA(_ context.Context, user models.User) (models.TOTPEnrollment, error) {
	enrollment, err := models.NewTOTPEnrollment(user.Email, s.totpIssuer)
	if err != nil {
		return models.TOTPEnrollment{}, apierr.Internal("Failed to generate secret", err)
	}
	return enrollment, nil
}

type Enable2FAInput struct {
	Secret string `json:"secret" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

func (s *Service) Enable2FA(ctx context.Context, user models.User, in Enable2FAInput) error {
	if err := checkInput(in); err != nil {
		return err
	}
	if !models.VerifyTOTPCode(in.Secret, in.Code) {
		return apierr.FieldError("code", "Invalid verification code.")
	}
	if err := s.store.UpdateUser2FA(ctx, user.ID, in.Secret, true); err != nil {
		return mapStoreErr(err, "User not found.")
	}
	slog.Info("2fa enabled", "user_id", user.ID)
	return nil
}

type Disable2FAInput struct {
	Code string `json:"code" validate:"required"`
}

func (s *Service) Disable2FA(ctx context.Context, user models.User, in Disable2FAInput) error {
	if err := checkInput(in); err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return apierr.FieldError("code", "Two factor authentication is not enabled.")
	}
	if !models.VerifyTOTPCode(user.TOTPSecret, in.Code) {
		return apierr.FieldError("code", "Invalid verification code.")
	}
	if err := s.store.UpdateUser2FA(ctx, user.ID, "", false); err != nil {
		return mapStoreErr(err, "User not found.")
	}
	slog.Info("2fa disabled", "user_id", user.ID)
	return nil
}

func (s *Service) createUser(ctx context.Context, name, email, password string, role models.Role) (models.User, error) {
	hash, err := models.HashPassword(password)
	if err != nil {
		return models.User{}, apierr.Internal("Could not hash password", err)
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return models.User{}, apierr.FieldError("email", "The email has already been taken.")
		}
		return models.User{}, apierr.Internal("Could not create user", err)
	}
	return user, nil
}

func (s *Service) audit(ctx context.Context, actor models.User, action, targetType string, targetID int64, metadata string) {
	entry := models.AuditLog{
		ActorID:    actor.ID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
	}
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		slog.Error("failed to write audit log", "action", action, "actor_id", actor.ID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapStoreErr(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFound(notFound)
	}
	return apierr.Internal("Server error", fmt.Errorf("store: %w", err))
}
