package store

import (
	"context"
	"errors"

	"rolepush/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore handles account persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersByRole(ctx context.Context, roles ...models.Role) ([]models.User, error)
	UpdateUserRole(ctx context.Context, id int64, role models.Role) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUser2FA(ctx context.Context, id int64, secret string, enabled bool) error
	// DeleteUser removes the user and its push subscriptions atomically.
	DeleteUser(ctx context.Context, id int64) error
}

// PushStore handles push subscription bookkeeping.
type PushStore interface {
	// UpsertPushSubscription inserts or, when the endpoint is already known,
	// updates keys and owner in place.
	UpsertPushSubscription(ctx context.Context, sub models.PushSubscription) (models.PushSubscription, error)
	// DeletePushSubscription removes the user's subscription for endpoint. A
	// missing row is not an error.
	DeletePushSubscription(ctx context.Context, userID int64, endpoint string) error
	DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error
	ListPushSubscriptionsByUsers(ctx context.Context, userIDs []int64) ([]models.PushSubscription, error)
	ListSubscribers(ctx context.Context) ([]models.SubscriberRecord, error)
}

// AuditStore records administrative actions.
type AuditStore interface {
	InsertAudit(ctx context.Context, entry models.AuditLog) error
	ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type Store interface {
	UserStore
	PushStore
	AuditStore
	Close() error
}
