package notify

import (
	"context"
	"errors"
	"fmt"

	"rolepush/internal/models"
	"rolepush/internal/store"
)

// ErrUnknownRecipient is returned for a single-user selector whose user does not exist.
var ErrUnknownRecipient = errors.New("recipient not found")

// Source is the read side the resolver needs.
type Source interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsersByRole(ctx context.Context, roles ...models.Role) ([]models.User, error)
	ListPushSubscriptionsByUsers(ctx context.Context, userIDs []int64) ([]models.PushSubscription, error)
}

// Delivery is one (recipient, device) pair.
type Delivery struct {
	User         models.User
	Subscription models.PushSubscription
}

type Resolver struct {
	source Source
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Recipients loads the users a selector targets.
func (r *Resolver) Recipients(ctx context.Context, sel Selector) ([]models.User, error) {
	switch sel.Kind() {
	case KindSingleUser:
		user, err := r.source.GetUser(ctx, sel.UserID())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrUnknownRecipient
			}
			return nil, fmt.Errorf("load recipient: %w", err)
		}
		return []models.User{user}, nil
	case KindAllUsers:
		return r.source.ListUsersByRole(ctx, models.RoleUser)
	case KindAllAdmins:
		return r.source.ListUsersByRole(ctx, models.AdminRoles()...)
	default:
		return nil, fmt.Errorf("unknown selector %s", sel)
	}
}

// Resolve returns the recipients and one delivery per subscription they own.
func (r *Resolver) Resolve(ctx context.Context, sel Selector) ([]models.User, []Delivery, error) {
	recipients, err := r.Recipients(ctx, sel)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, len(recipients))
	for _, u := range recipients {
		ids = append(ids, u.ID)
	}
	subs, err := r.source.ListPushSubscriptionsByUsers(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return recipients, Pair(recipients, subs), nil
}

// Pair matches subscriptions to recipients in recipient order. Subscriptions
// keep their input order within a recipient; those owned by nobody in
// recipients are dropped.
func Pair(recipients []models.User, subs []models.PushSubscription) []Delivery {
	byUser := make(map[int64][]models.PushSubscription, len(recipients))
	for _, s := range subs {
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}

	var out []Delivery
	for _, u := range recipients {
		for _, s := range byUser[u.ID] {
			out = append(out, Delivery{User: u, Subscription: s})
		}
		// a recipient listed twice must not be sent to twice
		delete(byUser, u.ID)
	}
	return out
}
