// Package notify resolves notification recipients, fans payloads out to
// their web push subscriptions and keeps the subscription table current.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"rolepush/internal/apierr"
	"rolepush/internal/auth"
	"rolepush/internal/models"
	"rolepush/internal/store"
	"rolepush/internal/validate"
)

type Service struct {
	store      store.Store
	dispatcher *Dispatcher
}

func NewService(st store.Store, dispatcher *Dispatcher) *Service {
	return &Service{store: st, dispatcher: dispatcher}
}

// SubscribeInput mirrors the browser's PushSubscription.toJSON().
type SubscribeInput struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=2048"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

// Subscribe stores the caller's subscription, updating it in place when the
// endpoint is already known.
func (s *Service) Subscribe(ctx context.Context, user models.User, in SubscribeInput) (models.PushSubscription, error) {
	if err := validate.Struct(in); err != nil {
		return models.PushSubscription{}, err
	}

	sub, err := s.store.UpsertPushSubscription(ctx, models.PushSubscription{
		UserID:   user.ID,
		Endpoint: in.Endpoint,
		P256dh:   in.Keys.P256dh,
		Auth:     in.Keys.Auth,
	})
	if err != nil {
		return models.PushSubscription{}, apierr.Internal("Failed to save subscription", err)
	}
	slog.Info("push subscription saved", "user_id", user.ID, "subscription_id", sub.ID)
	return sub, nil
}

type UnsubscribeInput struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// Unsubscribe removes the caller's subscription. Unknown endpoints are not an error.
func (s *Service) Unsubscribe(ctx context.Context, user models.User, in UnsubscribeInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if err := s.store.DeletePushSubscription(ctx, user.ID, in.Endpoint); err != nil {
		return apierr.Internal("Failed to remove subscription", err)
	}
	return nil
}

func (s *Service) Subscribers(ctx context.Context, actor models.User) ([]models.SubscriberRecord, error) {
	if err := auth.Require(actor, auth.CanSendNotifications); err != nil {
		return nil, err
	}
	records, err := s.store.ListSubscribers(ctx)
	if err != nil {
		return nil, apierr.Internal("Could not list subscribers", err)
	}
	return records, nil
}

type SendInput struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required"`
	URL   string `json:"url" validate:"omitempty,url"`
}

// Send pushes the notification to every device of the selected recipients.
func (s *Service) Send(ctx context.Context, actor models.User, sel Selector, in SendInput) (Result, error) {
	if err := auth.Require(actor, auth.CanSendNotifications); err != nil {
		return Result{}, err
	}
	if err := validate.Struct(in); err != nil {
		return Result{}, err
	}

	res, err := s.dispatcher.Send(ctx, sel, models.Payload{Title: in.Title, Body: in.Body, URL: in.URL})
	if err != nil {
		if errors.Is(err, ErrUnknownRecipient) {
			return Result{}, apierr.NotFound("User not found.")
		}
		return Result{}, apierr.Internal("Failed to send notification", err)
	}

	entry := models.AuditLog{
		ActorID:    actor.ID,
		Action:     models.AuditSendNotification,
		TargetType: sel.String(),
		TargetID:   sel.UserID(),
		Metadata:   models.AuditMetadata(map[string]any{
			"title":      in.Title,
			"recipients": res.Recipients,
			"devices":    res.Devices,
			"failed":     res.Failed,
		}),
	}
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		slog.Error("failed to write audit log", "action", entry.Action, "actor_id", actor.ID, "error", err)
	}
	slog.Info("notification sent", "actor_id", actor.ID, "selector", sel.String(),
		"recipients", res.Recipients, "devices", res.Devices, "failed", res.Failed)
	return res, nil
}
