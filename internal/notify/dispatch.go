package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rolepush/internal/metrics"
	"rolepush/internal/models"
)

// ErrSubscriptionGone marks an endpoint the push service no longer accepts (404/410).
var ErrSubscriptionGone = errors.New("push subscription gone")

// Transport delivers one encoded payload to one subscription.
type Transport interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// Pruner removes subscriptions reported gone.
type Pruner interface {
	DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// Recorder receives send outcomes, typically prometheus counters.
type Recorder interface {
	PushSent(result string)
	NotificationSent(selector string)
}

type nopRecorder struct{}

func (nopRecorder) PushSent(string)         {}
func (nopRecorder) NotificationSent(string) {}

// Result summarizes a fan-out. Devices counts attempted sends, not confirmed
// deliveries.
type Result struct {
	Recipients int `json:"recipients"`
	Devices    int `json:"devices"`
	Failed     int `json:"failed"`
}

type Dispatcher struct {
	resolver  *Resolver
	pruner    Pruner
	transport Transport
	recorder  Recorder
}

func NewDispatcher(resolver *Resolver, pruner Pruner, transport Transport, recorder Recorder) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Dispatcher{resolver: resolver, pruner: pruner, transport: transport, recorder: recorder}
}

// Send resolves the selector and pushes the payload to every device
// sequentially. Individual send failures are logged and counted; they never
// abort the batch.
func (d *Dispatcher) Send(ctx context.Context, sel Selector, payload models.Payload) (Result, error) {
	recipients, deliveries, err := d.resolver.Resolve(ctx, sel)
	if err != nil {
		return Result{}, err
	}

	body, err := payload.Encode()
	if err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}

	res := Result{Recipients: len(recipients)}
	for _, dl := range deliveries {
		res.Devices++
		err := d.transport.Send(ctx, dl.Subscription, body)
		switch {
		case err == nil:
			d.recorder.PushSent(metrics.ResultSent)
		case errors.Is(err, ErrSubscriptionGone):
			res.Failed++
			d.recorder.PushSent(metrics.ResultGone)
			slog.Info("pruning expired push subscription", "user_id", dl.User.ID, "subscription_id", dl.Subscription.ID)
			if err := d.pruner.DeletePushSubscriptionByEndpoint(ctx, dl.Subscription.Endpoint); err != nil {
				slog.Error("failed to prune push subscription", "subscription_id", dl.Subscription.ID, "error", err)
			}
		default:
			res.Failed++
			d.recorder.PushSent(metrics.ResultFailed)
			slog.Warn("push send failed", "user_id", dl.User.ID, "subscription_id", dl.Subscription.ID, "error", err)
		}
	}

	d.recorder.NotificationSent(sel.String())
	return res, nil
}
