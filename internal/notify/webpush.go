package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"rolepush/internal/models"
)

// VAPIDConfig identifies this server to push services.
type VAPIDConfig struct {
	Subject    string
	PublicKey  string
	PrivateKey string
	TTL        int
}

// WebPushTransport sends encrypted payloads through the browser's push service.
type WebPushTransport struct {
	vapid  VAPIDConfig
	client webpush.HTTPClient
}

func NewWebPushTransport(vapid VAPIDConfig, client webpush.HTTPClient) *WebPushTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPushTransport{vapid: vapid, client: client}
}

func (t *WebPushTransport) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	s := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, s, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.vapid.Subject,
		VAPIDPublicKey:  t.vapid.PublicKey,
		VAPIDPrivateKey: t.vapid.PrivateKey,
		TTL:             t.vapid.TTL,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrSubscriptionGone, resp.StatusCode)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push service returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
