package models

import (
	"encoding/json"
	"time"
)

type PushSubscription struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	P256dh    string    `json:"keys_p256dh" db:"p256dh"` // Mapped from keys.p256dh
	Auth      string    `json:"keys_auth" db:"auth"`     // Mapped from keys.auth
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SubscriberRecord is a push subscription together with its owner.
type SubscriberRecord struct {
	ID           int64     `json:"id"`
	User         User      `json:"user"`
	Endpoint     string    `json:"endpoint"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// Payload is the notification content delivered to every resolved device.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Encode returns the JSON document the service worker parses on push.
func (p Payload) Encode() ([]byte, error) {
	out := p
	if out.URL == "" {
		out.URL = "/"
	}
	return json.Marshal(out)
}
