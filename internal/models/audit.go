package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID         int64     `json:"id" db:"id"`
	ActorID    int64     `json:"actor_id" db:"actor_id"`
	Action     string    `json:"action" db:"action"`
	TargetType string    `json:"target_type" db:"target_type"`
	TargetID   int64     `json:"target_id,omitempty" db:"target_id"`
	Metadata   string    `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Audit actions written after admin mutations and notification sends.
const (
	AuditCreateAdmin       = "create_admin"
	AuditDeleteAdmin       = "delete_admin"
	AuditDeleteUser        = "delete_user"
	AuditUpdateRole        = "update_role"
	AuditSendNotification  = "send_notification"
	AuditPromoteSuperAdmin = "promote_super_admin"
)

// AuditMetadata encodes details for the Metadata column.
func AuditMetadata(details map[string]any) string {
	b, err := json.Marshal(details)
	if err != nil {
		return "{}"
	}
	return string(b)
}
