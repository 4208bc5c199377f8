package store

import (
	"context"
	"fmt"

	"rolepush/internal/models"
)

// InsertAudit appends an entry; CreatedAt defaults to now.
func (s *SQLStore) InsertAudit(ctx context.Context, entry models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.Metadata == "" {
		entry.Metadata = "{}"
	}
	query := s.db.Rebind(`INSERT INTO audit_logs (actor_id, action, target_type, target_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		entry.ActorID, entry.Action, entry.TargetType, entry.TargetID, entry.Metadata, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	entries := []models.AuditLog{}
	query := s.db.Rebind(`SELECT id, actor_id, action, target_type, target_id, metadata, created_at
		FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	return entries, nil
}
