package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/audit"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/database"
	"github.com/google/uuid"
)

// AuditRepository persists audit entries into audit_events.
type AuditRepository struct {
	db *database.DB
}

var _ audit.Emitter = (*AuditRepository)(nil)

func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record implements audit.Emitter.
func (r *AuditRepository) Record(ctx context.Context, entry audit.Entry) error {
	var beforeJSON, afterJSON []byte
	if entry.Before != nil {
		payload, err := json.Marshal(entry.Before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if entry.After != nil {
		payload, err := json.Marshal(entry.After)
		if err != nil {
			return err
		}
		afterJSON = payload
	}

	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		entry.ID = id.String()
	}

	q := GetQuerier(ctx, r.db)
	_, err := q.Exec(ctx, `
		INSERT INTO audit_events (id, organization_id, actor_user_id, action, resource, resource_id, request_id, before_json, after_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()))
	`, entry.ID, entry.OrganizationID, entry.UserID, string(entry.Action), entry.Resource, entry.ResourceID,
		entry.RequestID, beforeJSON, afterJSON, nullTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// ListByResource returns the entries of one resource, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, organizationID, resource, resourceID string) ([]audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, organization_id, actor_user_id, action, resource, resource_id, request_id, before_json, after_json, created_at
		FROM audit_events
		WHERE organization_id = $1 AND resource = $2 AND resource_id = $3
		ORDER BY created_at, id
	`, organizationID, resource, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var action string
		var before, after []byte
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.UserID, &action, &e.Resource, &e.ResourceID, &e.RequestID, &before, &after, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = audit.Action(action)
		if before != nil {
			e.Before = json.RawMessage(before)
		}
		if after != nil {
			e.After = json.RawMessage(after)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
