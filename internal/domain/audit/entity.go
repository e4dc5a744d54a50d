package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
)

// ResourceLeaveRequest is the resource name used for leave request entries.
const ResourceLeaveRequest = "leave_request"

// Entry is an immutable record of one mutation. Before is nil for creations.
type Entry struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Action         Action    `json:"action"`
	Resource       string    `json:"resource"`
	ResourceID     string    `json:"resource_id"`
	RequestID      string    `json:"request_id,omitempty"`
	Before         any       `json:"before,omitempty"`
	After          any       `json:"after,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Emitter receives audit entries. Callers treat failures as best effort.
type Emitter interface {
	Record(ctx context.Context, entry Entry) error
}
