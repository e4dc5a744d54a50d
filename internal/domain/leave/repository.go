package leave

import (
	"context"
	"time"
)

// LeaveRequestRepository - interface for leave_requests storage.
// Every read excludes soft-deleted records.
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	// GetByID returns ErrLeaveNotFound when the record is missing, soft-deleted
	// or belongs to another organization.
	GetByID(ctx context.Context, organizationID, id string) (LeaveRequest, error)
	List(ctx context.Context, organizationID string, filter ListFilter, limit int) ([]LeaveRequest, error)
	// ListConsuming returns PENDING and APPROVED requests of the employee starting on or after since.
	ListConsuming(ctx context.Context, organizationID, employeeID string, since time.Time) ([]LeaveRequest, error)
	HasApprovedOverlap(ctx context.Context, organizationID, employeeID string, start, end time.Time) (bool, error)
	// UpdateIf applies t only if the record is still in the expected status and
	// returns the number of records matched (0 or 1).
	UpdateIf(ctx context.Context, organizationID, id string, expected Status, t Transition) (int64, error)
}

// PolicyProvider returns an organization's allocations. A nil or empty result
// means the organization has no policy of its own.
type PolicyProvider interface {
	GetAllocations(ctx context.Context, organizationID string) ([]Allocation, error)
}
