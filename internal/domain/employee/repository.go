package employee

import "context"

type EmployeeRepository interface {
	// GetByUserID returns ErrEmployeeNotFound when the user has no profile in the organization.
	GetByUserID(ctx context.Context, organizationID, userID string) (Employee, error)
	GetByID(ctx context.Context, organizationID, id string) (Employee, error)
	// GetSummaries returns the identity of every known, non-deleted employee in ids keyed by employee ID.
	GetSummaries(ctx context.Context, organizationID string, ids []string) (map[string]Summary, error)
}
