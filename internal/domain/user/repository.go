package user

import (
	"context"
)

// Directory resolves users and their roles.
type Directory interface {
	GetByID(ctx context.Context, userID string) (User, error)
	GetRole(ctx context.Context, userID string) (Role, error)
	FindUsersByRole(ctx context.Context, organizationID string, roles []Role) ([]User, error)
}
