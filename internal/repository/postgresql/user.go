package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.Directory {
	return &userRepositoryImpl{db: db}
}

// GetByID implements user.Directory.
func (r *userRepositoryImpl) GetByID(ctx context.Context, userID string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, email, full_name, role
		FROM users
		WHERE id = $1
	`

	var u user.User
	var role string
	err := q.QueryRow(ctx, query, userID).Scan(&u.ID, &u.OrganizationID, &u.Email, &u.FullName, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	u.Role = user.Role(role)
	return u, nil
}

// GetRole implements user.Directory.
func (r *userRepositoryImpl) GetRole(ctx context.Context, userID string) (user.Role, error) {
	q := GetQuerier(ctx, r.db)

	var role string
	err := q.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", user.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get role of user %s: %w", userID, err)
	}
	return user.Role(role), nil
}

// FindUsersByRole implements user.Directory.
func (r *userRepositoryImpl) FindUsersByRole(ctx context.Context, organizationID string, roles []user.Role) ([]user.User, error) {
	if organizationID == "" {
		return nil, user.ErrOrganizationIDRequired
	}
	q := GetQuerier(ctx, r.db)

	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}

	query := `
		SELECT id, organization_id, email, full_name, role
		FROM users
		WHERE organization_id = $1 AND role = ANY($2)
		ORDER BY full_name
	`

	rows, err := q.Query(ctx, query, organizationID, roleNames)
	if err != nil {
		return nil, fmt.Errorf("failed to find users by role: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		var role string
		if err := rows.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.FullName, &role); err != nil {
			return nil, err
		}
		u.Role = user.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}
