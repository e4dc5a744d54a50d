package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/database"
)

type leavePolicyRepositoryImpl struct {
	db *database.DB
}

func NewLeavePolicyRepository(db *database.DB) leave.PolicyProvider {
	return &leavePolicyRepositoryImpl{db: db}
}

// GetAllocations implements leave.PolicyProvider.
func (r *leavePolicyRepositoryImpl) GetAllocations(ctx context.Context, organizationID string) ([]leave.Allocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT leave_type, total_days
		FROM leave_policies
		WHERE organization_id = $1
		ORDER BY sort_order, leave_type
	`

	rows, err := q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave policies: %w", err)
	}
	defer rows.Close()

	var allocations []leave.Allocation
	for rows.Next() {
		var leaveType string
		var a leave.Allocation
		if err := rows.Scan(&leaveType, &a.TotalDays); err != nil {
			return nil, err
		}
		a.LeaveType = leave.Type(leaveType)
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
