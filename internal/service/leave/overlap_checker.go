package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
)

// OverlapChecker tests a date range against an employee's APPROVED requests.
// Pending requests never block each other.
type OverlapChecker struct {
	requests leave.LeaveRequestRepository
}

func NewOverlapChecker(requests leave.LeaveRequestRepository) *OverlapChecker {
	return &OverlapChecker{requests: requests}
}

func (c *OverlapChecker) HasApprovedOverlap(ctx context.Context, organizationID, employeeID string, start, end time.Time) (bool, error) {
	overlap, err := c.requests.HasApprovedOverlap(ctx, organizationID, employeeID, leave.DateOnly(start), leave.DateOnly(end))
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping leave requests: %w", err)
	}
	return overlap, nil
}
