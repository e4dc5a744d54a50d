package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
)

// BalanceCalculator derives balances from allocations and the requests filed this year.
type BalanceCalculator struct {
	policies leave.PolicyProvider
	requests leave.LeaveRequestRepository
	now      func() time.Time
}

func NewBalanceCalculator(policies leave.PolicyProvider, requests leave.LeaveRequestRepository, now func() time.Time) *BalanceCalculator {
	if now == nil {
		now = time.Now
	}
	return &BalanceCalculator{
		policies: policies,
		requests: requests,
		now:      now,
	}
}

// Allocations returns the organization's policy, or the default set when it has none.
func (c *BalanceCalculator) Allocations(ctx context.Context, organizationID string) ([]leave.Allocation, error) {
	allocations, err := c.policies.GetAllocations(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave policy: %w", err)
	}
	if len(allocations) == 0 {
		return leave.DefaultAllocations(), nil
	}
	return allocations, nil
}

// GetBalances returns one balance per allocation, in allocation order.
func (c *BalanceCalculator) GetBalances(ctx context.Context, organizationID, employeeID string) ([]leave.Balance, error) {
	allocations, err := c.Allocations(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return c.Compute(ctx, organizationID, employeeID, allocations)
}

// Compute sums the PENDING and APPROVED days filed since January 1st against allocations.
// Usage of types without an allocation is ignored.
func (c *BalanceCalculator) Compute(ctx context.Context, organizationID, employeeID string, allocations []leave.Allocation) ([]leave.Balance, error) {
	consuming, err := c.requests.ListConsuming(ctx, organizationID, employeeID, leave.YearStart(c.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to list leave usage: %w", err)
	}

	used := make(map[leave.Type]int, len(allocations))
	for _, r := range consuming {
		used[r.Type] += r.Days
	}

	balances := make([]leave.Balance, 0, len(allocations))
	for _, a := range allocations {
		available := a.TotalDays - used[a.LeaveType]
		if available < 0 {
			available = 0
		}
		balances = append(balances, leave.Balance{
			LeaveType: a.LeaveType,
			Total:     a.TotalDays,
			Used:      used[a.LeaveType],
			Available: available,
		})
	}
	return balances, nil
}
