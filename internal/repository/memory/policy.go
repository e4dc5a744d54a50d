package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
)

// PolicyStore holds per-organization allocations.
type PolicyStore struct {
	mu       sync.RWMutex
	policies map[string][]leave.Allocation
}

var _ leave.PolicyProvider = (*PolicyStore)(nil)

func NewPolicyStore() *PolicyStore {
	return &PolicyStore{policies: make(map[string][]leave.Allocation)}
}

// SetAllocations replaces the organization's policy. An empty slice removes it.
func (s *PolicyStore) SetAllocations(organizationID string, allocations []leave.Allocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(allocations) == 0 {
		delete(s.policies, organizationID)
		return
	}
	s.policies[organizationID] = append([]leave.Allocation(nil), allocations...)
}

// GetAllocations implements leave.PolicyProvider.
func (s *PolicyStore) GetAllocations(_ context.Context, organizationID string) ([]leave.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]leave.Allocation(nil), s.policies[organizationID]...), nil
}
