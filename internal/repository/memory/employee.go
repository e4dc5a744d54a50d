package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
)

type EmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]employee.Employee
}

var _ employee.EmployeeRepository = (*EmployeeStore)(nil)

func NewEmployeeStore(employees ...employee.Employee) *EmployeeStore {
	s := &EmployeeStore{employees: make(map[string]employee.Employee, len(employees))}
	for _, e := range employees {
		s.employees[e.ID] = e
	}
	return s
}

// Put adds or replaces an employee.
func (s *EmployeeStore) Put(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

// GetByUserID implements employee.EmployeeRepository.
func (s *EmployeeStore) GetByUserID(_ context.Context, organizationID, userID string) (employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.employees {
		if e.IsDeleted || e.OrganizationID != organizationID || e.UserID == nil {
			continue
		}
		if *e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

// GetByID implements employee.EmployeeRepository.
func (s *EmployeeStore) GetByID(_ context.Context, organizationID, id string) (employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok || e.IsDeleted || e.OrganizationID != organizationID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// GetSummaries implements employee.EmployeeRepository.
func (s *EmployeeStore) GetSummaries(_ context.Context, organizationID string, ids []string) (map[string]employee.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]employee.Summary, len(ids))
	for _, id := range ids {
		e, ok := s.employees[id]
		if !ok || e.IsDeleted || e.OrganizationID != organizationID {
			continue
		}
		out[id] = e.Summary()
	}
	return out, nil
}
