// Package memory provides in-process implementations of the engine's stores,
// used by STORE_TYPE=memory and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/google/uuid"
)

type leaveRecord struct {
	seq     uint64
	request leave.LeaveRequest
}

// LeaveRequestStore keeps leave requests in a map guarded by a mutex.
type LeaveRequestStore struct {
	mu      sync.RWMutex
	records map[string]*leaveRecord
	seq     uint64
}

var _ leave.LeaveRequestRepository = (*LeaveRequestStore)(nil)

func NewLeaveRequestStore() *LeaveRequestStore {
	return &LeaveRequestStore{records: make(map[string]*leaveRecord)}
}

// Create implements leave.LeaveRequestRepository.
func (s *LeaveRequestStore) Create(_ context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	if request.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return leave.LeaveRequest{}, err
		}
		request.ID = id.String()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	request.UpdatedAt = request.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[request.ID]; exists {
		return leave.LeaveRequest{}, fmt.Errorf("leave request %s already exists", request.ID)
	}
	s.seq++
	s.records[request.ID] = &leaveRecord{seq: s.seq, request: request}
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (s *LeaveRequestStore) GetByID(_ context.Context, organizationID, id string) (leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.visible(organizationID, id)
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveNotFound
	}
	return rec.request, nil
}

func (s *LeaveRequestStore) visible(organizationID, id string) (*leaveRecord, bool) {
	rec, ok := s.records[id]
	if !ok || rec.request.IsDeleted || rec.request.OrganizationID != organizationID {
		return nil, false
	}
	return rec, true
}

// List implements leave.LeaveRequestRepository. Newest first.
func (s *LeaveRequestStore) List(_ context.Context, organizationID string, filter leave.ListFilter, limit int) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	matched := make([]*leaveRecord, 0)
	for _, rec := range s.records {
		r := rec.request
		if r.IsDeleted || r.OrganizationID != organizationID {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.ExcludeEmployeeID != nil && r.EmployeeID == *filter.ExcludeEmployeeID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].request, matched[j].request
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]leave.LeaveRequest, len(matched))
	for i, rec := range matched {
		out[i] = rec.request
	}
	return out, nil
}

// ListConsuming implements leave.LeaveRequestRepository.
func (s *LeaveRequestStore) ListConsuming(_ context.Context, organizationID, employeeID string, since time.Time) ([]leave.LeaveRequest, error) {
	since = leave.DateOnly(since)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.LeaveRequest
	for _, rec := range s.records {
		r := rec.request
		if r.IsDeleted || r.OrganizationID != organizationID || r.EmployeeID != employeeID {
			continue
		}
		if !r.Status.ConsumesBalance() || r.StartDate.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// HasApprovedOverlap implements leave.LeaveRequestRepository.
func (s *LeaveRequestStore) HasApprovedOverlap(_ context.Context, organizationID, employeeID string, start, end time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		r := rec.request
		if r.IsDeleted || r.OrganizationID != organizationID || r.EmployeeID != employeeID {
			continue
		}
		if r.Status == leave.StatusApproved && leave.Overlaps(start, end, r.StartDate, r.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

// UpdateIf implements leave.LeaveRequestRepository as a compare-and-swap under the store lock.
func (s *LeaveRequestStore) UpdateIf(_ context.Context, organizationID, id string, expected leave.Status, t leave.Transition) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.visible(organizationID, id)
	if !ok || rec.request.Status != expected {
		return 0, nil
	}
	rec.request = rec.request.Apply(t, time.Now().UTC())
	return 1, nil
}

// SoftDelete flags a request as deleted. Deleted requests are invisible to every read.
func (s *LeaveRequestStore) SoftDelete(_ context.Context, organizationID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.visible(organizationID, id)
	if !ok {
		return leave.ErrLeaveNotFound
	}
	rec.request.IsDeleted = true
	rec.request.UpdatedAt = time.Now().UTC()
	return nil
}
