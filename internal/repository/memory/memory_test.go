package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/audit"
	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, s *LeaveRequestStore, org, emp string, start, end time.Time, status leave.Status, createdAt time.Time) leave.LeaveRequest {
	t.Helper()
	r, err := s.Create(context.Background(), leave.LeaveRequest{
		OrganizationID: org,
		EmployeeID:     emp,
		Type:           leave.TypeCasual,
		StartDate:      start,
		EndDate:        end,
		Days:           leave.ComputeDays(start, end),
		Status:         status,
		RequestedBy:    "user-" + emp,
		CreatedAt:      createdAt,
	})
	require.NoError(t, err)
	return r
}

func TestLeaveRequestStore_CreateAssignsID(t *testing.T) {
	s := NewLeaveRequestStore()
	r := seed(t, s, "org", "emp", date(2025, 1, 6), date(2025, 1, 6), leave.StatusPending, time.Time{})

	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	_, err := s.Create(context.Background(), r)
	assert.Error(t, err, "duplicate id")
}

func TestLeaveRequestStore_GetByIDScopesOrganization(t *testing.T) {
	s := NewLeaveRequestStore()
	ctx := context.Background()
	r := seed(t, s, "org-a", "emp", date(2025, 1, 6), date(2025, 1, 6), leave.StatusPending, time.Time{})

	_, err := s.GetByID(ctx, "org-a", r.ID)
	require.NoError(t, err)

	_, err = s.GetByID(ctx, "org-b", r.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveNotFound)

	require.NoError(t, s.SoftDelete(ctx, "org-a", r.ID))
	_, err = s.GetByID(ctx, "org-a", r.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveNotFound)
	assert.ErrorIs(t, s.SoftDelete(ctx, "org-a", r.ID), leave.ErrLeaveNotFound)
}

func TestLeaveRequestStore_List(t *testing.T) {
	s := NewLeaveRequestStore()
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	a := seed(t, s, "org", "emp-1", date(2025, 3, 3), date(2025, 3, 3), leave.StatusPending, base)
	b := seed(t, s, "org", "emp-2", date(2025, 3, 4), date(2025, 3, 4), leave.StatusApproved, base.Add(time.Minute))
	c := seed(t, s, "org", "emp-1", date(2025, 3, 5), date(2025, 3, 5), leave.StatusPending, base.Add(time.Minute))
	seed(t, s, "other", "emp-1", date(2025, 3, 5), date(2025, 3, 5), leave.StatusPending, base)

	all, err := s.List(ctx, "org", leave.ListFilter{}, leave.MaxListResults)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(all), "newest first, later inserts win ties")

	emp := "emp-1"
	own, err := s.List(ctx, "org", leave.ListFilter{EmployeeID: &emp}, leave.MaxListResults)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, ids(own))

	others, err := s.List(ctx, "org", leave.ListFilter{ExcludeEmployeeID: &emp}, leave.MaxListResults)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(others))

	approved := leave.StatusApproved
	onlyApproved, err := s.List(ctx, "org", leave.ListFilter{Status: &approved}, leave.MaxListResults)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(onlyApproved))

	limited, err := s.List(ctx, "org", leave.ListFilter{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLeaveRequestStore_ListConsumingAndOverlap(t *testing.T) {
	s := NewLeaveRequestStore()
	ctx := context.Background()

	seed(t, s, "org", "emp", date(2024, 12, 30), date(2025, 1, 2), leave.StatusApproved, time.Time{})
	p := seed(t, s, "org", "emp", date(2025, 2, 3), date(2025, 2, 4), leave.StatusPending, time.Time{})
	a := seed(t, s, "org", "emp", date(2025, 3, 10), date(2025, 3, 12), leave.StatusApproved, time.Time{})
	seed(t, s, "org", "emp", date(2025, 4, 1), date(2025, 4, 1), leave.StatusRejected, time.Time{})
	seed(t, s, "org", "emp", date(2025, 5, 1), date(2025, 5, 1), leave.StatusCancelled, time.Time{})

	consuming, err := s.ListConsuming(ctx, "org", "emp", date(2025, 1, 1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{p.ID, a.ID}, ids(consuming))

	overlap, err := s.HasApprovedOverlap(ctx, "org", "emp", date(2025, 3, 12), date(2025, 3, 14))
	require.NoError(t, err)
	assert.True(t, overlap)

	overlap, err = s.HasApprovedOverlap(ctx, "org", "emp", date(2025, 2, 3), date(2025, 2, 4))
	require.NoError(t, err)
	assert.False(t, overlap, "pending requests never block")

	overlap, err = s.HasApprovedOverlap(ctx, "org", "other-emp", date(2025, 3, 10), date(2025, 3, 12))
	require.NoError(t, err)
	assert.False(t, overlap)
}

func TestLeaveRequestStore_UpdateIfCompareAndSwap(t *testing.T) {
	s := NewLeaveRequestStore()
	ctx := context.Background()
	r := seed(t, s, "org", "emp", date(2025, 3, 3), date(2025, 3, 3), leave.StatusPending, time.Time{})

	const racers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	var matched int64
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			approver := fmt.Sprintf("approver-%d", i)
			n, err := s.UpdateIf(ctx, "org", r.ID, leave.StatusPending, leave.Transition{
				Status:     leave.StatusApproved,
				ApprovedBy: &approver,
			})
			assert.NoError(t, err)
			mu.Lock()
			matched += n
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, matched)

	got, err := s.GetByID(ctx, "org", r.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.NotNil(t, got.ApprovedBy)

	n, err := s.UpdateIf(ctx, "other", r.ID, leave.StatusApproved, leave.Transition{Status: leave.StatusCancelled})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPolicyStore(t *testing.T) {
	s := NewPolicyStore()
	ctx := context.Background()

	got, err := s.GetAllocations(ctx, "org")
	require.NoError(t, err)
	assert.Empty(t, got)

	s.SetAllocations("org", []leave.Allocation{{LeaveType: leave.TypeSick, TotalDays: 3}})
	got, err = s.GetAllocations(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, []leave.Allocation{{LeaveType: leave.TypeSick, TotalDays: 3}}, got)

	got[0].TotalDays = 99
	again, _ := s.GetAllocations(ctx, "org")
	assert.Equal(t, 3, again[0].TotalDays, "callers get a copy")
}

func TestUserStore(t *testing.T) {
	s := NewUserStore(
		user.User{ID: "u1", OrganizationID: "org", FullName: "Zed", Role: user.RoleSuperAdmin},
		user.User{ID: "u2", OrganizationID: "org", FullName: "Ana", Role: user.RoleHRAdmin},
		user.User{ID: "u3", OrganizationID: "org", FullName: "Bob", Role: user.RoleEmployee},
		user.User{ID: "u4", OrganizationID: "other", FullName: "Cy", Role: user.RoleHRAdmin},
	)
	ctx := context.Background()

	role, err := s.GetRole(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, user.RoleEmployee, role)

	_, err = s.GetRole(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	admins, err := s.FindUsersByRole(ctx, "org", user.AdminRoles)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, "u2", admins[0].ID)
	assert.Equal(t, "u1", admins[1].ID)

	_, err = s.FindUsersByRole(ctx, "", user.AdminRoles)
	assert.ErrorIs(t, err, user.ErrOrganizationIDRequired)
}

func TestEmployeeStore(t *testing.T) {
	uid := "user-1"
	s := NewEmployeeStore(
		employee.Employee{ID: "e1", OrganizationID: "org", UserID: &uid, FullName: "Ana", EmployeeCode: "E1"},
		employee.Employee{ID: "e2", OrganizationID: "org", FullName: "Gone", EmployeeCode: "E2", IsDeleted: true},
	)
	ctx := context.Background()

	e, err := s.GetByUserID(ctx, "org", uid)
	require.NoError(t, err)
	assert.Equal(t, "e1", e.ID)

	_, err = s.GetByUserID(ctx, "other", uid)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = s.GetByID(ctx, "org", "e2")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	summaries, err := s.GetSummaries(ctx, "org", []string{"e1", "e2", "e3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]employee.Summary{"e1": {ID: "e1", FullName: "Ana", EmployeeCode: "E1"}}, summaries)
}

func TestAuditLog_IsBounded(t *testing.T) {
	l := NewAuditLog(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record(ctx, audit.Entry{
			Action:     audit.ActionUpdate,
			Resource:   audit.ResourceLeaveRequest,
			ResourceID: fmt.Sprintf("r%d", i),
		}))
	}

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "r2", entries[0].ResourceID)
	assert.Equal(t, "r4", entries[2].ResourceID)
	assert.NotEmpty(t, entries[0].ID)

	assert.Len(t, l.ForResource(audit.ResourceLeaveRequest, "r3"), 1)
	assert.Empty(t, l.ForResource(audit.ResourceLeaveRequest, "r0"))
}

func TestAuditLog_RespectsCancelledContext(t *testing.T) {
	l := NewAuditLog(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Record(ctx, audit.Entry{}), context.Canceled)
	assert.Empty(t, l.Entries())
}

func ids(requests []leave.LeaveRequest) []string {
	out := make([]string, len(requests))
	for i, r := range requests {
		out[i] = r.ID
	}
	return out
}
