package postgresql_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cmlabs-hris/leave-engine/internal/domain/audit"
	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewUserRepository(setup.DB)

	orgID := uuid.NewString()
	hr := uuid.NewString()
	admin := uuid.NewString()
	emp := uuid.NewString()
	require.NoError(t, setup.SeedUser(ctx, hr, orgID, "hr@example.com", "Hana", "hr_admin"))
	require.NoError(t, setup.SeedUser(ctx, admin, orgID, "root@example.com", "Rudi", "super_admin"))
	require.NoError(t, setup.SeedUser(ctx, emp, orgID, "ana@example.com", "Ana", "employee"))
	require.NoError(t, setup.SeedUser(ctx, uuid.NewString(), uuid.NewString(), "x@example.com", "Xavier", "hr_admin"))

	role, err := repo.GetRole(ctx, hr)
	require.NoError(t, err)
	assert.Equal(t, user.RoleHRAdmin, role)

	u, err := repo.GetByID(ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = repo.GetRole(ctx, uuid.NewString())
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	admins, err := repo.FindUsersByRole(ctx, orgID, user.AdminRoles)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, "Hana", admins[0].FullName)
	assert.Equal(t, "Rudi", admins[1].FullName)
}

func TestEmployeeRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(setup.DB)

	orgID := uuid.NewString()
	userID := uuid.NewString()
	empID := uuid.NewString()
	require.NoError(t, setup.SeedUser(ctx, userID, orgID, "ana@example.com", "Ana", "employee"))
	require.NoError(t, setup.SeedEmployee(ctx, empID, orgID, &userID, "Ana", "EMP-001"))

	got, err := repo.GetByUserID(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, empID, got.ID)

	_, err = repo.GetByUserID(ctx, uuid.NewString(), userID)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	summaries, err := repo.GetSummaries(ctx, orgID, []string{empID, uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, map[string]employee.Summary{
		empID: {ID: empID, FullName: "Ana", EmployeeCode: "EMP-001"},
	}, summaries)
}

func TestLeavePolicyRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewLeavePolicyRepository(setup.DB)

	orgID := uuid.NewString()
	require.NoError(t, setup.SeedPolicy(ctx, orgID, "sick", 14, 2))
	require.NoError(t, setup.SeedPolicy(ctx, orgID, "casual", 20, 1))

	got, err := repo.GetAllocations(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, []leave.Allocation{
		{LeaveType: leave.TypeCasual, TotalDays: 20},
		{LeaveType: leave.TypeSick, TotalDays: 14},
	}, got)

	none, err := repo.GetAllocations(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAuditRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAuditRepository(setup.DB)

	orgID := uuid.NewString()
	resourceID := uuid.NewString()
	actor := uuid.NewString()

	require.NoError(t, repo.Record(ctx, audit.Entry{
		OrganizationID: orgID,
		UserID:         actor,
		Action:         audit.ActionCreate,
		Resource:       audit.ResourceLeaveRequest,
		ResourceID:     resourceID,
		After:          map[string]any{"status": "PENDING"},
	}))
	require.NoError(t, repo.Record(ctx, audit.Entry{
		OrganizationID: orgID,
		UserID:         actor,
		Action:         audit.ActionUpdate,
		Resource:       audit.ResourceLeaveRequest,
		ResourceID:     resourceID,
		RequestID:      "req-1",
		Before:         map[string]any{"status": "PENDING"},
		After:          map[string]any{"status": "APPROVED"},
	}))

	entries, err := repo.ListByResource(ctx, orgID, audit.ResourceLeaveRequest, resourceID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Nil(t, entries[0].Before)
	assert.Equal(t, audit.ActionUpdate, entries[1].Action)
	assert.Equal(t, "req-1", entries[1].RequestID)
	assert.JSONEq(t, `{"status":"APPROVED"}`, string(entries[1].After.(json.RawMessage)))
}
