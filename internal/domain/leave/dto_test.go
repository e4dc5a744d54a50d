package leave

import (
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLeaveRequest_Validate(t *testing.T) {
	t.Run("valid request parses dates", func(t *testing.T) {
		req := CreateLeaveRequest{EmployeeID: "e1", Type: TypeCasual, StartDate: "2025-03-03", EndDate: "2025-03-07"}
		require.NoError(t, req.Validate())

		start, end := req.Dates()
		assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), end)
	})

	long := strings.Repeat("x", 1001)
	tests := []struct {
		name  string
		req   CreateLeaveRequest
		field string
	}{
		{"missing employee", CreateLeaveRequest{Type: TypeSick, StartDate: "2025-03-03", EndDate: "2025-03-03"}, "employee_id"},
		{"missing type", CreateLeaveRequest{EmployeeID: "e1", StartDate: "2025-03-03", EndDate: "2025-03-03"}, "type"},
		{"bad start", CreateLeaveRequest{EmployeeID: "e1", Type: TypeSick, StartDate: "03/03/2025", EndDate: "2025-03-03"}, "start_date"},
		{"end before start", CreateLeaveRequest{EmployeeID: "e1", Type: TypeSick, StartDate: "2025-03-05", EndDate: "2025-03-03"}, "end_date"},
		{"reason too long", CreateLeaveRequest{EmployeeID: "e1", Type: TypeSick, StartDate: "2025-03-03", EndDate: "2025-03-03", Reason: &long}, "reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}
}

func TestListFilter_Validate(t *testing.T) {
	emp := "e1"
	bogus := Status("ARCHIVED")
	pending := StatusPending

	assert.NoError(t, ListFilter{}.Validate())
	assert.NoError(t, ListFilter{EmployeeID: &emp, Status: &pending}.Validate())
	assert.Error(t, ListFilter{EmployeeID: &emp, ExcludeEmployeeID: &emp}.Validate())
	assert.Error(t, ListFilter{Status: &bogus}.Validate())
}

func TestApply(t *testing.T) {
	approver := "u-hr"
	comments := "enjoy"
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r := LeaveRequest{ID: "l1", Status: StatusPending}
	got := r.Apply(Transition{Status: StatusApproved, ApprovedBy: &approver, ApproverComments: &comments}, at)

	assert.Equal(t, StatusApproved, got.Status)
	assert.Equal(t, &approver, got.ApprovedBy)
	assert.Equal(t, &comments, got.ApproverComments)
	assert.Nil(t, got.RejectedBy)
	assert.Equal(t, at, got.UpdatedAt)
	assert.Equal(t, StatusPending, r.Status, "receiver untouched")
}
