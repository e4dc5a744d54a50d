package leave

import (
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/validator"
)

// MaxListResults caps every list query.
const MaxListResults = 100

type CreateLeaveRequest struct {
	EmployeeID string  `json:"employee_id"`
	Type       Type    `json:"type"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Reason     *string `json:"reason,omitempty"`

	startDate time.Time
	endDate   time.Time
}

// Validate checks the request and parses its dates.
func (r *CreateLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(string(r.Type)) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && start.After(end) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if r.Reason != nil && len(*r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.startDate = DateOnly(start)
	r.endDate = DateOnly(end)
	return nil
}

// Dates returns the parsed range. Only meaningful after a successful Validate.
func (r *CreateLeaveRequest) Dates() (time.Time, time.Time) {
	return r.startDate, r.endDate
}

// ListFilter narrows a list query. EmployeeID and ExcludeEmployeeID are exclusive.
type ListFilter struct {
	EmployeeID        *string
	Status            *Status
	ExcludeEmployeeID *string
}

func (f ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.EmployeeID != nil && f.ExcludeEmployeeID != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "exclude_employee_id",
			Message: "employee_id and exclude_employee_id cannot be combined",
		})
	}

	if f.Status != nil && !f.Status.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of PENDING, APPROVED, REJECTED, CANCELLED",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DecisionRequest is the body of approve and reject.
type DecisionRequest struct {
	Comments *string `json:"comments,omitempty"`
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// LeaveRequestResponse is a leave request enriched for display.
type LeaveRequestResponse struct {
	ID               string            `json:"id"`
	OrganizationID   string            `json:"organization_id"`
	EmployeeID       string            `json:"employee_id"`
	Employee         *employee.Summary `json:"employee,omitempty"`
	Type             Type              `json:"type"`
	StartDate        string            `json:"start_date"`
	EndDate          string            `json:"end_date"`
	Days             int               `json:"days"`
	Status           Status            `json:"status"`
	Reason           *string           `json:"reason,omitempty"`
	ApproverComments *string           `json:"approver_comments,omitempty"`
	RequestedBy      string            `json:"requested_by"`
	ApprovedBy       *string           `json:"approved_by,omitempty"`
	RejectedBy       *string           `json:"rejected_by,omitempty"`
	CancelledBy      *string           `json:"cancelled_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ToResponse maps the entity for display; emp may be nil.
func (r LeaveRequest) ToResponse(emp *employee.Summary) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:               r.ID,
		OrganizationID:   r.OrganizationID,
		EmployeeID:       r.EmployeeID,
		Employee:         emp,
		Type:             r.Type,
		StartDate:        r.StartDate.Format(validator.DateLayout),
		EndDate:          r.EndDate.Format(validator.DateLayout),
		Days:             r.Days,
		Status:           r.Status,
		Reason:           r.Reason,
		ApproverComments: r.ApproverComments,
		RequestedBy:      r.RequestedBy,
		ApprovedBy:       r.ApprovedBy,
		RejectedBy:       r.RejectedBy,
		CancelledBy:      r.CancelledBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
