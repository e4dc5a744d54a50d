package leave

import (
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
)

// Type is a leave-type code. The built-in codes are listed below; organizations
// may define their own codes through their policy allocations.
type Type string

const (
	TypeCasual Type = "casual"
	TypeSick   Type = "sick"
	TypeEarned Type = "earned"
	TypeUnpaid Type = "unpaid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ConsumesBalance reports whether requests in this status count against a balance.
func (s Status) ConsumesBalance() bool {
	return s == StatusPending || s == StatusApproved
}

// LeaveRequest entity
type LeaveRequest struct {
	ID             string
	OrganizationID string
	EmployeeID     string

	Type      Type
	StartDate time.Time
	EndDate   time.Time
	Days      int

	Reason           *string
	ApproverComments *string

	Status      Status
	RequestedBy string
	ApprovedBy  *string
	RejectedBy  *string
	CancelledBy *string

	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transition is the set of fields a state change writes.
type Transition struct {
	Status           Status
	ApproverComments *string
	ApprovedBy       *string
	RejectedBy       *string
	CancelledBy      *string
}

// Apply returns a copy of r with the transition applied.
func (r LeaveRequest) Apply(t Transition, at time.Time) LeaveRequest {
	r.Status = t.Status
	r.ApproverComments = t.ApproverComments
	if t.ApprovedBy != nil {
		r.ApprovedBy = t.ApprovedBy
	}
	if t.RejectedBy != nil {
		r.RejectedBy = t.RejectedBy
	}
	if t.CancelledBy != nil {
		r.CancelledBy = t.CancelledBy
	}
	r.UpdatedAt = at
	return r
}

// Allocation is the number of days a policy grants for one leave type.
type Allocation struct {
	LeaveType Type
	TotalDays int
}

// DefaultAllocations is used when an organization has no policy of its own.
func DefaultAllocations() []Allocation {
	return []Allocation{
		{LeaveType: TypeCasual, TotalDays: 12},
		{LeaveType: TypeSick, TotalDays: 10},
		{LeaveType: TypeEarned, TotalDays: 15},
		{LeaveType: TypeUnpaid, TotalDays: 0},
	}
}

// Balance is a derived, never persisted, view of one leave type.
type Balance struct {
	LeaveType Type `json:"leave_type"`
	Total     int  `json:"total"`
	Used      int  `json:"used"`
	Available int  `json:"available"`
}

// RequestContext is the trusted identity of the caller, built by the transport layer.
type RequestContext struct {
	UserID         string
	OrganizationID string
	UserRole       user.Role
	RequestID      string
}
