package leave

import (
	"context"
)

type Service interface {
	Create(ctx context.Context, rc RequestContext, req CreateLeaveRequest) (LeaveRequest, error)
	Approve(ctx context.Context, rc RequestContext, leaveID string, comments *string) (LeaveRequest, error)
	Reject(ctx context.Context, rc RequestContext, leaveID string, comments *string) (LeaveRequest, error)
	Cancel(ctx context.Context, rc RequestContext, leaveID string, reason *string) (LeaveRequest, error)
	Get(ctx context.Context, rc RequestContext, leaveID string) (LeaveRequestResponse, error)
	List(ctx context.Context, rc RequestContext, filter ListFilter) ([]LeaveRequestResponse, error)
	GetBalances(ctx context.Context, rc RequestContext, employeeID string) ([]Balance, error)
}
