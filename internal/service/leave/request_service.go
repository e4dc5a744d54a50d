package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/audit"
	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/domain/notification"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/validator"
	"github.com/google/uuid"
)

const (
	DefaultAuditTimeout        = 3 * time.Second
	DefaultNotificationTimeout = 10 * time.Second
)

// Options tunes the side effects of RequestService. Zero values select the defaults.
type Options struct {
	AuditTimeout            time.Duration
	NotificationTimeout     time.Duration
	RecheckOverlapOnApprove bool
	Logger                  *slog.Logger
	Metrics                 *metrics.Metrics
	Now                     func() time.Time
}

// RequestService owns the leave request state machine.
type RequestService struct {
	requests   leave.LeaveRequestRepository
	balances   *BalanceCalculator
	overlaps   *OverlapChecker
	users      user.Directory
	employees  employee.EmployeeRepository
	auditor    audit.Emitter
	dispatcher notification.Dispatcher

	auditTimeout        time.Duration
	notificationTimeout time.Duration
	recheckOverlap      bool
	logger              *slog.Logger
	metrics             *metrics.Metrics
	now                 func() time.Time

	// pending tracks notification goroutines so shutdown and tests can wait for them.
	pending sync.WaitGroup
}

var _ leave.Service = (*RequestService)(nil)

func NewRequestService(
	requests leave.LeaveRequestRepository,
	balances *BalanceCalculator,
	overlaps *OverlapChecker,
	users user.Directory,
	employees employee.EmployeeRepository,
	auditor audit.Emitter,
	dispatcher notification.Dispatcher,
	opts Options,
) *RequestService {
	s := &RequestService{
		requests:            requests,
		balances:            balances,
		overlaps:            overlaps,
		users:               users,
		employees:           employees,
		auditor:             auditor,
		dispatcher:          dispatcher,
		auditTimeout:        opts.AuditTimeout,
		notificationTimeout: opts.NotificationTimeout,
		recheckOverlap:      opts.RecheckOverlapOnApprove,
		logger:              opts.Logger,
		metrics:             opts.Metrics,
		now:                 opts.Now,
	}
	if s.auditTimeout <= 0 {
		s.auditTimeout = DefaultAuditTimeout
	}
	if s.notificationTimeout <= 0 {
		s.notificationTimeout = DefaultNotificationTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Wait blocks until every notification started so far has finished.
func (s *RequestService) Wait() {
	s.pending.Wait()
}

// Create implements leave.Service.
func (s *RequestService) Create(ctx context.Context, rc leave.RequestContext, req leave.CreateLeaveRequest) (leave.LeaveRequest, error) {
	const op = "create"

	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, s.refuse(op, err)
	}

	allocations, err := s.balances.Allocations(ctx, rc.OrganizationID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if !hasAllocation(allocations, req.Type) {
		return leave.LeaveRequest{}, s.refuse(op, leave.ErrInvalidLeaveType)
	}

	start, end := req.Dates()
	days := leave.ComputeDays(start, end)

	overlap, err := s.overlaps.HasApprovedOverlap(ctx, rc.OrganizationID, req.EmployeeID, start, end)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if overlap {
		return leave.LeaveRequest{}, s.refuse(op, leave.ErrLeaveOverlap)
	}

	balances, err := s.balances.Compute(ctx, rc.OrganizationID, req.EmployeeID, allocations)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	for _, b := range balances {
		if b.LeaveType == req.Type && days > b.Available {
			return leave.LeaveRequest{}, s.refuse(op, leave.ErrInsufficientBalance)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to generate leave request id: %w", err)
	}

	now := s.now().UTC()
	created, err := s.requests.Create(ctx, leave.LeaveRequest{
		ID:             id.String(),
		OrganizationID: rc.OrganizationID,
		EmployeeID:     req.EmployeeID,
		Type:           req.Type,
		StartDate:      start,
		EndDate:        end,
		Days:           days,
		Reason:         req.Reason,
		Status:         leave.StatusPending,
		RequestedBy:    rc.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	s.metrics.Transitions.WithLabelValues(string(leave.StatusPending)).Inc()
	s.recordAudit(ctx, rc, audit.ActionCreate, created.ID, nil, &created)

	s.notify(ctx, rc, func(ctx context.Context) (notification.Message, error) {
		admins, err := s.users.FindUsersByRole(ctx, rc.OrganizationID, user.AdminRoles)
		if err != nil {
			return notification.Message{}, fmt.Errorf("failed to resolve approvers: %w", err)
		}
		recipients := make([]string, 0, len(admins))
		for _, a := range admins {
			recipients = append(recipients, a.ID)
		}
		payload := leavePayload(created)
		payload["requested_by"] = rc.UserID
		return notification.Message{
			TemplateName: notification.TemplateLeaveRequested,
			Category:     notification.CategoryLeave,
			Recipients:   recipients,
			Payload:      payload,
		}, nil
	})

	s.logger.Info("leave request created",
		"leave_id", created.ID,
		"organization_id", rc.OrganizationID,
		"employee_id", created.EmployeeID,
		"type", created.Type,
		"days", created.Days,
	)
	return created, nil
}

// Approve implements leave.Service.
func (s *RequestService) Approve(ctx context.Context, rc leave.RequestContext, leaveID string, comments *string) (leave.LeaveRequest, error) {
	return s.decide(ctx, rc, leaveID, comments, leave.StatusApproved)
}

// Reject implements leave.Service.
func (s *RequestService) Reject(ctx context.Context, rc leave.RequestContext, leaveID string, comments *string) (leave.LeaveRequest, error) {
	return s.decide(ctx, rc, leaveID, comments, leave.StatusRejected)
}

func (s *RequestService) decide(ctx context.Context, rc leave.RequestContext, leaveID string, comments *string, target leave.Status) (leave.LeaveRequest, error) {
	op, tmpl := "approve", notification.TemplateLeaveApproved
	if target == leave.StatusRejected {
		op, tmpl = "reject", notification.TemplateLeaveRejected
	}

	current, err := s.requests.GetByID(ctx, rc.OrganizationID, leaveID)
	if err != nil {
		return leave.LeaveRequest{}, s.refuse(op, err)
	}

	if current.Status != leave.StatusPending {
		return leave.LeaveRequest{}, s.refuse(op, leave.ErrLeaveInvalidState)
	}

	if current.RequestedBy == rc.UserID {
		return leave.LeaveRequest{}, s.refuse(op, leave.ErrSelfApprovalForbidden)
	}

	// A requester missing from the directory has no role, and nobody may decide for it.
	applicantRole, err := s.users.GetRole(ctx, current.RequestedBy)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return leave.LeaveRequest{}, fmt.Errorf("failed to resolve applicant role: %w", err)
	}
	if !leave.CanDecide(applicantRole, rc.UserRole) {
		return leave.LeaveRequest{}, s.refuse(op, leave.ErrInsufficientPermissions)
	}

	if target == leave.StatusApproved && s.recheckOverlap {
		overlap, err := s.overlaps.HasApprovedOverlap(ctx, rc.OrganizationID, current.EmployeeID, current.StartDate, current.EndDate)
		if err != nil {
			return leave.LeaveRequest{}, err
		}
		if overlap {
			// The overlapping approval may be this request, decided concurrently.
			if latest, err := s.requests.GetByID(ctx, rc.OrganizationID, leaveID); err == nil && latest.Status != leave.StatusPending {
				return leave.LeaveRequest{}, s.refuse(op, leave.ErrLeaveInvalidState)
			}
			return leave.LeaveRequest{}, s.refuse(op, leave.ErrLeaveOverlap)
		}
	}

	decidedBy := rc.UserID
	t := leave.Transition{Status: target, ApproverComments: comments}
	if target == leave.StatusApproved {
		t.ApprovedBy = &decidedBy
	} else {
		t.RejectedBy = &decidedBy
	}

	updated, err := s.transition(ctx, op, rc, current, t)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	s.notify(ctx, rc, func(context.Context) (notification.Message, error) {
		payload := leavePayload(updated)
		if comments != nil {
			payload["comments"] = *comments
		}
		return notification.Message{
			TemplateName: tmpl,
			Category:     notification.CategoryLeave,
			Recipients:   []string{updated.RequestedBy},
			Payload:      payload,
		}, nil
	})

	return updated, nil
}

// Cancel implements leave.Service. Only CANCELLED requests are refused; callers
// check that the actor owns the request.
func (s *RequestService) Cancel(ctx context.Context, rc leave.RequestContext, leaveID string, reason *string) (leave.LeaveRequest, error) {
	const op = "cancel"

	current, err := s.requests.GetByID(ctx, rc.OrganizationID, leaveID)
	if err != nil {
		return leave.LeaveRequest{}, s.refuse(op, err)
	}

	if current.Status == leave.StatusCancelled {
		return leave.LeaveRequest{}, s.refuse(op, leave.ErrLeaveAlreadyCancelled)
	}

	cancelledBy := rc.UserID
	return s.transition(ctx, op, rc, current, leave.Transition{
		Status:           leave.StatusCancelled,
		ApproverComments: reason,
		CancelledBy:      &cancelledBy,
	})
}

// transition writes t only if the request is still in the status we read.
func (s *RequestService) transition(ctx context.Context, op string, rc leave.RequestContext, current leave.LeaveRequest, t leave.Transition) (leave.LeaveRequest, error) {
	matched, err := s.requests.UpdateIf(ctx, rc.OrganizationID, current.ID, current.Status, t)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	if matched == 0 {
		return leave.LeaveRequest{}, s.refuse(op, leave.ErrLeaveInvalidState)
	}

	updated := current.Apply(t, s.now().UTC())
	s.metrics.Transitions.WithLabelValues(string(t.Status)).Inc()
	s.recordAudit(ctx, rc, audit.ActionUpdate, updated.ID, &current, &updated)

	s.logger.Info("leave request transitioned",
		"leave_id", updated.ID,
		"organization_id", rc.OrganizationID,
		"from", current.Status,
		"to", updated.Status,
		"actor", rc.UserID,
	)
	return updated, nil
}

// Get implements leave.Service.
func (s *RequestService) Get(ctx context.Context, rc leave.RequestContext, leaveID string) (leave.LeaveRequestResponse, error) {
	request, err := s.requests.GetByID(ctx, rc.OrganizationID, leaveID)
	if err != nil {
		return leave.LeaveRequestResponse{}, s.refuse("get", err)
	}

	summaries, err := s.employees.GetSummaries(ctx, rc.OrganizationID, []string{request.EmployeeID})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to get employee summary: %w", err)
	}
	return request.ToResponse(summaryOf(summaries, request.EmployeeID)), nil
}

// List implements leave.Service.
func (s *RequestService) List(ctx context.Context, rc leave.RequestContext, filter leave.ListFilter) ([]leave.LeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, s.refuse("list", err)
	}

	requests, err := s.requests.List(ctx, rc.OrganizationID, filter, leave.MaxListResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	ids := make([]string, 0, len(requests))
	seen := make(map[string]bool, len(requests))
	for _, r := range requests {
		if !seen[r.EmployeeID] {
			seen[r.EmployeeID] = true
			ids = append(ids, r.EmployeeID)
		}
	}

	summaries, err := s.employees.GetSummaries(ctx, rc.OrganizationID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee summaries: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, r.ToResponse(summaryOf(summaries, r.EmployeeID)))
	}
	return responses, nil
}

// GetBalances implements leave.Service.
func (s *RequestService) GetBalances(ctx context.Context, rc leave.RequestContext, employeeID string) ([]leave.Balance, error) {
	s.metrics.BalanceQueries.Inc()
	return s.balances.GetBalances(ctx, rc.OrganizationID, employeeID)
}

// refuse counts domain refusals by code and returns err unchanged.
func (s *RequestService) refuse(op string, err error) error {
	var leaveErr *leave.Error
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &leaveErr):
		s.metrics.Rejections.WithLabelValues(op, leaveErr.Code).Inc()
	case errors.As(err, &validationErrs):
		s.metrics.Rejections.WithLabelValues(op, "VALIDATION_ERROR").Inc()
	}
	return err
}

// recordAudit runs synchronously under its own timeout; failures are logged, never returned.
func (s *RequestService) recordAudit(ctx context.Context, rc leave.RequestContext, action audit.Action, resourceID string, before, after *leave.LeaveRequest) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()

	entry := audit.Entry{
		OrganizationID: rc.OrganizationID,
		UserID:         rc.UserID,
		Action:         action,
		Resource:       audit.ResourceLeaveRequest,
		ResourceID:     resourceID,
		RequestID:      rc.RequestID,
		CreatedAt:      s.now().UTC(),
	}
	if before != nil {
		entry.Before = before.ToResponse(nil)
	}
	if after != nil {
		entry.After = after.ToResponse(nil)
	}

	start := time.Now()
	err := s.auditor.Record(auditCtx, entry)
	s.metrics.SideEffectDurations.WithLabelValues("audit").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.SideEffectFailures.WithLabelValues("audit").Inc()
		s.logger.Error("failed to record audit entry",
			"leave_id", resourceID,
			"action", action,
			"request_id", rc.RequestID,
			"error", err,
		)
	}
}

// notify builds and dispatches a message on a background goroutine detached from
// the caller's cancellation. Failures are logged and counted.
func (s *RequestService) notify(ctx context.Context, rc leave.RequestContext, build func(ctx context.Context) (notification.Message, error)) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notificationTimeout)
		defer cancel()

		start := time.Now()
		defer func() {
			s.metrics.SideEffectDurations.WithLabelValues("notification").Observe(time.Since(start).Seconds())
			if p := recover(); p != nil {
				s.metrics.SideEffectFailures.WithLabelValues("notification").Inc()
				s.logger.Error("notification dispatch panicked", "request_id", rc.RequestID, "panic", p)
			}
		}()

		msg, err := build(notifyCtx)
		if err == nil {
			if len(msg.Recipients) == 0 {
				s.logger.Debug("no notification recipients", "template", msg.TemplateName, "request_id", rc.RequestID)
				return
			}
			err = s.dispatcher.Dispatch(notifyCtx, rc.OrganizationID, msg, rc.UserID, rc.RequestID)
		}
		if err != nil {
			s.metrics.SideEffectFailures.WithLabelValues("notification").Inc()
			s.logger.Error("failed to dispatch notification",
				"template", msg.TemplateName,
				"organization_id", rc.OrganizationID,
				"request_id", rc.RequestID,
				"error", err,
			)
		}
	}()
}

func hasAllocation(allocations []leave.Allocation, t leave.Type) bool {
	for _, a := range allocations {
		if a.LeaveType == t {
			return true
		}
	}
	return false
}

func leavePayload(r leave.LeaveRequest) map[string]any {
	return map[string]any{
		"leave_id":    r.ID,
		"employee_id": r.EmployeeID,
		"type":        string(r.Type),
		"start_date":  r.StartDate.Format(validator.DateLayout),
		"end_date":    r.EndDate.Format(validator.DateLayout),
		"days":        r.Days,
		"status":      string(r.Status),
	}
}

func summaryOf(summaries map[string]employee.Summary, employeeID string) *employee.Summary {
	s, ok := summaries[employeeID]
	if !ok {
		return nil
	}
	return &s
}
