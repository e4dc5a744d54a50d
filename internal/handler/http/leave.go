package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/leave-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type LeaveHandler interface {
	CreateRequest(w http.ResponseWriter, r *http.Request)
	ListRequests(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	RejectRequest(w http.ResponseWriter, r *http.Request)
	CancelRequest(w http.ResponseWriter, r *http.Request)
	GetBalances(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.Service
	employees    employee.EmployeeRepository
}

func NewLeaveHandler(leaveService leave.Service, employees employee.EmployeeRepository) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
		employees:    employees,
	}
}

// CreateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.RequestContextFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req leave.CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID, err := l.targetEmployee(r, rc, req.EmployeeID, user.PermissionLeaveFileTeam)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID = employeeID

	created, err := l.leaveService.Create(r.Context(), rc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request created successfully", created.ToResponse(nil))
}

// ListRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.RequestContextFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	query := r.URL.Query()
	var filter leave.ListFilter
	if v := query.Get("status"); v != "" {
		status := leave.Status(v)
		filter.Status = &status
	}

	if !user.HasPermission(rc.UserRole, user.PermissionLeaveViewAll) {
		own, err := l.ownEmployee(r, rc)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		filter.EmployeeID = &own.ID
	} else {
		var errs validator.ValidationErrors
		if v := query.Get("employee_id"); v != "" {
			if !validID(v) {
				errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
			}
			filter.EmployeeID = &v
		}
		if v := query.Get("exclude_employee_id"); v != "" {
			if !validID(v) {
				errs = append(errs, validator.ValidationError{Field: "exclude_employee_id", Message: "must be a valid UUID"})
			}
			filter.ExcludeEmployeeID = &v
		}
		if len(errs) > 0 {
			response.HandleError(w, errs)
			return
		}
	}

	requests, err := l.leaveService.List(r.Context(), rc, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, requests, &response.Meta{
		Limit:      leave.MaxListResults,
		TotalItems: int64(len(requests)),
	})
}

// GetRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.RequestContextFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	leaveID := chi.URLParam(r, "id")
	if !validID(leaveID) {
		response.HandleError(w, leave.ErrLeaveNotFound)
		return
	}
	request, err := l.leaveService.Get(r.Context(), rc, leaveID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !user.HasPermission(rc.UserRole, user.PermissionLeaveViewAll) {
		own, err := l.ownEmployee(r, rc)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		if request.EmployeeID != own.ID {
			response.HandleError(w, leave.ErrLeaveNotFound)
			return
		}
	}

	response.Success(w, request)
}

// ApproveRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	l.decide(w, r, l.leaveService.Approve, "Leave request approved successfully")
}

// RejectRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) RejectRequest(w http.ResponseWriter, r *http.Request) {
	l.decide(w, r, l.leaveService.Reject, "Leave request rejected successfully")
}

type decideFunc func(ctx context.Context, rc leave.RequestContext, leaveID string, comments *string) (leave.LeaveRequest, error)

func (l *LeaveHandlerImpl) decide(w http.ResponseWriter, r *http.Request, fn decideFunc, message string) {
	rc, ok := middleware.RequestContextFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req leave.DecisionRequest
	if err := decodeOptional(r, &req); err != nil {
		slog.Error("decision decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	leaveID := chi.URLParam(r, "id")
	if !validID(leaveID) {
		response.HandleError(w, leave.ErrLeaveNotFound)
		return
	}

	updated, err := fn(r.Context(), rc, leaveID, req.Comments)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, updated.ToResponse(nil))
}

// CancelRequest implements LeaveHandler. Only the employee the leave belongs to may cancel it.
func (l *LeaveHandlerImpl) CancelRequest(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.RequestContextFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req leave.CancelRequest
	if err := decodeOptional(r, &req); err != nil {
		slog.Error("CancelRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	leaveID := chi.URLParam(r, "id")
	if !validID(leaveID) {
		response.HandleError(w, leave.ErrLeaveNotFound)
		return
	}
	existing, err := l.leaveService.Get(r.Context(), rc, leaveID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	own, err := l.ownEmployee(r, rc)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if existing.EmployeeID != own.ID {
		response.HandleError(w, leave.ErrInsufficientPermissions)
		return
	}

	cancelled, err := l.leaveService.Cancel(r.Context(), rc, leaveID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled successfully", cancelled.ToResponse(nil))
}

// GetBalances implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalances(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.RequestContextFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	employeeID, err := l.targetEmployee(r, rc, r.URL.Query().Get("employee_id"), user.PermissionLeaveViewAll)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	balances, err := l.leaveService.GetBalances(r.Context(), rc, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balances)
}

// targetEmployee resolves which employee an operation acts on. Callers without
// the given permission always act on themselves; the rest default to themselves
// but may name anyone in their organization.
func (l *LeaveHandlerImpl) targetEmployee(r *http.Request, rc leave.RequestContext, requested string, permission user.Permission) (string, error) {
	if !user.HasPermission(rc.UserRole, permission) || requested == "" {
		own, err := l.ownEmployee(r, rc)
		if err != nil {
			return "", err
		}
		return own.ID, nil
	}

	if !validID(requested) {
		return "", leave.ErrEmployeeNotFound
	}
	target, err := l.employees.GetByID(r.Context(), rc.OrganizationID, requested)
	if err != nil {
		return "", employeeErr(err)
	}
	return target.ID, nil
}

func (l *LeaveHandlerImpl) ownEmployee(r *http.Request, rc leave.RequestContext) (employee.Employee, error) {
	own, err := l.employees.GetByUserID(r.Context(), rc.OrganizationID, rc.UserID)
	if err != nil {
		return employee.Employee{}, employeeErr(err)
	}
	return own, nil
}

func employeeErr(err error) error {
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return leave.ErrEmployeeNotFound
	}
	return err
}

// validID reports whether id can name a stored record; every key is a UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
