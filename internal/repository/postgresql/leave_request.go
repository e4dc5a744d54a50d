package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveRequestColumns = `
	id, organization_id, employee_id, leave_type,
	start_date, end_date, days,
	reason, approver_comments, status,
	requested_by, approved_by, rejected_by, cancelled_by,
	is_deleted, created_at, updated_at`

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var req leave.LeaveRequest
	var leaveType, status string
	err := row.Scan(
		&req.ID, &req.OrganizationID, &req.EmployeeID, &leaveType,
		&req.StartDate, &req.EndDate, &req.Days,
		&req.Reason, &req.ApproverComments, &status,
		&req.RequestedBy, &req.ApprovedBy, &req.RejectedBy, &req.CancelledBy,
		&req.IsDeleted, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	req.Type = leave.Type(leaveType)
	req.Status = leave.Status(status)
	req.StartDate = leave.DateOnly(req.StartDate)
	req.EndDate = leave.DateOnly(req.EndDate)
	return req, nil
}

func collectLeaveRequests(rows pgx.Rows) ([]leave.LeaveRequest, error) {
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (
			id, organization_id, employee_id, leave_type,
			start_date, end_date, days,
			reason, status, requested_by,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $11
		) RETURNING ` + leaveRequestColumns

	created, err := scanLeaveRequest(q.QueryRow(ctx, query,
		request.ID, request.OrganizationID, request.EmployeeID, string(request.Type),
		request.StartDate, request.EndDate, request.Days,
		request.Reason, string(request.Status), request.RequestedBy,
		request.CreatedAt,
	))
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to insert leave request: %w", err)
	}
	return created, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, organizationID, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE id = $1 AND organization_id = $2 AND NOT is_deleted`

	req, err := scanLeaveRequest(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request %s: %w", id, err)
	}
	return req, nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, organizationID string, filter leave.ListFilter, limit int) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"organization_id = $1", "NOT is_deleted"}
	args := []interface{}{organizationID}
	argIndex := 2

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIndex))
		args = append(args, *filter.EmployeeID)
		argIndex++
	}

	if filter.ExcludeEmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id <> $%d", argIndex))
		args = append(args, *filter.ExcludeEmployeeID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	query := fmt.Sprintf(`SELECT %s
		FROM leave_requests
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, leaveRequestColumns, strings.Join(conditions, " AND "), argIndex)
	args = append(args, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return collectLeaveRequests(rows)
}

// ListConsuming implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListConsuming(ctx context.Context, organizationID, employeeID string, since time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE organization_id = $1 AND employee_id = $2
			AND status IN ($3, $4)
			AND start_date >= $5
			AND NOT is_deleted`

	rows, err := q.Query(ctx, query,
		organizationID, employeeID,
		string(leave.StatusPending), string(leave.StatusApproved),
		leave.DateOnly(since),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list consuming leave requests: %w", err)
	}
	return collectLeaveRequests(rows)
}

// HasApprovedOverlap implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) HasApprovedOverlap(ctx context.Context, organizationID, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE organization_id = $1 AND employee_id = $2
				AND status = $3
				AND start_date <= $5 AND end_date >= $4
				AND NOT is_deleted
		)`

	var exists bool
	err := q.QueryRow(ctx, query,
		organizationID, employeeID, string(leave.StatusApproved),
		leave.DateOnly(start), leave.DateOnly(end),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return exists, nil
}

// UpdateIf implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateIf(ctx context.Context, organizationID, id string, expected leave.Status, t leave.Transition) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $1,
			approver_comments = $2,
			approved_by = COALESCE($3, approved_by),
			rejected_by = COALESCE($4, rejected_by),
			cancelled_by = COALESCE($5, cancelled_by),
			updated_at = NOW()
		WHERE id = $6 AND organization_id = $7 AND status = $8 AND NOT is_deleted`

	commandTag, err := q.Exec(ctx, query,
		string(t.Status), t.ApproverComments,
		t.ApprovedBy, t.RejectedBy, t.CancelledBy,
		id, organizationID, string(expected),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update leave request %s: %w", id, err)
	}
	return commandTag.RowsAffected(), nil
}
