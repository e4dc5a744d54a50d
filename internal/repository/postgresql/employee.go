package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func (e *employeeRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	var emp employee.Employee
	err := q.QueryRow(ctx, query, args...).Scan(
		&emp.ID, &emp.OrganizationID, &emp.UserID, &emp.FullName, &emp.EmployeeCode, &emp.IsDeleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetByUserID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByUserID(ctx context.Context, organizationID, userID string) (employee.Employee, error) {
	return e.getOne(ctx, `
		SELECT id, organization_id, user_id, full_name, employee_code, is_deleted
		FROM employees
		WHERE user_id = $1 AND organization_id = $2 AND NOT is_deleted
	`, userID, organizationID)
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, organizationID, id string) (employee.Employee, error) {
	return e.getOne(ctx, `
		SELECT id, organization_id, user_id, full_name, employee_code, is_deleted
		FROM employees
		WHERE id = $1 AND organization_id = $2 AND NOT is_deleted
	`, id, organizationID)
}

// GetSummaries implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetSummaries(ctx context.Context, organizationID string, ids []string) (map[string]employee.Summary, error) {
	summaries := make(map[string]employee.Summary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, full_name, employee_code
		FROM employees
		WHERE organization_id = $1 AND id = ANY($2::uuid[]) AND NOT is_deleted
	`

	rows, err := q.Query(ctx, query, organizationID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s employee.Summary
		if err := rows.Scan(&s.ID, &s.FullName, &s.EmployeeCode); err != nil {
			return nil, err
		}
		summaries[s.ID] = s
	}
	return summaries, rows.Err()
}
