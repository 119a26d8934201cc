package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
)

const employeeColumns = `
	e.id, e.employee_number, e.email, e.password_hash, e.first_name, e.last_name, e.phone, e.position,
	e.department_id, e.management_level, e.reporting_manager_id, e.can_approve_leaves,
	e.can_manage_attendance, e.saturday_working, e.status, e.joining_date, e.created_at, e.updated_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row, emp *employee.Employee) error {
	return row.Scan(
		&emp.ID, &emp.EmployeeNumber, &emp.Email, &emp.PasswordHash, &emp.FirstName, &emp.LastName,
		&emp.Phone, &emp.Position, &emp.DepartmentID, &emp.ManagementLevel, &emp.ReportingManagerID,
		&emp.CanApproveLeaves, &emp.CanManageAttendance, &emp.SaturdayWorking, &emp.Status,
		&emp.JoiningDate, &emp.CreatedAt, &emp.UpdatedAt,
	)
}

func (r *employeeRepositoryImpl) getOne(ctx context.Context, where string, arg any) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `,
			COALESCE((SELECT array_agg(t.member_id::text ORDER BY t.member_id) FROM team_members t WHERE t.manager_id = e.id), '{}')
		FROM employees e
		WHERE ` + where

	var emp employee.Employee
	err := q.QueryRow(ctx, query, arg).Scan(
		&emp.ID, &emp.EmployeeNumber, &emp.Email, &emp.PasswordHash, &emp.FirstName, &emp.LastName,
		&emp.Phone, &emp.Position, &emp.DepartmentID, &emp.ManagementLevel, &emp.ReportingManagerID,
		&emp.CanApproveLeaves, &emp.CanManageAttendance, &emp.SaturdayWorking, &emp.Status,
		&emp.JoiningDate, &emp.CreatedAt, &emp.UpdatedAt, &emp.TeamMembers,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return r.getOne(ctx, "e.id = $1", id)
}

// GetByEmail implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	return r.getOne(ctx, "e.email = $1", strings.ToLower(email))
}

// ListDirectReports implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListDirectReports(ctx context.Context, managerID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees e WHERE e.reporting_manager_id = $1 ORDER BY e.first_name, e.last_name`

	rows, err := q.Query(ctx, query, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list direct reports of %s: %w", managerID, err)
	}
	return collectEmployees(rows)
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, error) {
	if filter.Scope.IsEmpty() {
		return []employee.Employee{}, nil
	}
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.Scope.All {
		conditions = append(conditions, "e.id::text = ANY("+arg(filter.Scope.EmployeeIDs)+")")
	}
	if filter.Search != nil && *filter.Search != "" {
		p := arg("%" + *filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(e.first_name ILIKE %[1]s OR e.last_name ILIKE %[1]s OR e.email ILIKE %[1]s OR e.employee_number ILIKE %[1]s)", p))
	}
	if filter.Status != nil {
		conditions = append(conditions, "e.status = "+arg(string(*filter.Status)))
	}
	if filter.DepartmentID != nil {
		conditions = append(conditions, "e.department_id = "+arg(*filter.DepartmentID))
	}
	if filter.Level != nil {
		conditions = append(conditions, "e.management_level = "+arg(*filter.Level))
	}

	query := `SELECT ` + employeeColumns + ` FROM employees e`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		var emp employee.Employee
		if err := scanEmployee(rows, &emp); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// ExistsByEmailOrNumber implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ExistsByEmailOrNumber(ctx context.Context, email, employeeNumber string, excludeID *string) (bool, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			EXISTS (SELECT 1 FROM employees WHERE email = $1 AND ($3::uuid IS NULL OR id <> $3::uuid)),
			EXISTS (SELECT 1 FROM employees WHERE employee_number = $2 AND ($3::uuid IS NULL OR id <> $3::uuid))
	`
	var emailTaken, numberTaken bool
	if err := q.QueryRow(ctx, query, strings.ToLower(email), employeeNumber, excludeID).Scan(&emailTaken, &numberTaken); err != nil {
		return false, false, fmt.Errorf("failed to check employee uniqueness: %w", err)
	}
	return emailTaken, numberTaken, nil
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees AS e (
			id, employee_number, email, password_hash, first_name, last_name, phone, position,
			department_id, management_level, reporting_manager_id, can_approve_leaves,
			can_manage_attendance, saturday_working, status, joining_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16
		)
		RETURNING ` + employeeColumns

	var created employee.Employee
	err := scanEmployee(q.QueryRow(ctx, query,
		e.ID, e.EmployeeNumber, strings.ToLower(e.Email), e.PasswordHash, e.FirstName, e.LastName, e.Phone, e.Position,
		e.DepartmentID, e.ManagementLevel, e.ReportingManagerID, e.CanApproveLeaves,
		e.CanManageAttendance, e.SaturdayWorking, e.Status, e.JoiningDate,
	), &created)
	if err != nil {
		return employee.Employee{}, mapEmployeeWriteError(err)
	}
	return created, nil
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees e SET
			employee_number = $2, email = $3, password_hash = $4, first_name = $5, last_name = $6,
			phone = $7, position = $8, department_id = $9, management_level = $10,
			reporting_manager_id = $11, can_approve_leaves = $12, can_manage_attendance = $13,
			saturday_working = $14, status = $15, joining_date = $16, updated_at = NOW()
		WHERE e.id = $1
		RETURNING ` + employeeColumns

	var updated employee.Employee
	err := scanEmployee(q.QueryRow(ctx, query,
		e.ID, e.EmployeeNumber, strings.ToLower(e.Email), e.PasswordHash, e.FirstName, e.LastName,
		e.Phone, e.Position, e.DepartmentID, e.ManagementLevel,
		e.ReportingManagerID, e.CanApproveLeaves, e.CanManageAttendance,
		e.SaturdayWorking, e.Status, e.JoiningDate,
	), &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, mapEmployeeWriteError(err)
	}
	return updated, nil
}

func mapEmployeeWriteError(err error) error {
	if constraint, ok := uniqueConstraint(err); ok {
		switch {
		case strings.Contains(constraint, "email"):
			return employee.ErrEmailExists
		case strings.Contains(constraint, "employee_number"):
			return employee.ErrEmployeeNumberExists
		}
	}
	return fmt.Errorf("failed to write employee: %w", err)
}

// Delete implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// ReassignReports implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ReassignReports(ctx context.Context, fromManagerID string, toManagerID *string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		UPDATE employees SET reporting_manager_id = $2, updated_at = NOW()
		WHERE reporting_manager_id = $1
		RETURNING id::text
	`, fromManagerID, toManagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reassign reports of %s: %w", fromManagerID, err)
	}
	moved, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to reassign reports of %s: %w", fromManagerID, err)
	}
	return moved, nil
}

type teamRepositoryImpl struct {
	db *database.DB
}

func NewTeamRepository(db *database.DB) employee.TeamRepository {
	return &teamRepositoryImpl{db: db}
}

// AddMember implements employee.TeamRepository.
func (r *teamRepositoryImpl) AddMember(ctx context.Context, managerID, memberID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO team_members (manager_id, member_id) VALUES ($1, $2)
		ON CONFLICT (manager_id, member_id) DO NOTHING
	`, managerID, memberID)
	if err != nil {
		return fmt.Errorf("failed to add %s to team of %s: %w", memberID, managerID, err)
	}
	return nil
}

// RemoveMember implements employee.TeamRepository.
func (r *teamRepositoryImpl) RemoveMember(ctx context.Context, managerID, memberID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM team_members WHERE manager_id = $1 AND member_id = $2`, managerID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove %s from team of %s: %w", memberID, managerID, err)
	}
	return nil
}

// Members implements employee.TeamRepository.
func (r *teamRepositoryImpl) Members(ctx context.Context, managerID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT member_id::text FROM team_members WHERE manager_id = $1 ORDER BY member_id`, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team of %s: %w", managerID, err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list team of %s: %w", managerID, err)
	}
	return members, nil
}
