package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
)

const attendanceColumns = `
	a.id, a.employee_id, a.date, a.check_in, a.check_out, a.working_hours, a.status, a.notes,
	a.created_at, a.updated_at`

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

func scanAttendance(row pgx.Row, a *attendance.Attendance, extra ...any) error {
	dest := []any{
		&a.ID, &a.EmployeeID, &a.Date, &a.CheckIn, &a.CheckOut, &a.WorkingHours, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *attendanceRepositoryImpl) getOne(ctx context.Context, where string, args ...any) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances a WHERE ` + where

	var a attendance.Attendance
	if err := scanAttendance(q.QueryRow(ctx, query, args...), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	return r.getOne(ctx, "a.id = $1", id)
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	return r.getOne(ctx, "a.employee_id = $1 AND a.date = $2", employeeID, date)
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances AS a (id, employee_id, date, check_in, check_out, working_hours, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + attendanceColumns

	var created attendance.Attendance
	err := scanAttendance(q.QueryRow(ctx, query,
		a.ID, a.EmployeeID, a.Date, a.CheckIn, a.CheckOut, a.WorkingHours, a.Status, a.Notes,
	), &created)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return attendance.Attendance{}, attendance.ErrAttendanceExists
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Update(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendances a SET
			check_in = $2, check_out = $3, working_hours = $4, status = $5, notes = $6, updated_at = NOW()
		WHERE a.id = $1
		RETURNING ` + attendanceColumns

	var updated attendance.Attendance
	err := scanAttendance(q.QueryRow(ctx, query,
		a.ID, a.CheckIn, a.CheckOut, a.WorkingHours, a.Status, a.Notes,
	), &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance %s: %w", a.ID, err)
	}
	return updated, nil
}

// Upsert implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Upsert(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances AS a (id, employee_id, date, check_in, check_out, working_hours, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT uq_attendances_employee_date DO UPDATE SET
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			working_hours = EXCLUDED.working_hours,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING ` + attendanceColumns

	var saved attendance.Attendance
	err := scanAttendance(q.QueryRow(ctx, query,
		a.ID, a.EmployeeID, a.Date, a.CheckIn, a.CheckOut, a.WorkingHours, a.Status, a.Notes,
	), &saved)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return saved, nil
}

// UpsertLeaveDay implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) UpsertLeaveDay(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances AS a (id, employee_id, date, working_hours, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT uq_attendances_employee_date DO UPDATE SET
			working_hours = EXCLUDED.working_hours,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING ` + attendanceColumns

	var saved attendance.Attendance
	err := scanAttendance(q.QueryRow(ctx, query,
		a.ID, a.EmployeeID, a.Date, a.WorkingHours, a.Status, a.Notes,
	), &saved)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to upsert leave day %s: %w", a.Date.Format("2006-01-02"), err)
	}
	return saved, nil
}

// DeleteLeaveDays implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) DeleteLeaveDays(ctx context.Context, employeeID string, from, to time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM attendances
		WHERE employee_id = $1 AND date >= $2::date AND date <= $3::date AND status = ANY($4)
	`, employeeID, from, to, []string{string(attendance.StatusOnLeave), string(attendance.StatusHalfDay)})
	if err != nil {
		return 0, fmt.Errorf("failed to delete leave days of %s: %w", employeeID, err)
	}
	return tag.RowsAffected(), nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, error) {
	if filter.Scope.IsEmpty() {
		return []attendance.Attendance{}, nil
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

	conditions = append(conditions, "a.date >= "+arg(filter.Range.From)+"::date", "a.date <= "+arg(filter.Range.To)+"::date")
	if !filter.Scope.All {
		conditions = append(conditions, "a.employee_id::text = ANY("+arg(filter.Scope.EmployeeIDs)+")")
	}
	if filter.Status != nil {
		conditions = append(conditions, "a.status = "+arg(string(*filter.Status)))
	}

	query := `
		SELECT ` + attendanceColumns + `, e.first_name || ' ' || e.last_name
		FROM attendances a
		INNER JOIN employees e ON e.id = a.employee_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY a.date DESC, e.first_name`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := []attendance.Attendance{}
	for rows.Next() {
		var a attendance.Attendance
		if err := scanAttendance(rows, &a, &a.EmployeeName); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// LockEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) LockEmployee(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, employeeID); err != nil {
		return fmt.Errorf("failed to lock attendance of %s: %w", employeeID, err)
	}
	return nil
}
