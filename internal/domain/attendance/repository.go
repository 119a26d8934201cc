package attendance

import (
	"context"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
)

type AttendanceRepository interface {
	GetByID(ctx context.Context, id string) (Attendance, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Attendance, error)
	Create(ctx context.Context, a Attendance) (Attendance, error)
	Update(ctx context.Context, a Attendance) (Attendance, error)
	// Upsert writes every column of a, replacing the row for (employee, date).
	Upsert(ctx context.Context, a Attendance) (Attendance, error)
	// UpsertLeaveDay sets status, notes and working hours for (employee, date),
	// creating the row when absent and keeping any check-in/out timestamps.
	UpsertLeaveDay(ctx context.Context, a Attendance) (Attendance, error)
	// DeleteLeaveDays removes on-leave and half-day rows of one employee in [from, to].
	DeleteLeaveDays(ctx context.Context, employeeID string, from, to time.Time) (int64, error)
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, error)
	// LockEmployee serializes attendance writes for one employee until the
	// surrounding transaction ends.
	LockEmployee(ctx context.Context, employeeID string) error
}

type AttendanceFilter struct {
	Scope  access.Scope
	Range  access.DateRange
	Status *Status
}
