package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
	accesssvc "github.com/redaxis-hris/hrms-backend-go/internal/service/access"
)

type AttendanceServiceImpl struct {
	tx          database.Transactor
	attendances attendance.AttendanceRepository
	employees   employee.EmployeeRepository
	resolver    *accesssvc.Resolver
	loc         *time.Location
	now         func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	attendances attendance.AttendanceRepository,
	employees employee.EmployeeRepository,
	resolver *accesssvc.Resolver,
	loc *time.Location,
) *AttendanceServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		tx:          tx,
		attendances: attendances,
		employees:   employees,
		resolver:    resolver,
		loc:         loc,
		now:         time.Now,
	}
}

// WithClock overrides the wall clock used for check-in and check-out.
func (s *AttendanceServiceImpl) WithClock(now func() time.Time) *AttendanceServiceImpl {
	s.now = now
	return s
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

// today returns the local wall time and its calendar date.
func (s *AttendanceServiceImpl) today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	return now, civilDate(now)
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, requester user.Requester) (attendance.AttendanceResponse, error) {
	now, day := s.today()

	emp, err := s.employees.GetByID(ctx, requester.ID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	switch now.Weekday() {
	case time.Sunday:
		return attendance.AttendanceResponse{}, attendance.ErrSundayOff
	case time.Saturday:
		if !emp.SaturdayWorking {
			return attendance.AttendanceResponse{}, attendance.ErrSaturdayOff
		}
	}

	var record attendance.Attendance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.attendances.LockEmployee(ctx, emp.ID); err != nil {
			return err
		}

		existing, err := s.attendances.GetByEmployeeAndDate(ctx, emp.ID, day)
		switch {
		case errors.Is(err, attendance.ErrAttendanceNotFound):
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate attendance id: %w", err)
			}
			record, err = s.attendances.Create(ctx, attendance.Attendance{
				ID:         id.String(),
				EmployeeID: emp.ID,
				Date:       day,
				CheckIn:    &now,
				Status:     attendance.StatusPresent,
			})
			return err
		case err != nil:
			return fmt.Errorf("failed to get today's attendance: %w", err)
		case existing.CheckIn != nil:
			return attendance.ErrAlreadyCheckedIn
		}

		existing.CheckIn = &now
		existing.CheckOut = nil
		existing.WorkingHours = 0
		existing.Status = attendance.StatusPresent
		record, err = s.attendances.Update(ctx, existing)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("employee checked in", "employee_id", emp.ID, "date", day.Format("2006-01-02"))
	return attendance.ToResponse(record), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, requester user.Requester) (attendance.AttendanceResponse, error) {
	now, day := s.today()

	var record attendance.Attendance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.attendances.LockEmployee(ctx, requester.ID); err != nil {
			return err
		}

		existing, err := s.attendances.GetByEmployeeAndDate(ctx, requester.ID, day)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrNotCheckedIn
			}
			return fmt.Errorf("failed to get today's attendance: %w", err)
		}
		if existing.CheckIn == nil {
			return attendance.ErrNotCheckedIn
		}
		if existing.CheckOut != nil {
			return attendance.ErrAlreadyCheckedOut
		}

		existing.CheckOut = &now
		existing.WorkingHours = WorkedHours(*existing.CheckIn, now)
		existing.Status = DeriveStatus(existing.WorkingHours)
		record, err = s.attendances.Update(ctx, existing)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("employee checked out", "employee_id", requester.ID, "hours", record.WorkingHours, "status", record.Status)
	return attendance.ToResponse(record), nil
}

// List implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) List(ctx context.Context, requester user.Requester, req attendance.ListAttendanceRequest) ([]attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scope, rng, err := s.resolver.AttendanceScope(ctx, requester, req.EmployeeID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	filter := attendance.AttendanceFilter{Scope: scope, Range: rng}
	if req.Status != nil {
		status := attendance.Status(*req.Status)
		filter.Status = &status
	}

	records, err := s.attendances.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return attendance.ToResponses(records), nil
}

// statsFor loads the employee and the rows behind a statistics request.
func (s *AttendanceServiceImpl) statsFor(ctx context.Context, requester user.Requester, req attendance.StatsRequest) (employee.Employee, []attendance.Attendance, attendance.StatsResponse, error) {
	target := req.EmployeeID
	if target == "" {
		target = requester.ID
	}

	visible, err := s.resolver.CanViewEmployee(ctx, requester, target)
	if err != nil {
		return employee.Employee{}, nil, attendance.StatsResponse{}, err
	}
	if !visible {
		return employee.Employee{}, nil, attendance.StatsResponse{}, access.Deny("you can only view attendance statistics of employees within your scope")
	}

	rng, err := s.resolver.DateRange(req.StartDate, req.EndDate)
	if err != nil {
		return employee.Employee{}, nil, attendance.StatsResponse{}, err
	}

	emp, err := s.employees.GetByID(ctx, target)
	if err != nil {
		return employee.Employee{}, nil, attendance.StatsResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	records, err := s.attendances.List(ctx, attendance.AttendanceFilter{Scope: access.Only(target), Range: rng})
	if err != nil {
		return employee.Employee{}, nil, attendance.StatsResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	stats := Summarize(records, rng, emp.SaturdayWorking)
	stats.EmployeeID = target
	return emp, records, stats, nil
}

// Summarize counts statuses and the attendance percentage over rng.
func Summarize(records []attendance.Attendance, rng access.DateRange, saturdayWorking bool) attendance.StatsResponse {
	stats := attendance.StatsResponse{
		TotalDays: len(records),
		Period: attendance.Period{
			Start: rng.From.Format("2006-01-02"),
			End:   rng.To.Format("2006-01-02"),
		},
	}
	for _, r := range records {
		switch r.Status {
		case attendance.StatusPresent:
			stats.Present++
		case attendance.StatusAbsent:
			stats.Absent++
		case attendance.StatusHalfDay:
			stats.HalfDay++
		case attendance.StatusOnLeave:
			stats.OnLeave++
		}
	}
	stats.WorkingDays = CountWorkingDays(rng.From, rng.To, saturdayWorking)
	stats.AttendancePercentage = Percentage(stats.Present, stats.HalfDay, stats.WorkingDays)
	return stats
}

// Stats implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Stats(ctx context.Context, requester user.Requester, req attendance.StatsRequest) (attendance.StatsResponse, error) {
	_, _, stats, err := s.statsFor(ctx, requester, req)
	return stats, err
}

// Record implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Record(ctx context.Context, requester user.Requester, req attendance.RecordAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := s.resolver.CanManageAttendance(ctx, requester, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if _, err := s.employees.GetByID(ctx, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if err := s.requireSameDay(civilDate(req.ParsedDate), req.ParsedCheckIn, req.ParsedCheckOut); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	record := attendance.Attendance{
		ID:         id.String(),
		EmployeeID: req.EmployeeID,
		Date:       civilDate(req.ParsedDate),
		CheckIn:    req.ParsedCheckIn,
		CheckOut:   req.ParsedCheckOut,
		Notes:      req.Notes,
		Status:     attendance.StatusPresent,
	}
	applyHours(&record, req.Status)

	var saved attendance.Attendance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.attendances.LockEmployee(ctx, req.EmployeeID); err != nil {
			return err
		}
		saved, err = s.attendances.Upsert(ctx, record)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to record attendance: %w", err)
	}

	slog.Info("attendance recorded", "employee_id", req.EmployeeID, "date", req.Date, "by", requester.ID)
	return attendance.ToResponse(saved), nil
}

// Update implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Update(ctx context.Context, requester user.Requester, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var saved attendance.Attendance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.attendances.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if err := s.resolver.CanManageAttendance(ctx, requester, record.EmployeeID); err != nil {
			return err
		}
		if err := s.attendances.LockEmployee(ctx, record.EmployeeID); err != nil {
			return err
		}

		if req.ParsedCheckIn != nil {
			record.CheckIn = req.ParsedCheckIn
		}
		if req.ParsedCheckOut != nil {
			record.CheckOut = req.ParsedCheckOut
		}
		if req.Notes != nil {
			record.Notes = req.Notes
		}
		if record.CheckIn != nil && record.CheckOut != nil && !record.CheckOut.After(*record.CheckIn) {
			return attendance.ErrCheckOutBeforeIn
		}
		if err := s.requireSameDay(record.Date, record.CheckIn, record.CheckOut); err != nil {
			return err
		}
		if req.Status != nil || req.ParsedCheckIn != nil || req.ParsedCheckOut != nil {
			applyHours(&record, req.Status)
		}

		saved, err = s.attendances.Update(ctx, record)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance corrected", "attendance_id", saved.ID, "by", requester.ID)
	return attendance.ToResponse(saved), nil
}

// requireSameDay rejects timestamps that fall outside the local calendar day of date.
func (s *AttendanceServiceImpl) requireSameDay(date time.Time, checkIn, checkOut *time.Time) error {
	var errs validator.ValidationErrors
	want := date.Format(validator.DateLayout)
	if checkIn != nil && !civilDate(checkIn.In(s.loc)).Equal(date) {
		errs.Add("check_in", "must fall on "+want)
	}
	if checkOut != nil && !civilDate(checkOut.In(s.loc)).Equal(date) {
		errs.Add("check_out", "must fall on "+want)
	}
	return errs.Err()
}

// applyHours re-derives hours and status from both timestamps. An explicit
// status wins over the derived one.
func applyHours(record *attendance.Attendance, status *string) {
	if record.CheckIn != nil && record.CheckOut != nil {
		record.WorkingHours = WorkedHours(*record.CheckIn, *record.CheckOut)
		record.Status = DeriveStatus(record.WorkingHours)
	}
	if status != nil {
		record.Status = attendance.Status(*status)
	}
}
