package memory

import (
	"context"
	"sort"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
)

type attendanceRepository struct {
	s   *Store
	now func() time.Time
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{s: s, now: time.Now}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.attendance[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return a, nil
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byDay[dayKey{employee: employeeID, date: dateKey(date)}]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r.s.attendance[id], nil
}

func (r *attendanceRepository) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if err := r.s.fail("attendance.create"); err != nil {
		return attendance.Attendance{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := dayKey{employee: a.EmployeeID, date: dateKey(a.Date)}
	if _, exists := r.s.byDay[key]; exists {
		return attendance.Attendance{}, attendance.ErrAttendanceExists
	}
	return r.insertLocked(a, key), nil
}

func (r *attendanceRepository) insertLocked(a attendance.Attendance, key dayKey) attendance.Attendance {
	now := r.now()
	a.Date = civilDate(a.Date)
	a.CreatedAt, a.UpdatedAt = now, now
	a.EmployeeName = nil
	r.s.attendance[a.ID] = a
	r.s.byDay[key] = a.ID
	return a
}

func (r *attendanceRepository) Update(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if err := r.s.fail("attendance.update"); err != nil {
		return attendance.Attendance{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.attendance[a.ID]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	current.CheckIn = a.CheckIn
	current.CheckOut = a.CheckOut
	current.WorkingHours = a.WorkingHours
	current.Status = a.Status
	current.Notes = a.Notes
	current.UpdatedAt = r.now()
	r.s.attendance[a.ID] = current
	return current, nil
}

func (r *attendanceRepository) Upsert(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if err := r.s.fail("attendance.upsert"); err != nil {
		return attendance.Attendance{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := dayKey{employee: a.EmployeeID, date: dateKey(a.Date)}
	id, exists := r.s.byDay[key]
	if !exists {
		return r.insertLocked(a, key), nil
	}
	current := r.s.attendance[id]
	current.CheckIn = a.CheckIn
	current.CheckOut = a.CheckOut
	current.WorkingHours = a.WorkingHours
	current.Status = a.Status
	current.Notes = a.Notes
	current.UpdatedAt = r.now()
	r.s.attendance[id] = current
	return current, nil
}

func (r *attendanceRepository) UpsertLeaveDay(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if err := r.s.fail("attendance.upsert_leave_day"); err != nil {
		return attendance.Attendance{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := dayKey{employee: a.EmployeeID, date: dateKey(a.Date)}
	id, exists := r.s.byDay[key]
	if !exists {
		a.CheckIn, a.CheckOut = nil, nil
		return r.insertLocked(a, key), nil
	}
	current := r.s.attendance[id]
	current.WorkingHours = a.WorkingHours
	current.Status = a.Status
	current.Notes = a.Notes
	current.UpdatedAt = r.now()
	r.s.attendance[id] = current
	return current, nil
}

func (r *attendanceRepository) DeleteLeaveDays(ctx context.Context, employeeID string, from, to time.Time) (int64, error) {
	if err := r.s.fail("attendance.delete_leave_days"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	from, to = civilDate(from), civilDate(to)
	var deleted int64
	for id, a := range r.s.attendance {
		if a.EmployeeID != employeeID || !a.Status.IsLeaveStatus() {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		delete(r.s.attendance, id)
		delete(r.s.byDay, dayKey{employee: employeeID, date: dateKey(a.Date)})
		deleted++
	}
	return deleted, nil
}

func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []attendance.Attendance{}
	if filter.Scope.IsEmpty() {
		return out, nil
	}
	from, to := civilDate(filter.Range.From), civilDate(filter.Range.To)
	for _, a := range r.s.attendance {
		if !filter.Scope.Contains(a.EmployeeID) {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if e, ok := r.s.employees[a.EmployeeID]; ok {
			name := e.FullName()
			a.EmployeeName = &name
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// LockEmployee is covered by the store-wide transaction lock.
func (r *attendanceRepository) LockEmployee(ctx context.Context, employeeID string) error {
	return r.s.fail("attendance.lock")
}
