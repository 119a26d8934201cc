package attendance

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/redaxis-hris/hrms-backend-go/internal/repository/memory"
	accesssvc "github.com/redaxis-hris/hrms-backend-go/internal/service/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/service/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store       *memory.Store
	attendances attendance.AttendanceRepository
	employees   map[string]employee.Employee
	svc         *AttendanceServiceImpl
	reconciler  *Reconciler
	clock       time.Time
}

func (f *fixture) as(id string) user.Requester {
	return f.employees[id].Requester()
}

// mgr > (emp, weekender); other has no manager.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repo := memory.NewEmployeeRepository(store)
	f := &fixture{
		store:       store,
		attendances: memory.NewAttendanceRepository(store),
		employees:   map[string]employee.Employee{},
		clock:       time.Date(2025, 7, 7, 9, 0, 0, 0, time.UTC),
	}
	add := func(id string, level user.Level, manager string, saturday bool) {
		e := employee.Employee{
			ID:              id,
			EmployeeNumber:  "EMP-" + id,
			Email:           id + "@example.com",
			FirstName:       id,
			LastName:        "Test",
			ManagementLevel: level,
			SaturdayWorking: saturday,
			Status:          employee.StatusActive,
		}
		if manager != "" {
			e.ReportingManagerID = &manager
		}
		e.ApplyLevelCapabilities()
		created, err := repo.Create(context.Background(), e)
		require.NoError(t, err)
		f.employees[id] = created
	}
	add("mgr", user.LevelManager, "", false)
	add("emp", user.LevelEmployee, "mgr", false)
	add("weekender", user.LevelEmployee, "mgr", true)
	add("other", user.LevelEmployee, "", false)

	resolver := accesssvc.NewResolver(hierarchy.NewDirectory(repo), time.UTC).WithClock(func() time.Time { return f.clock })
	f.svc = NewAttendanceService(store.Transactor(), f.attendances, repo, resolver, time.UTC).
		WithClock(func() time.Time { return f.clock })
	f.reconciler = NewReconciler(f.attendances)
	return f
}

func day(d int) time.Time {
	return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestCheckIn_WeekendRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock = time.Date(2025, 7, 6, 9, 0, 0, 0, time.UTC) // Sunday
	_, err := f.svc.CheckIn(ctx, f.as("emp"))
	assert.ErrorIs(t, err, attendance.ErrSundayOff)
	_, err = f.svc.CheckIn(ctx, f.as("weekender"))
	assert.ErrorIs(t, err, attendance.ErrSundayOff)

	f.clock = time.Date(2025, 7, 5, 9, 0, 0, 0, time.UTC) // Saturday
	_, err = f.svc.CheckIn(ctx, f.as("emp"))
	assert.ErrorIs(t, err, attendance.ErrSaturdayOff)
	resp, err := f.svc.CheckIn(ctx, f.as("weekender"))
	require.NoError(t, err)
	assert.Equal(t, "present", resp.Status)
}

func TestCheckIn_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CheckIn(ctx, f.as("emp"))
	require.NoError(t, err)
	assert.Equal(t, "2025-07-07", resp.Date)
	require.NotNil(t, resp.CheckIn)

	_, err = f.svc.CheckIn(ctx, f.as("emp"))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestCheckOut_DerivesStatus(t *testing.T) {
	cases := []struct {
		worked time.Duration
		hours  float64
		status string
	}{
		{4*time.Hour + 9*time.Minute, 4.15, "absent"},
		{6 * time.Hour, 6, "half-day"},
		{8 * time.Hour, 8, "present"},
	}
	for _, c := range cases {
		f := newFixture(t)
		ctx := context.Background()

		_, err := f.svc.CheckIn(ctx, f.as("emp"))
		require.NoError(t, err)

		f.clock = f.clock.Add(c.worked)
		resp, err := f.svc.CheckOut(ctx, f.as("emp"))
		require.NoError(t, err)
		assert.Equal(t, c.hours, resp.WorkingHours)
		assert.Equal(t, c.status, resp.Status)

		_, err = f.svc.CheckOut(ctx, f.as("emp"))
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	}
}

func TestCheckOut_RequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CheckOut(context.Background(), f.as("emp"))
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestCheckIn_RollsBackOnWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("disk full")
	f.store.FailNext = func(op string) error {
		if op == "attendance.create" {
			return boom
		}
		return nil
	}

	_, err := f.svc.CheckIn(ctx, f.as("emp"))
	assert.ErrorIs(t, err, boom)

	_, err = f.attendances.GetByEmployeeAndDate(ctx, "emp", day(7))
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func leaveFor(employeeID string, typ leave.Type, from, to int) leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:         "leave-" + employeeID,
		EmployeeID: employeeID,
		LeaveType:  typ,
		StartDate:  day(from),
		EndDate:    day(to),
		Status:     leave.StatusApproved,
	}
}

func TestReconciler_SyncAndUnsync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	all := access.DateRange{From: day(1), To: day(31)}

	// an unrelated present day inside the span survives unsync
	f.clock = time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	_, err := f.svc.CheckIn(ctx, f.as("other"))
	require.NoError(t, err)

	l := leaveFor("emp", leave.TypeSick, 1, 3)
	n, err := f.reconciler.SyncApproved(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := f.attendances.List(ctx, attendance.AttendanceFilter{Scope: access.Only("emp"), Range: all})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, attendance.StatusOnLeave, r.Status)
		assert.Equal(t, 0.0, r.WorkingHours)
		require.NotNil(t, r.Notes)
		assert.Equal(t, "Sick Leave", *r.Notes)
	}

	// repeating the sync overwrites instead of appending
	_, err = f.reconciler.SyncApproved(ctx, l)
	require.NoError(t, err)
	rows, err = f.attendances.List(ctx, attendance.AttendanceFilter{Scope: access.Only("emp"), Range: all})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	deleted, err := f.reconciler.Unsync(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	deleted, err = f.reconciler.Unsync(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	rows, err = f.attendances.List(ctx, attendance.AttendanceFilter{Scope: access.Everyone(), Range: all})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "other", rows[0].EmployeeID)
}

func TestReconciler_UnsyncKeepsWorkedDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, f.as("emp"))
	require.NoError(t, err)
	f.clock = f.clock.Add(8 * time.Hour)
	_, err = f.svc.CheckOut(ctx, f.as("emp"))
	require.NoError(t, err)

	deleted, err := f.reconciler.Unsync(ctx, leaveFor("emp", leave.TypeAnnual, 7, 8))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	_, err = f.attendances.GetByEmployeeAndDate(ctx, "emp", day(7))
	assert.NoError(t, err)
}

func TestReconciler_HalfDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.reconciler.SyncApproved(ctx, leaveFor("emp", leave.TypeHalfDay, 8, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row, err := f.attendances.GetByEmployeeAndDate(ctx, "emp", day(8))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusHalfDay, row.Status)
	assert.Equal(t, 4.0, row.WorkingHours)
	assert.Equal(t, "Half-day Leave", *row.Notes)
}

func TestList_Scope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"emp", "weekender", "other"} {
		_, err := f.svc.CheckIn(ctx, f.as(id))
		require.NoError(t, err)
	}

	list, err := f.svc.List(ctx, f.as("mgr"), attendance.ListAttendanceRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.List(ctx, f.as("emp"), attendance.ListAttendanceRequest{EmployeeID: "other"})
	require.NoError(t, err)
	assert.Empty(t, list)

	from, to := "2025-06-01", "2025-06-30"
	list, err = f.svc.List(ctx, f.as("mgr"), attendance.ListAttendanceRequest{StartDate: &from, EndDate: &to})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Mon 7 present, Tue 8 half-day (6h), Wed-Thu 9-10 on leave
	f.clock = time.Date(2025, 7, 7, 9, 0, 0, 0, time.UTC)
	_, err := f.svc.CheckIn(ctx, f.as("emp"))
	require.NoError(t, err)
	f.clock = f.clock.Add(8 * time.Hour)
	_, err = f.svc.CheckOut(ctx, f.as("emp"))
	require.NoError(t, err)

	f.clock = time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC)
	_, err = f.svc.CheckIn(ctx, f.as("emp"))
	require.NoError(t, err)
	f.clock = f.clock.Add(6 * time.Hour)
	_, err = f.svc.CheckOut(ctx, f.as("emp"))
	require.NoError(t, err)

	_, err = f.reconciler.SyncApproved(ctx, leaveFor("emp", leave.TypeAnnual, 9, 10))
	require.NoError(t, err)

	from, to := "2025-07-07", "2025-07-13"
	stats, err := f.svc.Stats(ctx, f.as("mgr"), attendance.StatsRequest{EmployeeID: "emp", StartDate: &from, EndDate: &to})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDays)
	assert.Equal(t, 1, stats.Present)
	assert.Equal(t, 1, stats.HalfDay)
	assert.Equal(t, 2, stats.OnLeave)
	assert.Equal(t, 5, stats.WorkingDays)
	assert.Equal(t, 30.0, stats.AttendancePercentage)
	assert.Equal(t, "2025-07-07", stats.Period.Start)
	assert.Equal(t, "2025-07-13", stats.Period.End)

	_, err = f.svc.Stats(ctx, f.as("other"), attendance.StatsRequest{EmployeeID: "emp"})
	var authErr *access.AuthorizationError
	assert.True(t, errors.As(err, &authErr))
}

func TestRecordAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in, out := "2025-07-03T09:00:00Z", "2025-07-03T15:00:00Z"

	resp, err := f.svc.Record(ctx, f.as("mgr"), attendance.RecordAttendanceRequest{
		EmployeeID: "emp", Date: "2025-07-03", CheckIn: &in, CheckOut: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "half-day", resp.Status)
	assert.Equal(t, 6.0, resp.WorkingHours)

	later := "2025-07-03T17:00:00Z"
	resp, err = f.svc.Update(ctx, f.as("mgr"), attendance.UpdateAttendanceRequest{ID: resp.ID, CheckOut: &later})
	require.NoError(t, err)
	assert.Equal(t, "present", resp.Status)
	assert.Equal(t, 8.0, resp.WorkingHours)

	early := "2025-07-03T08:00:00Z"
	_, err = f.svc.Update(ctx, f.as("mgr"), attendance.UpdateAttendanceRequest{ID: resp.ID, CheckOut: &early})
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeIn)

	absent := "absent"
	_, err = f.svc.Record(ctx, f.as("emp"), attendance.RecordAttendanceRequest{EmployeeID: "emp", Date: "2025-07-04", Status: &absent})
	var authErr *access.AuthorizationError
	assert.True(t, errors.As(err, &authErr))

	_, err = f.svc.Record(ctx, f.as("mgr"), attendance.RecordAttendanceRequest{EmployeeID: "other", Date: "2025-07-04", Status: &absent})
	assert.True(t, errors.As(err, &authErr))
}

func TestRecordAndUpdate_OwnRowRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	present := "present"
	var authErr *access.AuthorizationError

	_, err := f.svc.Record(ctx, f.as("mgr"), attendance.RecordAttendanceRequest{EmployeeID: "mgr", Date: "2025-07-06", Status: &present})
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "you cannot manage your own attendance", authErr.Rule)

	f.clock = time.Date(2025, 7, 7, 9, 0, 0, 0, time.UTC)
	_, err = f.svc.CheckIn(ctx, f.as("mgr"))
	require.NoError(t, err)
	f.clock = f.clock.Add(time.Hour)
	resp, err := f.svc.CheckOut(ctx, f.as("mgr"))
	require.NoError(t, err)
	assert.Equal(t, "absent", resp.Status)

	_, err = f.svc.Update(ctx, f.as("mgr"), attendance.UpdateAttendanceRequest{ID: resp.ID, Status: &present})
	require.True(t, errors.As(err, &authErr))

	stored, err := f.attendances.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, stored.Status)
}

func TestRecordAndUpdate_SingleDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in, out := "2025-07-03T09:00:00Z", "2025-07-03T15:00:00Z"

	resp, err := f.svc.Record(ctx, f.as("mgr"), attendance.RecordAttendanceRequest{
		EmployeeID: "emp", Date: "2025-07-03", CheckIn: &in, CheckOut: &out,
	})
	require.NoError(t, err)

	var errs validator.ValidationErrors
	nextMonth := "2025-08-20T17:00:00Z"
	_, err = f.svc.Update(ctx, f.as("mgr"), attendance.UpdateAttendanceRequest{ID: resp.ID, CheckOut: &nextMonth})
	require.True(t, errors.As(err, &errs))
	assert.Contains(t, errs.ToMap(), "check_out")

	otherIn, otherOut := "2025-07-04T09:00:00Z", "2025-07-04T17:00:00Z"
	_, err = f.svc.Record(ctx, f.as("mgr"), attendance.RecordAttendanceRequest{
		EmployeeID: "emp", Date: "2025-07-03", CheckIn: &otherIn, CheckOut: &otherOut,
	})
	require.True(t, errors.As(err, &errs))
	assert.Contains(t, errs.ToMap(), "check_in")

	spanIn, spanOut := "2025-07-03T09:00:00Z", "2025-07-05T09:00:00Z"
	req := attendance.UpdateAttendanceRequest{ID: resp.ID, CheckIn: &spanIn, CheckOut: &spanOut}
	require.True(t, errors.As(req.Validate(), &errs))
	assert.Equal(t, "must be on the same day as check_in", errs.ToMap()["check_out"])

	stored, err := f.attendances.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, stored.WorkingHours)
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, f.as("emp"))
	require.NoError(t, err)

	report, err := f.svc.Report(ctx, f.as("emp"), attendance.StatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.Equal(t, "attendance-EMP-emp-2025-07-01-2025-07-31.pdf", report.FileName)
	assert.True(t, bytes.HasPrefix(report.Content, []byte("%PDF")))
}
