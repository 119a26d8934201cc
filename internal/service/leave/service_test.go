package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
	"github.com/redaxis-hris/hrms-backend-go/internal/repository/memory"
	accesssvc "github.com/redaxis-hris/hrms-backend-go/internal/service/access"
	attendancesvc "github.com/redaxis-hris/hrms-backend-go/internal/service/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/service/hierarchy"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store       *memory.Store
	attendances attendance.AttendanceRepository
	employees   map[string]employee.Employee
	svc         *LeaveServiceImpl
	clock       time.Time
}

func (f *fixture) as(id string) user.Requester {
	return f.employees[id].Requester()
}

// admin > senior > (mgrA > empA1, empA2), (mgrB > empB1)
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repo := memory.NewEmployeeRepository(store)
	f := &fixture{
		store:       store,
		attendances: memory.NewAttendanceRepository(store),
		employees:   map[string]employee.Employee{},
		clock:       time.Date(2025, 6, 25, 10, 0, 0, 0, time.UTC),
	}
	add := func(id string, level user.Level, manager string) {
		e := employee.Employee{
			ID:              id,
			EmployeeNumber:  "EMP-" + id,
			Email:           id + "@example.com",
			FirstName:       id,
			LastName:        "Test",
			ManagementLevel: level,
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
	add("admin", user.LevelAdmin, "")
	add("senior", user.LevelSeniorManager, "admin")
	add("mgrA", user.LevelManager, "senior")
	add("mgrB", user.LevelManager, "senior")
	add("empA1", user.LevelEmployee, "mgrA")
	add("empA2", user.LevelEmployee, "mgrA")
	add("empB1", user.LevelEmployee, "mgrB")

	clock := func() time.Time { return f.clock }
	resolver := accesssvc.NewResolver(hierarchy.NewDirectory(repo), time.UTC).WithClock(clock)
	f.svc = NewLeaveService(
		store.Transactor(),
		memory.NewLeaveRequestRepository(store),
		repo,
		attendancesvc.NewReconciler(f.attendances),
		resolver,
		72*time.Hour,
	).WithClock(clock)
	f.svc.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(retryAttempts, retry.NewConstant(time.Millisecond))
	}
	return f
}

func (f *fixture) file(t *testing.T, employeeID, typ, from, to string) leave.LeaveResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.as(employeeID), leave.CreateLeaveRequest{
		LeaveType: typ, StartDate: from, EndDate: to, Reason: "family",
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) leaveRows(t *testing.T, employeeID string) []attendance.Attendance {
	t.Helper()
	rows, err := f.attendances.List(context.Background(), attendance.AttendanceFilter{
		Scope: access.Only(employeeID),
		Range: accesssvc.DayRange(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return rows
}

func isAuthError(err error) bool {
	var authErr *access.AuthorizationError
	return errors.As(err, &authErr)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	resp := f.file(t, "empA1", "annual", "2025-07-01", "2025-07-03")
	assert.Equal(t, "pending", resp.Status)
	require.NotNil(t, resp.CurrentApprover)
	assert.Equal(t, "mgrA", *resp.CurrentApprover)
	assert.Equal(t, "empA1 Test", *resp.EmployeeName)
	assert.Empty(t, resp.ApprovalHistory)

	_, err := f.svc.Create(context.Background(), f.as("empA1"), leave.CreateLeaveRequest{
		LeaveType: "sick", StartDate: "2025-07-03", EndDate: "2025-07-04", Reason: "flu",
	})
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)

	_, err = f.svc.Create(context.Background(), f.as("empA1"), leave.CreateLeaveRequest{
		LeaveType: "half-day", StartDate: "2025-07-10", EndDate: "2025-07-11", Reason: "dentist",
	})
	assert.Error(t, err)
}

func TestApprove_MaterializesAttendance(t *testing.T) {
	f := newFixture(t)
	req := f.file(t, "empA1", "annual", "2025-07-01", "2025-07-03")

	resp, err := f.svc.UpdateStatus(context.Background(), f.as("mgrA"), leave.UpdateStatusRequest{
		ID: req.ID, Status: "approved", Remarks: "enjoy",
	})
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	assert.Equal(t, "mgrA", *resp.ApprovedBy)
	assert.Equal(t, "mgrA Test", *resp.ApproverName)
	assert.Equal(t, "empA1 Test", *resp.EmployeeName)
	assert.Nil(t, resp.CurrentApprover)
	require.Len(t, resp.ApprovalHistory, 1)
	assert.Equal(t, leave.ApprovalEntryResponse{
		Approver: "mgrA", Action: "approved", Date: f.clock.Format(time.RFC3339), Remarks: "enjoy", Level: 1,
	}, resp.ApprovalHistory[0])

	rows := f.leaveRows(t, "empA1")
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, attendance.StatusOnLeave, r.Status)
	}

	_, err = f.svc.UpdateStatus(context.Background(), f.as("senior"), leave.UpdateStatusRequest{ID: req.ID, Status: "rejected"})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)
	assert.Len(t, f.leaveRows(t, "empA1"), 3)
}

func TestApprove_HalfDay(t *testing.T) {
	f := newFixture(t)
	req := f.file(t, "empB1", "half-day", "2025-07-08", "2025-07-08")

	_, err := f.svc.UpdateStatus(context.Background(), f.as("senior"), leave.UpdateStatusRequest{ID: req.ID, Status: "approved"})
	require.NoError(t, err)

	rows := f.leaveRows(t, "empB1")
	require.Len(t, rows, 1)
	assert.Equal(t, attendance.StatusHalfDay, rows[0].Status)
	assert.Equal(t, 4.0, rows[0].WorkingHours)
}

func TestReject_LeavesNoRows(t *testing.T) {
	f := newFixture(t)
	req := f.file(t, "empA2", "casual", "2025-07-01", "2025-07-02")

	resp, err := f.svc.UpdateStatus(context.Background(), f.as("mgrA"), leave.UpdateStatusRequest{ID: req.ID, Status: "rejected", Remarks: "busy week"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", resp.Status)
	assert.Equal(t, "busy week", *resp.Remarks)
	assert.Empty(t, f.leaveRows(t, "empA2"))
}

func TestUpdateStatus_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	peer := f.file(t, "mgrB", "annual", "2025-07-01", "2025-07-01")
	own := f.file(t, "mgrA", "annual", "2025-07-02", "2025-07-02")

	_, err := f.svc.UpdateStatus(ctx, f.as("mgrA"), leave.UpdateStatusRequest{ID: peer.ID, Status: "approved"})
	assert.True(t, isAuthError(err))

	_, err = f.svc.UpdateStatus(ctx, f.as("mgrA"), leave.UpdateStatusRequest{ID: own.ID, Status: "approved"})
	assert.True(t, isAuthError(err))

	_, err = f.svc.UpdateStatus(ctx, f.as("empA1"), leave.UpdateStatusRequest{ID: peer.ID, Status: "approved"})
	assert.True(t, isAuthError(err))

	got, err := f.svc.Get(ctx, f.as("admin"), peer.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)

	_, err = f.svc.UpdateStatus(ctx, f.as("mgrA"), leave.UpdateStatusRequest{ID: "missing", Status: "approved"})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
}

func TestUpdateStatus_ReconciliationFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.file(t, "empA1", "sick", "2025-07-01", "2025-07-03")

	writes := 0
	f.store.FailNext = func(op string) error {
		if op != "attendance.upsert_leave_day" {
			return nil
		}
		writes++
		if writes == 2 {
			return errors.New("disk full")
		}
		return nil
	}

	_, err := f.svc.UpdateStatus(ctx, f.as("mgrA"), leave.UpdateStatusRequest{ID: req.ID, Status: "approved"})
	var recErr *attendance.ReconciliationError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, req.ID, recErr.LeaveID)

	got, err := f.svc.Get(ctx, f.as("empA1"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	assert.Empty(t, got.ApprovalHistory)
	assert.Empty(t, f.leaveRows(t, "empA1"))
}

func TestUpdateStatus_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.file(t, "empA1", "annual", "2025-07-01", "2025-07-02")

	failures := 0
	f.store.FailNext = func(op string) error {
		if op == "attendance.upsert_leave_day" && failures < 2 {
			failures++
			return database.ErrTransient
		}
		return nil
	}

	resp, err := f.svc.UpdateStatus(ctx, f.as("mgrA"), leave.UpdateStatusRequest{ID: req.ID, Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, 2, failures)
	assert.Equal(t, "approved", resp.Status)
	assert.Len(t, resp.ApprovalHistory, 1)
	assert.Len(t, f.leaveRows(t, "empA1"), 2)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.file(t, "empA1", "annual", "2025-07-01", "2025-07-02")

	assert.ErrorIs(t, f.svc.Cancel(ctx, f.as("mgrA"), req.ID), leave.ErrNotAuthorizedToCancel)
	require.NoError(t, f.svc.Cancel(ctx, f.as("empA1"), req.ID))
	_, err := f.svc.Get(ctx, f.as("empA1"), req.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

	decided := f.file(t, "empA2", "annual", "2025-07-01", "2025-07-02")
	_, err = f.svc.UpdateStatus(ctx, f.as("mgrA"), leave.UpdateStatusRequest{ID: decided.ID, Status: "approved"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Cancel(ctx, f.as("empA2"), decided.ID), leave.ErrOnlyPendingCanBeCancelled)

	byAdmin := f.file(t, "empB1", "annual", "2025-07-01", "2025-07-02")
	assert.NoError(t, f.svc.Cancel(ctx, f.as("admin"), byAdmin.ID))
}

func TestGetAndList_Scope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clock = time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	a1 := f.file(t, "empA1", "annual", "2025-07-01", "2025-07-02")
	f.file(t, "empB1", "annual", "2025-07-30", "2025-08-02")
	f.file(t, "empA2", "annual", "2025-08-10", "2025-08-11")

	_, err := f.svc.Get(ctx, f.as("mgrB"), a1.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

	list, err := f.svc.List(ctx, f.as("mgrA"), leave.ListLeaveRequest{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a1.ID, list[0].ID)

	// leaves overlapping the range are included
	list, err = f.svc.List(ctx, f.as("senior"), leave.ListLeaveRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	pending := "pending"
	list, err = f.svc.List(ctx, f.as("empB1"), leave.ListLeaveRequest{EmployeeID: "empA1", Status: &pending})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSyncAllApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"empA1", "empA2"} {
		req := f.file(t, id, "annual", "2025-07-01", "2025-07-02")
		_, err := f.svc.UpdateStatus(ctx, f.as("mgrA"), leave.UpdateStatusRequest{ID: req.ID, Status: "approved"})
		require.NoError(t, err)
	}

	_, err := f.svc.SyncAllApproved(ctx, f.as("senior"))
	assert.True(t, isAuthError(err))

	calls := 0
	f.store.FailNext = func(op string) error {
		if op == "attendance.upsert_leave_day" {
			calls++
			if calls == 1 {
				return errors.New("lost connection")
			}
		}
		return nil
	}

	result, err := f.svc.SyncAllApproved(ctx, f.as("admin"))
	require.NoError(t, err)
	assert.Equal(t, leave.SyncResult{SuccessCount: 1, ErrorCount: 1, Total: 2}, result)
}

func TestEscalateStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.file(t, "empA1", "annual", "2025-07-01", "2025-07-02")

	// nothing is stale yet
	f.clock = time.Now()
	result, err := f.svc.EscalateStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, leave.EscalationResult{}, result)

	f.clock = time.Now().Add(73 * time.Hour)
	result, err = f.svc.EscalateStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Escalated)

	got, err := f.svc.Get(ctx, f.as("admin"), req.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEscalated)
	assert.Equal(t, "senior", *got.EscalatedTo)
	assert.Equal(t, "senior", *got.CurrentApprover)
	require.Len(t, got.ApprovalHistory, 1)
	assert.Equal(t, "escalated", got.ApprovalHistory[0].Action)
	assert.Equal(t, "mgrA", got.ApprovalHistory[0].Approver)

	// the window restarts at the escalation
	result, err = f.svc.EscalateStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Escalated)

	f.clock = f.clock.Add(73 * time.Hour)
	_, err = f.svc.EscalateStale(ctx)
	require.NoError(t, err)
	got, err = f.svc.Get(ctx, f.as("admin"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", *got.CurrentApprover)

	// approving clears the escalation
	resp, err := f.svc.UpdateStatus(ctx, f.as("admin"), leave.UpdateStatusRequest{ID: req.ID, Status: "approved"})
	require.NoError(t, err)
	assert.False(t, resp.IsEscalated)
	assert.Nil(t, resp.EscalatedTo)
	assert.Nil(t, resp.EscalationDate)
	assert.Len(t, resp.ApprovalHistory, 3)

	// top of the chain has nowhere to go
	f.file(t, "senior", "annual", "2025-09-01", "2025-09-01")
	f.clock = f.clock.Add(200 * time.Hour)
	result, err = f.svc.EscalateStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Escalated)
	assert.Equal(t, 1, result.Skipped)
}
