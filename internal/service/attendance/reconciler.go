package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
)

// Reconciler keeps attendance rows in line with leave decisions. Callers
// run it inside a transaction; it takes the per-employee lock itself.
type Reconciler struct {
	attendances attendance.AttendanceRepository
}

func NewReconciler(attendances attendance.AttendanceRepository) *Reconciler {
	return &Reconciler{attendances: attendances}
}

var _ leave.AttendanceReconciler = (*Reconciler)(nil)

// SyncApproved writes one row per day of the leave. An existing row for a
// day is overwritten, so repeating the call gives the same result.
func (r *Reconciler) SyncApproved(ctx context.Context, req leave.LeaveRequest) (int, error) {
	if err := r.attendances.LockEmployee(ctx, req.EmployeeID); err != nil {
		return 0, fmt.Errorf("failed to lock attendance of %s: %w", req.EmployeeID, err)
	}

	status, hours := attendance.StatusOnLeave, 0.0
	if req.LeaveType == leave.TypeHalfDay {
		status, hours = attendance.StatusHalfDay, LeaveHalfDayHours
	}
	notes := req.LeaveType.Label()

	synced := 0
	for _, day := range req.Days() {
		id, err := uuid.NewV7()
		if err != nil {
			return synced, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		_, err = r.attendances.UpsertLeaveDay(ctx, attendance.Attendance{
			ID:           id.String(),
			EmployeeID:   req.EmployeeID,
			Date:         civilDate(day),
			WorkingHours: hours,
			Status:       status,
			Notes:        &notes,
		})
		if err != nil {
			return synced, fmt.Errorf("failed to sync %s: %w", day.Format("2006-01-02"), err)
		}
		synced++
	}

	slog.Info("leave synced to attendance", "leave_id", req.ID, "employee_id", req.EmployeeID, "days", synced)
	return synced, nil
}

// Unsync deletes the leave-owned rows of the span. Rows with any other
// status are kept, and a second call deletes nothing.
func (r *Reconciler) Unsync(ctx context.Context, req leave.LeaveRequest) (int64, error) {
	if err := r.attendances.LockEmployee(ctx, req.EmployeeID); err != nil {
		return 0, fmt.Errorf("failed to lock attendance of %s: %w", req.EmployeeID, err)
	}

	deleted, err := r.attendances.DeleteLeaveDays(ctx, req.EmployeeID, civilDate(req.StartDate), civilDate(req.EndDate))
	if err != nil {
		return 0, fmt.Errorf("failed to remove leave %s from attendance: %w", req.ID, err)
	}

	slog.Info("leave removed from attendance", "leave_id", req.ID, "employee_id", req.EmployeeID, "deleted", deleted)
	return deleted, nil
}
