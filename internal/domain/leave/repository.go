package leave

import (
	"context"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
)

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveRequest, error)
	// UpdateDecision persists status, approval, history and escalation fields.
	UpdateDecision(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter LeaveFilter) ([]LeaveRequest, error)
	ListByStatus(ctx context.Context, status Status) ([]LeaveRequest, error)
	// ListPendingSince returns pending leaves waiting on their current approver since before cutoff.
	ListPendingSince(ctx context.Context, cutoff time.Time) ([]LeaveRequest, error)
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
}

// AttendanceReconciler keeps the attendance ledger in line with leave decisions.
type AttendanceReconciler interface {
	SyncApproved(ctx context.Context, req LeaveRequest) (int, error)
	Unsync(ctx context.Context, req LeaveRequest) (int64, error)
}

type LeaveFilter struct {
	Scope  access.Scope
	Range  access.DateRange
	Status *Status
}
