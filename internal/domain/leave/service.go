package leave

import (
	"context"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

// LeaveService runs the leave approval workflow.
type LeaveService interface {
	Create(ctx context.Context, requester user.Requester, req CreateLeaveRequest) (LeaveResponse, error)
	Get(ctx context.Context, requester user.Requester, id string) (LeaveResponse, error)
	List(ctx context.Context, requester user.Requester, req ListLeaveRequest) ([]LeaveResponse, error)
	UpdateStatus(ctx context.Context, requester user.Requester, req UpdateStatusRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, requester user.Requester, id string) error
	SyncAllApproved(ctx context.Context, requester user.Requester) (SyncResult, error)
	EscalateStale(ctx context.Context) (EscalationResult, error)
}
