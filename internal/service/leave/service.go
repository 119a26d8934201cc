package leave

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
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
	accesssvc "github.com/redaxis-hris/hrms-backend-go/internal/service/access"
	"github.com/sethvargo/go-retry"
)

const (
	retryBase     = 50 * time.Millisecond
	retryAttempts = 3
)

type LeaveServiceImpl struct {
	tx            database.Transactor
	leaves        leave.LeaveRequestRepository
	employees     employee.EmployeeRepository
	reconciler    leave.AttendanceReconciler
	resolver      *accesssvc.Resolver
	escalateAfter time.Duration
	now           func() time.Time
	backoff       func() retry.Backoff
}

func NewLeaveService(
	tx database.Transactor,
	leaves leave.LeaveRequestRepository,
	employees employee.EmployeeRepository,
	reconciler leave.AttendanceReconciler,
	resolver *accesssvc.Resolver,
	escalateAfter time.Duration,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		tx:            tx,
		leaves:        leaves,
		employees:     employees,
		reconciler:    reconciler,
		resolver:      resolver,
		escalateAfter: escalateAfter,
		now:           time.Now,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(retryAttempts, retry.NewExponential(retryBase))
		},
	}
}

// WithClock overrides the clock used for decision and escalation dates.
func (s *LeaveServiceImpl) WithClock(now func() time.Time) *LeaveServiceImpl {
	s.now = now
	return s
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)

// Create implements leave.LeaveService.
func (s *LeaveServiceImpl) Create(ctx context.Context, requester user.Requester, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	applicant, err := s.employees.GetByID(ctx, requester.ID)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	var created leave.LeaveRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		overlap, err := s.leaves.HasOverlap(ctx, applicant.ID, req.Start, req.End)
		if err != nil {
			return err
		}
		if overlap {
			return leave.ErrOverlappingLeave
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate leave id: %w", err)
		}
		created, err = s.leaves.Create(ctx, leave.LeaveRequest{
			ID:              id.String(),
			EmployeeID:      applicant.ID,
			LeaveType:       leave.Type(req.LeaveType),
			StartDate:       req.Start,
			EndDate:         req.End,
			Reason:          req.Reason,
			Status:          leave.StatusPending,
			ApprovalHistory: leave.ApprovalHistory{},
			CurrentApprover: applicant.ReportingManagerID,
		})
		return err
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	name := applicant.FullName()
	created.EmployeeName = &name
	slog.Info("leave requested", "leave_id", created.ID, "employee_id", applicant.ID, "type", created.LeaveType)
	return leave.ToResponse(created), nil
}

// Get implements leave.LeaveService. Leaves outside the requester's scope
// are reported as not found.
func (s *LeaveServiceImpl) Get(ctx context.Context, requester user.Requester, id string) (leave.LeaveResponse, error) {
	l, err := s.leaves.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	scope, err := s.resolver.EmployeeScope(ctx, requester, l.EmployeeID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if scope.IsEmpty() {
		return leave.LeaveResponse{}, leave.ErrLeaveRequestNotFound
	}
	return leave.ToResponse(l), nil
}

// List implements leave.LeaveService.
func (s *LeaveServiceImpl) List(ctx context.Context, requester user.Requester, req leave.ListLeaveRequest) ([]leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scope, rng, err := s.resolver.LeaveScope(ctx, requester, req.EmployeeID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	filter := leave.LeaveFilter{Scope: scope, Range: rng}
	if req.Status != nil {
		status := leave.Status(*req.Status)
		filter.Status = &status
	}

	list, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return leave.ToResponses(list), nil
}

// UpdateStatus implements leave.LeaveService. The decision and the
// attendance reconciliation commit together or not at all, and the unit
// is repeated on transient store failures.
func (s *LeaveServiceImpl) UpdateStatus(ctx context.Context, requester user.Requester, req leave.UpdateStatusRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	attempt := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			return s.decide(ctx, requester, req)
		})
		if err != nil && database.IsTransient(err) {
			slog.Warn("leave decision failed, retrying", "leave_id", req.ID, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		var recErr *attendance.ReconciliationError
		if errors.As(err, &recErr) {
			slog.Error("leave decision rolled back", "leave_id", req.ID, "attempts", attempt, "error", err)
		}
		return leave.LeaveResponse{}, err
	}

	decided, err := s.leaves.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to reload leave request: %w", err)
	}
	slog.Info("leave decided", "leave_id", decided.ID, "status", decided.Status, "approver_id", requester.ID)
	return leave.ToResponse(decided), nil
}

func (s *LeaveServiceImpl) decide(ctx context.Context, requester user.Requester, req leave.UpdateStatusRequest) error {
	l, err := s.leaves.GetByIDForUpdate(ctx, req.ID)
	if err != nil {
		return err
	}
	if !l.IsPending() {
		return leave.ErrLeaveRequestAlreadyProcessed
	}

	applicant, err := s.employees.GetByID(ctx, l.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to get leave applicant: %w", err)
	}
	if err := s.resolver.CanApproveLeave(ctx, requester, applicant); err != nil {
		return err
	}

	now := s.now()
	status := leave.Status(req.Status)
	approver := requester.ID
	l.Status = status
	l.ApprovedBy = &approver
	l.ApprovalDate = &now
	l.Remarks = nil
	if req.Remarks != "" {
		remarks := req.Remarks
		l.Remarks = &remarks
	}
	l.ApprovalHistory = append(l.ApprovalHistory, leave.ApprovalEntry{
		Approver: requester.ID,
		Action:   leave.Action(status),
		Date:     now,
		Remarks:  req.Remarks,
		Level:    requester.Level,
	})
	if status == leave.StatusApproved && l.IsEscalated {
		l.IsEscalated = false
		l.EscalationDate = nil
		l.EscalatedTo = nil
	}
	l.CurrentApprover = nil

	if _, err := s.leaves.UpdateDecision(ctx, l); err != nil {
		return fmt.Errorf("failed to save leave decision: %w", err)
	}

	if status == leave.StatusApproved {
		_, err = s.reconciler.SyncApproved(ctx, l)
	} else {
		_, err = s.reconciler.Unsync(ctx, l)
	}
	if err != nil {
		return &attendance.ReconciliationError{LeaveID: l.ID, Err: err}
	}
	return nil
}

// Cancel implements leave.LeaveService.
func (s *LeaveServiceImpl) Cancel(ctx context.Context, requester user.Requester, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.leaves.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l.EmployeeID != requester.ID && !requester.IsAdmin() {
			return leave.ErrNotAuthorizedToCancel
		}
		if !l.IsPending() {
			return leave.ErrOnlyPendingCanBeCancelled
		}

		if err := s.leaves.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.reconciler.Unsync(ctx, l); err != nil {
			return &attendance.ReconciliationError{LeaveID: l.ID, Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("leave cancelled", "leave_id", id, "by", requester.ID)
	return nil
}

// SyncAllApproved implements leave.LeaveService. Every approved leave is
// re-synced in its own transaction; failures are counted, not fatal.
func (s *LeaveServiceImpl) SyncAllApproved(ctx context.Context, requester user.Requester) (leave.SyncResult, error) {
	if !requester.HasPermission(user.PermissionLeaveSyncAll) {
		return leave.SyncResult{}, access.Deny("only L3 Admins can re-sync approved leaves")
	}

	approved, err := s.leaves.ListByStatus(ctx, leave.StatusApproved)
	if err != nil {
		return leave.SyncResult{}, fmt.Errorf("failed to list approved leaves: %w", err)
	}

	result := leave.SyncResult{Total: len(approved)}
	for _, l := range approved {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.reconciler.SyncApproved(ctx, l)
			return err
		})
		if err != nil {
			result.ErrorCount++
			slog.Error("failed to sync approved leave", "leave_id", l.ID, "error", err)
			continue
		}
		result.SuccessCount++
	}

	slog.Info("approved leaves re-synced", "total", result.Total, "success", result.SuccessCount, "errors", result.ErrorCount)
	return result, nil
}
