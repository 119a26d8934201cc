package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
)

// EscalateStale implements leave.LeaveService. A pending leave whose
// current approver has not acted within the escalation window moves to
// the next manager up that approver's chain.
func (s *LeaveServiceImpl) EscalateStale(ctx context.Context) (leave.EscalationResult, error) {
	now := s.now()
	stale, err := s.leaves.ListPendingSince(ctx, now.Add(-s.escalateAfter))
	if err != nil {
		return leave.EscalationResult{}, fmt.Errorf("failed to list stale leaves: %w", err)
	}

	var result leave.EscalationResult
	for _, candidate := range stale {
		escalated := false
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			escalated, err = s.escalate(ctx, candidate.ID)
			return err
		})
		if err != nil {
			slog.Error("failed to escalate leave", "leave_id", candidate.ID, "error", err)
			result.Skipped++
			continue
		}
		if escalated {
			result.Escalated++
		} else {
			result.Skipped++
		}
	}

	if len(stale) > 0 {
		slog.Info("leave escalation sweep finished", "escalated", result.Escalated, "skipped", result.Skipped)
	}
	return result, nil
}

func (s *LeaveServiceImpl) escalate(ctx context.Context, id string) (bool, error) {
	l, err := s.leaves.GetByIDForUpdate(ctx, id)
	if err != nil {
		return false, err
	}
	if !l.IsPending() {
		return false, nil
	}

	currentID := l.CurrentApprover
	if currentID == nil {
		applicant, err := s.employees.GetByID(ctx, l.EmployeeID)
		if err != nil {
			return false, fmt.Errorf("failed to get leave applicant: %w", err)
		}
		currentID = applicant.ReportingManagerID
	}
	if currentID == nil {
		return false, nil
	}

	current, err := s.employees.GetByID(ctx, *currentID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get current approver: %w", err)
	}
	next, err := s.resolver.Directory().NextApprover(ctx, current.ID)
	if err != nil {
		return false, err
	}
	if next == nil || next.ID == l.EmployeeID {
		return false, nil
	}

	now := s.now()
	l.IsEscalated = true
	l.EscalationDate = &now
	l.EscalatedTo = &next.ID
	l.CurrentApprover = &next.ID
	l.ApprovalHistory = append(l.ApprovalHistory, leave.ApprovalEntry{
		Approver: current.ID,
		Action:   leave.ActionEscalated,
		Date:     now,
		Remarks:  "no action within the escalation window, escalated to " + next.FullName(),
		Level:    current.ManagementLevel,
	})
	if _, err := s.leaves.UpdateDecision(ctx, l); err != nil {
		return false, fmt.Errorf("failed to save escalation: %w", err)
	}

	slog.Info("leave escalated", "leave_id", l.ID, "from", current.ID, "to", next.ID)
	return true, nil
}
