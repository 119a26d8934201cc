package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
)

type leaveRequestRepository struct {
	s   *Store
	now func() time.Time
}

func NewLeaveRequestRepository(s *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepository{s: s, now: time.Now}
}

// withNames expects s.mu to be held.
func (r *leaveRequestRepository) withNames(l leave.LeaveRequest) leave.LeaveRequest {
	l.ApprovalHistory = slices.Clone(l.ApprovalHistory)
	l.EmployeeName, l.ApproverName = nil, nil
	if e, ok := r.s.employees[l.EmployeeID]; ok {
		name := e.FullName()
		l.EmployeeName = &name
	}
	if l.ApprovedBy != nil {
		if ap, ok := r.s.employees[*l.ApprovedBy]; ok {
			name := ap.FullName()
			l.ApproverName = &name
		}
	}
	return l
}

func (r *leaveRequestRepository) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	if err := r.s.fail("leave.create"); err != nil {
		return leave.LeaveRequest{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.now()
	req.StartDate, req.EndDate = civilDate(req.StartDate), civilDate(req.EndDate)
	req.CreatedAt, req.UpdatedAt = now, now
	if req.ApprovalHistory == nil {
		req.ApprovalHistory = leave.ApprovalHistory{}
	}
	req.ApprovalHistory = slices.Clone(req.ApprovalHistory)
	req.EmployeeName, req.ApproverName = nil, nil
	r.s.leaves[req.ID] = req
	return r.withNames(req), nil
}

func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leaves[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return r.withNames(l), nil
}

// GetByIDForUpdate relies on the transaction lock of the store.
func (r *leaveRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *leaveRequestRepository) UpdateDecision(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	if err := r.s.fail("leave.update_decision"); err != nil {
		return leave.LeaveRequest{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.leaves[req.ID]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	current.Status = req.Status
	current.ApprovedBy = req.ApprovedBy
	current.ApprovalDate = req.ApprovalDate
	current.Remarks = req.Remarks
	current.ApprovalHistory = slices.Clone(req.ApprovalHistory)
	current.IsEscalated = req.IsEscalated
	current.EscalationDate = req.EscalationDate
	current.EscalatedTo = req.EscalatedTo
	current.CurrentApprover = req.CurrentApprover
	current.UpdatedAt = r.now()
	r.s.leaves[req.ID] = current
	return r.withNames(current), nil
}

func (r *leaveRequestRepository) Delete(ctx context.Context, id string) error {
	if err := r.s.fail("leave.delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.leaves[id]; !ok {
		return leave.ErrLeaveRequestNotFound
	}
	delete(r.s.leaves, id)
	return nil
}

func (r *leaveRequestRepository) collect(keep func(leave.LeaveRequest) bool) []leave.LeaveRequest {
	out := []leave.LeaveRequest{}
	for _, l := range r.s.leaves {
		if keep(l) {
			out = append(out, r.withNames(l))
		}
	}
	return out
}

func (r *leaveRequestRepository) List(ctx context.Context, filter leave.LeaveFilter) ([]leave.LeaveRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if filter.Scope.IsEmpty() {
		return []leave.LeaveRequest{}, nil
	}
	from, to := civilDate(filter.Range.From), civilDate(filter.Range.To)
	out := r.collect(func(l leave.LeaveRequest) bool {
		if !filter.Scope.Contains(l.EmployeeID) {
			return false
		}
		if l.StartDate.After(to) || l.EndDate.Before(from) {
			return false
		}
		return filter.Status == nil || l.Status == *filter.Status
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *leaveRequestRepository) ListByStatus(ctx context.Context, status leave.Status) ([]leave.LeaveRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := r.collect(func(l leave.LeaveRequest) bool { return l.Status == status })
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *leaveRequestRepository) ListPendingSince(ctx context.Context, cutoff time.Time) ([]leave.LeaveRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := r.collect(func(l leave.LeaveRequest) bool {
		if !l.IsPending() {
			return false
		}
		since := l.CreatedAt
		if l.EscalationDate != nil {
			since = *l.EscalationDate
		}
		return since.Before(cutoff)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *leaveRequestRepository) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	start, end = civilDate(start), civilDate(end)
	for _, l := range r.s.leaves {
		if l.EmployeeID != employeeID || l.Status == leave.StatusRejected {
			continue
		}
		if !l.StartDate.After(end) && !l.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}
