package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
)

const leaveColumns = `
	lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date, lr.reason, lr.status,
	lr.approved_by, lr.approval_date, lr.remarks, lr.approval_history, lr.is_escalated,
	lr.escalation_date, lr.escalated_to, lr.current_approver, lr.created_at, lr.updated_at`

// leaveSelect joins the employee and approver names used by responses.
const leaveSelect = `
	SELECT ` + leaveColumns + `,
		e.first_name || ' ' || e.last_name,
		CASE WHEN ap.id IS NULL THEN NULL ELSE ap.first_name || ' ' || ap.last_name END
	FROM leave_requests lr
	INNER JOIN employees e ON e.id = lr.employee_id
	LEFT JOIN employees ap ON ap.id = lr.approved_by`

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func scanLeave(row pgx.Row, lr *leave.LeaveRequest, extra ...any) error {
	dest := []any{
		&lr.ID, &lr.EmployeeID, &lr.LeaveType, &lr.StartDate, &lr.EndDate, &lr.Reason, &lr.Status,
		&lr.ApprovedBy, &lr.ApprovalDate, &lr.Remarks, &lr.ApprovalHistory, &lr.IsEscalated,
		&lr.EscalationDate, &lr.EscalatedTo, &lr.CurrentApprover, &lr.CreatedAt, &lr.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func collectLeaves(rows pgx.Rows) ([]leave.LeaveRequest, error) {
	defer rows.Close()

	requests := []leave.LeaveRequest{}
	for rows.Next() {
		var lr leave.LeaveRequest
		if err := scanLeave(rows, &lr, &lr.EmployeeName, &lr.ApproverName); err != nil {
			return nil, err
		}
		requests = append(requests, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests AS lr (
			id, employee_id, leave_type, start_date, end_date, reason, status, approval_history, current_approver
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + leaveColumns

	var created leave.LeaveRequest
	err := scanLeave(q.QueryRow(ctx, query,
		req.ID, req.EmployeeID, req.LeaveType, req.StartDate, req.EndDate, req.Reason, req.Status,
		req.ApprovalHistory, req.CurrentApprover,
	), &created)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return created, nil
}

func (r *leaveRequestRepositoryImpl) getOne(ctx context.Context, suffix string, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	var lr leave.LeaveRequest
	err := scanLeave(q.QueryRow(ctx, leaveSelect+` WHERE lr.id = $1`+suffix, id), &lr, &lr.EmployeeName, &lr.ApproverName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request %s: %w", id, err)
	}
	return lr, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getOne(ctx, "", id)
}

// GetByIDForUpdate implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getOne(ctx, " FOR UPDATE OF lr", id)
}

// UpdateDecision implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateDecision(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests lr SET
			status = $2, approved_by = $3, approval_date = $4, remarks = $5, approval_history = $6,
			is_escalated = $7, escalation_date = $8, escalated_to = $9, current_approver = $10,
			updated_at = NOW()
		WHERE lr.id = $1
		RETURNING ` + leaveColumns

	var updated leave.LeaveRequest
	err := scanLeave(q.QueryRow(ctx, query,
		req.ID, req.Status, req.ApprovedBy, req.ApprovalDate, req.Remarks, req.ApprovalHistory,
		req.IsEscalated, req.EscalationDate, req.EscalatedTo, req.CurrentApprover,
	), &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request %s: %w", req.ID, err)
	}
	updated.EmployeeName = req.EmployeeName
	return updated, nil
}

// Delete implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, filter leave.LeaveFilter) ([]leave.LeaveRequest, error) {
	if filter.Scope.IsEmpty() {
		return []leave.LeaveRequest{}, nil
	}
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// leaves overlapping the range
	conditions = append(conditions, "lr.start_date <= "+arg(filter.Range.To)+"::date", "lr.end_date >= "+arg(filter.Range.From)+"::date")
	if !filter.Scope.All {
		conditions = append(conditions, "lr.employee_id::text = ANY("+arg(filter.Scope.EmployeeIDs)+")")
	}
	if filter.Status != nil {
		conditions = append(conditions, "lr.status = "+arg(string(*filter.Status)))
	}

	query := leaveSelect + ` WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY lr.created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return collectLeaves(rows)
}

// ListByStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByStatus(ctx context.Context, status leave.Status) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, leaveSelect+` WHERE lr.status = $1 ORDER BY lr.start_date`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s leave requests: %w", status, err)
	}
	return collectLeaves(rows)
}

// ListPendingSince implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListPendingSince(ctx context.Context, cutoff time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, leaveSelect+`
		WHERE lr.status = 'pending' AND COALESCE(lr.escalation_date, lr.created_at) < $1
		ORDER BY lr.created_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending leaves: %w", err)
	}
	return collectLeaves(rows)
}

// HasOverlap implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE employee_id = $1 AND status IN ('pending', 'approved')
				AND start_date <= $3::date AND end_date >= $2::date
		)
	`, employeeID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping leave: %w", err)
	}
	return exists, nil
}
