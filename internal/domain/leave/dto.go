package leave

import (
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
)

type CreateLeaveRequest struct {
	LeaveType string `json:"leave_type" validate:"required,oneof=annual sick casual maternity paternity unpaid half-day"`
	StartDate string `json:"start_date" validate:"required,date"`
	EndDate   string `json:"end_date" validate:"required,date"`
	Reason    string `json:"reason" validate:"required,max=1000"`

	// parsed by Validate
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *CreateLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}
	if len(errs) > 0 {
		return errs
	}

	r.Start, _ = validator.IsValidDate(r.StartDate)
	r.End, _ = validator.IsValidDate(r.EndDate)
	if r.End.Before(r.Start) {
		errs.Add("end_date", "end_date must be on or after start_date")
	}
	if Type(r.LeaveType) == TypeHalfDay && !r.End.Equal(r.Start) {
		errs.Add("end_date", ErrHalfDayMultipleDays.Error())
	}
	return errs.Err()
}

type UpdateStatusRequest struct {
	ID      string `json:"-"`
	Status  string `json:"status" validate:"required,oneof=approved rejected"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

func (r *UpdateStatusRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}
	return errs.Err()
}

type ListLeaveRequest struct {
	EmployeeID string
	StartDate  *string
	EndDate    *string
	Status     *string
}

func (r *ListLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.StartDate != nil {
		if _, ok := validator.IsValidDate(*r.StartDate); !ok {
			errs.Add("start_date", "must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs.Add("end_date", "must be in YYYY-MM-DD format")
		}
	}
	if r.Status != nil && !validator.IsInSlice(*r.Status, []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}) {
		errs.Add("status", "must be one of: pending approved rejected")
	}
	return errs.Err()
}

type ApprovalEntryResponse struct {
	Approver string `json:"approver"`
	Action   string `json:"action"`
	Date     string `json:"date"`
	Remarks  string `json:"remarks,omitempty"`
	Level    int    `json:"level"`
}

type LeaveResponse struct {
	ID              string                  `json:"id"`
	EmployeeID      string                  `json:"employee_id"`
	EmployeeName    *string                 `json:"employee_name,omitempty"`
	LeaveType       string                  `json:"leave_type"`
	StartDate       string                  `json:"start_date"`
	EndDate         string                  `json:"end_date"`
	Reason          string                  `json:"reason"`
	Status          string                  `json:"status"`
	ApprovedBy      *string                 `json:"approved_by"`
	ApproverName    *string                 `json:"approver_name,omitempty"`
	ApprovalDate    *string                 `json:"approval_date"`
	Remarks         *string                 `json:"remarks"`
	ApprovalHistory []ApprovalEntryResponse `json:"approval_history"`
	IsEscalated     bool                    `json:"is_escalated"`
	EscalationDate  *string                 `json:"escalation_date"`
	EscalatedTo     *string                 `json:"escalated_to"`
	CurrentApprover *string                 `json:"current_approver"`
	CreatedAt       string                  `json:"created_at"`
	UpdatedAt       string                  `json:"updated_at"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func ToResponse(l LeaveRequest) LeaveResponse {
	history := make([]ApprovalEntryResponse, 0, len(l.ApprovalHistory))
	for _, h := range l.ApprovalHistory {
		history = append(history, ApprovalEntryResponse{
			Approver: h.Approver,
			Action:   string(h.Action),
			Date:     h.Date.Format(time.RFC3339),
			Remarks:  h.Remarks,
			Level:    int(h.Level),
		})
	}
	return LeaveResponse{
		ID:              l.ID,
		EmployeeID:      l.EmployeeID,
		EmployeeName:    l.EmployeeName,
		LeaveType:       string(l.LeaveType),
		StartDate:       l.StartDate.Format(validator.DateLayout),
		EndDate:         l.EndDate.Format(validator.DateLayout),
		Reason:          l.Reason,
		Status:          string(l.Status),
		ApprovedBy:      l.ApprovedBy,
		ApproverName:    l.ApproverName,
		ApprovalDate:    formatTimePtr(l.ApprovalDate),
		Remarks:         l.Remarks,
		ApprovalHistory: history,
		IsEscalated:     l.IsEscalated,
		EscalationDate:  formatTimePtr(l.EscalationDate),
		EscalatedTo:     l.EscalatedTo,
		CurrentApprover: l.CurrentApprover,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       l.UpdatedAt.Format(time.RFC3339),
	}
}

func ToResponses(list []LeaveRequest) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(list))
	for _, l := range list {
		out = append(out, ToResponse(l))
	}
	return out
}

// SyncResult reports a batch re-sync with partial failures.
type SyncResult struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
	Total        int `json:"total"`
}

// EscalationResult reports one escalation sweep.
type EscalationResult struct {
	Escalated int `json:"escalated"`
	Skipped   int `json:"skipped"`
}
