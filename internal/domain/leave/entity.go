package leave

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

type Type string

const (
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypeCasual    Type = "casual"
	TypeMaternity Type = "maternity"
	TypePaternity Type = "paternity"
	TypeUnpaid    Type = "unpaid"
	TypeHalfDay   Type = "half-day"
)

var Types = []Type{TypeAnnual, TypeSick, TypeCasual, TypeMaternity, TypePaternity, TypeUnpaid, TypeHalfDay}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the human readable note written on attendance rows, e.g. "Sick Leave".
func (t Type) Label() string {
	s := string(t)
	if s == "" {
		return "Leave"
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Leave"
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Action string

const (
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionEscalated Action = "escalated"
)

type LeaveRequest struct {
	ID              string
	EmployeeID      string
	LeaveType       Type
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	Status          Status
	ApprovedBy      *string
	ApprovalDate    *time.Time
	Remarks         *string
	ApprovalHistory ApprovalHistory
	IsEscalated     bool
	EscalationDate  *time.Time
	EscalatedTo     *string
	CurrentApprover *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// DTO / Join
	EmployeeName *string
	ApproverName *string
}

func (l LeaveRequest) IsPending() bool {
	return l.Status == StatusPending
}

// Days returns every calendar day in [StartDate, EndDate].
func (l LeaveRequest) Days() []time.Time {
	var days []time.Time
	for d := l.StartDate; !d.After(l.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ApprovalEntry is one step in a leave's decision log.
type ApprovalEntry struct {
	Approver string     `json:"approver"`
	Action   Action     `json:"action"`
	Date     time.Time  `json:"date"`
	Remarks  string     `json:"remarks,omitempty"`
	Level    user.Level `json:"level"`
}

// ApprovalHistory is stored as JSONB.
type ApprovalHistory []ApprovalEntry

// Value implements driver.Valuer for database storage
func (h ApprovalHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner for database retrieval
func (h *ApprovalHistory) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*h = ApprovalHistory{}
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return errors.New("failed to scan ApprovalHistory: invalid type")
	}
}
