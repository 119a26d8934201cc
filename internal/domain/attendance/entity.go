package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half-day"
	StatusOnLeave Status = "on-leave"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusOnLeave:
		return true
	}
	return false
}

// IsLeaveStatus reports whether rows with this status are owned by leave sync.
func (s Status) IsLeaveStatus() bool {
	return s == StatusOnLeave || s == StatusHalfDay
}

// Attendance is one employee's record for one calendar day. Date is the
// civil date at midnight UTC; (EmployeeID, Date) is unique.
type Attendance struct {
	ID           string
	EmployeeID   string
	Date         time.Time
	CheckIn      *time.Time
	CheckOut     *time.Time
	WorkingHours float64
	Status       Status
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// DTO / Join
	EmployeeName *string
}

// HasOpenSession reports a check-in without a check-out.
func (a Attendance) HasOpenSession() bool {
	return a.CheckIn != nil && a.CheckOut == nil
}
