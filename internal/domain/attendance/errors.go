package attendance

import (
	"errors"
	"fmt"
)

var (
	// Check-in / check-out
	ErrSundayOff          = errors.New("sunday is a week off for all employees")
	ErrSaturdayOff        = errors.New("saturday is not a working day for you")
	ErrAlreadyCheckedIn   = errors.New("already checked in today")
	ErrNotCheckedIn       = errors.New("please check in first")
	ErrAlreadyCheckedOut  = errors.New("already checked out today")
	ErrCheckOutBeforeIn   = errors.New("check_out must be after check_in")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAttendanceExists   = errors.New("attendance record already exists for this employee and date")
)

// ReconciliationError reports that attendance could not be brought in line
// with a leave decision. The decision is rolled back with it.
type ReconciliationError struct {
	LeaveID string
	Err     error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("attendance reconciliation failed for leave %s: %v", e.LeaveID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
