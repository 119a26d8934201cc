package employee

import (
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusOnLeave  Status = "on-leave"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOnLeave:
		return true
	}
	return false
}

type Employee struct {
	ID                  string
	EmployeeNumber      string
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	Phone               *string
	Position            *string
	DepartmentID        *string
	ManagementLevel     user.Level
	ReportingManagerID  *string
	CanApproveLeaves    bool
	CanManageAttendance bool
	SaturdayWorking     bool
	Status              Status
	JoiningDate         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Derived roster of direct reports, filled by the repository on single reads.
	TeamMembers []string
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// ApplyLevelCapabilities forces the approval and attendance capabilities on
// for every management level. It never clears them; demotions reset the
// flags in the employee service.
func (e *Employee) ApplyLevelCapabilities() {
	if e.ManagementLevel >= user.LevelManager {
		e.CanApproveLeaves = true
		e.CanManageAttendance = true
	}
}

// Requester builds the request identity for this employee.
func (e Employee) Requester() user.Requester {
	return user.Requester{
		ID:                  e.ID,
		Email:               e.Email,
		Level:               e.ManagementLevel,
		CanApproveLeaves:    e.CanApproveLeaves || e.ManagementLevel >= user.LevelManager,
		CanManageAttendance: e.CanManageAttendance || e.ManagementLevel >= user.LevelManager,
	}
}

// ManagerIs reports whether managerID is the direct reporting manager.
func (e Employee) ManagerIs(managerID string) bool {
	return e.ReportingManagerID != nil && *e.ReportingManagerID == managerID
}
