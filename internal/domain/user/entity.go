package user

import "fmt"

// Level is the management rank of an employee.
type Level int

const (
	LevelEmployee      Level = 0 // L0
	LevelManager       Level = 1 // L1 reporting manager
	LevelSeniorManager Level = 2 // L2
	LevelAdmin         Level = 3 // L3
)

func (l Level) Valid() bool {
	return l >= LevelEmployee && l <= LevelAdmin
}

func (l Level) String() string {
	switch l {
	case LevelEmployee:
		return "L0 Employee"
	case LevelManager:
		return "L1 Manager"
	case LevelSeniorManager:
		return "L2 Senior Manager"
	case LevelAdmin:
		return "L3 Admin"
	default:
		return fmt.Sprintf("L%d", int(l))
	}
}

// Requester is the authenticated employee acting on a request.
type Requester struct {
	ID                  string
	Email               string
	Level               Level
	CanApproveLeaves    bool
	CanManageAttendance bool
}

// IsAdmin reports whether the requester is L3.
func (r Requester) IsAdmin() bool {
	return r.Level == LevelAdmin
}

// IsManager checks for any management level.
func (r Requester) IsManager() bool {
	return r.Level >= LevelManager
}

func (r Requester) HasPermission(permission Permission) bool {
	return HasPermission(r.Level, permission)
}
