package employee

import (
	"context"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	ListDirectReports(ctx context.Context, managerID string) ([]Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	ExistsByEmailOrNumber(ctx context.Context, email, employeeNumber string, excludeID *string) (emailTaken bool, numberTaken bool, err error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	Update(ctx context.Context, e Employee) (Employee, error)
	Delete(ctx context.Context, id string) error
	// ReassignReports moves every direct report of fromManagerID to toManagerID.
	ReassignReports(ctx context.Context, fromManagerID string, toManagerID *string) ([]string, error)
}

// TeamRepository stores the roster of direct reports per manager.
type TeamRepository interface {
	AddMember(ctx context.Context, managerID, memberID string) error
	RemoveMember(ctx context.Context, managerID, memberID string) error
	Members(ctx context.Context, managerID string) ([]string, error)
}

type EmployeeFilter struct {
	Scope        access.Scope
	Search       *string
	Status       *Status
	DepartmentID *string
	Level        *int
}
