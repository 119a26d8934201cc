package employee

import (
	"context"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

// EmployeeService manages employee records under the level hierarchy.
type EmployeeService interface {
	Get(ctx context.Context, requester user.Requester, id string) (EmployeeResponse, error)
	List(ctx context.Context, requester user.Requester, req ListEmployeeRequest) ([]EmployeeResponse, error)
	DirectReports(ctx context.Context, requester user.Requester, managerID string) ([]EmployeeResponse, error)
	Create(ctx context.Context, requester user.Requester, req CreateEmployeeRequest) (EmployeeResponse, error)
	Update(ctx context.Context, requester user.Requester, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, requester user.Requester, id string) error
	Stats(ctx context.Context, requester user.Requester) (EmployeeStatsResponse, error)
}
