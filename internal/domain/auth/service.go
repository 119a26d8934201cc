package auth

import (
	"context"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	// Logout revokes the access token until it expires.
	Logout(ctx context.Context, token string, expiresAt int64) error
	// Identify loads the current state of the token's employee.
	Identify(ctx context.Context, employeeID string) (user.Requester, error)
	Me(ctx context.Context, requester user.Requester) (employee.EmployeeResponse, error)
}
