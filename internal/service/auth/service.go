package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/auth"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	employee.EmployeeRepository
	jwt.Service
}

func NewAuthService(employeeRepository employee.EmployeeRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		EmployeeRepository: employeeRepository,
		Service:            jwtService,
	}
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest) (auth.TokenResponse, error) {
	if err := loginReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	emp, err := a.EmployeeRepository.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee by email: %w", err)
	}

	if emp.PasswordHash == "" {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if emp.Status == employee.StatusInactive {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	token, expiresAt, err := a.Service.GenerateAccessToken(emp.ID, emp.Email, emp.ManagementLevel)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	slog.Info("employee logged in", "employee_id", emp.ID)
	return auth.TokenResponse{
		AccessToken:          token,
		AccessTokenExpiresIn: expiresAt,
		Employee:             employee.ToResponse(emp),
	}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string, expiresAt int64) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	a.Service.RevokeToken(token, expiresAt)
	return nil
}

// Identify implements auth.AuthService.
func (a *AuthServiceImpl) Identify(ctx context.Context, employeeID string) (user.Requester, error) {
	if employeeID == "" {
		return user.Requester{}, user.ErrRequesterMissing
	}
	emp, err := a.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return user.Requester{}, user.ErrRequesterMissing
		}
		return user.Requester{}, fmt.Errorf("failed to load requester: %w", err)
	}
	if emp.Status == employee.StatusInactive {
		return user.Requester{}, user.ErrRequesterInactive
	}
	return emp.Requester(), nil
}

// Me implements auth.AuthService.
func (a *AuthServiceImpl) Me(ctx context.Context, requester user.Requester) (employee.EmployeeResponse, error) {
	emp, err := a.EmployeeRepository.GetByID(ctx, requester.ID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.ToResponse(emp), nil
}
