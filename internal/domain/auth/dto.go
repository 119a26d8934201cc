package auth

import (
	"strings"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validator.Struct(r)
}

type TokenResponse struct {
	AccessToken          string                    `json:"access_token"`
	AccessTokenExpiresIn int64                     `json:"access_token_expires_in"`
	Employee             employee.EmployeeResponse `json:"employee"`
}
