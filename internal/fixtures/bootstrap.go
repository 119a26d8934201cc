// Package fixtures creates the records a fresh deployment needs before
// anyone can log in.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminEmployeeNumber = "ADMIN-0001"
	adminFirstName      = "System"
	adminLastName       = "Administrator"
)

// EnsureAdmin creates an active L3 admin with the given credentials unless an
// employee already uses the email. It reports whether a record was created.
func EnsureAdmin(ctx context.Context, employees employee.EmployeeRepository, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}

	_, err := employees.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		return false, fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("failed to generate id: %w", err)
	}

	joined := time.Now().UTC().Truncate(24 * time.Hour)
	admin := employee.Employee{
		ID:              id.String(),
		EmployeeNumber:  AdminEmployeeNumber,
		Email:           email,
		PasswordHash:    string(hash),
		FirstName:       adminFirstName,
		LastName:        adminLastName,
		ManagementLevel: user.LevelAdmin,
		Status:          employee.StatusActive,
		JoiningDate:     &joined,
	}
	admin.ApplyLevelCapabilities()

	if _, err := employees.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	slog.Info("bootstrap admin created", "employee_id", admin.ID, "email", email)
	return true, nil
}
