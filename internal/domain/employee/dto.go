package employee

import (
	"strings"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	EmployeeNumber      string  `json:"employee_number" validate:"required"`
	Email               string  `json:"email" validate:"required,email"`
	Password            string  `json:"password" validate:"required,min=8"`
	FirstName           string  `json:"first_name" validate:"required,max=100"`
	LastName            string  `json:"last_name" validate:"required,max=100"`
	Phone               *string `json:"phone,omitempty"`
	Position            *string `json:"position,omitempty" validate:"omitempty,max=100"`
	DepartmentID        *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
	ManagementLevel     int     `json:"management_level" validate:"gte=0,lte=3"`
	ReportingManagerID  *string `json:"reporting_manager_id,omitempty"`
	CanApproveLeaves    bool    `json:"can_approve_leaves"`
	CanManageAttendance bool    `json:"can_manage_attendance"`
	SaturdayWorking     bool    `json:"saturday_working"`
	Status              string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive on-leave"`
	JoiningDate         *string `json:"joining_date,omitempty" validate:"omitempty,date"`
}

func (r *CreateEmployeeRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.EmployeeNumber = strings.TrimSpace(r.EmployeeNumber)

	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	if r.EmployeeNumber != "" && !validator.IsValidEmployeeNumber(r.EmployeeNumber) {
		errs.Add("employee_number", "employee_number must be 3-32 letters, digits or dashes")
	}
	if r.ReportingManagerID != nil && validator.IsEmpty(*r.ReportingManagerID) {
		r.ReportingManagerID = nil
	}

	return errs.Err()
}

// UpdateEmployeeRequest is a partial update; nil fields are left unchanged.
// A blank password keeps the current one and an empty reporting_manager_id
// detaches the employee from its manager.
type UpdateEmployeeRequest struct {
	ID                  string  `json:"-"`
	EmployeeNumber      *string `json:"employee_number,omitempty"`
	Email               *string `json:"email,omitempty" validate:"omitempty,email"`
	Password            *string `json:"password,omitempty"`
	FirstName           *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName            *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone               *string `json:"phone,omitempty"`
	Position            *string `json:"position,omitempty" validate:"omitempty,max=100"`
	DepartmentID        *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
	ManagementLevel     *int    `json:"management_level,omitempty" validate:"omitempty,gte=0,lte=3"`
	ReportingManagerID  *string `json:"reporting_manager_id,omitempty"`
	CanApproveLeaves    *bool   `json:"can_approve_leaves,omitempty"`
	CanManageAttendance *bool   `json:"can_manage_attendance,omitempty"`
	SaturdayWorking     *bool   `json:"saturday_working,omitempty"`
	Status              *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive on-leave"`
	JoiningDate         *string `json:"joining_date,omitempty" validate:"omitempty,date"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &email
	}
	if r.EmployeeNumber != nil && !validator.IsValidEmployeeNumber(strings.TrimSpace(*r.EmployeeNumber)) {
		errs.Add("employee_number", "employee_number must be 3-32 letters, digits or dashes")
	}
	if r.Password != nil {
		if validator.IsEmpty(*r.Password) {
			r.Password = nil
		} else if len(*r.Password) < 8 {
			errs.Add("password", "must be at least 8")
		}
	}

	return errs.Err()
}

type EmployeeResponse struct {
	ID                  string   `json:"id"`
	EmployeeNumber      string   `json:"employee_number"`
	Email               string   `json:"email"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	FullName            string   `json:"full_name"`
	Phone               *string  `json:"phone,omitempty"`
	Position            *string  `json:"position,omitempty"`
	DepartmentID        *string  `json:"department_id,omitempty"`
	ManagementLevel     int      `json:"management_level"`
	ReportingManagerID  *string  `json:"reporting_manager_id"`
	TeamMembers         []string `json:"team_members,omitempty"`
	CanApproveLeaves    bool     `json:"can_approve_leaves"`
	CanManageAttendance bool     `json:"can_manage_attendance"`
	SaturdayWorking     bool     `json:"saturday_working"`
	Status              string   `json:"status"`
	JoiningDate         *string  `json:"joining_date,omitempty"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

// ToResponse maps an employee to its wire shape. The password hash never leaves.
func ToResponse(e Employee) EmployeeResponse {
	var joining *string
	if e.JoiningDate != nil {
		s := e.JoiningDate.Format(validator.DateLayout)
		joining = &s
	}
	return EmployeeResponse{
		ID:                  e.ID,
		EmployeeNumber:      e.EmployeeNumber,
		Email:               e.Email,
		FirstName:           e.FirstName,
		LastName:            e.LastName,
		FullName:            e.FullName(),
		Phone:               e.Phone,
		Position:            e.Position,
		DepartmentID:        e.DepartmentID,
		ManagementLevel:     int(e.ManagementLevel),
		ReportingManagerID:  e.ReportingManagerID,
		TeamMembers:         e.TeamMembers,
		CanApproveLeaves:    e.CanApproveLeaves,
		CanManageAttendance: e.CanManageAttendance,
		SaturdayWorking:     e.SaturdayWorking,
		Status:              string(e.Status),
		JoiningDate:         joining,
		CreatedAt:           e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           e.UpdatedAt.Format(time.RFC3339),
	}
}

func ToResponses(list []Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(list))
	for _, e := range list {
		out = append(out, ToResponse(e))
	}
	return out
}

type ListEmployeeRequest struct {
	Search       *string
	Status       *string
	DepartmentID *string
	Level        *int
}

type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type EmployeeStatsResponse struct {
	Total        int          `json:"total"`
	Active       int          `json:"active"`
	Inactive     int          `json:"inactive"`
	OnLeave      int          `json:"on_leave"`
	ByDepartment []GroupCount `json:"by_department"`
	ByLevel      []GroupCount `json:"by_level"`
}

// LevelKey labels a level for stats grouping.
func LevelKey(l user.Level) string {
	return l.String()
}
