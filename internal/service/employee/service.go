package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
	accesssvc "github.com/redaxis-hris/hrms-backend-go/internal/service/access"
	"golang.org/x/crypto/bcrypt"
)

type EmployeeServiceImpl struct {
	tx           database.Transactor
	employeeRepo employee.EmployeeRepository
	teamRepo     employee.TeamRepository
	resolver     *accesssvc.Resolver
}

func NewEmployeeService(
	tx database.Transactor,
	employeeRepo employee.EmployeeRepository,
	teamRepo employee.TeamRepository,
	resolver *accesssvc.Resolver,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		tx:           tx,
		employeeRepo: employeeRepo,
		teamRepo:     teamRepo,
		resolver:     resolver,
	}
}

// Get implements employee.EmployeeService. Employees outside the
// requester's scope are reported as not found.
func (s *EmployeeServiceImpl) Get(ctx context.Context, requester user.Requester, id string) (employee.EmployeeResponse, error) {
	visible, err := s.resolver.CanViewEmployee(ctx, requester, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if !visible {
		return employee.EmployeeResponse{}, employee.ErrEmployeeNotFound
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.ToResponse(emp), nil
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, requester user.Requester, req employee.ListEmployeeRequest) ([]employee.EmployeeResponse, error) {
	var errs validator.ValidationErrors
	filter := employee.EmployeeFilter{Search: req.Search, DepartmentID: req.DepartmentID, Level: req.Level}
	if req.Status != nil {
		status := employee.Status(*req.Status)
		if !status.Valid() {
			errs.Add("status", "must be one of: active inactive on-leave")
		}
		filter.Status = &status
	}
	if req.Level != nil && !user.Level(*req.Level).Valid() {
		errs.Add("management_level", "must be between 0 and 3")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	scope, err := s.resolver.EmployeeScope(ctx, requester, "")
	if err != nil {
		return nil, err
	}
	filter.Scope = scope

	list, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employee.ToResponses(list), nil
}

// DirectReports implements employee.EmployeeService.
func (s *EmployeeServiceImpl) DirectReports(ctx context.Context, requester user.Requester, managerID string) ([]employee.EmployeeResponse, error) {
	scope, err := s.resolver.EmployeeScope(ctx, requester, "")
	if err != nil {
		return nil, err
	}
	if !scope.Contains(managerID) {
		return nil, employee.ErrEmployeeNotFound
	}

	reports, err := s.resolver.Directory().DirectReports(ctx, managerID)
	if err != nil {
		return nil, err
	}
	visible := make([]employee.Employee, 0, len(reports))
	for _, r := range reports {
		if scope.Contains(r.ID) {
			visible = append(visible, r)
		}
	}
	return employee.ToResponses(visible), nil
}

// Create implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Create(ctx context.Context, requester user.Requester, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	level := user.Level(req.ManagementLevel)
	if err := s.resolver.CanCreateEmployee(ctx, requester, level, req.ReportingManagerID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to generate employee id: %w", err)
	}

	newEmployee := employee.Employee{
		ID:                  id.String(),
		EmployeeNumber:      req.EmployeeNumber,
		Email:               req.Email,
		PasswordHash:        string(hash),
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Phone:               req.Phone,
		Position:            req.Position,
		DepartmentID:        req.DepartmentID,
		ManagementLevel:     level,
		ReportingManagerID:  req.ReportingManagerID,
		CanApproveLeaves:    req.CanApproveLeaves,
		CanManageAttendance: req.CanManageAttendance,
		SaturdayWorking:     req.SaturdayWorking,
		Status:              employee.StatusActive,
	}
	if req.Status != "" {
		newEmployee.Status = employee.Status(req.Status)
	}
	if req.JoiningDate != nil {
		joined, _ := validator.IsValidDate(*req.JoiningDate)
		newEmployee.JoiningDate = &joined
	}
	newEmployee.ApplyLevelCapabilities()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, newEmployee.Email, newEmployee.EmployeeNumber, nil); err != nil {
			return err
		}
		if newEmployee.ReportingManagerID != nil {
			if err := s.ensureManagerExists(ctx, *newEmployee.ReportingManagerID); err != nil {
				return err
			}
		}

		if _, err := s.employeeRepo.Create(ctx, newEmployee); err != nil {
			return err
		}
		if newEmployee.ReportingManagerID != nil {
			return s.teamRepo.AddMember(ctx, *newEmployee.ReportingManagerID, newEmployee.ID)
		}
		return nil
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("employee created", "employee_id", newEmployee.ID, "level", int(level), "by", requester.ID)
	return s.reload(ctx, newEmployee.ID)
}

// Update implements employee.EmployeeService. A manager change moves the
// employee between team rosters in the same transaction.
func (s *EmployeeServiceImpl) Update(ctx context.Context, requester user.Requester, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var passwordHash *string
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.employeeRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		previousManager := current.ReportingManagerID

		level := current.ManagementLevel
		if req.ManagementLevel != nil {
			level = user.Level(*req.ManagementLevel)
		}
		newManager := current.ReportingManagerID
		if req.ReportingManagerID != nil {
			newManager = nil
			if *req.ReportingManagerID != "" {
				m := *req.ReportingManagerID
				newManager = &m
			}
		}

		if err := s.resolver.CanUpdateEmployee(ctx, requester, current, level, newManager); err != nil {
			return err
		}
		if newManager != nil && !sameID(newManager, previousManager) {
			if err := s.ensureManagerExists(ctx, *newManager); err != nil {
				return err
			}
			if err := s.ensureAcyclic(ctx, current.ID, *newManager); err != nil {
				return err
			}
		}

		updated := current
		applyUpdate(&updated, req)
		updated.ManagementLevel = level
		updated.ReportingManagerID = newManager
		if passwordHash != nil {
			updated.PasswordHash = *passwordHash
		}
		if level == user.LevelEmployee && current.ManagementLevel > user.LevelEmployee {
			// capabilities granted by the old level do not survive a demotion
			updated.CanApproveLeaves = req.CanApproveLeaves != nil && *req.CanApproveLeaves
			updated.CanManageAttendance = req.CanManageAttendance != nil && *req.CanManageAttendance
		}
		updated.ApplyLevelCapabilities()

		if updated.Email != current.Email || updated.EmployeeNumber != current.EmployeeNumber {
			if err := s.ensureUnique(ctx, updated.Email, updated.EmployeeNumber, &current.ID); err != nil {
				return err
			}
		}

		if _, err := s.employeeRepo.Update(ctx, updated); err != nil {
			return err
		}
		return s.moveBetweenRosters(ctx, current.ID, previousManager, newManager)
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("employee updated", "employee_id", req.ID, "by", requester.ID)
	return s.reload(ctx, req.ID)
}

func applyUpdate(e *employee.Employee, req employee.UpdateEmployeeRequest) {
	if req.EmployeeNumber != nil {
		e.EmployeeNumber = *req.EmployeeNumber
	}
	if req.Email != nil {
		e.Email = *req.Email
	}
	if req.FirstName != nil {
		e.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		e.LastName = *req.LastName
	}
	if req.Phone != nil {
		e.Phone = req.Phone
	}
	if req.Position != nil {
		e.Position = req.Position
	}
	if req.DepartmentID != nil {
		e.DepartmentID = req.DepartmentID
	}
	if req.CanApproveLeaves != nil {
		e.CanApproveLeaves = *req.CanApproveLeaves
	}
	if req.CanManageAttendance != nil {
		e.CanManageAttendance = *req.CanManageAttendance
	}
	if req.SaturdayWorking != nil {
		e.SaturdayWorking = *req.SaturdayWorking
	}
	if req.Status != nil {
		e.Status = employee.Status(*req.Status)
	}
	if req.JoiningDate != nil {
		joined, _ := validator.IsValidDate(*req.JoiningDate)
		e.JoiningDate = &joined
	}
}

// moveBetweenRosters removes the employee from the old roster before
// adding it to the new one. Adding is a no-op when already present.
func (s *EmployeeServiceImpl) moveBetweenRosters(ctx context.Context, employeeID string, from, to *string) error {
	if from != nil && !sameID(from, to) {
		if err := s.teamRepo.RemoveMember(ctx, *from, employeeID); err != nil {
			return fmt.Errorf("failed to remove from team of %s: %w", *from, err)
		}
	}
	if to != nil {
		if err := s.teamRepo.AddMember(ctx, *to, employeeID); err != nil {
			return fmt.Errorf("failed to add to team of %s: %w", *to, err)
		}
	}
	return nil
}

// Delete implements employee.EmployeeService. Direct reports move up to
// the deleted employee's manager.
func (s *EmployeeServiceImpl) Delete(ctx context.Context, requester user.Requester, id string) error {
	if err := s.resolver.CanDeleteEmployee(requester, id); err != nil {
		return err
	}

	var moved []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		target, err := s.employeeRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		moved, err = s.employeeRepo.ReassignReports(ctx, id, target.ReportingManagerID)
		if err != nil {
			return fmt.Errorf("failed to reassign direct reports: %w", err)
		}
		if target.ReportingManagerID != nil {
			manager := *target.ReportingManagerID
			for _, m := range moved {
				if err := s.teamRepo.AddMember(ctx, manager, m); err != nil {
					return fmt.Errorf("failed to add to team of %s: %w", manager, err)
				}
			}
			if err := s.teamRepo.RemoveMember(ctx, manager, id); err != nil {
				return fmt.Errorf("failed to remove from team of %s: %w", manager, err)
			}
		}

		return s.employeeRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("employee deleted", "employee_id", id, "reassigned", len(moved), "by", requester.ID)
	return nil
}

// Stats implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Stats(ctx context.Context, requester user.Requester) (employee.EmployeeStatsResponse, error) {
	if !requester.HasPermission(user.PermissionEmployeeStats) {
		return employee.EmployeeStatsResponse{}, access.Deny("only L2 Senior Managers and L3 Admins can view employee statistics")
	}

	scope, err := s.resolver.EmployeeScope(ctx, requester, "")
	if err != nil {
		return employee.EmployeeStatsResponse{}, err
	}
	list, err := s.employeeRepo.List(ctx, employee.EmployeeFilter{Scope: scope})
	if err != nil {
		return employee.EmployeeStatsResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	stats := employee.EmployeeStatsResponse{Total: len(list)}
	byDepartment := map[string]int{}
	byLevel := map[string]int{}
	for _, e := range list {
		switch e.Status {
		case employee.StatusActive:
			stats.Active++
		case employee.StatusInactive:
			stats.Inactive++
		case employee.StatusOnLeave:
			stats.OnLeave++
		}
		department := "unassigned"
		if e.DepartmentID != nil {
			department = *e.DepartmentID
		}
		byDepartment[department]++
		byLevel[employee.LevelKey(e.ManagementLevel)]++
	}
	stats.ByDepartment = groupCounts(byDepartment)
	stats.ByLevel = groupCounts(byLevel)
	return stats, nil
}

func groupCounts(m map[string]int) []employee.GroupCount {
	out := make([]employee.GroupCount, 0, len(m))
	for k, v := range m {
		out = append(out, employee.GroupCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *EmployeeServiceImpl) ensureUnique(ctx context.Context, email, number string, excludeID *string) error {
	emailTaken, numberTaken, err := s.employeeRepo.ExistsByEmailOrNumber(ctx, email, number, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check employee uniqueness: %w", err)
	}
	if emailTaken {
		return employee.ErrEmailExists
	}
	if numberTaken {
		return employee.ErrEmployeeNumberExists
	}
	return nil
}

func (s *EmployeeServiceImpl) ensureManagerExists(ctx context.Context, managerID string) error {
	if _, err := s.employeeRepo.GetByID(ctx, managerID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.ErrManagerNotFound
		}
		return fmt.Errorf("failed to get manager: %w", err)
	}
	return nil
}

// ensureAcyclic rejects a manager that is the employee itself or reports to it.
func (s *EmployeeServiceImpl) ensureAcyclic(ctx context.Context, employeeID, managerID string) error {
	if employeeID == managerID {
		return employee.ErrHierarchyCycle
	}
	below, err := s.resolver.Directory().InSubtree(ctx, employeeID, managerID)
	if err != nil {
		return fmt.Errorf("failed to check hierarchy: %w", err)
	}
	if below {
		return employee.ErrHierarchyCycle
	}
	return nil
}

func (s *EmployeeServiceImpl) reload(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to reload employee: %w", err)
	}
	return employee.ToResponse(emp), nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
