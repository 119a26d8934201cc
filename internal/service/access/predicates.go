package access

import (
	"context"
	"fmt"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

// CanCreateEmployee checks the level and manager requested for a new employee.
func (r *Resolver) CanCreateEmployee(ctx context.Context, requester user.Requester, level user.Level, managerID *string) error {
	switch requester.Level {
	case user.LevelAdmin:
		return nil
	case user.LevelSeniorManager:
		if level > user.LevelManager {
			return access.Deny("L2 Senior Managers can only create Level 0 and Level 1 employees")
		}
		if managerID == nil {
			return access.Deny("L2 Senior Managers must place new employees within their own team")
		}
		return r.requireWithinTeam(ctx, requester, *managerID)
	default:
		return access.Deny("only L2 Senior Managers and L3 Admins can create employees")
	}
}

// CanUpdateEmployee checks an update of target to the given level and manager.
func (r *Resolver) CanUpdateEmployee(ctx context.Context, requester user.Requester, target employee.Employee, level user.Level, managerID *string) error {
	switch requester.Level {
	case user.LevelAdmin:
		return nil
	case user.LevelSeniorManager:
		if target.ManagementLevel > user.LevelManager {
			return access.Deny("L2 Senior Managers can only update Level 0 and Level 1 employees")
		}
		inSubtree, err := r.dir.InSubtree(ctx, requester.ID, target.ID)
		if err != nil {
			return fmt.Errorf("failed to check subtree membership: %w", err)
		}
		if !inSubtree {
			return access.Deny("L2 Senior Managers can only update employees within their own subtree")
		}
		if level > user.LevelManager {
			return access.Deny("L2 Senior Managers can only assign management level 0 or 1")
		}
		if managerID == nil {
			return access.Deny("L2 Senior Managers must keep employees within their own team")
		}
		return r.requireWithinTeam(ctx, requester, *managerID)
	default:
		return access.Deny("only L2 Senior Managers and L3 Admins can update employees")
	}
}

// requireWithinTeam accepts the requester itself or anyone in its subtree.
func (r *Resolver) requireWithinTeam(ctx context.Context, requester user.Requester, managerID string) error {
	if managerID == requester.ID {
		return nil
	}
	inSubtree, err := r.dir.InSubtree(ctx, requester.ID, managerID)
	if err != nil {
		return fmt.Errorf("failed to check subtree membership: %w", err)
	}
	if !inSubtree {
		return access.Deny("L2 Senior Managers can only assign reporting managers within their own subtree")
	}
	return nil
}

// CanDeleteEmployee allows L3 Admins to delete anyone but themselves.
func (r *Resolver) CanDeleteEmployee(requester user.Requester, targetID string) error {
	if requester.Level != user.LevelAdmin {
		return access.Deny("only L3 Admins can delete employees")
	}
	if requester.ID == targetID {
		return employee.ErrCannotDeleteSelf
	}
	return nil
}

// CanApproveLeave checks whether requester may decide a leave filed by applicant.
func (r *Resolver) CanApproveLeave(ctx context.Context, requester user.Requester, applicant employee.Employee) error {
	if !requester.CanApproveLeaves {
		return access.Deny("you are not allowed to approve leaves")
	}
	if requester.ID == applicant.ID {
		return access.Deny("you cannot approve your own leave")
	}

	switch requester.Level {
	case user.LevelAdmin:
		return nil
	case user.LevelSeniorManager:
		if applicant.ManagementLevel > user.LevelManager {
			return access.Deny("L2 Senior Managers can only approve leaves for Level 0 and Level 1 employees")
		}
		inChain, err := r.dir.IsInChain(ctx, requester.ID, applicant.ID)
		if err != nil {
			return fmt.Errorf("failed to check reporting chain: %w", err)
		}
		if !inChain {
			return access.Deny("L2 Senior Managers can only approve leaves within their reporting chain")
		}
		return nil
	case user.LevelManager:
		if applicant.ManagementLevel != user.LevelEmployee || !applicant.ManagerIs(requester.ID) {
			return access.Deny("L1 Managers can only approve leaves of their Level 0 direct reports")
		}
		return nil
	default:
		return access.Deny("L0 Employees cannot approve leaves")
	}
}

// CanManageAttendance checks manual attendance writes for employeeID.
func (r *Resolver) CanManageAttendance(ctx context.Context, requester user.Requester, employeeID string) error {
	if !requester.CanManageAttendance {
		return access.Deny("you are not allowed to manage attendance")
	}
	if requester.ID == employeeID && requester.Level != user.LevelAdmin {
		return access.Deny("you cannot manage your own attendance")
	}
	visible, err := r.CanViewEmployee(ctx, requester, employeeID)
	if err != nil {
		return err
	}
	if !visible {
		return access.Deny("attendance can only be managed for employees within your scope")
	}
	return nil
}
