// Package hierarchy answers reporting-chain questions over employee records.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
)

// Directory walks the reporting-manager graph. Every walk keeps a visited
// set so a corrupted (cyclic) graph still terminates.
type Directory struct {
	employees employee.EmployeeRepository
}

func NewDirectory(employees employee.EmployeeRepository) *Directory {
	return &Directory{employees: employees}
}

// DirectReports returns employees whose reporting manager is managerID.
func (d *Directory) DirectReports(ctx context.Context, managerID string) ([]employee.Employee, error) {
	reports, err := d.employees.ListDirectReports(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list direct reports of %s: %w", managerID, err)
	}
	return reports, nil
}

// Subtree returns every employee reporting to managerID directly or
// indirectly, breadth first. The manager itself is never included.
func (d *Directory) Subtree(ctx context.Context, managerID string) ([]employee.Employee, error) {
	visited := map[string]bool{managerID: true}
	frontier := []string{managerID}
	subtree := []employee.Employee{}

	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			reports, err := d.DirectReports(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, r := range reports {
				if visited[r.ID] {
					slog.Warn("reporting cycle detected", "manager_id", id, "employee_id", r.ID)
					continue
				}
				visited[r.ID] = true
				subtree = append(subtree, r)
				next = append(next, r.ID)
			}
		}
		frontier = next
	}
	return subtree, nil
}

// SubtreeIDs is Subtree reduced to ids.
func (d *Directory) SubtreeIDs(ctx context.Context, managerID string) ([]string, error) {
	subtree, err := d.Subtree(ctx, managerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(subtree))
	for _, e := range subtree {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// InSubtree reports whether employeeID reports to managerID at any depth.
func (d *Directory) InSubtree(ctx context.Context, managerID, employeeID string) (bool, error) {
	if managerID == employeeID {
		return false, nil
	}
	return d.IsInChain(ctx, managerID, employeeID)
}

// AncestorChain returns the managers above employeeID, nearest first.
// A manager id that no longer resolves ends the chain without error.
func (d *Directory) AncestorChain(ctx context.Context, employeeID string) ([]employee.Employee, error) {
	start, err := d.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return []employee.Employee{}, nil
		}
		return nil, fmt.Errorf("failed to get employee %s: %w", employeeID, err)
	}

	chain := []employee.Employee{}
	visited := map[string]bool{start.ID: true}
	current := start
	for current.ReportingManagerID != nil {
		managerID := *current.ReportingManagerID
		if visited[managerID] {
			slog.Warn("reporting cycle detected", "employee_id", employeeID, "manager_id", managerID)
			break
		}
		visited[managerID] = true

		manager, err := d.employees.GetByID(ctx, managerID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				break
			}
			return nil, fmt.Errorf("failed to get manager %s: %w", managerID, err)
		}
		chain = append(chain, manager)
		current = manager
	}
	return chain, nil
}

// IsInChain reports whether ancestorID appears in employeeID's reporting chain.
func (d *Directory) IsInChain(ctx context.Context, ancestorID, employeeID string) (bool, error) {
	chain, err := d.AncestorChain(ctx, employeeID)
	if err != nil {
		return false, err
	}
	for _, m := range chain {
		if m.ID == ancestorID {
			return true, nil
		}
	}
	return false, nil
}

// NextApprover returns the manager directly above approverID, if any.
func (d *Directory) NextApprover(ctx context.Context, approverID string) (*employee.Employee, error) {
	chain, err := d.AncestorChain(ctx, approverID)
	if err != nil || len(chain) == 0 {
		return nil, err
	}
	return &chain[0], nil
}
