// Package access decides what a requester may see and change.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/redaxis-hris/hrms-backend-go/internal/service/hierarchy"
)

// Resolver computes read scopes and mutation predicates. Subtree membership
// is re-read from the directory on every call.
type Resolver struct {
	dir *hierarchy.Directory
	loc *time.Location
	now func() time.Time
}

func NewResolver(dir *hierarchy.Directory, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{dir: dir, loc: loc, now: time.Now}
}

// WithClock overrides the clock used for the default date range.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Directory exposes the hierarchy the resolver walks.
func (r *Resolver) Directory() *hierarchy.Directory {
	return r.dir
}

// EmployeeScope returns the employees requester may view, optionally
// narrowed to targetID. An out-of-scope target yields an empty scope.
func (r *Resolver) EmployeeScope(ctx context.Context, requester user.Requester, targetID string) (access.Scope, error) {
	var scope access.Scope
	switch requester.Level {
	case user.LevelAdmin:
		scope = access.Everyone()
	case user.LevelSeniorManager:
		subtree, err := r.dir.Subtree(ctx, requester.ID)
		if err != nil {
			return access.Scope{}, fmt.Errorf("failed to resolve subtree: %w", err)
		}
		ids := []string{requester.ID}
		for _, e := range subtree {
			if e.ManagementLevel <= user.LevelManager {
				ids = append(ids, e.ID)
			}
		}
		scope = access.Only(ids...)
	case user.LevelManager:
		reports, err := r.dir.DirectReports(ctx, requester.ID)
		if err != nil {
			return access.Scope{}, fmt.Errorf("failed to resolve direct reports: %w", err)
		}
		ids := []string{requester.ID}
		for _, e := range reports {
			ids = append(ids, e.ID)
		}
		scope = access.Only(ids...)
	default:
		scope = access.Only(requester.ID)
	}
	return scope.Narrow(targetID), nil
}

// AttendanceScope is EmployeeScope plus the inclusive date range of the query.
func (r *Resolver) AttendanceScope(ctx context.Context, requester user.Requester, targetID string, from, to *string) (access.Scope, access.DateRange, error) {
	rng, err := r.DateRange(from, to)
	if err != nil {
		return access.Scope{}, access.DateRange{}, err
	}
	scope, err := r.EmployeeScope(ctx, requester, targetID)
	if err != nil {
		return access.Scope{}, access.DateRange{}, err
	}
	return scope, rng, nil
}

// LeaveScope partitions leave requests the same way as attendance.
func (r *Resolver) LeaveScope(ctx context.Context, requester user.Requester, targetID string, from, to *string) (access.Scope, access.DateRange, error) {
	return r.AttendanceScope(ctx, requester, targetID, from, to)
}

// DateRange parses optional YYYY-MM-DD bounds. A missing bound defaults to
// the first or last day of the current month.
func (r *Resolver) DateRange(from, to *string) (access.DateRange, error) {
	today := r.now().In(r.loc)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	start, end := first, first.AddDate(0, 1, -1)

	var errs validator.ValidationErrors
	if from != nil && *from != "" {
		d, ok := validator.IsValidDate(*from)
		if !ok {
			errs.Add("start_date", "must be in YYYY-MM-DD format")
		}
		start = d
	}
	if to != nil && *to != "" {
		d, ok := validator.IsValidDate(*to)
		if !ok {
			errs.Add("end_date", "must be in YYYY-MM-DD format")
		}
		end = d
	}
	if len(errs) == 0 && end.Before(start) {
		errs.Add("end_date", "end_date must be on or after start_date")
	}
	if err := errs.Err(); err != nil {
		return access.DateRange{}, err
	}
	return DayRange(start, end), nil
}

// DayRange spans [from 00:00:00.000, to 23:59:59.999].
func DayRange(from, to time.Time) access.DateRange {
	return access.DateRange{
		From: time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC),
		To:   time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC),
	}
}

// CanViewEmployee reports whether targetID is inside the requester's scope.
func (r *Resolver) CanViewEmployee(ctx context.Context, requester user.Requester, targetID string) (bool, error) {
	scope, err := r.EmployeeScope(ctx, requester, targetID)
	if err != nil {
		return false, err
	}
	return !scope.IsEmpty(), nil
}
