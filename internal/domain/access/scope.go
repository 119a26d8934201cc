package access

import (
	"slices"
	"time"
)

// Scope is the set of employees a requester may see for one resource.
// All means unrestricted; otherwise only EmployeeIDs are visible and an
// empty list means nothing is.
type Scope struct {
	All         bool
	EmployeeIDs []string
}

// Everyone is the unrestricted scope.
func Everyone() Scope {
	return Scope{All: true}
}

// Only restricts a scope to the given ids.
func Only(ids ...string) Scope {
	if ids == nil {
		ids = []string{}
	}
	return Scope{EmployeeIDs: ids}
}

func (s Scope) Contains(employeeID string) bool {
	return s.All || slices.Contains(s.EmployeeIDs, employeeID)
}

func (s Scope) IsEmpty() bool {
	return !s.All && len(s.EmployeeIDs) == 0
}

// Narrow keeps only target, silently yielding an empty scope when target
// is not visible.
func (s Scope) Narrow(target string) Scope {
	if target == "" {
		return s
	}
	if s.Contains(target) {
		return Only(target)
	}
	return Only()
}

// DateRange is an inclusive range from 00:00:00.000 on the first day to
// 23:59:59.999 on the last.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Overlaps reports whether [start, end] shares at least one instant with r.
func (r DateRange) Overlaps(start, end time.Time) bool {
	return !start.After(r.To) && !end.Before(r.From)
}
