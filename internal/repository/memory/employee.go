package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
)

type employeeRepository struct {
	s   *Store
	now func() time.Time
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s, now: time.Now}
}

func (r *employeeRepository) withTeam(e employee.Employee) employee.Employee {
	e.TeamMembers = r.s.membersLocked(e.ID)
	return e
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return r.withTeam(e), nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, e := range r.s.employees {
		if e.Email == email {
			return r.withTeam(e), nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) ListDirectReports(ctx context.Context, managerID string) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []employee.Employee{}
	for _, e := range r.s.employees {
		if e.ManagerIs(managerID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out, nil
}

func (r *employeeRepository) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []employee.Employee{}
	if filter.Scope.IsEmpty() {
		return out, nil
	}
	for _, e := range r.s.employees {
		if !filter.Scope.Contains(e.ID) {
			continue
		}
		if filter.Search != nil && *filter.Search != "" && !matchesSearch(e, *filter.Search) {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.DepartmentID != nil && (e.DepartmentID == nil || *e.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.Level != nil && int(e.ManagementLevel) != *filter.Level {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matchesSearch(e employee.Employee, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{e.FirstName, e.LastName, e.Email, e.EmployeeNumber} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (r *employeeRepository) ExistsByEmailOrNumber(ctx context.Context, email, employeeNumber string, excludeID *string) (bool, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(email)
	var emailTaken, numberTaken bool
	for _, e := range r.s.employees {
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		emailTaken = emailTaken || e.Email == email
		numberTaken = numberTaken || e.EmployeeNumber == employeeNumber
	}
	return emailTaken, numberTaken, nil
}

func (r *employeeRepository) checkUnique(e employee.Employee) error {
	for _, other := range r.s.employees {
		if other.ID == e.ID {
			continue
		}
		if other.Email == e.Email {
			return employee.ErrEmailExists
		}
		if other.EmployeeNumber == e.EmployeeNumber {
			return employee.ErrEmployeeNumberExists
		}
	}
	return nil
}

func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if err := r.s.fail("employee.create"); err != nil {
		return employee.Employee{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e.Email = strings.ToLower(e.Email)
	if err := r.checkUnique(e); err != nil {
		return employee.Employee{}, err
	}
	now := r.now()
	e.CreatedAt, e.UpdatedAt = now, now
	e.TeamMembers = nil
	r.s.employees[e.ID] = e
	return e, nil
}

func (r *employeeRepository) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if err := r.s.fail("employee.update"); err != nil {
		return employee.Employee{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.employees[e.ID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	e.Email = strings.ToLower(e.Email)
	if err := r.checkUnique(e); err != nil {
		return employee.Employee{}, err
	}
	e.CreatedAt = current.CreatedAt
	e.UpdatedAt = r.now()
	e.TeamMembers = nil
	r.s.employees[e.ID] = e
	return e, nil
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	if err := r.s.fail("employee.delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[id]; !ok {
		return employee.ErrEmployeeNotFound
	}
	delete(r.s.employees, id)

	// mirror the ON DELETE rules of the schema
	for k := range r.s.team {
		if k.manager == id || k.member == id {
			delete(r.s.team, k)
		}
	}
	for aid, a := range r.s.attendance {
		if a.EmployeeID == id {
			delete(r.s.attendance, aid)
			delete(r.s.byDay, dayKey{employee: id, date: dateKey(a.Date)})
		}
	}
	for lid, l := range r.s.leaves {
		if l.EmployeeID == id {
			delete(r.s.leaves, lid)
		}
	}
	for eid, e := range r.s.employees {
		if e.ManagerIs(id) {
			e.ReportingManagerID = nil
			r.s.employees[eid] = e
		}
	}
	return nil
}

func (r *employeeRepository) ReassignReports(ctx context.Context, fromManagerID string, toManagerID *string) ([]string, error) {
	if err := r.s.fail("employee.reassign"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	moved := []string{}
	for id, e := range r.s.employees {
		if !e.ManagerIs(fromManagerID) {
			continue
		}
		if toManagerID != nil {
			to := *toManagerID
			e.ReportingManagerID = &to
		} else {
			e.ReportingManagerID = nil
		}
		e.UpdatedAt = r.now()
		r.s.employees[id] = e
		moved = append(moved, id)
	}
	slices.Sort(moved)
	return moved, nil
}

type teamRepository struct {
	s *Store
}

func NewTeamRepository(s *Store) employee.TeamRepository {
	return &teamRepository{s: s}
}

func (r *teamRepository) AddMember(ctx context.Context, managerID, memberID string) error {
	if err := r.s.fail("team.add"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.team[teamKey{manager: managerID, member: memberID}] = struct{}{}
	return nil
}

func (r *teamRepository) RemoveMember(ctx context.Context, managerID, memberID string) error {
	if err := r.s.fail("team.remove"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.team, teamKey{manager: managerID, member: memberID})
	return nil
}

func (r *teamRepository) Members(ctx context.Context, managerID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.membersLocked(managerID), nil
}

// membersLocked expects s.mu to be held.
func (s *Store) membersLocked(managerID string) []string {
	members := []string{}
	for k := range s.team {
		if k.manager == managerID {
			members = append(members, k.member)
		}
	}
	slices.Sort(members)
	return members
}
