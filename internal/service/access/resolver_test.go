package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/redaxis-hris/hrms-backend-go/internal/repository/memory"
	"github.com/redaxis-hris/hrms-backend-go/internal/service/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type org struct {
	repo      employee.EmployeeRepository
	resolver  *Resolver
	employees map[string]employee.Employee
}

func (o *org) as(id string) user.Requester {
	return o.employees[id].Requester()
}

// admin > senior > (mgrA > empA1, empA2), (mgrB > empB1)
// admin > senior2 > mgrC > empC1
func newOrg(t *testing.T) *org {
	t.Helper()
	o := &org{
		repo:      memory.NewEmployeeRepository(memory.NewStore()),
		employees: map[string]employee.Employee{},
	}
	add := func(id string, level user.Level, manager string) {
		e := employee.Employee{
			ID:              id,
			EmployeeNumber:  "EMP-" + id,
			Email:           id + "@example.com",
			FirstName:       id,
			LastName:        "Test",
			ManagementLevel: level,
			Status:          employee.StatusActive,
		}
		if manager != "" {
			e.ReportingManagerID = &manager
		}
		e.ApplyLevelCapabilities()
		created, err := o.repo.Create(context.Background(), e)
		require.NoError(t, err)
		o.employees[id] = created
	}
	add("admin", user.LevelAdmin, "")
	add("senior", user.LevelSeniorManager, "admin")
	add("senior2", user.LevelSeniorManager, "admin")
	add("mgrA", user.LevelManager, "senior")
	add("mgrB", user.LevelManager, "senior")
	add("mgrC", user.LevelManager, "senior2")
	add("empA1", user.LevelEmployee, "mgrA")
	add("empA2", user.LevelEmployee, "mgrA")
	add("empB1", user.LevelEmployee, "mgrB")
	add("empC1", user.LevelEmployee, "mgrC")

	now := time.Date(2025, 7, 16, 9, 0, 0, 0, time.UTC)
	o.resolver = NewResolver(hierarchy.NewDirectory(o.repo), time.UTC).WithClock(func() time.Time { return now })
	return o
}

func assertDenied(t *testing.T, err error, rule string) {
	t.Helper()
	var authErr *access.AuthorizationError
	require.True(t, errors.As(err, &authErr), "want AuthorizationError, got %v", err)
	if rule != "" {
		assert.Equal(t, rule, authErr.Rule)
	}
}

func TestEmployeeScope_ByLevel(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()

	cases := []struct {
		requester string
		want      []string
	}{
		{"empA1", []string{"empA1"}},
		{"mgrA", []string{"mgrA", "empA1", "empA2"}},
		{"senior", []string{"senior", "mgrA", "mgrB", "empA1", "empA2", "empB1"}},
	}
	for _, c := range cases {
		scope, err := o.resolver.EmployeeScope(ctx, o.as(c.requester), "")
		require.NoError(t, err)
		assert.False(t, scope.All, c.requester)
		assert.ElementsMatch(t, c.want, scope.EmployeeIDs, c.requester)
	}

	scope, err := o.resolver.EmployeeScope(ctx, o.as("admin"), "")
	require.NoError(t, err)
	assert.True(t, scope.All)
}

func TestEmployeeScope_SeniorNeverSeesPeers(t *testing.T) {
	o := newOrg(t)
	// a level 2 placed under senior stays out of its scope
	peer := o.employees["senior2"]
	manager := "senior"
	peer.ReportingManagerID = &manager
	_, err := o.repo.Update(context.Background(), peer)
	require.NoError(t, err)

	scope, err := o.resolver.EmployeeScope(context.Background(), o.as("senior"), "")
	require.NoError(t, err)
	assert.NotContains(t, scope.EmployeeIDs, "senior2")
	assert.Contains(t, scope.EmployeeIDs, "mgrC")
}

func TestEmployeeScope_TargetNarrowsSilently(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()

	scope, err := o.resolver.EmployeeScope(ctx, o.as("mgrA"), "empA2")
	require.NoError(t, err)
	assert.Equal(t, []string{"empA2"}, scope.EmployeeIDs)

	scope, err = o.resolver.EmployeeScope(ctx, o.as("mgrA"), "empB1")
	require.NoError(t, err)
	assert.True(t, scope.IsEmpty())

	scope, err = o.resolver.EmployeeScope(ctx, o.as("admin"), "empC1")
	require.NoError(t, err)
	assert.Equal(t, []string{"empC1"}, scope.EmployeeIDs)
}

func TestDateRange(t *testing.T) {
	o := newOrg(t)

	rng, err := o.resolver.DateRange(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), rng.From)
	assert.Equal(t, time.Date(2025, 7, 31, 23, 59, 59, 999000000, time.UTC), rng.To)

	from, to := "2025-02-03", "2025-02-03"
	rng, err = o.resolver.DateRange(&from, &to)
	require.NoError(t, err)
	assert.True(t, rng.Contains(time.Date(2025, 2, 3, 23, 59, 0, 0, time.UTC)))
	assert.False(t, rng.Contains(time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)))

	bad, early := "03-02-2025", "2025-01-01"
	_, err = o.resolver.DateRange(&bad, nil)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "start_date")

	_, err = o.resolver.DateRange(&from, &early)
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "end_date")
}

func TestCanApproveLeave(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()

	allowed := []struct{ approver, applicant string }{
		{"mgrA", "empA1"},
		{"senior", "empB1"},
		{"senior", "mgrA"},
		{"admin", "senior"},
		{"admin", "empC1"},
	}
	for _, c := range allowed {
		assert.NoError(t, o.resolver.CanApproveLeave(ctx, o.as(c.approver), o.employees[c.applicant]), "%s -> %s", c.approver, c.applicant)
	}

	assertDenied(t, o.resolver.CanApproveLeave(ctx, o.as("mgrA"), o.employees["mgrB"]),
		"L1 Managers can only approve leaves of their Level 0 direct reports")
	assertDenied(t, o.resolver.CanApproveLeave(ctx, o.as("mgrA"), o.employees["empB1"]),
		"L1 Managers can only approve leaves of their Level 0 direct reports")
	assertDenied(t, o.resolver.CanApproveLeave(ctx, o.as("senior"), o.employees["senior2"]),
		"L2 Senior Managers can only approve leaves for Level 0 and Level 1 employees")
	assertDenied(t, o.resolver.CanApproveLeave(ctx, o.as("senior"), o.employees["empC1"]),
		"L2 Senior Managers can only approve leaves within their reporting chain")
	assertDenied(t, o.resolver.CanApproveLeave(ctx, o.as("empA1"), o.employees["empA2"]), "")
}

func TestCanApproveLeave_NeverOwnLeave(t *testing.T) {
	o := newOrg(t)
	for _, id := range []string{"empA1", "mgrA", "senior", "admin"} {
		r := o.as(id)
		r.CanApproveLeaves = true
		err := o.resolver.CanApproveLeave(context.Background(), r, o.employees[id])
		assertDenied(t, err, "")
	}
}

func TestCanApproveLeave_RequiresCapability(t *testing.T) {
	o := newOrg(t)
	r := o.as("admin")
	r.CanApproveLeaves = false
	assertDenied(t, o.resolver.CanApproveLeave(context.Background(), r, o.employees["empA1"]),
		"you are not allowed to approve leaves")
}

func TestCanCreateEmployee(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()
	ptr := func(s string) *string { return &s }

	assert.NoError(t, o.resolver.CanCreateEmployee(ctx, o.as("admin"), user.LevelAdmin, nil))
	assert.NoError(t, o.resolver.CanCreateEmployee(ctx, o.as("senior"), user.LevelEmployee, ptr("mgrA")))
	assert.NoError(t, o.resolver.CanCreateEmployee(ctx, o.as("senior"), user.LevelManager, ptr("senior")))

	assertDenied(t, o.resolver.CanCreateEmployee(ctx, o.as("mgrA"), user.LevelEmployee, ptr("mgrA")), "")
	assertDenied(t, o.resolver.CanCreateEmployee(ctx, o.as("senior"), user.LevelSeniorManager, ptr("senior")), "")
	assertDenied(t, o.resolver.CanCreateEmployee(ctx, o.as("senior"), user.LevelEmployee, ptr("mgrC")), "")
	assertDenied(t, o.resolver.CanCreateEmployee(ctx, o.as("senior"), user.LevelEmployee, nil), "")
}

func TestCanUpdateEmployee(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()
	ptr := func(s string) *string { return &s }

	assert.NoError(t, o.resolver.CanUpdateEmployee(ctx, o.as("senior"), o.employees["empA1"], user.LevelManager, ptr("mgrB")))
	assert.NoError(t, o.resolver.CanUpdateEmployee(ctx, o.as("admin"), o.employees["senior"], user.LevelAdmin, nil))

	assertDenied(t, o.resolver.CanUpdateEmployee(ctx, o.as("senior"), o.employees["empC1"], user.LevelEmployee, ptr("mgrC")),
		"L2 Senior Managers can only update employees within their own subtree")
	assertDenied(t, o.resolver.CanUpdateEmployee(ctx, o.as("senior"), o.employees["empA1"], user.LevelSeniorManager, ptr("mgrA")),
		"L2 Senior Managers can only assign management level 0 or 1")
	assertDenied(t, o.resolver.CanUpdateEmployee(ctx, o.as("senior"), o.employees["empA1"], user.LevelEmployee, ptr("mgrC")),
		"L2 Senior Managers can only assign reporting managers within their own subtree")
	assertDenied(t, o.resolver.CanUpdateEmployee(ctx, o.as("mgrA"), o.employees["empA1"], user.LevelEmployee, ptr("mgrA")), "")
}

func TestCanDeleteEmployee(t *testing.T) {
	o := newOrg(t)

	assert.NoError(t, o.resolver.CanDeleteEmployee(o.as("admin"), "empA1"))
	assert.ErrorIs(t, o.resolver.CanDeleteEmployee(o.as("admin"), "admin"), employee.ErrCannotDeleteSelf)
	assertDenied(t, o.resolver.CanDeleteEmployee(o.as("senior"), "empA1"), "only L3 Admins can delete employees")
}

func TestCanManageAttendance(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()

	assert.NoError(t, o.resolver.CanManageAttendance(ctx, o.as("mgrA"), "empA1"))
	assertDenied(t, o.resolver.CanManageAttendance(ctx, o.as("mgrA"), "empB1"), "")
	assertDenied(t, o.resolver.CanManageAttendance(ctx, o.as("empA1"), "empA1"), "you are not allowed to manage attendance")
	assertDenied(t, o.resolver.CanManageAttendance(ctx, o.as("mgrA"), "mgrA"), "you cannot manage your own attendance")
	assertDenied(t, o.resolver.CanManageAttendance(ctx, o.as("senior"), "senior"), "you cannot manage your own attendance")
	assert.NoError(t, o.resolver.CanManageAttendance(ctx, o.as("admin"), "admin"))
}
