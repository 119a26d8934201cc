// Package memory is an in-process store implementing the repository
// interfaces. It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
)

type teamKey struct {
	manager string
	member  string
}

type dayKey struct {
	employee string
	date     string
}

type Store struct {
	mu         sync.RWMutex
	employees  map[string]employee.Employee
	team       map[teamKey]struct{}
	attendance map[string]attendance.Attendance
	byDay      map[dayKey]string
	leaves     map[string]leave.LeaveRequest

	// txMu serializes units of work; it stands in for row and advisory locks.
	txMu sync.Mutex

	// FailNext, when set, is consulted before every write and may inject an error.
	FailNext func(op string) error
}

func NewStore() *Store {
	return &Store{
		employees:  make(map[string]employee.Employee),
		team:       make(map[teamKey]struct{}),
		attendance: make(map[string]attendance.Attendance),
		byDay:      make(map[dayKey]string),
		leaves:     make(map[string]leave.LeaveRequest),
	}
}

func (s *Store) fail(op string) error {
	if s.FailNext == nil {
		return nil
	}
	return s.FailNext(op)
}

type snapshot struct {
	employees  map[string]employee.Employee
	team       map[teamKey]struct{}
	attendance map[string]attendance.Attendance
	byDay      map[dayKey]string
	leaves     map[string]leave.LeaveRequest
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		employees:  maps.Clone(s.employees),
		team:       maps.Clone(s.team),
		attendance: maps.Clone(s.attendance),
		byDay:      maps.Clone(s.byDay),
		leaves:     maps.Clone(s.leaves),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snap.employees
	s.team = snap.team
	s.attendance = snap.attendance
	s.byDay = snap.byDay
	s.leaves = snap.leaves
}

type txKey struct{}

// Transactor returns a database.Transactor that rolls the whole store back
// when fn fails.
func (s *Store) Transactor() database.Transactor {
	return storeTransactor{s: s}
}

type storeTransactor struct {
	s *Store
}

func (t storeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	committed := false
	defer func() {
		if !committed {
			t.s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}
