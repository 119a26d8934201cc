package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/jwt"
	"github.com/redaxis-hris/hrms-backend-go/internal/repository/memory"
	accesssvc "github.com/redaxis-hris/hrms-backend-go/internal/service/access"
	attendancesvc "github.com/redaxis-hris/hrms-backend-go/internal/service/attendance"
	authsvc "github.com/redaxis-hris/hrms-backend-go/internal/service/auth"
	employeesvc "github.com/redaxis-hris/hrms-backend-go/internal/service/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/service/hierarchy"
	leavesvc "github.com/redaxis-hris/hrms-backend-go/internal/service/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

type envelope struct {
	Success bool            `json:"success"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	teams := memory.NewTeamRepository(store)
	attendances := memory.NewAttendanceRepository(store)
	leaves := memory.NewLeaveRequestRepository(store)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	mgr := "mgr"
	for _, e := range []employee.Employee{
		{ID: "admin", EmployeeNumber: "EMP-0", Email: "admin@example.com", FirstName: "Ada", LastName: "Admin", ManagementLevel: user.LevelAdmin},
		{ID: "mgr", EmployeeNumber: "EMP-1", Email: "mgr@example.com", FirstName: "Max", LastName: "Manager", ManagementLevel: user.LevelManager},
		{ID: "emp", EmployeeNumber: "EMP-2", Email: "emp@example.com", FirstName: "Eve", LastName: "Worker", ManagementLevel: user.LevelEmployee, ReportingManagerID: &mgr},
	} {
		e.PasswordHash = string(hash)
		e.Status = employee.StatusActive
		e.ApplyLevelCapabilities()
		_, err := employees.Create(context.Background(), e)
		require.NoError(t, err)
	}
	require.NoError(t, teams.AddMember(context.Background(), "mgr", "emp"))

	resolver := accesssvc.NewResolver(hierarchy.NewDirectory(employees), time.UTC)
	jwtService := jwt.NewJWTService("handler-test-secret", "1h")
	authService := authsvc.NewAuthService(employees, jwtService)
	reconciler := attendancesvc.NewReconciler(attendances)

	h := Handlers{
		Auth:       NewAuthHandler(authService),
		Employee:   NewEmployeeHandler(employeesvc.NewEmployeeService(store.Transactor(), employees, teams, resolver)),
		Attendance: NewAttendanceHandler(attendancesvc.NewAttendanceService(store.Transactor(), attendances, employees, resolver, time.UTC)),
		Leave:      NewLeaveHandler(leavesvc.NewLeaveService(store.Transactor(), leaves, employees, reconciler, resolver, 72*time.Hour)),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testServer{t: t, handler: NewRouter(logger, []string{"http://localhost:3000"}, jwtService, authService, h)}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "emp@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.login("emp@example.com")
	rec, env = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "emp", me.ID)

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLeaveApprovalFlow(t *testing.T) {
	s := newTestServer(t)
	empToken := s.login("emp@example.com")
	mgrToken := s.login("mgr@example.com")

	rec, env := s.do(http.MethodPost, "/api/v1/leaves", empToken, map[string]string{"leave_type": "annual"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "start_date")

	rec, env = s.do(http.MethodPost, "/api/v1/leaves", empToken, map[string]string{
		"leave_type": "annual",
		"start_date": "2030-01-08",
		"end_date":   "2030-01-09",
		"reason":     "family trip",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created leave.LeaveResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)

	// L0 cannot reach the approval route at all
	rec, _ = s.do(http.MethodPatch, "/api/v1/leaves/"+created.ID+"/status", empToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPatch, "/api/v1/leaves/"+created.ID+"/status", mgrToken, map[string]string{"status": "approved", "remarks": "enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var decided leave.LeaveResponse
	require.NoError(t, json.Unmarshal(env.Data, &decided))
	assert.Equal(t, "approved", decided.Status)
	require.Len(t, decided.ApprovalHistory, 1)

	rec, _ = s.do(http.MethodPut, "/api/v1/leaves/"+created.ID+"/status", mgrToken, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/attendance?start_date=2030-01-01&end_date=2030-01-31", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
	var rows []attendance.AttendanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	for _, row := range rows {
		assert.Equal(t, "on-leave", row.Status)
	}
}

func TestEmployeeRoutesArePermissionGated(t *testing.T) {
	s := newTestServer(t)
	empToken := s.login("emp@example.com")
	adminToken := s.login("admin@example.com")

	body := map[string]any{
		"employee_number":      "EMP-9",
		"email":                "new@example.com",
		"password":             "longenough",
		"first_name":           "New",
		"last_name":            "Hire",
		"management_level":     0,
		"reporting_manager_id": "mgr",
	}
	rec, _ := s.do(http.MethodPost, "/api/v1/employees", empToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(http.MethodPost, "/api/v1/employees", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, env = s.do(http.MethodGet, "/api/v1/employees/mgr/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, *env.Count)

	// outside the L0 scope reads as missing
	rec, _ = s.do(http.MethodGet, "/api/v1/employees/"+created.ID, empToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/api/v1/employees/admin", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/employees/stats", empToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceReportIsPDF(t *testing.T) {
	s := newTestServer(t)
	token := s.login("emp@example.com")

	rec, _ := s.do(http.MethodGet, "/api/v1/attendance/report?start_date=2030-01-01&end_date=2030-01-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-EMP-2-2030-01-01-2030-01-31.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec, _ = s.do(http.MethodGet, "/api/v1/attendance/stats?employee_id=mgr", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
