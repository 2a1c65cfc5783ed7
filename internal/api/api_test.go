package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/session"
	"github.com/wolfeidau/staffdesk/internal/store/memory"
)

type testEnv struct {
	handler http.Handler
	codec   *session.Codec
	dir     *directory.Service
	admin   *models.User
	worker  *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	codec, err := session.NewCodec(session.Options{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)

	dir := directory.NewService(memory.NewUserStore(), memory.NewDepartmentStore(), memory.NewEmployeeStore(), memory.NewAuditStore())

	admin, err := dir.CreateUser(ctx, directory.NewUser{
		FirstName: "Ada", LastName: "Admin", Email: "ada@example.com", Password: "secret1", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	worker, err := dir.CreateUser(ctx, directory.NewUser{
		FirstName: "Eve", LastName: "Worker", Email: "eve@example.com", Password: "secret1", Role: models.RoleEmployee,
	})
	require.NoError(t, err)

	return &testEnv{
		handler: New(dir).Handler(codec),
		codec:   codec,
		dir:     dir,
		admin:   admin,
		worker:  worker,
	}
}

func (e *testEnv) get(t *testing.T, path string, u *models.User) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if u != nil {
		issued := httptest.NewRecorder()
		require.NoError(t, e.codec.Issue(issued, session.FromUser(u)))
		for _, c := range issued.Result().Cookies() {
			req.AddCookie(c)
		}
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role string
		perm Permission
		want bool
	}{
		{models.RoleAdmin, PermUsersRead, true},
		{models.RoleAdmin, PermAuditRead, true},
		{models.RoleEmployee, PermSessionRead, true},
		{models.RoleEmployee, PermDepartmentsRead, true},
		{models.RoleEmployee, PermUsersRead, false},
		{models.RoleEmployee, PermEmployeesRead, false},
		{"superuser", PermSessionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+string(tt.perm), func(t *testing.T) {
			require.Equal(t, tt.want, HasPermission(tt.role, tt.perm))
		})
	}
}

func TestRequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/session", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", decode(t, rec)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tampered"})
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/session", env.worker)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, env.worker.UserID.String(), body["id"])
	require.Equal(t, "Eve", body["first_name"])
	require.Equal(t, "Worker", body["last_name"])
	require.Equal(t, "eve@example.com", body["email"])
	require.Equal(t, models.RoleEmployee, body["role"])
}

func TestAdminEndpoints_Forbidden(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/users", "/api/employees", "/api/employees/" + env.worker.UserID.String() + "/audit"} {
		t.Run(path, func(t *testing.T) {
			rec := env.get(t, path, env.worker)
			require.Equal(t, http.StatusForbidden, rec.Code)
			require.Equal(t, "forbidden", decode(t, rec)["error"])
		})
	}
}

func TestUsers_OmitsPasswordHash(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/users", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
	require.NotContains(t, rec.Body.String(), env.admin.PasswordHash)

	users := decode(t, rec)["users"].([]any)
	require.Len(t, users, 2)
}

func TestDepartmentsAndEmployees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dept, err := env.dir.CreateDepartment(ctx, "Support")
	require.NoError(t, err)

	emp, err := env.dir.CreateEmployee(ctx, directory.Actor{UserID: env.admin.UserID, IPAddress: "10.0.0.1"}, directory.NewEmployee{
		UserID:       env.worker.UserID,
		DepartmentID: dept.DepartmentID,
		Position:     "Agent",
		HireDate:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	rec := env.get(t, "/api/departments", env.worker)
	require.Equal(t, http.StatusOK, rec.Code)
	depts := decode(t, rec)["departments"].([]any)
	require.Len(t, depts, 1)
	require.Equal(t, "Support", depts[0].(map[string]any)["name"])

	rec = env.get(t, "/api/employees", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	emps := decode(t, rec)["employees"].([]any)
	require.Len(t, emps, 1)

	got := emps[0].(map[string]any)
	require.Equal(t, "Eve Worker", got["user_name"])
	require.Equal(t, "Support", got["department_name"])
	require.Equal(t, "2024-05-02", got["hire_date"])
	require.Equal(t, models.EmployeeStatusActive, got["status"])

	rec = env.get(t, "/api/employees/"+emp.EmployeeID.String()+"/audit", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode(t, rec)["entries"].([]any)
	require.Len(t, entries, 1)

	entry := entries[0].(map[string]any)
	require.Equal(t, models.AuditActionEmployeeCreated, entry["action"])
	require.Equal(t, "10.0.0.1", entry["ip_address"])
}

func TestAudit_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/employees/not-a-uuid/audit", env.admin)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.get(t, "/api/employees/"+env.worker.UserID.String()+"/audit", env.admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "employee not found", decode(t, rec)["error"])
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/nope", env.admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithCORS(t *testing.T) {
	env := newTestEnv(t)
	h := WithCORS([]string{"https://app.example.com"}, env.handler)

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
