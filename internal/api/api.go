// Package api serves read-only JSON views of the directory under /api/.
// These routes sit outside the page gate and authenticate with the same
// session cookie through RequireSession.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/forms"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/session"
	"github.com/wolfeidau/staffdesk/internal/store"
)

// Handler serves the JSON endpoints.
type Handler struct {
	dir *directory.Service
}

func New(dir *directory.Service) *Handler {
	return &Handler{dir: dir}
}

// Handler returns the API routes wrapped in RequireSession.
func (h *Handler) Handler(reader SessionReader) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session", requirePermission(PermSessionRead, h.Session))
	mux.HandleFunc("GET /api/departments", requirePermission(PermDepartmentsRead, h.Departments))
	mux.HandleFunc("GET /api/employees", requirePermission(PermEmployeesRead, h.Employees))
	mux.HandleFunc("GET /api/users", requirePermission(PermUsersRead, h.Users))
	mux.HandleFunc("GET /api/employees/{id}/audit", requirePermission(PermAuditRead, h.Audit))
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return RequireSession(reader)(mux)
}

type sessionJSON struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type userJSON struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type departmentJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type employeeJSON struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	UserEmail      string `json:"user_email"`
	UserName       string `json:"user_name"`
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name"`
	Position       string `json:"position"`
	HireDate       string `json:"hire_date"`
	Status         string `json:"status"`
}

type auditJSON struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	ChangedBy string    `json:"changed_by"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionJSON{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Role:      s.Role,
	})
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.dir.ListUsers(r.Context())
	if err != nil {
		internalError(w, err, "Failed to list users")
		return
	}

	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUserJSON(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) Departments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.dir.ListDepartments(r.Context())
	if err != nil {
		internalError(w, err, "Failed to list departments")
		return
	}

	out := make([]departmentJSON, 0, len(depts))
	for _, d := range depts {
		out = append(out, departmentJSON{
			ID:        d.DepartmentID.String(),
			Name:      d.Name,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": out})
}

func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.dir.ListEmployees(r.Context())
	if err != nil {
		internalError(w, err, "Failed to list employees")
		return
	}

	out := make([]employeeJSON, 0, len(emps))
	for _, e := range emps {
		out = append(out, employeeJSON{
			ID:             e.EmployeeID.String(),
			UserID:         e.UserID.String(),
			UserEmail:      e.UserEmail,
			UserName:       e.UserName,
			DepartmentID:   e.DepartmentID.String(),
			DepartmentName: e.DepartmentName,
			Position:       e.Position,
			HireDate:       e.HireDate.Format(forms.DateLayout),
			Status:         e.Status,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": out})
}

func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "employee not found")
		return
	}

	entries, err := h.dir.AuditLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "employee not found")
			return
		}
		internalError(w, err, "Failed to list audit entries")
		return
	}

	out := make([]auditJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditJSON{
			ID:        e.EntryID.String(),
			Action:    e.Action,
			Details:   e.Details,
			ChangedBy: e.ChangedBy.String(),
			IPAddress: e.IPAddress,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func toUserJSON(u *models.User) userJSON {
	return userJSON{
		ID:        u.UserID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode API response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
