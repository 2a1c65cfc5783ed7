// Package website serves the HTML pages behind the access gate: the landing
// page, the administrator dashboard and the employee profile.
package website

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/gate"
	"github.com/wolfeidau/staffdesk/internal/session"
	"github.com/wolfeidau/staffdesk/internal/store"
)

// Handler serves the page routes.
type Handler struct {
	dir       *directory.Service
	templates *Templates
}

func New(dir *directory.Service, templates *Templates) *Handler {
	return &Handler{dir: dir, templates: templates}
}

// Routes registers the page, admin form and static asset handlers on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET "+gate.AdminPath, h.Admin)
	mux.HandleFunc("POST /admin/users", h.CreateUser)
	mux.HandleFunc("POST /admin/users/{id}", h.UpdateUser)
	mux.HandleFunc("POST /admin/departments", h.CreateDepartment)
	mux.HandleFunc("POST /admin/departments/{id}", h.UpdateDepartment)
	mux.HandleFunc("POST /admin/employees", h.CreateEmployee)
	mux.HandleFunc("POST /admin/employees/{id}", h.UpdateEmployee)
	mux.HandleFunc("GET "+gate.EmployeeProfilePath, h.Profile)

	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /public/", http.StripPrefix("/public/", http.FileServerFS(static)))
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// Home sends signed-in users to their role home and shows the landing page
// to everyone else. Behind the gate an anonymous "/" is redirected to the
// login page first, so the landing page only renders without it.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if s, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, gate.HomeFor(s.Role), http.StatusFound)
		return
	}
	h.templates.Render(w, r, http.StatusOK, "home", nil)
}

// Profile shows the signed-in user's account and employee record.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, gate.LoginRedirect(r.URL.Path), http.StatusFound)
		return
	}

	userID, err := uuid.Parse(s.ID)
	if err != nil {
		h.templates.RenderError(w, r, http.StatusBadRequest, "Your session is not valid. Please sign in again.")
		return
	}

	profile, err := h.dir.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.templates.RenderError(w, r, http.StatusNotFound, "Your account no longer exists.")
			return
		}
		log.Error().Err(err).Str("user_id", s.ID).Msg("Failed to load profile")
		h.templates.RenderError(w, r, http.StatusInternalServerError, "Failed to load your profile.")
		return
	}

	h.templates.Render(w, r, http.StatusOK, "profile", profile)
}
