// Package login implements sign-in, self-registration and sign-out. These are
// the only handlers that issue or clear the session cookie.
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/forms"
	"github.com/wolfeidau/staffdesk/internal/gate"
	"github.com/wolfeidau/staffdesk/internal/identity"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/session"
	"github.com/wolfeidau/staffdesk/internal/store"
	"github.com/wolfeidau/staffdesk/internal/telemetry"
)

// Page names passed to the Renderer.
const (
	LoginPage    = "login"
	RegisterPage = "register"
)

// Renderer writes an HTML page.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, page string, data any)
}

// SessionIssuer sets and clears the session cookie.
type SessionIssuer interface {
	Issue(w http.ResponseWriter, s session.Session) error
	Clear(w http.ResponseWriter)
}

// UserCreator creates accounts for self-registration.
type UserCreator interface {
	CreateUser(ctx context.Context, in directory.NewUser) (*models.User, error)
}

// LoginView is the data for the login page.
type LoginView struct {
	Form    forms.Login
	Errors  forms.Errors
	Message string
}

// RegisterView is the data for the registration page.
type RegisterView struct {
	Form       forms.Register
	Errors     forms.Errors
	Message    string
	AllowAdmin bool
}

// Config holds the collaborators of a Handler.
type Config struct {
	Sessions SessionIssuer
	Verifier identity.Verifier
	Users    UserCreator
	Renderer Renderer

	// AllowAdminRegistration lets self-registration choose the admin role.
	// When false every registration becomes an employee.
	AllowAdminRegistration bool
}

// Handler serves /login, /register and /logout.
type Handler struct {
	cfg     Config
	metrics *telemetry.Metrics
}

func New(cfg Config) *Handler {
	return &Handler{
		cfg:     cfg,
		metrics: telemetry.GetMetrics(),
	}
}

// Routes registers the handlers on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+gate.LoginPath, h.LoginForm)
	mux.HandleFunc("POST "+gate.LoginPath, h.Login)
	mux.HandleFunc("GET "+gate.RegisterPath, h.RegisterForm)
	mux.HandleFunc("POST "+gate.RegisterPath, h.Register)
	mux.HandleFunc("POST /logout", h.Logout)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.cfg.Renderer.Render(w, r, http.StatusOK, LoginPage, LoginView{
		Form: forms.Login{Redirect: r.URL.Query().Get("redirect")},
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := forms.ParseLogin(r.PostForm)
	view := LoginView{Form: form}
	// never echo the password back
	view.Form.Password = ""

	if errs := form.Validate(); errs.Any() {
		view.Errors = errs
		h.cfg.Renderer.Render(w, r, http.StatusUnprocessableEntity, LoginPage, view)
		return
	}

	user, err := h.cfg.Verifier.Verify(r.Context(), form.Email, form.Password)
	if err != nil {
		status, reason := http.StatusUnauthorized, "invalid_credentials"
		view.Message = "Invalid email or password."

		switch {
		case errors.Is(err, identity.ErrNotFound), errors.Is(err, identity.ErrWrongCredential):
		case errors.Is(err, identity.ErrInactive):
			status, reason = http.StatusForbidden, "inactive"
			view.Message = "This account is inactive. Contact an administrator."
		default:
			status, reason = http.StatusServiceUnavailable, "unavailable"
			view.Message = "Sign-in is temporarily unavailable. Please try again."
			log.Error().Err(err).Msg("Identity verification failed")
		}

		h.metrics.LoginFailuresTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", reason)))
		log.Info().Str("reason", reason).Msg("Login rejected")
		h.cfg.Renderer.Render(w, r, status, LoginPage, view)
		return
	}

	s := session.FromUser(user)
	if !h.issue(w, r, s, "login") {
		return
	}

	log.Info().Str("user_id", s.ID).Str("role", s.Role).Msg("User logged in")
	http.Redirect(w, r, gate.SafeRedirect(form.Redirect, s), http.StatusSeeOther)
}

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.cfg.Renderer.Render(w, r, http.StatusOK, RegisterPage, RegisterView{
		Form:       forms.Register{Role: models.RoleEmployee},
		AllowAdmin: h.cfg.AllowAdminRegistration,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := forms.ParseRegister(r.PostForm)
	if form.Role == "" || !h.cfg.AllowAdminRegistration {
		form.Role = models.RoleEmployee
	}

	view := RegisterView{Form: form, AllowAdmin: h.cfg.AllowAdminRegistration}
	view.Form.Password = ""

	if errs := form.Validate(); errs.Any() {
		view.Errors = errs
		h.cfg.Renderer.Render(w, r, http.StatusUnprocessableEntity, RegisterPage, view)
		return
	}

	user, err := h.cfg.Users.CreateUser(r.Context(), directory.NewUser{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
		Role:      form.Role,
	})
	if err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			view.Errors = forms.Errors{"email": "An account with this email already exists."}
			h.cfg.Renderer.Render(w, r, http.StatusConflict, RegisterPage, view)
			return
		}

		log.Error().Err(err).Msg("Failed to register user")
		view.Message = "Registration failed. Please try again."
		h.cfg.Renderer.Render(w, r, http.StatusInternalServerError, RegisterPage, view)
		return
	}

	s := session.FromUser(user)
	if !h.issue(w, r, s, "register") {
		return
	}

	log.Info().Str("user_id", s.ID).Str("role", s.Role).Msg("User registered")
	http.Redirect(w, r, gate.HomeFor(s.Role), http.StatusSeeOther)
}

// Logout clears the session and returns to the login page. It is safe to
// call without a session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cfg.Sessions.Clear(w)
	h.metrics.SessionsClearedTotal.Add(r.Context(), 1)

	if s, ok := session.FromContext(r.Context()); ok {
		log.Info().Str("user_id", s.ID).Msg("User logged out")
	}

	http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
}

// issue sets the cookie, answering 500 when it cannot be produced.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, s session.Session, via string) bool {
	if err := h.cfg.Sessions.Issue(w, s); err != nil {
		log.Error().Err(err).Str("user_id", s.ID).Msg("Failed to issue session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return false
	}

	h.metrics.SessionsIssuedTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("via", via)))
	return true
}
