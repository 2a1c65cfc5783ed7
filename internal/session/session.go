// Package session carries the signed-in identity in a single self-contained
// cookie. There is no server-side session table: the cookie is the only copy.
package session

import (
	"context"
	"errors"

	"github.com/wolfeidau/staffdesk/internal/models"
)

var ErrIncompleteSession = errors.New("session is missing required fields")

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the minimal identity record carried in the session cookie.
// Only Role is used for authorization; the other fields are display identity.
type Session struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// IsAdmin returns true if the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// FullName returns "First Last".
func (s Session) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Validate checks that every field is present and the role is known.
func (s Session) Validate() error {
	if s.ID == "" || s.FirstName == "" || s.LastName == "" || s.Email == "" {
		return ErrIncompleteSession
	}
	if !models.IsValidRole(s.Role) {
		return ErrIncompleteSession
	}
	return nil
}

// FromUser builds the session for an authenticated user.
func FromUser(u *models.User) Session {
	return Session{
		ID:        u.UserID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// Result is the outcome of decoding a cookie value: either a valid Session
// or an invalid value with the reason it was rejected.
type Result struct {
	session Session
	reason  string
	valid   bool
}

// Valid wraps a decoded session.
func Valid(s Session) Result {
	return Result{session: s, valid: true}
}

// Invalid records why a cookie value was rejected.
func Invalid(reason string) Result {
	return Result{reason: reason}
}

// Session returns the decoded session and true, or a zero Session and false.
func (r Result) Session() (Session, bool) {
	if !r.valid {
		return Session{}, false
	}
	return r.session, true
}

// IsValid reports whether the value decoded to a complete session.
func (r Result) IsValid() bool {
	return r.valid
}

// Reason is empty for valid results.
func (r Result) Reason() string {
	return r.reason
}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext extracts the session stored by the access gate or API middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(Session)
	return s, ok
}
