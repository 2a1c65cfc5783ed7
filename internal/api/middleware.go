package api

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/staffdesk/internal/session"
)

// SessionReader reads the session cookie.
type SessionReader interface {
	Read(r *http.Request) (session.Session, bool)
}

// RequireSession authenticates API requests with the session cookie. Unlike
// the page gate it never redirects: requests without a valid session get
// 401 and a JSON error body.
func RequireSession(reader SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := reader.Read(r)
			if !ok {
				log.Debug().Str("path", r.URL.Path).Msg("API request without a valid session")
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

// requirePermission answers 403 unless the session's role grants perm.
func requirePermission(perm Permission, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		if !HasPermission(s.Role, perm) {
			log.Warn().
				Str("user_id", s.ID).
				Str("role", s.Role).
				Str("permission", string(perm)).
				Msg("API permission denied")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		next(w, r)
	}
}

// WithCORS allows browser clients on origins to call the API with cookies.
func WithCORS(origins []string, h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           7200,
	})
	return c.Handler(h)
}
