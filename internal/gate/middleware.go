package gate

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/staffdesk/internal/session"
	"github.com/wolfeidau/staffdesk/internal/telemetry"
)

// SessionReader reads the session carried by a request.
type SessionReader interface {
	Read(r *http.Request) (session.Session, bool)
}

// Options configures the gate middleware.
type Options struct {
	// ExcludedPrefixes bypass the gate entirely. Defaults to DefaultExcludedPrefixes.
	ExcludedPrefixes []string

	// ExcludedPaths are exact paths that bypass the gate. Defaults to DefaultExcludedPaths.
	ExcludedPaths []string
}

var (
	DefaultExcludedPrefixes = []string{"/public/", "/api/"}
	DefaultExcludedPaths    = []string{"/favicon.ico", "/healthz"}
)

func (o *Options) applyDefaults() {
	if o.ExcludedPrefixes == nil {
		o.ExcludedPrefixes = DefaultExcludedPrefixes
	}
	if o.ExcludedPaths == nil {
		o.ExcludedPaths = DefaultExcludedPaths
	}
}

func (o *Options) excluded(path string) bool {
	for _, p := range o.ExcludedPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range o.ExcludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware applies Decide to every request outside the excluded namespaces.
// Denials are 302 redirects. Allowed requests carry the session in their
// context, see session.FromContext.
func Middleware(reader SessionReader, opts Options) func(http.Handler) http.Handler {
	opts.applyDefaults()
	metrics := telemetry.GetMetrics()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if opts.excluded(path) {
				next.ServeHTTP(w, r)
				return
			}

			s, ok := readSession(reader, r)
			decision := Decide(path, s, ok)

			metrics.GateDecisionsTotal.Add(r.Context(), 1,
				metric.WithAttributes(attribute.String("outcome", string(decision.Outcome))))

			if decision.Redirect() {
				log.Debug().
					Str("path", path).
					Str("outcome", string(decision.Outcome)).
					Str("location", decision.Location).
					Msg("Access gate redirect")
				http.Redirect(w, r, decision.Location, http.StatusFound)
				return
			}

			if ok {
				r = r.WithContext(session.NewContext(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// readSession treats any failure while reading, including a panic, as no session.
func readSession(reader SessionReader, r *http.Request) (s session.Session, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("Session read failed, treating as anonymous")
			s, ok = session.Session{}, false
		}
	}()

	return reader.Read(r)
}
