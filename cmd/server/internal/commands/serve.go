package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"filippo.io/csrf"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wolfeidau/staffdesk/internal/api"
	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/gate"
	httpmw "github.com/wolfeidau/staffdesk/internal/http"
	"github.com/wolfeidau/staffdesk/internal/identity"
	"github.com/wolfeidau/staffdesk/internal/logger"
	"github.com/wolfeidau/staffdesk/internal/login"
	"github.com/wolfeidau/staffdesk/internal/seed"
	"github.com/wolfeidau/staffdesk/internal/session"
	"github.com/wolfeidau/staffdesk/internal/telemetry"
	"github.com/wolfeidau/staffdesk/internal/website"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"STAFFDESK_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"STAFFDESK_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"STAFFDESK_TLS_KEY"`

	// Session configuration
	Environment   string `help:"deployment environment, production marks the session cookie Secure" default:"development" env:"STAFFDESK_ENV" enum:"development,production"`
	SessionSecret string `help:"secret used to sign session cookies (at least 32 bytes)" required:"" env:"STAFFDESK_SESSION_SECRET"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:8080" env:"STAFFDESK_CORS_ORIGINS"`
	TrustProxy  bool     `help:"take the client IP from X-Forwarded-For / X-Real-IP" default:"false" env:"STAFFDESK_TRUST_PROXY"`

	// Registration and bootstrap
	AllowAdminRegistration bool   `help:"let self-registration choose the admin role (development only)" default:"false" env:"STAFFDESK_ALLOW_ADMIN_REGISTRATION"`
	SeedFile               string `help:"YAML file of users, departments and employees to create on startup" default:"" env:"STAFFDESK_SEED_FILE"`

	// Telemetry
	Tracing     bool    `help:"enable tracing and metrics export" default:"false" env:"STAFFDESK_TRACING"`
	SampleRatio float64 `help:"fraction of traces sampled when tracing is enabled" default:"1" env:"STAFFDESK_TRACE_SAMPLE_RATIO"`

	Store StoreFlags `embed:""`
}

func (c *ServeCmd) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS certificate and key must be provided together (--cert and --key)")
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.New("trace sample ratio must be between 0 and 1")
	}
	return nil
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := setupLogging(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("version", globals.Version).
		Bool("debug", globals.Debug).
		Str("environment", c.Environment).
		Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "staffdesk",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	st, err := c.Store.open(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	dir := directory.NewService(st.users, st.departments, st.employees, st.audit)

	if c.SeedFile != "" {
		f, err := seed.Load(c.SeedFile)
		if err != nil {
			return err
		}
		res, err := seed.Apply(ctx, dir, f)
		if err != nil {
			return err
		}
		log.Info().Int("created", res.Created).Int("skipped", res.Skipped).Str("file", c.SeedFile).Msg("Seed data applied")
	}

	codec, err := session.NewCodec(session.Options{
		Secret: []byte(c.SessionSecret),
		Secure: c.Environment == "production",
	})
	if err != nil {
		return fmt.Errorf("failed to create session codec: %w", err)
	}

	templates, err := website.NewTemplates(nil)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	if c.AllowAdminRegistration {
		log.Warn().Msg("Admin self-registration is enabled (--allow-admin-registration). This should only be used in development!")
	}

	handler := newHandler(handlerConfig{
		Codec:                  codec,
		Directory:              dir,
		Verifier:               identity.NewStoreVerifier(st.users),
		Templates:              templates,
		Ping:                   st.ping,
		CORSOrigins:            c.CORSOrigins,
		TrustProxy:             c.TrustProxy,
		AllowAdminRegistration: c.AllowAdminRegistration,
		Tracing:                c.Tracing,
		Logger:                 log,
	})

	srv := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" {
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

type handlerConfig struct {
	Codec                  *session.Codec
	Directory              *directory.Service
	Verifier               identity.Verifier
	Templates              *website.Templates
	Ping                   func(ctx context.Context) error
	CORSOrigins            []string
	TrustProxy             bool
	AllowAdminRegistration bool
	Tracing                bool
	Logger                 zerolog.Logger
}

// newHandler assembles the routes and middleware. Page routes run behind the
// access gate and CSRF protection, /api/ behind CORS and RequireSession.
func newHandler(cfg handlerConfig) http.Handler {
	pages := http.NewServeMux()

	login.New(login.Config{
		Sessions:               cfg.Codec,
		Verifier:               cfg.Verifier,
		Users:                  cfg.Directory,
		Renderer:               cfg.Templates,
		AllowAdminRegistration: cfg.AllowAdminRegistration,
	}).Routes(pages)
	website.New(cfg.Directory, cfg.Templates).Routes(pages)

	pages.HandleFunc("GET /healthz", healthz(cfg.Ping))

	// CSRF protection for HTML pages (not applied to API routes)
	protection := csrf.New()
	gated := protection.Handler(gate.Middleware(cfg.Codec, gate.Options{})(pages))

	apiHandler := api.WithCORS(cfg.CORSOrigins, api.New(cfg.Directory).Handler(cfg.Codec))

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			apiHandler.ServeHTTP(w, r)
			return
		}
		gated.ServeHTTP(w, r)
	})

	handler = gzhttp.GzipHandler(handler)
	if cfg.Tracing {
		handler = otelhttp.NewHandler(handler, "staffdesk")
	}
	handler = logger.RequestLogger(cfg.Logger)(handler)

	return httpmw.ClientIPMiddleware(cfg.TrustProxy)(handler)
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func healthz(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}
}
