package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	httpmw "github.com/wolfeidau/staffdesk/internal/http"
	"github.com/wolfeidau/staffdesk/internal/telemetry"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// RequestLogger logs one line per request and records its duration. The
// request context carries a child logger, retrieved with zerolog.Ctx.
// Must run inside ClientIPMiddleware for the client_ip field to be set.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	duration := telemetry.GetMetrics().RequestDuration

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("client_ip", httpmw.ClientIPFromContext(r.Context())).
				Logger()

			r = r.WithContext(reqLogger.WithContext(r.Context()))

			m := httpsnoop.CaptureMetrics(next, w, r)

			duration.Record(r.Context(), float64(m.Duration.Milliseconds()),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.Int("status", m.Code),
				))

			event := reqLogger.Info()
			if m.Code >= http.StatusInternalServerError {
				event = reqLogger.Error()
			}

			event.
				Int("status", m.Code).
				Int64("bytes", m.Written).
				Dur("duration", m.Duration).
				Msg("http request")
		})
	}
}
