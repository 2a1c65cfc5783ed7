package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/staffdesk"
)

// Metrics holds the OpenTelemetry instruments recorded by the application.
type Metrics struct {
	// Access gate
	GateDecisionsTotal metric.Int64Counter

	// Session lifecycle
	SessionsIssuedTotal  metric.Int64Counter
	SessionsClearedTotal metric.Int64Counter
	LoginFailuresTotal   metric.Int64Counter

	// Directory writes
	DirectoryWritesTotal metric.Int64Counter
	AuditFailuresTotal   metric.Int64Counter

	// HTTP
	RequestDuration metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments bind to whichever meter provider is global at first use, so
// InitTelemetry must run before the first call when exporting.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.GateDecisionsTotal, _ = meter.Int64Counter(
		"staffdesk.gate.decisions.total",
		metric.WithDescription("Access gate decisions by outcome"),
		metric.WithUnit("{decision}"),
	)

	m.SessionsIssuedTotal, _ = meter.Int64Counter(
		"staffdesk.sessions.issued.total",
		metric.WithDescription("Sessions issued after login or registration"),
		metric.WithUnit("{session}"),
	)

	m.SessionsClearedTotal, _ = meter.Int64Counter(
		"staffdesk.sessions.cleared.total",
		metric.WithDescription("Sessions cleared by logout"),
		metric.WithUnit("{session}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"staffdesk.login.failures.total",
		metric.WithDescription("Rejected login attempts by reason"),
		metric.WithUnit("{attempt}"),
	)

	m.DirectoryWritesTotal, _ = meter.Int64Counter(
		"staffdesk.directory.writes.total",
		metric.WithDescription("User, department and employee writes by entity and operation"),
		metric.WithUnit("{write}"),
	)

	m.AuditFailuresTotal, _ = meter.Int64Counter(
		"staffdesk.audit.failures.total",
		metric.WithDescription("Audit log entries that could not be written"),
		metric.WithUnit("{entry}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"staffdesk.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	return m
}
