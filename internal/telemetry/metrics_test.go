package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestGetMetrics_Singleton(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.Same(t, m, GetMetrics())
	require.NotNil(t, m.GateDecisionsTotal)
	require.NotNil(t, m.SessionsIssuedTotal)
	require.NotNil(t, m.RequestDuration)
}

func TestSampler(t *testing.T) {
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
