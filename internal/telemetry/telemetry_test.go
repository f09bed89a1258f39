package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTracingConfig(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  string
		active   bool
	}{
		{"no endpoint", "", "", false},
		{"endpoint set", "http://localhost:4318", "", true},
		{"explicitly disabled", "http://localhost:4318", "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ELLIE_OTEL_ENDPOINT", tt.endpoint)
			if tt.enabled != "" {
				t.Setenv("ELLIE_OTEL_ENABLED", tt.enabled)
			}
			cfg, err := LoadTracingConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.active, cfg.Active())
		})
	}
}

func TestLoadTracingConfigInvalidBool(t *testing.T) {
	t.Setenv("ELLIE_OTEL_ENABLED", "sometimes")
	_, err := LoadTracingConfig()
	assert.Error(t, err)
}

func TestSetupDisabledIsNoop(t *testing.T) {
	t.Setenv("ELLIE_OTEL_ENDPOINT", "")
	shutdown, err := Setup(context.Background(), "ellie-test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Observe("checkout", "ok", 10*time.Millisecond)
	m.Observe("checkout", "ok", 20*time.Millisecond)
	m.Observe("checkout", "conflict", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("checkout", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("checkout", "conflict")))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP ellie_operations_total Lifecycle operations by name and outcome
# TYPE ellie_operations_total counter
ellie_operations_total{op="checkout",outcome="conflict"} 1
ellie_operations_total{op="checkout",outcome="ok"} 2
`), "ellie_operations_total")
	assert.NoError(t, err)
}

func TestNewMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
