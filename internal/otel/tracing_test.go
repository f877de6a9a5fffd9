package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"always_on", "", trace.AlwaysSample().Description()},
		{"always_off", "", trace.NeverSample().Description()},
		{"traceidratio", "0.25", trace.TraceIDRatioBased(0.25).Description()},
		{"parentbased_traceidratio", "0.5", trace.ParentBased(trace.TraceIDRatioBased(0.5)).Description()},
		{"parentbased_traceidratio", "lots", trace.ParentBased(trace.TraceIDRatioBased(1)).Description()},
		{"whatever", "", trace.ParentBased(trace.AlwaysSample()).Description()},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, Sampler(tt.name, tt.arg).Description())
		})
	}
}

func TestInit_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	var buf bytes.Buffer

	tr, err := Init(context.Background(), "", zerolog.New(&buf))
	require.NoError(t, err)

	assert.False(t, tr.Enabled)
	assert.NoError(t, tr.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"tracing_enabled":false`)
}

func TestInit_UnsupportedProtocolDegrades(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
	var buf bytes.Buffer

	tr, err := Init(context.Background(), "shopapi-test", zerolog.New(&buf))
	require.NoError(t, err)

	assert.False(t, tr.Enabled)
	assert.Contains(t, buf.String(), "unsupported OTLP protocol")
}
