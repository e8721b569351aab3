package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestInitEnabledRequiresEndpoint(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: true})
	assert.Error(t, err)
}

func TestWithDefaults(t *testing.T) {
	t.Setenv("VERSION", "")
	cfg := withDefaults(Config{})
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "development", cfg.Environment)

	cfg = withDefaults(Config{ServiceName: "x", ServiceVersion: "1.2.3", Environment: "prod"})
	assert.Equal(t, "x", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
}
