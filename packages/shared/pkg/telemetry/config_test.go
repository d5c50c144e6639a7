package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func TestGetResource(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")

	res, err := GetResource(t.Context(), "ingest", "abc123", "1.0.0", "instance-1")
	require.NoError(t, err)

	assert.Equal(t, semconv.SchemaURL, res.SchemaURL())

	set := res.Set()

	for key, want := range map[attribute.Key]string{
		"service.name":           "ingest",
		"service.version":        "1.0.0-abc123",
		"service.instance.id":    "instance-1",
		"deployment.environment": "staging",
		"telemetry.sdk.name":     "otel",
		"telemetry.sdk.language": "go",
	} {
		value, ok := set.Value(key)
		require.True(t, ok, key)
		assert.Equal(t, want, value.AsString(), key)
	}
}
