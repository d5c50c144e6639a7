package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func TestAttributesToZapFields(t *testing.T) {
	t.Parallel()

	fields := attributesToZapFields(
		attribute.String("event.topic", "console"),
		attribute.Int("events.dropped", 3),
		attribute.Bool("signed", true),
	)

	assert.Equal(t, []zap.Field{
		zap.String("event.topic", "console"),
		zap.Int64("events.dropped", 3),
		zap.Bool("signed", true),
	}, fields)
}
