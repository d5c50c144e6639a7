package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fnscope/infra/packages/ingest/internal/pipeline"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
	"github.com/fnscope/infra/packages/shared/pkg/webhooks"
)

// PostIngest accepts a newline delimited batch of events. The body is read once
// and the same bytes are authenticated and parsed.
func (a *APIStore) PostIngest(c *gin.Context) {
	ctx, span := a.Tracer.Start(c.Request.Context(), "ingest-batch")
	defer span.End()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		telemetry.ReportError(ctx, "error reading request body", err)

		// The size limiter has already answered with 413.
		if c.Writer.Written() {
			return
		}

		a.sendAPIStoreError(c, http.StatusBadRequest, "Error reading request body")

		return
	}

	if err := a.auth.Verify(body, c.GetHeader(webhooks.SignatureHeader)); err != nil {
		a.rejectBatch(ctx, c, err)

		return
	}

	records, err := pipeline.Parse(body)
	if err != nil {
		a.rejectBatch(ctx, c, err)

		return
	}

	a.batchSizeHistogram.Record(ctx, int64(len(records)))
	telemetry.SetAttributes(ctx, attribute.Int("batch.size", len(records)))

	result, err := a.pipeline.Ingest(ctx, records)
	if err != nil {
		telemetry.ReportCriticalError(ctx, "error ingesting batch", err)
		a.sendAPIStoreError(c, http.StatusInternalServerError, "Error ingesting events")

		return
	}

	zap.L().Debug("Batch ingested", zap.Int("lines", len(records)), zap.Int("ingested", result.Ingested()))

	c.JSON(http.StatusOK, gin.H{"message": "Event ingested"})
}

func (a *APIStore) rejectBatch(ctx context.Context, c *gin.Context, err error) {
	code, message, reason := rejection(err)

	a.rejectedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	telemetry.ReportError(ctx, "rejected webhook batch", err, attribute.String("reason", reason))

	a.sendAPIStoreError(c, code, message)
}

func rejection(err error) (code int, message string, reason string) {
	switch {
	case errors.Is(err, webhooks.ErrExpired):
		return http.StatusForbidden, "Request expired", "expired"
	case errors.Is(err, webhooks.ErrMissingSignature):
		return http.StatusUnauthorized, "Unauthorized", "missing_signature"
	case errors.Is(err, webhooks.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized", "invalid_signature"
	case errors.Is(err, webhooks.ErrMalformedBody), errors.Is(err, pipeline.ErrMalformedBatch):
		return http.StatusInternalServerError, "Malformed batch: " + err.Error(), "malformed"
	default:
		return http.StatusInternalServerError, "Error processing request", "unknown"
	}
}
