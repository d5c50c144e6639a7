package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/ingest/internal/cfg"
	"github.com/fnscope/infra/packages/ingest/internal/pipeline"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
	"github.com/fnscope/infra/packages/shared/pkg/webhooks"
)

const instrumentationName = "github.com/fnscope/infra/packages/ingest/internal/handlers"

type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

type APIStore struct {
	Healthy atomic.Bool
	Tracer  trace.Tracer

	auth     *webhooks.Authenticator
	pipeline *pipeline.Pipeline

	rejectedCounter    metric.Int64Counter
	batchSizeHistogram metric.Int64Histogram
}

func NewAPIStore(tel *telemetry.Client, store clickhouse.Clickhouse, config cfg.Config) (*APIStore, error) {
	zap.L().Info("Initializing ingest API store",
		zap.Bool("signature_verification", config.WebhookSecret != ""),
		zap.Duration("max_timestamp_skew", config.MaxAllowedTimestampSkew()),
	)

	p, err := pipeline.New(store, tel.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}

	meter := tel.MeterProvider.Meter(instrumentationName)

	rejected, err := telemetry.GetCounter(meter, telemetry.IngestBatchesRejectedName)
	if err != nil {
		return nil, fmt.Errorf("failed to create rejected batches counter: %w", err)
	}

	batchSize, err := telemetry.GetHistogram(meter, telemetry.IngestBatchSizeHistogramName)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch size histogram: %w", err)
	}

	a := &APIStore{
		Tracer:             tel.TracerProvider.Tracer(instrumentationName),
		auth:               webhooks.NewAuthenticator(config.WebhookSecret, config.MaxAllowedTimestampSkew()),
		pipeline:           p,
		rejectedCounter:    rejected,
		batchSizeHistogram: batchSize,
	}
	a.Healthy.Store(true)

	return a, nil
}

func RegisterHandlers(r gin.IRouter, a *APIStore) {
	r.GET("/", a.GetRoot)
	r.GET("/health", a.GetHealth)
	r.POST("/ingest", a.PostIngest)
}

func (a *APIStore) sendAPIStoreError(c *gin.Context, code int, message string) {
	apiErr := Error{
		Code:    int32(code),
		Message: message,
	}

	c.Error(errors.New(message))
	c.JSON(code, apiErr)
}

func (a *APIStore) GetHealth(c *gin.Context) {
	if a.Healthy.Load() {
		c.String(http.StatusOK, "OK")

		return
	}

	c.String(http.StatusServiceUnavailable, "Service is unavailable")
}

func (a *APIStore) GetRoot(c *gin.Context) {
	c.String(http.StatusOK, "%s %s", c.Request.Method, c.Request.URL.Path)
}
