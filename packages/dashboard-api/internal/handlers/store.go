package handlers

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/dashboard-api/internal/metrics"
	"github.com/fnscope/infra/packages/shared/pkg/health"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
)

const instrumentationName = "github.com/fnscope/infra/packages/dashboard-api/internal/handlers"

type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

type APIStore struct {
	Healthy atomic.Bool
	Tracer  trace.Tracer

	version string
	metrics *metrics.Service
	now     func() time.Time

	queryDuration metric.Int64Histogram
}

func NewAPIStore(tel *telemetry.Client, store clickhouse.Clickhouse, version string) (*APIStore, error) {
	zap.L().Info("Initializing dashboard API store")

	queryDuration, err := telemetry.GetHistogram(tel.MeterProvider.Meter(instrumentationName), telemetry.DashboardQueryDurationHistogramName)
	if err != nil {
		return nil, fmt.Errorf("failed to create query duration histogram: %w", err)
	}

	a := &APIStore{
		Tracer:        tel.TracerProvider.Tracer(instrumentationName),
		version:       version,
		metrics:       metrics.New(store),
		now:           time.Now,
		queryDuration: queryDuration,
	}
	a.Healthy.Store(true)

	return a, nil
}

func RegisterHandlers(r gin.IRouter, a *APIStore) {
	r.GET("/health", a.GetHealth)

	r.GET("/metrics/throughput", a.GetMetricsThroughput)
	r.GET("/metrics/failure-rate", a.GetMetricsFailureRate)
	r.GET("/metrics/execution-time", a.GetMetricsExecutionTime)
	r.GET("/metrics/overview", a.GetMetricsOverview)

	r.GET("/logs", a.GetLogs)
	r.GET("/functions", a.GetFunctions)
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
	c.JSON(health.Check(a.Healthy.Load(), a.version))
}
