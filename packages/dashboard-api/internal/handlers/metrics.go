package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
)

func (a *APIStore) GetMetricsThroughput(c *gin.Context) {
	serveRange(a, c, "throughput", a.metrics.Throughput)
}

func (a *APIStore) GetMetricsFailureRate(c *gin.Context) {
	serveRange(a, c, "failure-rate", a.metrics.FailureRate)
}

func (a *APIStore) GetMetricsExecutionTime(c *gin.Context) {
	serveRange(a, c, "execution-time", a.metrics.ExecutionTime)
}

func (a *APIStore) GetMetricsOverview(c *gin.Context) {
	serveRange(a, c, "overview", a.metrics.Overview)
}

// serveRange resolves the request's time range and answers with the result of query.
func serveRange[T any](a *APIStore, c *gin.Context, name string, query func(context.Context, timerange.Range) (T, error)) {
	ctx, span := a.Tracer.Start(c.Request.Context(), "query-"+name)
	defer span.End()

	r, apiErr := a.rangeParams(c)
	if apiErr != nil {
		telemetry.ReportError(ctx, "invalid time range", apiErr.Err)
		a.sendAPIStoreError(c, apiErr.Code, apiErr.ClientMsg)

		return
	}

	telemetry.SetAttributes(ctx,
		attribute.String("query.range", string(r.Selector)),
		attribute.String("query.step", r.Step.String()),
	)

	start := time.Now()
	result, err := query(ctx, r)
	a.queryDuration.Record(ctx, time.Since(start).Milliseconds(), metric.WithAttributes(attribute.String("query", name)))

	if err != nil {
		telemetry.ReportCriticalError(ctx, fmt.Sprintf("error querying %s", name), err)
		a.sendAPIStoreError(c, http.StatusInternalServerError, fmt.Sprintf("Error querying %s", name))

		return
	}

	c.JSON(http.StatusOK, result)
}
