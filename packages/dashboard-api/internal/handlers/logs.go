package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fnscope/infra/packages/dashboard-api/internal/metrics"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
)

func (a *APIStore) GetLogs(c *gin.Context) {
	ctx, span := a.Tracer.Start(c.Request.Context(), "query-logs")
	defer span.End()

	r, apiErr := a.rangeParams(c)
	if apiErr != nil {
		telemetry.ReportError(ctx, "invalid time range", apiErr.Err)
		a.sendAPIStoreError(c, apiErr.Code, apiErr.ClientMsg)

		return
	}

	limit, apiErr := limitParam(c)
	if apiErr != nil {
		telemetry.ReportError(ctx, "invalid log limit", apiErr.Err)
		a.sendAPIStoreError(c, apiErr.Code, apiErr.ClientMsg)

		return
	}

	q := metrics.LogQuery{
		Range:        r,
		FunctionPath: c.Query("function"),
		LogLevel:     c.Query("level"),
		Search:       c.Query("search"),
		Limit:        limit,
	}

	telemetry.SetAttributes(ctx,
		attribute.String("query.range", string(r.Selector)),
		attribute.Int("query.limit", limit),
	)

	start := time.Now()
	logs, err := a.metrics.Logs(ctx, q)
	a.queryDuration.Record(ctx, time.Since(start).Milliseconds(), metric.WithAttributes(attribute.String("query", "logs")))

	if err != nil {
		telemetry.ReportCriticalError(ctx, "error querying logs", err)
		a.sendAPIStoreError(c, http.StatusInternalServerError, "Error querying logs")

		return
	}

	c.JSON(http.StatusOK, logs)
}

func (a *APIStore) GetFunctions(c *gin.Context) {
	ctx, span := a.Tracer.Start(c.Request.Context(), "query-functions")
	defer span.End()

	paths, err := a.metrics.Functions(ctx)
	if err != nil {
		telemetry.ReportCriticalError(ctx, "error querying functions", err)
		a.sendAPIStoreError(c, http.StatusInternalServerError, "Error querying functions")

		return
	}

	c.JSON(http.StatusOK, paths)
}
