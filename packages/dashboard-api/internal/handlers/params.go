package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fnscope/infra/packages/dashboard-api/internal/api"
	"github.com/fnscope/infra/packages/dashboard-api/internal/metrics"
	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
)

var errInvalidLimit = errors.New("invalid limit")

func (a *APIStore) rangeParams(c *gin.Context) (timerange.Range, *api.APIError) {
	r, err := timerange.Parse(c.Query("range"), c.Query("start"), c.Query("end"), a.now())
	if err != nil {
		return timerange.Range{}, &api.APIError{
			Err:       err,
			ClientMsg: err.Error(),
			Code:      http.StatusBadRequest,
		}
	}

	return r, nil
}

// limitParam reads "limit" as a number, floors it and clamps it to the allowed log limit.
func limitParam(c *gin.Context) (int, *api.APIError) {
	raw, ok := c.GetQuery("limit")
	if !ok || raw == "" {
		return metrics.DefaultLogLimit, nil
	}

	limit, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(limit) || math.IsInf(limit, 0) {
		return 0, &api.APIError{
			Err:       fmt.Errorf("%w: %q", errInvalidLimit, raw),
			ClientMsg: "Invalid limit: must be a number",
			Code:      http.StatusBadRequest,
		}
	}

	// Clamped before the conversion so huge values cannot overflow int.
	return int(math.Floor(min(max(limit, 1), metrics.MaxLogLimit))), nil
}
