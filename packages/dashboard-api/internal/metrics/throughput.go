package metrics

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
	"github.com/fnscope/infra/packages/shared/pkg/events"
)

// ThroughputPoint holds executions per second of each function type in one bucket.
type ThroughputPoint struct {
	Date       time.Time `json:"date"`
	Query      float64   `json:"query"`
	Mutation   float64   `json:"mutation"`
	Action     float64   `json:"action"`
	HTTPAction float64   `json:"http_action"`
}

func (p *ThroughputPoint) add(functionType events.FunctionType, rate float64) {
	switch functionType {
	case events.FunctionTypeQuery:
		p.Query += rate
	case events.FunctionTypeMutation:
		p.Mutation += rate
	case events.FunctionTypeAction:
		p.Action += rate
	case events.FunctionTypeHTTPAction:
		p.HTTPAction += rate
	}
}

// Throughput returns the execution rate per function type for every bucket that saw at least one execution.
func (s *Service) Throughput(ctx context.Context, r timerange.Range) ([]ThroughputPoint, error) {
	rows, err := s.store.QueryThroughput(ctx, filterOf(r), r.Step)
	if err != nil {
		return nil, fmt.Errorf("error querying throughput: %w", err)
	}

	stepSeconds := r.Step.Seconds()
	index := make(map[int64]int)
	points := make([]ThroughputPoint, 0)

	for _, row := range rows {
		key := row.Bucket.Unix()

		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, ThroughputPoint{Date: row.Bucket.UTC()})
		}

		points[i].add(events.FunctionType(row.FunctionType), float64(row.Count)/stepSeconds)
	}

	slices.SortStableFunc(points, func(a, b ThroughputPoint) int {
		return a.Date.Compare(b.Date)
	})

	return points, nil
}
