package metrics

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
	"github.com/fnscope/infra/packages/shared/pkg/logger"
)

type FailureRateAggregate struct {
	FunctionPath string  `json:"functionPath"`
	TotalCount   uint64  `json:"totalCount"`
	FailureCount uint64  `json:"failureCount"`
	FailureRate  float64 `json:"failureRate"`
}

type FailureRate struct {
	Data       []Point                `json:"data"`
	Functions  []string               `json:"functions"`
	Aggregates []FailureRateAggregate `json:"aggregates"`
}

func emptyFailureRate() FailureRate {
	return FailureRate{Data: []Point{}, Functions: []string{}, Aggregates: []FailureRateAggregate{}}
}

// FailureRate reports failure percentages of the functions that failed at least
// once in the window. Aggregates are ordered by descending rate.
func (s *Service) FailureRate(ctx context.Context, r timerange.Range) (FailureRate, error) {
	filter := filterOf(r)

	paths, err := s.store.QueryFunctionsWithFailures(ctx, filter)
	if err != nil {
		return FailureRate{}, fmt.Errorf("error querying functions with failures: %w", err)
	}

	if len(paths) == 0 {
		zap.L().Debug("No failing functions in range", logger.WithTimeRange(string(r.Selector)))

		return emptyFailureRate(), nil
	}

	series, err := s.store.QueryFailureRateSeries(ctx, filter, r.Step, paths)
	if err != nil {
		return FailureRate{}, fmt.Errorf("error querying failure rate series: %w", err)
	}

	rows, err := s.store.QueryFailureRateAggregates(ctx, filter, paths)
	if err != nil {
		return FailureRate{}, fmt.Errorf("error querying failure rate aggregates: %w", err)
	}

	builder := newSeriesBuilder()
	for _, row := range series {
		builder.set(row.Bucket, row.FunctionPath, percentage(row.Failures, row.Total))
	}

	aggregates := make([]FailureRateAggregate, len(rows))
	for i, row := range rows {
		aggregates[i] = FailureRateAggregate{
			FunctionPath: row.FunctionPath,
			TotalCount:   row.Total,
			FailureCount: row.Failures,
			FailureRate:  percentage(row.Failures, row.Total),
		}
	}

	slices.SortStableFunc(aggregates, func(a, b FailureRateAggregate) int {
		return cmp.Or(
			cmp.Compare(b.FailureRate, a.FailureRate),
			cmp.Compare(a.FunctionPath, b.FunctionPath),
		)
	})

	return FailureRate{
		Data:       builder.build(),
		Functions:  paths,
		Aggregates: aggregates,
	}, nil
}
