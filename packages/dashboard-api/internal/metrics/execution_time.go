package metrics

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
)

// topSlowest is how many functions the execution time chart plots.
const topSlowest = 10

type ExecutionTimeAggregate struct {
	FunctionPath     string  `json:"functionPath"`
	AvgExecutionTime float64 `json:"avgExecutionTime"`
	TotalCount       uint64  `json:"totalCount"`
}

type ExecutionTime struct {
	Data       []Point                  `json:"data"`
	Functions  []string                 `json:"functions"`
	Aggregates []ExecutionTimeAggregate `json:"aggregates"`
}

func emptyExecutionTime() ExecutionTime {
	return ExecutionTime{Data: []Point{}, Functions: []string{}, Aggregates: []ExecutionTimeAggregate{}}
}

// ExecutionTime reports average execution times. The series only carries the
// slowest functions while the aggregates cover every function, slowest first.
func (s *Service) ExecutionTime(ctx context.Context, r timerange.Range) (ExecutionTime, error) {
	filter := filterOf(r)

	series, err := s.store.QueryExecutionTimeSeries(ctx, filter, r.Step)
	if err != nil {
		return ExecutionTime{}, fmt.Errorf("error querying execution time series: %w", err)
	}

	if len(series) == 0 {
		return emptyExecutionTime(), nil
	}

	rows, err := s.store.QueryExecutionTimeAggregates(ctx, filter)
	if err != nil {
		return ExecutionTime{}, fmt.Errorf("error querying execution time aggregates: %w", err)
	}

	aggregates := make([]ExecutionTimeAggregate, len(rows))
	for i, row := range rows {
		aggregates[i] = ExecutionTimeAggregate{
			FunctionPath:     row.FunctionPath,
			AvgExecutionTime: row.AvgMs,
			TotalCount:       row.Total,
		}
	}

	slices.SortStableFunc(aggregates, func(a, b ExecutionTimeAggregate) int {
		return cmp.Or(
			cmp.Compare(b.AvgExecutionTime, a.AvgExecutionTime),
			cmp.Compare(a.FunctionPath, b.FunctionPath),
		)
	})

	top := make([]string, 0, topSlowest)
	for _, a := range aggregates[:min(topSlowest, len(aggregates))] {
		top = append(top, a.FunctionPath)
	}

	builder := newSeriesBuilder()
	for _, row := range series {
		builder.set(row.Bucket, row.FunctionPath, row.AvgMs)
	}

	return ExecutionTime{
		Data:       keep(builder.build(), top),
		Functions:  top,
		Aggregates: aggregates,
	}, nil
}
