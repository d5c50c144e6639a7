package clickhouse

import (
	"context"
	"time"
)

// NoopClient discards inserts and answers every query with no rows.
type NoopClient struct{}

var _ Clickhouse = (*NoopClient)(nil)

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (m *NoopClient) Close(context.Context) error {
	return nil
}

func (m *NoopClient) InsertFunctionExecutions(context.Context, []FunctionExecutionRow) error {
	return nil
}

func (m *NoopClient) InsertConsoleLogs(context.Context, []ConsoleLogRow) error {
	return nil
}

func (m *NoopClient) QueryThroughput(context.Context, TimeFilter, time.Duration) ([]ThroughputRow, error) {
	return nil, nil
}

func (m *NoopClient) QueryFunctionsWithFailures(context.Context, TimeFilter) ([]string, error) {
	return nil, nil
}

func (m *NoopClient) QueryFailureRateSeries(context.Context, TimeFilter, time.Duration, []string) ([]FailureRateRow, error) {
	return nil, nil
}

func (m *NoopClient) QueryFailureRateAggregates(context.Context, TimeFilter, []string) ([]FailureRateAggregateRow, error) {
	return nil, nil
}

func (m *NoopClient) QueryExecutionTimeSeries(context.Context, TimeFilter, time.Duration) ([]ExecutionTimeRow, error) {
	return nil, nil
}

func (m *NoopClient) QueryExecutionTimeAggregates(context.Context, TimeFilter) ([]ExecutionTimeAggregateRow, error) {
	return nil, nil
}

func (m *NoopClient) QueryConsoleLogs(context.Context, LogFilter) ([]ConsoleLogRow, error) {
	return nil, nil
}

func (m *NoopClient) QueryFunctionPaths(context.Context) ([]string, error) {
	return nil, nil
}
