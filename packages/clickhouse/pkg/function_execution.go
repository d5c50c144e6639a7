package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type FunctionExecutionRow struct {
	FunctionType        string    `ch:"function_type"`
	FunctionPath        string    `ch:"function_path"`
	FunctionCached      *bool     `ch:"function_cached"`
	RequestID           string    `ch:"request_id"`
	Timestamp           time.Time `ch:"timestamp"`
	Status              string    `ch:"status"`
	ErrorMessage        *string   `ch:"error_message"`
	MutationQueueLength *float64  `ch:"mutation_queue_length"`
	MutationRetryCount  *float64  `ch:"mutation_retry_count"`
	SchedulerJobID      *string   `ch:"scheduler_job_id"`
	ExecutionTimeMs     float64   `ch:"execution_time_ms"`

	UsageDatabaseReadBytes       float64 `ch:"usage_database_read_bytes"`
	UsageDatabaseWriteBytes      float64 `ch:"usage_database_write_bytes"`
	UsageDatabaseReadDocuments   float64 `ch:"usage_database_read_documents"`
	UsageFileStorageReadBytes    float64 `ch:"usage_file_storage_read_bytes"`
	UsageFileStorageWriteBytes   float64 `ch:"usage_file_storage_write_bytes"`
	UsageVectorStorageReadBytes  float64 `ch:"usage_vector_storage_read_bytes"`
	UsageVectorStorageWriteBytes float64 `ch:"usage_vector_storage_write_bytes"`
	UsageMemoryUsedMB            float64 `ch:"usage_memory_used_mb"`
}

const insertFunctionExecutionQuery = `INSERT INTO function_execution
(
    function_type,
    function_path,
    function_cached,
    request_id,
    timestamp,
    status,
    error_message,
    mutation_queue_length,
    mutation_retry_count,
    scheduler_job_id,
    execution_time_ms,
    usage_database_read_bytes,
    usage_database_write_bytes,
    usage_database_read_documents,
    usage_file_storage_read_bytes,
    usage_file_storage_write_bytes,
    usage_vector_storage_read_bytes,
    usage_vector_storage_write_bytes,
    usage_memory_used_mb
)`

// InsertFunctionExecutions writes all rows in a single batch, the batch is either stored whole or not at all.
func (c *Client) InsertFunctionExecutions(ctx context.Context, rows []FunctionExecutionRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, insertFunctionExecutionQuery, driver.WithReleaseConnection())
	if err != nil {
		return fmt.Errorf("error preparing %d function execution rows for insert: %w", len(rows), err)
	}

	for _, row := range rows {
		err = batch.Append(
			row.FunctionType,
			row.FunctionPath,
			row.FunctionCached,
			row.RequestID,
			row.Timestamp,
			row.Status,
			row.ErrorMessage,
			row.MutationQueueLength,
			row.MutationRetryCount,
			row.SchedulerJobID,
			row.ExecutionTimeMs,
			row.UsageDatabaseReadBytes,
			row.UsageDatabaseWriteBytes,
			row.UsageDatabaseReadDocuments,
			row.UsageFileStorageReadBytes,
			row.UsageFileStorageWriteBytes,
			row.UsageVectorStorageReadBytes,
			row.UsageVectorStorageWriteBytes,
			row.UsageMemoryUsedMB,
		)
		if err != nil {
			_ = batch.Abort()

			return fmt.Errorf("error appending function execution row to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("error sending %d function execution rows batch: %w", len(rows), err)
	}

	return nil
}

type ThroughputRow struct {
	FunctionType string    `ch:"function_type"`
	Bucket       time.Time `ch:"time_bucket"`
	Count        uint64    `ch:"record_count"`
}

const throughputSelectQuery = `
SELECT
  function_type,
  toStartOfInterval(timestamp, INTERVAL {step:UInt32} SECOND) AS time_bucket,
  count() AS record_count
FROM function_execution
WHERE %s
GROUP BY function_type, time_bucket
ORDER BY time_bucket, function_type
`

func (c *Client) QueryThroughput(ctx context.Context, filter TimeFilter, step time.Duration) ([]ThroughputRow, error) {
	var cond conditions
	cond.addTime(filter)
	cond.addStep(step)

	return queryRows[ThroughputRow](ctx, c.conn, "throughput", fmt.Sprintf(throughputSelectQuery, cond.where()), cond.args...)
}

type functionPath struct {
	FunctionPath string `ch:"function_path"`
}

const functionsWithFailuresSelectQuery = `
SELECT DISTINCT function_path
FROM function_execution
WHERE %s AND status = 'failure'
ORDER BY function_path
`

func (c *Client) QueryFunctionsWithFailures(ctx context.Context, filter TimeFilter) ([]string, error) {
	var cond conditions
	cond.addTime(filter)

	rows, err := queryRows[functionPath](ctx, c.conn, "functions with failures", fmt.Sprintf(functionsWithFailuresSelectQuery, cond.where()), cond.args...)
	if err != nil {
		return nil, err
	}

	return paths(rows), nil
}

type FailureRateRow struct {
	FunctionPath string    `ch:"function_path"`
	Bucket       time.Time `ch:"time_bucket"`
	Total        uint64    `ch:"total_count"`
	Failures     uint64    `ch:"failure_count"`
}

const failureRateSeriesSelectQuery = `
SELECT
  function_path,
  toStartOfInterval(timestamp, INTERVAL {step:UInt32} SECOND) AS time_bucket,
  count() AS total_count,
  countIf(status = 'failure') AS failure_count
FROM function_execution
WHERE %s
GROUP BY function_path, time_bucket
ORDER BY time_bucket, function_path
`

func (c *Client) QueryFailureRateSeries(ctx context.Context, filter TimeFilter, step time.Duration, functionPaths []string) ([]FailureRateRow, error) {
	var cond conditions
	cond.addTime(filter)
	cond.addPaths(functionPaths)
	cond.addStep(step)

	return queryRows[FailureRateRow](ctx, c.conn, "failure rate series", fmt.Sprintf(failureRateSeriesSelectQuery, cond.where()), cond.args...)
}

type FailureRateAggregateRow struct {
	FunctionPath string `ch:"function_path"`
	Total        uint64 `ch:"total_count"`
	Failures     uint64 `ch:"failure_count"`
}

const failureRateAggregatesSelectQuery = `
SELECT
  function_path,
  count() AS total_count,
  countIf(status = 'failure') AS failure_count
FROM function_execution
WHERE %s
GROUP BY function_path
ORDER BY function_path
`

func (c *Client) QueryFailureRateAggregates(ctx context.Context, filter TimeFilter, functionPaths []string) ([]FailureRateAggregateRow, error) {
	var cond conditions
	cond.addTime(filter)
	cond.addPaths(functionPaths)

	return queryRows[FailureRateAggregateRow](ctx, c.conn, "failure rate aggregates", fmt.Sprintf(failureRateAggregatesSelectQuery, cond.where()), cond.args...)
}

type ExecutionTimeRow struct {
	FunctionPath string    `ch:"function_path"`
	Bucket       time.Time `ch:"time_bucket"`
	AvgMs        float64   `ch:"avg_execution_time"`
}

const executionTimeSeriesSelectQuery = `
SELECT
  function_path,
  toStartOfInterval(timestamp, INTERVAL {step:UInt32} SECOND) AS time_bucket,
  avg(execution_time_ms) AS avg_execution_time
FROM function_execution
WHERE %s
GROUP BY function_path, time_bucket
ORDER BY time_bucket, function_path
`

func (c *Client) QueryExecutionTimeSeries(ctx context.Context, filter TimeFilter, step time.Duration) ([]ExecutionTimeRow, error) {
	var cond conditions
	cond.addTime(filter)
	cond.addStep(step)

	return queryRows[ExecutionTimeRow](ctx, c.conn, "execution time series", fmt.Sprintf(executionTimeSeriesSelectQuery, cond.where()), cond.args...)
}

type ExecutionTimeAggregateRow struct {
	FunctionPath string  `ch:"function_path"`
	AvgMs        float64 `ch:"avg_execution_time"`
	Total        uint64  `ch:"total_count"`
}

const executionTimeAggregatesSelectQuery = `
SELECT
  function_path,
  avg(execution_time_ms) AS avg_execution_time,
  count() AS total_count
FROM function_execution
WHERE %s
GROUP BY function_path
ORDER BY function_path
`

func (c *Client) QueryExecutionTimeAggregates(ctx context.Context, filter TimeFilter) ([]ExecutionTimeAggregateRow, error) {
	var cond conditions
	cond.addTime(filter)

	return queryRows[ExecutionTimeAggregateRow](ctx, c.conn, "execution time aggregates", fmt.Sprintf(executionTimeAggregatesSelectQuery, cond.where()), cond.args...)
}

const functionPathsSelectQuery = `SELECT DISTINCT function_path FROM function_execution ORDER BY function_path`

func (c *Client) QueryFunctionPaths(ctx context.Context) ([]string, error) {
	rows, err := queryRows[functionPath](ctx, c.conn, "function paths", functionPathsSelectQuery)
	if err != nil {
		return nil, err
	}

	return paths(rows), nil
}

func paths(rows []functionPath) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.FunctionPath
	}

	return out
}
