package clickhouse

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type ConsoleLogRow struct {
	FunctionType   string    `ch:"function_type" json:"function_type"`
	FunctionPath   string    `ch:"function_path" json:"function_path"`
	FunctionCached *bool     `ch:"function_cached" json:"function_cached"`
	RequestID      string    `ch:"request_id" json:"request_id"`
	Timestamp      time.Time `ch:"timestamp" json:"timestamp"`
	LogLevel       string    `ch:"log_level" json:"log_level"`
	Message        string    `ch:"message" json:"message"`
	IsTruncated    bool      `ch:"is_truncated" json:"is_truncated"`
	SystemCode     *string   `ch:"system_code" json:"system_code"`
}

const insertConsoleLogQuery = `INSERT INTO console_log
(
    function_type,
    function_path,
    function_cached,
    request_id,
    timestamp,
    log_level,
    message,
    is_truncated,
    system_code
)`

func (c *Client) InsertConsoleLogs(ctx context.Context, rows []ConsoleLogRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, insertConsoleLogQuery, driver.WithReleaseConnection())
	if err != nil {
		return fmt.Errorf("error preparing %d console log rows for insert: %w", len(rows), err)
	}

	for _, row := range rows {
		err = batch.Append(
			row.FunctionType,
			row.FunctionPath,
			row.FunctionCached,
			row.RequestID,
			row.Timestamp,
			row.LogLevel,
			row.Message,
			row.IsTruncated,
			row.SystemCode,
		)
		if err != nil {
			_ = batch.Abort()

			return fmt.Errorf("error appending console log row to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("error sending %d console log rows batch: %w", len(rows), err)
	}

	return nil
}

const consoleLogsSelectQuery = `
SELECT
  function_type,
  function_path,
  function_cached,
  request_id,
  timestamp,
  log_level,
  message,
  is_truncated,
  system_code
FROM console_log
WHERE %s
ORDER BY timestamp DESC
LIMIT {limit:UInt32}
`

// QueryConsoleLogs returns the newest rows first. Filter values are applied as given.
func (c *Client) QueryConsoleLogs(ctx context.Context, filter LogFilter) ([]ConsoleLogRow, error) {
	var cond conditions
	cond.addTime(filter.TimeFilter)

	if filter.FunctionPath != "" {
		cond.add("function_path = {function_path:String}", "function_path", filter.FunctionPath)
	}

	if filter.LogLevel != "" {
		cond.add("log_level = {log_level:String}", "log_level", filter.LogLevel)
	}

	if filter.Search != "" {
		cond.add("positionCaseInsensitive(message, {search:String}) > 0", "search", filter.Search)
	}

	cond.args = append(cond.args, clickhouse.Named("limit", strconv.Itoa(filter.Limit)))

	return queryRows[ConsoleLogRow](ctx, c.conn, "console logs", fmt.Sprintf(consoleLogsSelectQuery, cond.where()), cond.args...)
}
