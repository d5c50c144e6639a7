package clickhouse

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

const (
	FunctionExecutionTable = "function_execution"
	ConsoleLogTable        = "console_log"
)

//go:embed setup.sql
var setupSQL string

type Clickhouse interface {
	Close(ctx context.Context) error

	// Ingestion
	InsertFunctionExecutions(ctx context.Context, rows []FunctionExecutionRow) error
	InsertConsoleLogs(ctx context.Context, rows []ConsoleLogRow) error

	// Dashboard queries
	QueryThroughput(ctx context.Context, filter TimeFilter, step time.Duration) ([]ThroughputRow, error)
	QueryFunctionsWithFailures(ctx context.Context, filter TimeFilter) ([]string, error)
	QueryFailureRateSeries(ctx context.Context, filter TimeFilter, step time.Duration, paths []string) ([]FailureRateRow, error)
	QueryFailureRateAggregates(ctx context.Context, filter TimeFilter, paths []string) ([]FailureRateAggregateRow, error)
	QueryExecutionTimeSeries(ctx context.Context, filter TimeFilter, step time.Duration) ([]ExecutionTimeRow, error)
	QueryExecutionTimeAggregates(ctx context.Context, filter TimeFilter) ([]ExecutionTimeAggregateRow, error)
	QueryConsoleLogs(ctx context.Context, filter LogFilter) ([]ConsoleLogRow, error)
	QueryFunctionPaths(ctx context.Context) ([]string, error)
}

type Client struct {
	conn driver.Conn
}

// New opens a connection pool from a clickhouse:// DSN. Non-empty username and
// password override the credentials embedded in the DSN.
func New(connectionString, username, password string) (*Client, error) {
	options, err := clickhouse.ParseDSN(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ClickHouse DSN: %w", err)
	}

	if username != "" {
		options.Auth.Username = username
	}

	if password != "" {
		options.Auth.Password = password
	}

	options.MaxOpenConns = 10
	options.MaxIdleConns = 5

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Setup creates the event tables if they do not exist yet.
func (c *Client) Setup(ctx context.Context) error {
	for _, stmt := range setupStatements() {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error running setup statement: %w", err)
		}
	}

	zap.L().Info("ClickHouse tables ready",
		zap.Strings("tables", []string{FunctionExecutionTable, ConsoleLogTable}),
	)

	return nil
}

func setupStatements() []string {
	var out []string
	for stmt := range strings.SplitSeq(setupSQL, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}

	return out
}

func (c *Client) Close(context.Context) error {
	return c.conn.Close()
}

// queryRows scans every row of the result into a T using its ch tags.
func queryRows[T any](ctx context.Context, conn driver.Conn, name, query string, args ...any) ([]T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var item T
		if err := rows.ScanStruct(&item); err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", name, err)
		}
		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over %s rows: %w", name, err)
	}

	return out, nil
}
