package metrics

import (
	"context"
	"fmt"
	"strings"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
)

const (
	DefaultLogLimit = 1000
	MaxLogLimit     = 10000

	// allFilter disables a filter, same as leaving it empty.
	allFilter = "all"
)

type LogQuery struct {
	Range        timerange.Range
	FunctionPath string
	LogLevel     string
	Search       string
	Limit        int
}

// ClampLogLimit keeps a requested limit within [1, MaxLogLimit].
func ClampLogLimit(limit int) int {
	return min(max(1, limit), MaxLogLimit)
}

func normalizeFilter(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, allFilter) {
		return ""
	}

	return value
}

// Logs returns console logs matching every active filter, newest first.
func (s *Service) Logs(ctx context.Context, q LogQuery) ([]clickhouse.ConsoleLogRow, error) {
	rows, err := s.store.QueryConsoleLogs(ctx, clickhouse.LogFilter{
		TimeFilter:   filterOf(q.Range),
		FunctionPath: normalizeFilter(q.FunctionPath),
		LogLevel:     normalizeFilter(q.LogLevel),
		Search:       strings.TrimSpace(q.Search),
		Limit:        ClampLogLimit(q.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("error querying console logs: %w", err)
	}

	if rows == nil {
		rows = []clickhouse.ConsoleLogRow{}
	}

	return rows, nil
}

// Functions lists every function path that has reported an execution.
func (s *Service) Functions(ctx context.Context) ([]string, error) {
	paths, err := s.store.QueryFunctionPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying function paths: %w", err)
	}

	if paths == nil {
		paths = []string{}
	}

	return paths, nil
}
