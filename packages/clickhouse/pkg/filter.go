package clickhouse

import (
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// TimeFilter bounds queries on the timestamp column. Nil bounds are open.
type TimeFilter struct {
	Start *time.Time
	End   *time.Time
}

// LogFilter selects console log rows. Empty string fields do not filter.
type LogFilter struct {
	TimeFilter

	FunctionPath string
	LogLevel     string
	Search       string
	Limit        int
}

// conditions accumulates WHERE clauses with their named parameters. All
// parameter values are strings so they are sent as server side query parameters.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, name, value string) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, clickhouse.Named(name, value))
}

func (c *conditions) addTime(f TimeFilter) {
	if f.Start != nil {
		c.add("timestamp >= toDateTime({start_time:Int64}, 'UTC')", "start_time", unixParam(*f.Start))
	}

	if f.End != nil {
		c.add("timestamp <= toDateTime({end_time:Int64}, 'UTC')", "end_time", unixParam(*f.End))
	}
}

func (c *conditions) addStep(step time.Duration) {
	c.args = append(c.args, clickhouse.Named("step", strconv.Itoa(stepSeconds(step))))
}

func (c *conditions) addPaths(paths []string) {
	c.add("function_path IN {function_paths:Array(String)}", "function_paths", arrayParam(paths))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return "1 = 1"
	}

	return strings.Join(c.clauses, " AND ")
}

func unixParam(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func stepSeconds(step time.Duration) int {
	return max(1, int(step.Seconds()))
}

var arrayEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// arrayParam renders values as a ClickHouse Array(String) literal.
func arrayParam(values []string) string {
	var sb strings.Builder

	sb.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteByte('\'')
		sb.WriteString(arrayEscaper.Replace(v))
		sb.WriteByte('\'')
	}
	sb.WriteByte(']')

	return sb.String()
}
