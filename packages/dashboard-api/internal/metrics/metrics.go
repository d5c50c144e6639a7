package metrics

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
)

// Service answers dashboard queries from the event store.
type Service struct {
	store clickhouse.Clickhouse
}

func New(store clickhouse.Clickhouse) *Service {
	return &Service{store: store}
}

func filterOf(r timerange.Range) clickhouse.TimeFilter {
	return clickhouse.TimeFilter{Start: r.Start, End: r.End}
}

// Point is one bucket of a per function series. It is encoded flat, with the
// bucket start under "date" and one key per function path.
type Point struct {
	Date   time.Time
	Values map[string]float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Values)+1)
	for k, v := range p.Values {
		out[k] = v
	}
	out["date"] = p.Date.UTC()

	return json.Marshal(out)
}

// seriesBuilder groups per path values by bucket, keeping buckets in ascending order.
type seriesBuilder struct {
	index  map[int64]int
	points []Point
}

func newSeriesBuilder() *seriesBuilder {
	return &seriesBuilder{index: make(map[int64]int)}
}

func (b *seriesBuilder) bucket(date time.Time) *Point {
	key := date.Unix()

	i, ok := b.index[key]
	if !ok {
		i = len(b.points)
		b.index[key] = i
		b.points = append(b.points, Point{Date: date.UTC(), Values: make(map[string]float64)})
	}

	return &b.points[i]
}

func (b *seriesBuilder) set(date time.Time, path string, value float64) {
	b.bucket(date).Values[path] = value
}

func (b *seriesBuilder) build() []Point {
	slices.SortStableFunc(b.points, func(x, y Point) int {
		return x.Date.Compare(y.Date)
	})

	return b.points
}

// keep drops every value whose path is not in paths. Buckets are kept even when they end up empty.
func keep(points []Point, paths []string) []Point {
	allowed := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		allowed[p] = struct{}{}
	}

	out := make([]Point, len(points))
	for i, p := range points {
		values := maps.Clone(p.Values)
		maps.DeleteFunc(values, func(path string, _ float64) bool {
			_, ok := allowed[path]

			return !ok
		})

		out[i] = Point{Date: p.Date, Values: values}
	}

	return out
}

func percentage(part, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return float64(part) / float64(total) * 100
}
