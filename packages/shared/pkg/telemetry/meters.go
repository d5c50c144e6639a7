package telemetry

import "go.opentelemetry.io/otel/metric"

type (
	CounterType   string
	HistogramType string
)

const (
	IngestEventsReceivedCounterName CounterType = "ingest.events.received"
	IngestEventsIngestedCounterName CounterType = "ingest.events.ingested"
	IngestEventsDroppedCounterName  CounterType = "ingest.events.dropped"
	IngestBatchesRejectedName       CounterType = "ingest.batches.rejected"
)

const (
	IngestBatchSizeHistogramName        HistogramType = "ingest.batch.size"
	DashboardQueryDurationHistogramName HistogramType = "dashboard.query.duration"
)

var counterDesc = map[CounterType]string{
	IngestEventsReceivedCounterName: "Number of events received per topic.",
	IngestEventsIngestedCounterName: "Number of events inserted into ClickHouse per topic.",
	IngestEventsDroppedCounterName:  "Number of events dropped by schema validation per topic.",
	IngestBatchesRejectedName:       "Number of webhook batches rejected before parsing.",
}

var counterUnits = map[CounterType]string{
	IngestEventsReceivedCounterName: "{event}",
	IngestEventsIngestedCounterName: "{event}",
	IngestEventsDroppedCounterName:  "{event}",
	IngestBatchesRejectedName:       "{batch}",
}

var histogramDesc = map[HistogramType]string{
	IngestBatchSizeHistogramName:        "Number of lines in a webhook batch.",
	DashboardQueryDurationHistogramName: "Time spent answering a dashboard query.",
}

var histogramUnits = map[HistogramType]string{
	IngestBatchSizeHistogramName:        "{event}",
	DashboardQueryDurationHistogramName: "ms",
}

func GetCounter(meter metric.Meter, name CounterType) (metric.Int64Counter, error) {
	desc := counterDesc[name]
	unit := counterUnits[name]

	return meter.Int64Counter(string(name),
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	)
}

func GetHistogram(meter metric.Meter, name HistogramType) (metric.Int64Histogram, error) {
	desc := histogramDesc[name]
	unit := histogramUnits[name]

	return meter.Int64Histogram(string(name),
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	)
}
