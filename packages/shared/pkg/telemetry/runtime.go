package telemetry

import (
	"go.opentelemetry.io/contrib/instrumentation/runtime"
)

// StartRuntimeInstrumentation reports Go runtime metrics (goroutines, heap, GC) through the client's meter provider.
func (t *Client) StartRuntimeInstrumentation() error {
	return runtime.Start(
		runtime.WithMeterProvider(t.MeterProvider),
		runtime.WithMinimumReadMemStatsInterval(metricExportPeriod),
	)
}
