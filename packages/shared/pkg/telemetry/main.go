package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	noopLog "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	noopMetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	noopTrace "go.opentelemetry.io/otel/trace/noop"
)

const metricExportPeriod = 15 * time.Second

type Client struct {
	MetricExporter  sdkmetric.Exporter
	MeterProvider   metric.MeterProvider
	SpanExporter    sdktrace.SpanExporter
	TracerProvider  trace.TracerProvider
	TracePropagator propagation.TextMapPropagator
	LogsExporter    sdklog.Exporter
	LogsProvider    log.LoggerProvider
}

func New(ctx context.Context, endpoint, serviceName, commitSHA, serviceVersion, instanceID string) (*Client, error) {
	res, err := GetResource(ctx, serviceName, commitSHA, serviceVersion, instanceID)
	if err != nil {
		return nil, err
	}

	metricsExporter, err := NewMeterExporter(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	meterProvider := NewMeterProvider(metricsExporter, metricExportPeriod, res)

	spanExporter, err := NewSpanExporter(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}

	tracerProvider := NewTracerProvider(spanExporter, res)

	logsExporter, err := NewLogExporter(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	logsProvider := NewLogProvider(logsExporter, res)

	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	otel.SetTextMapPropagator(propagator)

	return &Client{
		MetricExporter:  metricsExporter,
		MeterProvider:   meterProvider,
		SpanExporter:    spanExporter,
		TracerProvider:  tracerProvider,
		TracePropagator: propagator,
		LogsExporter:    logsExporter,
		LogsProvider:    logsProvider,
	}, nil
}

func (t *Client) Shutdown(ctx context.Context) error {
	var errs []error

	if mp, ok := t.MeterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if tp, ok := t.TracerProvider.(*sdktrace.TracerProvider); ok {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if lp, ok := t.LogsProvider.(*sdklog.LoggerProvider); ok {
		if err := lp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func NewNoopClient() *Client {
	return &Client{
		MeterProvider:   noopMetric.MeterProvider{},
		TracerProvider:  noopTrace.NewTracerProvider(),
		TracePropagator: propagation.NewCompositeTextMapPropagator(),
		LogsProvider:    noopLog.NewLoggerProvider(),
	}
}
