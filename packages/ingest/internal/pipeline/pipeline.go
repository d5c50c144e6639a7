package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/shared/pkg/events"
	"github.com/fnscope/infra/packages/shared/pkg/logger"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
)

const meterName = "github.com/fnscope/infra/packages/ingest/internal/pipeline"

type TopicResult struct {
	Received int `json:"received"`
	Dropped  int `json:"dropped"`
	Ingested int `json:"ingested"`
}

type Result struct {
	Topics map[events.Topic]TopicResult `json:"topics"`
}

func (r Result) Ingested() int {
	total := 0
	for _, t := range r.Topics {
		total += t.Ingested
	}

	return total
}

type Pipeline struct {
	store clickhouse.Clickhouse
	// logger falls back to the global logger when nil.
	logger *zap.Logger

	receivedCounter metric.Int64Counter
	ingestedCounter metric.Int64Counter
	droppedCounter  metric.Int64Counter
}

func New(store clickhouse.Clickhouse, meterProvider metric.MeterProvider) (*Pipeline, error) {
	meter := meterProvider.Meter(meterName)

	received, err := telemetry.GetCounter(meter, telemetry.IngestEventsReceivedCounterName)
	if err != nil {
		return nil, fmt.Errorf("failed to create received events counter: %w", err)
	}

	ingested, err := telemetry.GetCounter(meter, telemetry.IngestEventsIngestedCounterName)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingested events counter: %w", err)
	}

	dropped, err := telemetry.GetCounter(meter, telemetry.IngestEventsDroppedCounterName)
	if err != nil {
		return nil, fmt.Errorf("failed to create dropped events counter: %w", err)
	}

	return &Pipeline{
		store:           store,
		receivedCounter: received,
		ingestedCounter: ingested,
		droppedCounter:  dropped,
	}, nil
}

func (p *Pipeline) log() *zap.Logger {
	if p.logger != nil {
		return p.logger
	}

	return zap.L()
}

// Ingest persists the function execution and console events of one batch.
// Records are routed by topic first, then both topics are inserted concurrently.
// Invalid events are dropped, unknown topics are ignored, and a failed insert
// fails the call.
func (p *Pipeline) Ingest(ctx context.Context, records []map[string]any) (Result, error) {
	b := p.route(ctx, records)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return insertFlow(ctx, p, events.TopicFunctionExecution, clickhouse.FunctionExecutionTable,
			b.executions, b.topics[events.TopicFunctionExecution], functionExecutionRow, p.store.InsertFunctionExecutions)
	})

	g.Go(func() error {
		return insertFlow(ctx, p, events.TopicConsole, clickhouse.ConsoleLogTable,
			b.logs, b.topics[events.TopicConsole], consoleLogRow, p.store.InsertConsoleLogs)
	})

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result := Result{Topics: make(map[events.Topic]TopicResult, len(b.topics))}
	for topic, counts := range b.topics {
		result.Topics[topic] = *counts
	}

	return result, nil
}

type batch struct {
	executions []*events.FunctionExecutionEvent
	logs       []*events.ConsoleEvent
	topics     map[events.Topic]*TopicResult
}

func (p *Pipeline) route(ctx context.Context, records []map[string]any) batch {
	b := batch{
		topics: map[events.Topic]*TopicResult{
			events.TopicFunctionExecution: {},
			events.TopicConsole:           {},
		},
	}

	for _, record := range records {
		event, err := events.Parse(record)
		if errors.Is(err, events.ErrUnknownTopic) {
			continue
		}

		topic := events.TopicOf(record)
		counts, persisted := b.topics[topic]
		if persisted {
			counts.Received++
		}

		if err != nil {
			if persisted {
				counts.Dropped++
			}

			fields := append(eventFields(topic, record), zap.Error(err))
			p.log().Warn("Dropping invalid event", fields...)

			continue
		}

		switch e := event.(type) {
		case *events.FunctionExecutionEvent:
			b.executions = append(b.executions, e)
		case *events.ConsoleEvent:
			b.logs = append(b.logs, e)
		case *events.VerificationEvent:
			p.log().Info("Verification event received",
				logger.WithTopic(string(topic)),
				zap.String("deployment", e.Deployment.DeploymentName),
				zap.Time("sent_at", e.Timestamp()),
				zap.String("message", e.Message),
			)
			telemetry.ReportEvent(ctx, "verification event received",
				attribute.String("deployment", e.Deployment.DeploymentName),
			)
		}
	}

	return b
}

// eventFields identifies a record in logs, the function fields are best effort since the record may be invalid.
func eventFields(topic events.Topic, record map[string]any) []zap.Field {
	fields := []zap.Field{logger.WithTopic(string(topic))}

	function, _ := record["function"].(map[string]any)
	if path, ok := function["path"].(string); ok {
		fields = append(fields, logger.WithFunctionPath(path))
	}
	if requestID, ok := function["request_id"].(string); ok {
		fields = append(fields, logger.WithRequestID(requestID))
	}

	return fields
}

func insertFlow[E any, R any](
	ctx context.Context,
	p *Pipeline,
	topic events.Topic,
	table string,
	parsed []*E,
	counts *TopicResult,
	toRow func(*E) R,
	insert func(context.Context, []R) error,
) error {
	attrs := metric.WithAttributes(attribute.String("topic", string(topic)))
	p.receivedCounter.Add(ctx, int64(counts.Received), attrs)
	p.droppedCounter.Add(ctx, int64(counts.Dropped), attrs)

	if len(parsed) > 0 {
		rows := make([]R, len(parsed))
		for i, e := range parsed {
			rows[i] = toRow(e)
		}

		if err := insert(ctx, rows); err != nil {
			return fmt.Errorf("error inserting %d %s events: %w", len(rows), topic, err)
		}

		counts.Ingested = len(rows)
		p.ingestedCounter.Add(ctx, int64(counts.Ingested), attrs)
	}

	p.log().Info("Events processed",
		logger.WithTopic(string(topic)),
		logger.WithTable(table),
		zap.Int("received", counts.Received),
		zap.Int("dropped", counts.Dropped),
		zap.Int("ingested", counts.Ingested),
	)

	return nil
}
