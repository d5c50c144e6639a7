package pipeline

import (
	"time"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/shared/pkg/events"
)

func timestampOf(b events.Base) time.Time {
	return time.Unix(b.TimestampSeconds(), 0).UTC()
}

func functionExecutionRow(e *events.FunctionExecutionEvent) clickhouse.FunctionExecutionRow {
	return clickhouse.FunctionExecutionRow{
		FunctionType:        string(e.Function.Type),
		FunctionPath:        e.Function.Path,
		FunctionCached:      e.Function.Cached,
		RequestID:           e.Function.RequestID,
		Timestamp:           timestampOf(e.Base),
		Status:              string(e.Status),
		ErrorMessage:        e.ErrorMessage,
		MutationQueueLength: e.MutationQueueLength,
		MutationRetryCount:  e.MutationRetryCount,
		SchedulerJobID:      e.SchedulerJobID(),
		ExecutionTimeMs:     e.ExecutionTimeMs,

		UsageDatabaseReadBytes:       e.Usage.DatabaseReadBytes,
		UsageDatabaseWriteBytes:      e.Usage.DatabaseWriteBytes,
		UsageDatabaseReadDocuments:   e.Usage.DatabaseReadDocuments,
		UsageFileStorageReadBytes:    e.Usage.FileStorageReadBytes,
		UsageFileStorageWriteBytes:   e.Usage.FileStorageWriteBytes,
		UsageVectorStorageReadBytes:  e.Usage.VectorStorageReadBytes,
		UsageVectorStorageWriteBytes: e.Usage.VectorStorageWriteBytes,
		UsageMemoryUsedMB:            e.Usage.MemoryUsedMB,
	}
}

func consoleLogRow(e *events.ConsoleEvent) clickhouse.ConsoleLogRow {
	return clickhouse.ConsoleLogRow{
		FunctionType:   string(e.Function.Type),
		FunctionPath:   e.Function.Path,
		FunctionCached: e.Function.Cached,
		RequestID:      e.Function.RequestID,
		Timestamp:      timestampOf(e.Base),
		LogLevel:       string(e.LogLevel),
		Message:        e.Message,
		IsTruncated:    e.IsTruncated,
		SystemCode:     e.SystemCode,
	}
}
