package events

import (
	"math"
	"time"
)

type Topic string

const (
	TopicVerification      Topic = "verification"
	TopicConsole           Topic = "console"
	TopicFunctionExecution Topic = "function_execution"
)

type FunctionType string

const (
	FunctionTypeQuery      FunctionType = "query"
	FunctionTypeMutation   FunctionType = "mutation"
	FunctionTypeAction     FunctionType = "action"
	FunctionTypeHTTPAction FunctionType = "http_action"
)

// FunctionTypes lists every function type in the order the dashboard charts them.
var FunctionTypes = []FunctionType{
	FunctionTypeQuery,
	FunctionTypeMutation,
	FunctionTypeAction,
	FunctionTypeHTTPAction,
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelLog   LogLevel = "LOG"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type Deployment struct {
	DeploymentName string `json:"deployment_name"`
	DeploymentType string `json:"deployment_type"`
	ProjectName    string `json:"project_name"`
	ProjectSlug    string `json:"project_slug"`
}

type Function struct {
	Type      FunctionType `json:"type"`
	Path      string       `json:"path"`
	Cached    *bool        `json:"cached,omitempty"`
	RequestID string       `json:"request_id"`
}

// Base holds the fields shared by every topic. TimestampMs is the producer clock in epoch milliseconds.
type Base struct {
	TimestampMs float64    `json:"timestamp"`
	Deployment  Deployment `json:"convex"`
}

func (b Base) Timestamp() time.Time {
	return time.UnixMilli(int64(b.TimestampMs)).UTC()
}

// TimestampSeconds is the timestamp rounded to the second resolution used by ClickHouse.
func (b Base) TimestampSeconds() int64 {
	return int64(math.Round(b.TimestampMs / 1000))
}

// Event is implemented only by the topic variants in this package.
type Event interface {
	Topic() Topic
	eventNode()
}

type VerificationEvent struct {
	Base

	Message string `json:"message"`
}

func (VerificationEvent) Topic() Topic {
	return TopicVerification
}

func (VerificationEvent) eventNode() {}

type ConsoleEvent struct {
	Base

	Function    Function `json:"function"`
	LogLevel    LogLevel `json:"log_level"`
	Message     string   `json:"message"`
	IsTruncated bool     `json:"is_truncated"`
	SystemCode  *string  `json:"system_code,omitempty"`
}

func (ConsoleEvent) Topic() Topic {
	return TopicConsole
}

func (ConsoleEvent) eventNode() {}

type SchedulerInfo struct {
	JobID string `json:"job_id"`
}

type Usage struct {
	DatabaseReadBytes       float64 `json:"database_read_bytes"`
	DatabaseWriteBytes      float64 `json:"database_write_bytes"`
	DatabaseReadDocuments   float64 `json:"database_read_documents"`
	FileStorageReadBytes    float64 `json:"file_storage_read_bytes"`
	FileStorageWriteBytes   float64 `json:"file_storage_write_bytes"`
	VectorStorageReadBytes  float64 `json:"vector_storage_read_bytes"`
	VectorStorageWriteBytes float64 `json:"vector_storage_write_bytes"`
	MemoryUsedMB            float64 `json:"memory_used_mb"`
}

type FunctionExecutionEvent struct {
	Base

	Function            Function       `json:"function"`
	ExecutionTimeMs     float64        `json:"execution_time_ms"`
	Status              Status         `json:"status"`
	ErrorMessage        *string        `json:"error_message,omitempty"`
	MutationQueueLength *float64       `json:"mutation_queue_length,omitempty"`
	MutationRetryCount  *float64       `json:"mutation_retry_count,omitempty"`
	SchedulerInfo       *SchedulerInfo `json:"scheduler_info,omitempty"`
	Usage               Usage          `json:"usage"`
}

func (FunctionExecutionEvent) Topic() Topic {
	return TopicFunctionExecution
}

func (FunctionExecutionEvent) eventNode() {}

// SchedulerJobID returns nil when the execution was not started by the scheduler.
func (e FunctionExecutionEvent) SchedulerJobID() *string {
	if e.SchedulerInfo == nil {
		return nil
	}

	return &e.SchedulerInfo.JobID
}
