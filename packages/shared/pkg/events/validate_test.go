package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &record))

	return record
}

const consoleFixture = `{
	"topic": "console",
	"timestamp": 1715000000499,
	"convex": {"deployment_name": "happy-otter-123", "deployment_type": "prod", "project_name": "chat", "project_slug": "chat"},
	"function": {"type": "mutation", "path": "messages:send", "request_id": "req-1"},
	"log_level": "WARN",
	"message": "slow write",
	"is_truncated": false
}`

const executionFixture = `{
	"topic": "function_execution",
	"timestamp": 1715000000500,
	"convex": {"deployment_name": "happy-otter-123", "deployment_type": "prod", "project_name": "chat", "project_slug": "chat"},
	"function": {"type": "query", "path": "messages:list", "cached": true, "request_id": "req-2"},
	"execution_time_ms": 12.5,
	"status": "failure",
	"error_message": "boom",
	"mutation_queue_length": 3,
	"scheduler_info": {"job_id": "job-9"},
	"usage": {
		"database_read_bytes": 100, "database_write_bytes": 0, "database_read_documents": 2,
		"file_storage_read_bytes": 0, "file_storage_write_bytes": 0,
		"vector_storage_read_bytes": 0, "vector_storage_write_bytes": 0,
		"memory_used_mb": 64
	}
}`

func findViolation(t *testing.T, err error, path string) Violation {
	t.Helper()

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	for _, v := range validationErr.Violations {
		if v.Path == path {
			return v
		}
	}

	require.Failf(t, "violation not found", "no violation for %q in %s", path, validationErr.Summary())

	return Violation{}
}

func TestValidateConsole(t *testing.T) {
	t.Parallel()

	event, err := ValidateConsole(decode(t, consoleFixture))
	require.NoError(t, err)

	assert.Equal(t, TopicConsole, event.Topic())
	assert.Equal(t, FunctionTypeMutation, event.Function.Type)
	assert.Equal(t, "messages:send", event.Function.Path)
	assert.Nil(t, event.Function.Cached)
	assert.Nil(t, event.SystemCode)
	assert.Equal(t, LogLevelWarn, event.LogLevel)
	assert.Equal(t, "happy-otter-123", event.Deployment.DeploymentName)
	assert.Equal(t, int64(1715000000), event.TimestampSeconds())
}

func TestValidateFunctionExecution(t *testing.T) {
	t.Parallel()

	event, err := ValidateFunctionExecution(decode(t, executionFixture))
	require.NoError(t, err)

	assert.Equal(t, StatusFailure, event.Status)
	require.NotNil(t, event.Function.Cached)
	assert.True(t, *event.Function.Cached)
	require.NotNil(t, event.ErrorMessage)
	assert.Equal(t, "boom", *event.ErrorMessage)
	require.NotNil(t, event.MutationQueueLength)
	assert.InDelta(t, 3, *event.MutationQueueLength, 0)
	assert.Nil(t, event.MutationRetryCount)
	require.NotNil(t, event.SchedulerJobID())
	assert.Equal(t, "job-9", *event.SchedulerJobID())
	assert.InDelta(t, 64, event.Usage.MemoryUsedMB, 0)
	assert.Equal(t, int64(1715000001), event.TimestampSeconds())
}

func TestValidateDistinguishesMissingNullAndWrongType(t *testing.T) {
	t.Parallel()

	record := decode(t, consoleFixture)
	delete(record, "log_level")
	record["message"] = nil
	record["is_truncated"] = "no"

	_, err := ValidateConsole(record)
	require.Error(t, err)

	assert.Equal(t, CauseMissing, findViolation(t, err, "log_level").Cause)
	assert.Equal(t, CauseNull, findViolation(t, err, "message").Cause)
	assert.Equal(t, CauseType, findViolation(t, err, "is_truncated").Cause)
}

func TestValidateNullOnEnumIsNull(t *testing.T) {
	t.Parallel()

	record := decode(t, consoleFixture)
	record["log_level"] = nil

	_, err := ValidateConsole(record)
	assert.Equal(t, CauseNull, findViolation(t, err, "log_level").Cause)
}

func TestValidateWrongTypeOnEnumIsType(t *testing.T) {
	t.Parallel()

	record := decode(t, consoleFixture)
	record["log_level"] = 5
	record["function"].(map[string]any)["type"] = true

	_, err := ValidateConsole(record)
	require.Error(t, err)

	logLevel := findViolation(t, err, "log_level")
	assert.Equal(t, CauseType, logLevel.Cause)
	assert.Equal(t, "must be a string", logLevel.Reason)
	assert.Equal(t, CauseType, findViolation(t, err, "function.type").Cause)

	record = decode(t, consoleFixture)
	record["log_level"] = "VERBOSE"

	_, err = ValidateConsole(record)
	assert.Equal(t, CauseEnum, findViolation(t, err, "log_level").Cause)
}

func TestValidateNestedViolationsAttributedToParent(t *testing.T) {
	t.Parallel()

	record := decode(t, executionFixture)
	record["function"].(map[string]any)["type"] = "cron"
	delete(record["usage"].(map[string]any), "memory_used_mb")
	record["scheduler_info"] = map[string]any{}

	_, err := ValidateFunctionExecution(record)
	require.Error(t, err)

	assert.Equal(t, CauseEnum, findViolation(t, err, "function.type").Cause)
	assert.Equal(t, CauseMissing, findViolation(t, err, "usage.memory_used_mb").Cause)
	assert.Equal(t, CauseMissing, findViolation(t, err, "scheduler_info.job_id").Cause)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Violations, 3)
	assert.Contains(t, validationErr.Error(), "invalid function_execution event")
	assert.Contains(t, validationErr.Summary(), "usage.memory_used_mb is missing")
}

func TestValidateOptionalAndNullableFields(t *testing.T) {
	t.Parallel()

	record := decode(t, executionFixture)
	record["scheduler_info"] = nil
	record["error_message"] = nil
	record["function"].(map[string]any)["cached"] = nil
	delete(record, "mutation_queue_length")
	record["unrecognized_field"] = "ignored"

	event, err := ValidateFunctionExecution(record)
	require.NoError(t, err)

	assert.Nil(t, event.SchedulerJobID())
	assert.Nil(t, event.ErrorMessage)
	assert.Nil(t, event.Function.Cached)
	assert.Nil(t, event.MutationQueueLength)
}

func TestValidateRejectsOtherTopicShape(t *testing.T) {
	t.Parallel()

	_, err := ValidateFunctionExecution(decode(t, consoleFixture))
	assert.Equal(t, CauseEnum, findViolation(t, err, "topic").Cause)
}

func TestParse(t *testing.T) {
	t.Parallel()

	event, err := Parse(decode(t, executionFixture))
	require.NoError(t, err)
	assert.Equal(t, TopicFunctionExecution, event.Topic())
	execution, ok := event.(*FunctionExecutionEvent)
	require.True(t, ok)
	assert.InDelta(t, 1715000000500, execution.TimestampMs, 0)

	event, err = Parse(decode(t, `{"topic": "verification", "timestamp": 1, "message": "hello",
		"convex": {"deployment_name": "a", "deployment_type": "dev", "project_name": "b", "project_slug": "c"}}`))
	require.NoError(t, err)
	assert.Equal(t, TopicVerification, event.Topic())
	verification, ok := event.(*VerificationEvent)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1).UTC(), verification.Timestamp())

	_, err = Parse(decode(t, `{"topic": "audit_log", "timestamp": 1}`))
	require.ErrorIs(t, err, ErrUnknownTopic)

	_, err = Parse(decode(t, `{"timestamp": 1}`))
	require.ErrorIs(t, err, ErrUnknownTopic)
}
