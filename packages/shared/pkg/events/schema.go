package events

import (
	"github.com/getkin/kin-openapi/openapi3"
)

type field struct {
	name     string
	schema   *openapi3.Schema
	required bool
}

func required(name string, schema *openapi3.Schema) field {
	return field{name: name, schema: schema, required: true}
}

func optional(name string, schema *openapi3.Schema) field {
	return field{name: name, schema: schema}
}

func object(fields ...field) *openapi3.Schema {
	props := make(map[string]*openapi3.Schema, len(fields))
	var req []string
	for _, f := range fields {
		props[f.name] = f.schema
		if f.required {
			req = append(req, f.name)
		}
	}

	schema := openapi3.NewObjectSchema().WithProperties(props)
	schema.Required = req

	return schema
}

func nullable(schema *openapi3.Schema) *openapi3.Schema {
	return schema.WithNullable()
}

func enum[T ~string](values ...T) *openapi3.Schema {
	allowed := make([]any, len(values))
	for i, v := range values {
		allowed[i] = string(v)
	}

	return openapi3.NewStringSchema().WithEnum(allowed...)
}

func str() *openapi3.Schema     { return openapi3.NewStringSchema() }
func number() *openapi3.Schema  { return openapi3.NewFloat64Schema() }
func boolean() *openapi3.Schema { return openapi3.NewBoolSchema() }

func baseFields(topic Topic) []field {
	return []field{
		required("topic", enum(topic)),
		required("timestamp", number()),
		required("convex", object(
			required("deployment_name", str()),
			required("deployment_type", str()),
			required("project_name", str()),
			required("project_slug", str()),
		)),
	}
}

func functionSchema() *openapi3.Schema {
	return object(
		required("type", enum(FunctionTypes...)),
		required("path", str()),
		optional("cached", nullable(boolean())),
		required("request_id", str()),
	)
}

func verificationSchema() *openapi3.Schema {
	return object(append(baseFields(TopicVerification),
		required("message", str()),
	)...)
}

func consoleSchema() *openapi3.Schema {
	return object(append(baseFields(TopicConsole),
		required("function", functionSchema()),
		required("log_level", enum(LogLevelDebug, LogLevelInfo, LogLevelLog, LogLevelWarn, LogLevelError)),
		required("message", str()),
		required("is_truncated", boolean()),
		optional("system_code", nullable(str())),
	)...)
}

func functionExecutionSchema() *openapi3.Schema {
	return object(append(baseFields(TopicFunctionExecution),
		required("function", functionSchema()),
		required("execution_time_ms", number()),
		required("status", enum(StatusSuccess, StatusFailure)),
		optional("error_message", nullable(str())),
		optional("mutation_queue_length", number()),
		optional("mutation_retry_count", number()),
		optional("scheduler_info", nullable(object(
			required("job_id", str()),
		))),
		required("usage", object(
			required("database_read_bytes", number()),
			required("database_write_bytes", number()),
			required("database_read_documents", number()),
			required("file_storage_read_bytes", number()),
			required("file_storage_write_bytes", number()),
			required("vector_storage_read_bytes", number()),
			required("vector_storage_write_bytes", number()),
			required("memory_used_mb", number()),
		)),
	)...)
}

var schemas = map[Topic]*openapi3.Schema{
	TopicVerification:      verificationSchema(),
	TopicConsole:           consoleSchema(),
	TopicFunctionExecution: functionExecutionSchema(),
}
