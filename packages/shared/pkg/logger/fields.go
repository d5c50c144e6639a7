package logger

import (
	"go.uber.org/zap"
)

func WithTopic(topic string) zap.Field {
	return zap.String("event.topic", topic)
}

func WithFunctionPath(path string) zap.Field {
	return zap.String("function.path", path)
}

func WithRequestID(requestID string) zap.Field {
	return zap.String("function.request_id", requestID)
}

func WithTable(table string) zap.Field {
	return zap.String("clickhouse.table", table)
}

func WithTimeRange(selector string) zap.Field {
	return zap.String("query.range", selector)
}

func WithServiceInstanceID(instanceID string) zap.Field {
	return zap.String("service.instance.id", instanceID)
}
