package logger

import (
	"context"
	"errors"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Per-message sampling of the stdout core. A batch full of invalid events logs
// one drop line per event, so identical messages beyond the first samplingFirst
// in a tick are only kept every samplingThereafter.
const (
	samplingTick       = time.Second
	samplingFirst      = 20
	samplingThereafter = 100
)

type LoggerConfig struct {
	ServiceName    string
	ServiceVersion string
	IsDevelopment  bool
	// IsDebug enables debug entries and turns sampling off.
	IsDebug       bool
	InitialFields []zap.Field

	// LoggerProvider additionally exports every entry over OTLP when set.
	LoggerProvider log.LoggerProvider

	// Output replaces stdout for the JSON core.
	Output zapcore.WriteSyncer
	Cores  []zapcore.Core
}

func NewLogger(_ context.Context, loggerConfig LoggerConfig) (*zap.Logger, error) {
	if loggerConfig.ServiceName == "" {
		return nil, errors.New("logger requires a service name")
	}

	level := zapcore.InfoLevel
	if loggerConfig.IsDebug {
		level = zapcore.DebugLevel
	}

	output := loggerConfig.Output
	if output == nil {
		output = zapcore.Lock(os.Stdout)
	}

	var stdout zapcore.Core = zapcore.NewCore(
		zapcore.NewJSONEncoder(GetEncoderConfig(zapcore.DefaultLineEnding)),
		output,
		level,
	)
	if !loggerConfig.IsDebug {
		stdout = zapcore.NewSamplerWithOptions(stdout, samplingTick, samplingFirst, samplingThereafter)
	}

	cores := make([]zapcore.Core, 0, len(loggerConfig.Cores)+2)
	cores = append(cores, stdout)
	if loggerConfig.LoggerProvider != nil {
		cores = append(cores, otelzap.NewCore(loggerConfig.ServiceName, otelzap.WithLoggerProvider(loggerConfig.LoggerProvider)))
	}
	cores = append(cores, loggerConfig.Cores...)

	options := []zap.Option{
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(serviceFields(loggerConfig)...),
	}
	if loggerConfig.IsDevelopment {
		options = append(options, zap.Development())
	}

	return zap.New(zapcore.NewTee(cores...), options...).With(loggerConfig.InitialFields...), nil
}

func serviceFields(loggerConfig LoggerConfig) []zap.Field {
	fields := []zap.Field{
		zap.String("service", loggerConfig.ServiceName),
		zap.Int("pid", os.Getpid()),
	}
	if loggerConfig.ServiceVersion != "" {
		fields = append(fields, zap.String("service.version", loggerConfig.ServiceVersion))
	}

	return fields
}

func GetEncoderConfig(lineEnding string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		MessageKey:     "message",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		LineEnding:     lineEnding,
	}
}
