package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/fnscope/infra/packages/shared/pkg/env"
)

func GetResource(ctx context.Context, serviceName, serviceCommit, serviceVersion, serviceInstanceID string) (*resource.Resource, error) {
	version := serviceVersion
	if serviceCommit != "" {
		version = fmt.Sprintf("%s-%s", serviceVersion, serviceCommit)
	}

	attributes := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
		semconv.ServiceInstanceID(serviceInstanceID),
		semconv.DeploymentEnvironment(env.Environment()),
		semconv.TelemetrySDKName("otel"),
		semconv.TelemetrySDKLanguageGo,
	}

	if hostname, err := os.Hostname(); err == nil {
		attributes = append(attributes, semconv.HostName(hostname))
	}

	res, err := resource.New(
		ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attributes...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}
