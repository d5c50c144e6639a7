package env

import "os"

const (
	Local      = "local"
	Production = "prod"
)

// Environment is the deployment environment from ENVIRONMENT, local by default.
func Environment() string {
	return GetEnv("ENVIRONMENT", Local)
}

func IsLocal() bool {
	return Environment() == Local
}

func IsDebug() bool {
	return GetEnv("FNSCOPE_DEBUG", "false") == "true"
}

// OtelCollectorGRPCEndpoint returns the collector address. Telemetry is not exported when it is empty.
func OtelCollectorGRPCEndpoint() string {
	return os.Getenv("OTEL_COLLECTOR_GRPC_ENDPOINT")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}
