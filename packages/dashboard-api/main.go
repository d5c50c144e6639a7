package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/dashboard-api/internal/cfg"
	"github.com/fnscope/infra/packages/dashboard-api/internal/handlers"
	"github.com/fnscope/infra/packages/shared/pkg/env"
	"github.com/fnscope/infra/packages/shared/pkg/logger"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
	"github.com/fnscope/infra/packages/shared/pkg/utils"
)

const (
	serviceName    = "dashboard-api"
	serviceVersion = "1.0.0"

	maxReadHeaderTimeout = 5 * time.Second
	maxReadTimeout       = 30 * time.Second
	maxWriteTimeout      = 60 * time.Second
	idleTimeout          = 620 * time.Second

	clickhousePingTimeout = 10 * time.Second
	shutdownTimeout       = 30 * time.Second
)

var commitSHA string

var skipLoggingPaths = []string{"/health"}

func NewGinServer(ctx context.Context, tel *telemetry.Client, l *zap.Logger, apiStore *handlers.APIStore, port uint16) *http.Server {
	r := gin.New()

	r.Use(
		ginzap.RecoveryWithZap(l, true),
		otelgin.Middleware(serviceName,
			otelgin.WithTracerProvider(tel.TracerProvider),
			otelgin.WithPropagators(tel.TracePropagator),
			otelgin.WithFilter(func(req *http.Request) bool {
				return !slices.Contains(skipLoggingPaths, req.URL.Path)
			}),
		),
		func(c *gin.Context) {
			if slices.Contains(skipLoggingPaths, c.Request.URL.Path) {
				c.Next()

				return
			}

			ginzap.Ginzap(l, time.RFC3339Nano, true)(c)
		},
	)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	r.Use(cors.New(corsConfig))

	handlers.RegisterHandlers(r, apiStore)

	return &http.Server{
		Handler: r,
		Addr:    fmt.Sprintf("0.0.0.0:%d", port),

		ReadHeaderTimeout: maxReadHeaderTimeout,
		ReadTimeout:       maxReadTimeout,
		WriteTimeout:      maxWriteTimeout,
		IdleTimeout:       idleTimeout,

		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serviceInstanceID := uuid.New().String()

	var tel *telemetry.Client
	if endpoint := env.OtelCollectorGRPCEndpoint(); endpoint != "" {
		var err error
		tel, err = telemetry.New(ctx, endpoint, serviceName, commitSHA, serviceVersion, serviceInstanceID)
		if err != nil {
			log.Printf("failed to create telemetry client: %v\n", err)

			return 1
		}
	} else {
		tel = telemetry.NewNoopClient()
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Printf("telemetry shutdown: %v\n", err)
		}
	}()

	l := zap.Must(logger.NewLogger(ctx, logger.LoggerConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		IsDevelopment:  env.IsLocal(),
		IsDebug:        env.IsDebug(),
		InitialFields:  []zap.Field{logger.WithServiceInstanceID(serviceInstanceID)},
		LoggerProvider: tel.LogsProvider,
	}))
	defer l.Sync()
	zap.ReplaceGlobals(l)

	if err := tel.StartRuntimeInstrumentation(); err != nil {
		l.Warn("Failed to start runtime instrumentation", zap.Error(err))
	}

	config, err := cfg.Parse()
	if err != nil {
		l.Error("Error parsing config", zap.Error(err))

		return 1
	}

	l.Info("Starting dashboard API...", zap.String("commit_sha", commitSHA))

	if !env.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := clickhouse.New(config.ClickhouseURL, config.ClickhouseUsername, config.ClickhousePassword)
	if err != nil {
		l.Error("Error connecting to ClickHouse", zap.Error(err))

		return 1
	}

	cleaner := &utils.Cleaner{}
	cleaner.Add("clickhouse", store.Close)

	pingCtx, pingCancel := context.WithTimeout(ctx, clickhousePingTimeout)
	err = store.Ping(pingCtx)
	pingCancel()
	if err != nil {
		// Requests fail with 500 until the store is reachable.
		l.Warn("ClickHouse is not reachable yet", zap.Error(err))
	}

	apiStore, err := handlers.NewAPIStore(tel, store, serviceVersion)
	if err != nil {
		l.Error("Error creating API store", zap.Error(err))
		_ = cleaner.Run(context.WithoutCancel(ctx))

		return 1
	}

	s := NewGinServer(ctx, tel, l, apiStore, config.Port)

	signalCtx, sigCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer sigCancel()

	exitCode := &atomic.Int32{}
	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Go(func() {
		defer cancel()

		l.Info("Http service starting", zap.Uint16("port", config.Port))

		err := s.ListenAndServe()
		switch {
		case errors.Is(err, http.ErrServerClosed):
			l.Info("Http service shutdown successfully", zap.Uint16("port", config.Port))
		case err != nil:
			exitCode.Add(1)
			l.Error("Http service encountered error", zap.Uint16("port", config.Port), zap.Error(err))
		default:
			l.Info("Http service exited without error", zap.Uint16("port", config.Port))
		}
	})

	wg.Go(func() {
		<-signalCtx.Done()

		apiStore.Healthy.Store(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			exitCode.Add(1)
			l.Error("Http service shutdown error", zap.Uint16("port", config.Port), zap.Error(err))
		}
	})

	wg.Wait()

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cleanupCancel()

	if err := cleaner.Run(cleanupCtx); err != nil {
		exitCode.Add(1)
		l.Error("Cleanup operation error", zap.Error(err))
	}

	return int(exitCode.Load())
}

func main() {
	os.Exit(run())
}
