// cmd/gov-dash/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"gov-dash/internal/api"
	"gov-dash/internal/common/camunda"
	"gov-dash/internal/common/config"
	"gov-dash/internal/common/database"
	govhttp "gov-dash/internal/common/http"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/common/observability"
	"gov-dash/internal/opendata/cache"
	"gov-dash/internal/opendata/dispatcher"
	"gov-dash/internal/opendata/querylog"
	"gov-dash/internal/opendata/service"
	"gov-dash/pkg/registry"

	fd "gov-dash/internal/workers/opendata/fetch-dataset"
	pdq "gov-dash/internal/workers/opendata/parse-dataset-query"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting gov-dash...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	var spanExporters []sdktrace.SpanExporter
	if cfg.Logging.TraceSpans {
		spanExporters = append(spanExporters, observability.NewLogExporter(zapLog))
	}
	obs := observability.New(cfg.App.Name, spanExporters...)
	defer obs.Shutdown()

	ctx := context.Background()

	reg, err := registry.LoadRegistry(cfg.OpenData.RegistryPath)
	if err != nil {
		zapLog.Fatal("dataset registry load failed", zap.Error(err))
	}
	zapLog.Info("Dataset registry loaded", zap.Strings("datasets", reg.IDs()))

	for _, id := range reg.IDs() {
		if _, ok := cfg.OpenData.Credential(id); !ok {
			zapLog.Warn("no API key configured", zap.String("datasetId", id))
		}
	}

	dispatchOpts := []dispatcher.Option{dispatcher.WithTracer(obs.Tracer())}
	checks := map[string]api.HealthCheck{}

	// --- Response cache ---
	if cfg.OpenData.CacheEnabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		checks["redis"] = rdb.Ping
		ttl := time.Duration(cfg.OpenData.CacheTTL) * time.Second
		dispatchOpts = append(dispatchOpts, dispatcher.WithCache(cache.NewRedisCache(rdb.Client, ttl)))
		zapLog.Info("Redis response cache enabled", zap.Duration("ttl", ttl))
	}

	// --- Query log ---
	var sink querylog.Sink = querylog.NopSink{}
	switch cfg.QueryLog.Sink {
	case config.SinkPostgres:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		checks["postgres"] = pg.Ping

		pgSink := querylog.NewPostgresSink(pg, cfg.QueryLog.Table)
		if err := pgSink.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("query log table setup failed", zap.Error(err))
		}
		sink = pgSink
		zapLog.Info("Query log writing to PostgreSQL", zap.String("table", cfg.QueryLog.Table))

	case config.SinkElasticsearch:
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		checks["elasticsearch"] = esClient.Ping
		sink = querylog.NewElasticsearchSink(esClient, cfg.QueryLog.Index)
		zapLog.Info("Query log writing to Elasticsearch", zap.String("index", cfg.QueryLog.Index))
	}

	httpClient := govhttp.NewClient(config.GetDuration(cfg.OpenData.Timeout), cfg.OpenData.MaxConcurrent)
	disp := dispatcher.New(reg, cfg.OpenData, httpClient, log, dispatchOpts...)
	svc := service.New(reg, disp, log,
		service.WithQueryLog(sink),
		service.WithObservability(obs),
	)

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	var workers []worker.JobWorker
	if cfg.Camunda.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		checks["zeebe"] = zeebe.HealthCheck

		if config.IsWorkerEnabled(cfg, pdq.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, pdq.TaskType)
			handler := pdq.NewHandler(pdq.LoadConfig(wcfg), svc, log)
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), pdq.TaskType, workerOptions(wcfg), handler.Handle, log))
		}
		if config.IsWorkerEnabled(cfg, fd.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, fd.TaskType)
			handler := fd.NewHandler(fd.LoadConfig(wcfg, cfg.OpenData), reg, disp, log)
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), fd.TaskType, workerOptions(wcfg), handler.Handle, log))
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	apiHandler := api.NewHandler(svc, reg, log)
	for name, check := range checks {
		apiHandler.AddHealthCheck(name, check)
	}
	server := api.NewServer(cfg.Server, apiHandler)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("gov-dash stopped gracefully")
}

func workerOptions(wcfg config.WorkerConfig) camunda.WorkerOptions {
	return camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}
}
