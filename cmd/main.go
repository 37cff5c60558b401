package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/http/api"
	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/http/site"
	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/http/swagger"
	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/http/ws"
	app "github.com/shirlenelss/thomas-cup-kafka/internal/app"
	"github.com/shirlenelss/thomas-cup-kafka/internal/config"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

// latestWSGroup is the consumer group feeding the websocket fanout.
const latestWSGroup = "ws-broadcast"

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Local development overrides; absence of a .env file is fine.
	_ = godotenv.Load()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the pipeline with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithPostgresDSN(cfg.PostgresDSN),
		app.WithPartitions(cfg.BusPartitions),
		app.WithBusBufferSize(cfg.BusBufferSize),
		app.WithSnapshotBound(cfg.SnapshotMaxEntries, cfg.SnapshotTTL()),
		app.WithPublishRetry(cfg.PublishRetryAttempts, cfg.PublishRetryBackoff()),
		app.WithConsumerRetry(cfg.ConsumerMaxAttempts, cfg.ConsumerBackoff()),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the API docs and the live scoreboard.
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	// Live score fanout over websockets, fed by the latest-state topic.
	if cfg.WSEnabled {
		hub := ws.NewHub(loggerInstance.Named("ws"))
		if err := svc.SubscribeLatest(ctx, latestWSGroup, hub.Broadcast); err != nil {
			os.Stderr.WriteString("failed to subscribe websocket fanout: " + err.Error() + "\n")
			return
		}
		mux.HandleFunc("/ws", hub.HandleWS)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes gauge metrics derived from service
// state on a fixed interval.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the snapshot-table gauge as a side effect.
			_ = svc.GetStats()
		}
	}
}
