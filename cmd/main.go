package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/haproxy-status/config"
	"github.com/angeloszaimis/haproxy-status/internal/engine"
	"github.com/angeloszaimis/haproxy-status/internal/handler"
	"github.com/angeloszaimis/haproxy-status/internal/httpserver"
	"github.com/angeloszaimis/haproxy-status/internal/metrics"
	"github.com/angeloszaimis/haproxy-status/internal/override"
	"github.com/angeloszaimis/haproxy-status/internal/poller"
	"github.com/angeloszaimis/haproxy-status/internal/scheduler"
	"github.com/angeloszaimis/haproxy-status/internal/tracker"
	"github.com/angeloszaimis/haproxy-status/internal/transport"
	"github.com/angeloszaimis/haproxy-status/internal/verdict"
	"github.com/angeloszaimis/haproxy-status/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging.Level, true, cfg.Server.Environment, cfg.Admin.ServiceName)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsCollector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	metricsCollector.Start(ctx)

	eng, err := buildEngine(cfg, log, metricsCollector.EventChannel())
	if err != nil {
		log.Error("Failed to build status engine", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.Refresh.Enabled {
		go poller.Run(ctx, eng, cfg.HAProxy.FetchInterval, log)
	}

	statusHandler := handler.NewStatusHandler(log, eng, cfg.Admin.Return404OnAdminDown)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(statusHandler, metricsCollector),
		httpserver.WithWriteTimeout(cfg.HAProxy.Timeout+5*time.Second),
	)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Starting haproxy status",
		slog.String("addr", srv.Addr()),
		slog.String("stats_url", cfg.HAProxy.StatsURL),
		slog.Duration("fetch_interval", cfg.HAProxy.FetchInterval),
		slog.Duration("healthy_backend_uptime", cfg.HAProxy.HealthyBackendUptime))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting haproxy status", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func buildEngine(cfg *config.Config, log *slog.Logger, events chan<- metrics.MetricEvent) (*engine.Engine, error) {
	fetcher, err := transport.New(cfg.HAProxy.StatsURL, cfg.HAProxy.Timeout)
	if err != nil {
		return nil, err
	}

	var sink verdict.Sink
	if cfg.Status.OutputFilename != "" {
		sink = verdict.FileSink{Path: cfg.Status.OutputFilename}
	}

	aggregator := verdict.NewAggregator(verdict.Config{
		PollInterval:  cfg.HAProxy.FetchInterval,
		HealthyUptime: cfg.HAProxy.HealthyBackendUptime,
	}, sink, log)

	return engine.New(engine.Options{
		Fetcher:    fetcher,
		Tracker:    tracker.New(cfg.HAProxy.LogDownInterval, log),
		Aggregator: aggregator,
		Scheduler:  scheduler.New(cfg.HAProxy.FetchInterval),
		Override:   override.New(cfg.Admin.SignalDirectory, cfg.Admin.ServiceName, log),
		Logger:     log,
		Events:     events,
	}), nil
}
