package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/pool-occupancy/api"
	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/collector"
	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/orchestrator"
	"github.com/OldStager01/pool-occupancy/internal/resilience"
	"github.com/OldStager01/pool-occupancy/internal/service"
	"github.com/OldStager01/pool-occupancy/internal/severity"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/config"
	"github.com/OldStager01/pool-occupancy/pkg/database"
	"github.com/OldStager01/pool-occupancy/pkg/database/queries"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	seedCapacity := flag.Bool("seed-capacity", false, "write configured capacity slots to the database and exit")
	collectWeek := flag.String("collect", "", "collect one week (e.g. 2024-W05), print its summary and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	setupTimeout := cfg.Database.MigrationTimeout
	if setupTimeout == 0 {
		setupTimeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	db, err := database.New(ctx, cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	if *migrate {
		logger.Info("Running database migrations")
		applied, err := database.NewMigrator(db).Run(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Infof("Migrations completed successfully, %d applied", applied)
		return nil
	}

	capacityRepo := queries.NewCapacityRepository(db.DB)
	if *seedCapacity {
		return seedCapacitySlots(ctx, capacityRepo, cfg.Capacity)
	}

	m := metrics.Get()

	svc, domain, err := buildService(cfg, db, capacityRepo, m)
	if err != nil {
		return err
	}

	readingsRepo := queries.NewReadingsRepository(db.DB)
	orch := orchestrator.New(cfg, svc, readingsRepo, m)
	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}
	defer orch.Stop()

	coll := buildCollector(cfg.Collector, domain, m)
	defer coll.Close()

	if *collectWeek != "" {
		return collectOnce(orch, coll, *collectWeek)
	}

	if cfg.Refresh.Enabled {
		for _, weekID := range cfg.Refresh.Weeks {
			if err := orch.StartWeek(weekID, coll); err != nil {
				return fmt.Errorf("failed to start refresh for %s: %w", weekID, err)
			}
		}
	}

	server := api.NewServer(cfg.API, cfg.WebSocket, api.Dependencies{
		Service:   svc,
		DB:        db,
		Pipelines: orch,
		Metrics:   m,
	})

	var metricsServer *http.Server
	if cfg.Prometheus.Enabled && cfg.Prometheus.Port != cfg.API.Port {
		metricsServer = startMetricsServer(cfg.Prometheus.Port, m)
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	timeout := cfg.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Metrics server shutdown: %v", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func buildService(cfg *config.Config, db *database.DB, capacityRepo *queries.CapacityRepository, m *metrics.Metrics) (*service.Service, *timedomain.Domain, error) {
	domain, err := cfg.Pool.Domain()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid pool hours: %w", err)
	}

	table, err := cfg.Capacity.Table()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid capacity: %w", err)
	}

	classifier, err := severity.NewClassifier(cfg.Severity.Thresholds())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid severity thresholds: %w", err)
	}

	readings := queries.NewReadingsRepository(db.DB)
	svcCfg := service.Config{
		Engine:     aggregator.New(aggregator.Config{Domain: domain, Capacity: table}),
		Classifier: classifier,
		Source:     readings,
		Sink:       readings,
		Fallback:   table,
		Metrics:    m,
	}
	if cfg.Capacity.Source == "database" {
		svcCfg.Capacity = capacityRepo
	}

	return service.New(svcCfg), domain, nil
}

// buildCollector layers rate limiting and a circuit breaker over the configured feed.
func buildCollector(cfg config.CollectorConfig, domain *timedomain.Domain, m *metrics.Metrics) collector.Collector {
	var base collector.Collector
	switch cfg.Type {
	case "mock":
		logger.Info("Using simulated occupancy feed")
		base = collector.NewMockCollector(collector.MockCollectorConfig{Domain: domain})
	default:
		base = collector.NewHTTPCollector(collector.HTTPCollectorConfig{
			Endpoint: cfg.Endpoint,
			Timeout:  cfg.Timeout,
		})
	}

	limited := collector.NewRateLimitedCollector(collector.RateLimitedCollectorConfig{
		Collector: base,
		Rate:      cfg.RateLimit,
		Burst:     cfg.RateBurst,
	})

	return collector.NewResilientCollector(collector.ResilientCollectorConfig{
		Collector:     limited,
		Name:          "occupancy_feed",
		MaxFailures:   cfg.CircuitBreaker.MaxFailures,
		Timeout:       cfg.CircuitBreaker.Timeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
			m.SetCircuitBreakerState(name, int(to))
		},
	})
}

func startMetricsServer(port int, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("Metrics server listening on port %d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server error: %v", err)
		}
	}()

	return srv
}

func collectOnce(orch *orchestrator.Orchestrator, coll collector.Collector, weekID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := orch.RefreshOnce(ctx, weekID, coll)
	if err != nil {
		return fmt.Errorf("failed to collect %s: %w", weekID, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report.Summary())
}

func seedCapacitySlots(ctx context.Context, repo *queries.CapacityRepository, cfg config.CapacityConfig) error {
	for _, slot := range cfg.Slots {
		day, err := models.ParseDay(slot.Day)
		if err != nil {
			return fmt.Errorf("capacity slot: %w", err)
		}
		if err := repo.Upsert(ctx, day, slot.Hour, slot.Capacity); err != nil {
			return fmt.Errorf("failed to store capacity for %s %d:00: %w", day, slot.Hour, err)
		}
	}
	logger.Infof("Stored %d capacity slots", len(cfg.Slots))
	return nil
}
