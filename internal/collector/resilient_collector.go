package collector

import (
	"context"
	"errors"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/resilience"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

type ResilientCollector struct {
	collector      Collector
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientCollectorConfig struct {
	Collector     Collector
	Name          string
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientCollector(cfg ResilientCollectorConfig) *ResilientCollector {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "collector"
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          cfg.Name,
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		IsFailure:     countsAsFailure,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientCollector{
		collector:      cfg.Collector,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

// An unknown week is an answer from a healthy feed, not an outage.
func countsAsFailure(err error) bool {
	return !errors.Is(err, ErrWeekNotFound) && !errors.Is(err, context.Canceled)
}

func (c *ResilientCollector) Collect(ctx context.Context, weekID string) ([]models.OccupancyReading, error) {
	var readings []models.OccupancyReading

	err := c.circuitBreaker.ExecuteContext(ctx, func(ctx context.Context) error {
		var lastErr error
		for attempt := 1; attempt <= c.retryAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			var err error
			readings, err = c.collector.Collect(ctx, weekID)
			if err == nil {
				return nil
			}
			if errors.Is(err, ErrWeekNotFound) {
				return err
			}

			lastErr = err
			logger.WithWeek(weekID).Warnf(
				"Collection attempt %d/%d failed: %v",
				attempt, c.retryAttempts, err,
			)

			if attempt < c.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.retryDelay):
				}
			}
		}
		return lastErr
	})

	if err != nil {
		return nil, err
	}

	return readings, nil
}

func (c *ResilientCollector) HealthCheck(ctx context.Context) error {
	return c.collector.HealthCheck(ctx)
}

func (c *ResilientCollector) Close() error {
	return c.collector.Close()
}

func (c *ResilientCollector) CircuitState() resilience.State {
	return c.circuitBreaker.State()
}

func (c *ResilientCollector) ResetCircuit() {
	c.circuitBreaker.Reset()
}
