package collector

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// RateLimitedCollector spaces out requests to the reading feed with a token bucket.
type RateLimitedCollector struct {
	collector Collector
	limiter   *rate.Limiter
}

type RateLimitedCollectorConfig struct {
	Collector Collector
	// Rate is requests per second; zero or less disables limiting.
	Rate  float64
	Burst int
}

func NewRateLimitedCollector(cfg RateLimitedCollectorConfig) *RateLimitedCollector {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &RateLimitedCollector{
		collector: cfg.Collector,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
	}
}

func (c *RateLimitedCollector) Collect(ctx context.Context, weekID string) ([]models.OccupancyReading, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrCollectionFailed, err)
	}
	return c.collector.Collect(ctx, weekID)
}

func (c *RateLimitedCollector) HealthCheck(ctx context.Context) error {
	return c.collector.HealthCheck(ctx)
}

func (c *RateLimitedCollector) Close() error {
	return c.collector.Close()
}
