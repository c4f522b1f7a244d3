package collector

import (
	"context"
	"sync"

	"github.com/OldStager01/pool-occupancy/internal/simulator"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// MockCollector serves simulated weeks in-process, without the simulator's HTTP feed.
type MockCollector struct {
	pool  *simulator.PoolSim
	extra map[string][]models.OccupancyReading

	mu           sync.RWMutex
	shouldFail   bool
	failureError error
	calls        int
}

type MockCollectorConfig struct {
	Domain         *timedomain.Domain
	BaseOccupancy  float64
	Variance       float64
	SamplesPerHour int
	Pattern        string
}

func NewMockCollector(cfg MockCollectorConfig) *MockCollector {
	pool := simulator.NewPoolSim(simulator.PoolSimConfig{
		Domain:         cfg.Domain,
		BaseOccupancy:  cfg.BaseOccupancy,
		Variance:       cfg.Variance,
		SamplesPerHour: cfg.SamplesPerHour,
	})
	pool.SetPattern(simulator.ParsePattern(cfg.Pattern))

	return &MockCollector{
		pool:  pool,
		extra: make(map[string][]models.OccupancyReading),
	}
}

func (c *MockCollector) Pool() *simulator.PoolSim {
	return c.pool
}

// AddReadings appends readings to every collection of the week.
func (c *MockCollector) AddReadings(weekID string, readings ...models.OccupancyReading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extra[weekID] = append(c.extra[weekID], readings...)
}

func (c *MockCollector) SetShouldFail(shouldFail bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shouldFail = shouldFail
	c.failureError = err
}

func (c *MockCollector) Calls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls
}

func (c *MockCollector) Collect(ctx context.Context, weekID string) ([]models.OccupancyReading, error) {
	c.mu.Lock()
	c.calls++
	shouldFail, failureError := c.shouldFail, c.failureError
	extra := append([]models.OccupancyReading(nil), c.extra[weekID]...)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if shouldFail {
		if failureError != nil {
			return nil, failureError
		}
		return nil, ErrCollectionFailed
	}

	readings, err := c.pool.Week(weekID)
	if err != nil {
		return nil, ErrWeekNotFound
	}

	return append(readings, extra...), nil
}

func (c *MockCollector) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.shouldFail {
		return ErrCollectionFailed
	}
	return nil
}

func (c *MockCollector) Close() error {
	return nil
}
