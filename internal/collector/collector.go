package collector

import (
	"context"
	"errors"

	"github.com/OldStager01/pool-occupancy/pkg/models"
)

var (
	ErrCollectionFailed = errors.New("reading collection failed")
	ErrTimeout          = errors.New("collection timeout")
	ErrWeekNotFound     = errors.New("week not found")
	ErrInvalidResponse  = errors.New("invalid response from data source")
)

// Collector defines the interface for occupancy reading collection
type Collector interface {
	// Collect fetches every reading recorded for a week
	Collect(ctx context.Context, weekID string) ([]models.OccupancyReading, error)

	// HealthCheck verifies the collector can reach its data source
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the collector
	Close() error
}
