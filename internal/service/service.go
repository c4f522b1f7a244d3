package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/severity"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
	"github.com/OldStager01/pool-occupancy/pkg/validation"
)

var (
	ErrNoReadingSink   = errors.New("reading storage is not configured")
	ErrNoValidReadings = errors.New("no valid readings")
)

type ReadingSource interface {
	ReadingsForWeek(ctx context.Context, weekID string) ([]models.OccupancyReading, error)
}

type ReadingSink interface {
	InsertBatch(ctx context.Context, weekID string, readings []models.OccupancyReading) error
}

// CapacitySource loads per-slot capacity, deferring unlisted slots to fallback.
type CapacitySource interface {
	Load(ctx context.Context, fallback capacity.Table) (*capacity.Slots, error)
}

type Config struct {
	Engine     *aggregator.Engine
	Classifier *severity.Classifier
	Source     ReadingSource
	Sink       ReadingSink
	Capacity   CapacitySource
	// Fallback answers slots the capacity source does not list.
	Fallback capacity.Table
	Metrics  *metrics.Metrics
}

// Service recomputes week summaries from stored readings on every query.
type Service struct {
	engine     *aggregator.Engine
	classifier *severity.Classifier
	source     ReadingSource
	sink       ReadingSink
	capacity   CapacitySource
	fallback   capacity.Table
	metrics    *metrics.Metrics
}

func New(cfg Config) *Service {
	if cfg.Engine == nil {
		cfg.Engine = aggregator.New(aggregator.Config{Capacity: cfg.Fallback})
	}
	if cfg.Classifier == nil {
		cfg.Classifier = severity.Default()
	}
	return &Service{
		engine:     cfg.Engine,
		classifier: cfg.Classifier,
		source:     cfg.Source,
		sink:       cfg.Sink,
		capacity:   cfg.Capacity,
		fallback:   cfg.Fallback,
		metrics:    cfg.Metrics,
	}
}

func (s *Service) Domain() *timedomain.Domain {
	return s.engine.Domain()
}

func (s *Service) Classifier() *severity.Classifier {
	return s.classifier
}

// WeekReport is the dense view of one week plus what was left out of it.
type WeekReport struct {
	WeekID      string
	Week        *aggregator.Week
	Sparse      []models.HourlyOccupancySummary
	Accepted    int
	Rejected    []*aggregator.ReadingError
	GeneratedAt time.Time
}

func (r *WeekReport) Summary() *models.WeekSummary {
	return &models.WeekSummary{
		WeekID:      r.WeekID,
		Days:        r.Week.Days(),
		Summaries:   r.Week.All(),
		Accepted:    r.Accepted,
		Rejected:    len(r.Rejected),
		RefreshedAt: r.GeneratedAt,
	}
}

// Engine returns the aggregation engine with capacity loaded for this query.
func (s *Service) Engine(ctx context.Context) (*aggregator.Engine, error) {
	if s.capacity == nil {
		return s.engine, nil
	}
	slots, err := s.capacity.Load(ctx, s.fallback)
	if err != nil {
		return nil, fmt.Errorf("failed to load capacity: %w", err)
	}
	return s.engine.WithCapacity(slots), nil
}

func (s *Service) Week(ctx context.Context, weekID string) (*WeekReport, error) {
	if err := validation.ValidateWeekID(weekID); err != nil {
		return nil, err
	}

	readings, err := s.source.ReadingsForWeek(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for %s: %w", weekID, err)
	}

	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}

	return s.Report(engine, weekID, readings), nil
}

// Report aggregates readings into a dense week, logging and counting rejections.
func (s *Service) Report(engine *aggregator.Engine, weekID string, readings []models.OccupancyReading) *WeekReport {
	result := engine.Aggregate(readings)
	if len(result.Rejected) > 0 {
		logger.WithWeek(weekID).Warnf("Rejected %d of %d readings: %v",
			len(result.Rejected), len(readings), result.Err())
		s.countRejections(weekID, result.Rejected)
	}

	return &WeekReport{
		WeekID:      weekID,
		Week:        engine.Week(result.Summaries),
		Sparse:      result.Summaries,
		Accepted:    result.Accepted,
		Rejected:    result.Rejected,
		GeneratedAt: time.Now().UTC(),
	}
}

// IngestResult reports how many readings were stored and which were refused.
type IngestResult struct {
	Stored   int                      `json:"stored"`
	Rejected []models.RejectedReading `json:"rejected"`
}

// Ingest stores the readings the engine would accept. Refused readings never reach
// storage; the call fails only when none are valid or storage fails.
func (s *Service) Ingest(ctx context.Context, weekID string, readings []models.OccupancyReading) (*IngestResult, error) {
	if s.sink == nil {
		return nil, ErrNoReadingSink
	}
	if err := validation.ValidateWeekID(weekID); err != nil {
		return nil, err
	}

	accepted, rejected := s.engine.Filter(readings)
	result := &IngestResult{Rejected: aggregator.Rejections(rejected)}
	s.countRejections(weekID, rejected)

	if len(accepted) == 0 {
		return result, ErrNoValidReadings
	}

	for i := range accepted {
		if accepted[i].ID == "" {
			accepted[i].ID = models.NewUUID()
		}
	}

	if err := s.sink.InsertBatch(ctx, weekID, accepted); err != nil {
		return nil, fmt.Errorf("failed to store readings for %s: %w", weekID, err)
	}

	result.Stored = len(accepted)
	s.metrics.AddIngestedReadings(weekID, result.Stored)
	logger.WithWeek(weekID).Infof("Stored %d readings, rejected %d", result.Stored, len(rejected))

	return result, nil
}

func (s *Service) countRejections(weekID string, rejected []*aggregator.ReadingError) {
	byReason := make(map[string]int)
	for _, re := range rejected {
		byReason[re.Err.Error()]++
	}
	for reason, n := range byReason {
		s.metrics.AddRejectedReadings(weekID, reason, n)
	}
}
