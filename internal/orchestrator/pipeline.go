package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/collector"
	"github.com/OldStager01/pool-occupancy/internal/events"
	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/service"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

type PipelineConfig struct {
	WeekID          string
	RefreshInterval time.Duration
	Collector       collector.Collector
	Service         *service.Service
	EventPublisher  *events.Publisher
	Metrics         *metrics.Metrics
}

// Pipeline refreshes one week on a ticker: collect, aggregate, densify, publish.
// It can be stopped and started again.
type Pipeline struct {
	config  PipelineConfig
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	last    *service.WeekReport
	lastErr error
	mu      sync.Mutex
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}

	return &Pipeline{config: cfg}
}

func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	go p.run(ctx)

	logger.WithWeek(p.config.WeekID).Info("Pipeline started")
	return nil
}

func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()

	logger.WithWeek(p.config.WeekID).Info("Pipeline stopped")
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Last returns the most recent report and the error of the most recent cycle.
func (p *Pipeline) Last() (*service.WeekReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.lastErr
}

func (p *Pipeline) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.RefreshInterval)
	defer ticker.Stop()

	// Run immediately on start
	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

func (p *Pipeline) cycleTimeout() time.Duration {
	timeout := p.config.RefreshInterval
	if timeout > 2*time.Second {
		timeout -= time.Second
	}
	return timeout
}

func (p *Pipeline) runCycle(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, p.cycleTimeout())
	defer cancel()

	report, err := p.Refresh(ctx)

	p.mu.Lock()
	if report != nil {
		p.last = report
	}
	p.lastErr = err
	p.mu.Unlock()
}

// Refresh runs one cycle synchronously.
func (p *Pipeline) Refresh(ctx context.Context) (*service.WeekReport, error) {
	weekID := p.config.WeekID
	start := time.Now()

	// Step 1: Collect readings
	readings, err := p.collect(ctx)
	if err != nil {
		logger.WithWeek(weekID).Errorf("Collection failed: %v", err)
		p.config.EventPublisher.Error(weekID, "Reading collection failed", err)
		p.config.Metrics.IncRefreshErrors(weekID)
		return nil, err
	}

	// Step 2: Resolve capacity for this cycle
	engine, err := p.config.Service.Engine(ctx)
	if err != nil {
		logger.WithWeek(weekID).Errorf("Capacity lookup failed: %v", err)
		p.config.EventPublisher.Error(weekID, "Capacity lookup failed", err)
		p.config.Metrics.IncRefreshErrors(weekID)
		return nil, err
	}

	// Step 3: Aggregate and densify
	report := p.config.Service.Report(engine, weekID, readings)
	p.config.EventPublisher.ReadingsRejected(weekID, aggregator.Rejections(report.Rejected))

	// Step 4: Publish the dense week
	p.config.EventPublisher.SummaryRefreshed(report.Summary())
	p.checkCapacity(report)

	p.config.Metrics.IncRefreshes(weekID)
	p.config.Metrics.SetRefreshDuration(weekID, time.Since(start))

	logger.WithWeek(weekID).Debugf("Refreshed %d slots from %d readings", report.Week.Len(), len(readings))
	return report, nil
}

func (p *Pipeline) collect(ctx context.Context) ([]models.OccupancyReading, error) {
	weekID := p.config.WeekID
	start := time.Now()

	readings, err := p.config.Collector.Collect(ctx, weekID)
	p.config.Metrics.SetCollectionLatency(weekID, time.Since(start))
	if err != nil {
		p.config.Metrics.IncCollectionErrors(weekID)
		return nil, err
	}
	p.config.Metrics.IncCollections(weekID)

	p.config.EventPublisher.ReadingsCollected(weekID, readings)
	return readings, nil
}

// checkCapacity records the week's peak and alerts on slots whose average reached capacity.
func (p *Pipeline) checkCapacity(report *service.WeekReport) {
	peakOccupancy, peakUtilization := 0, 0.0
	var full []models.HourlyOccupancySummary
	for _, s := range report.Week.All() {
		peakOccupancy = max(peakOccupancy, s.MaxOccupancy)
		peakUtilization = max(peakUtilization, s.UtilizationRate)
		if s.HasData() && s.MaximumOccupancy > 0 && s.UtilizationRate >= 100 {
			full = append(full, s)
		}
	}

	p.config.Metrics.SetPeak(report.WeekID, peakOccupancy, peakUtilization)

	if len(full) > 0 {
		p.config.EventPublisher.Alert(
			report.WeekID,
			models.SeverityWarning,
			"Pool at capacity",
			full,
		)
	}
}
