package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/OldStager01/pool-occupancy/internal/collector"
	"github.com/OldStager01/pool-occupancy/internal/events"
	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/service"
	"github.com/OldStager01/pool-occupancy/pkg/config"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

var ErrPipelineNotFound = errors.New("no pipeline for week")

type Orchestrator struct {
	config      *config.Config
	service     *service.Service
	metrics     *metrics.Metrics
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	publisher   *events.Publisher
	pipelines   map[string]*Pipeline
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// New wires the event bus and the persisting event logger. A nil sink keeps
// collected readings in memory only.
func New(cfg *config.Config, svc *service.Service, sink events.ReadingSink, m *metrics.Metrics) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	eventBus := events.NewEventBus(cfg.Events.BufferSize)

	// Subscribe event logger to all events
	allEvents := eventBus.SubscribeAll()
	eventLogger := events.NewEventLogger(sink, allEvents)

	return &Orchestrator{
		config:      cfg,
		service:     svc,
		metrics:     m,
		eventBus:    eventBus,
		eventLogger: eventLogger,
		publisher:   events.NewPublisher(eventBus),
		pipelines:   make(map[string]*Pipeline),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (o *Orchestrator) Start() error {
	logger.Info("Orchestrator starting")
	o.eventLogger.Start()
	return nil
}

func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")

	// Stop all pipelines
	o.mu.Lock()
	for weekID, pipeline := range o.pipelines {
		logger.Infof("Stopping pipeline for week %s", weekID)
		pipeline.Stop()
	}
	o.pipelines = make(map[string]*Pipeline)
	o.mu.Unlock()

	o.cancel()
	o.eventLogger.Stop()
	o.eventBus.Close()

	logger.Info("Orchestrator stopped")
}

func (o *Orchestrator) newPipeline(weekID string, coll collector.Collector) *Pipeline {
	return NewPipeline(PipelineConfig{
		WeekID:          weekID,
		RefreshInterval: o.config.Refresh.Interval,
		Collector:       coll,
		Service:         o.service,
		EventPublisher:  o.publisher,
		Metrics:         o.metrics,
	})
}

func (o *Orchestrator) StartWeek(weekID string, coll collector.Collector) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.pipelines[weekID]; exists {
		return fmt.Errorf("pipeline already exists for week %s", weekID)
	}

	pipeline := o.newPipeline(weekID, coll)
	if err := pipeline.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	o.pipelines[weekID] = pipeline
	logger.WithWeek(weekID).Info("Week pipeline started")

	return nil
}

func (o *Orchestrator) StopWeek(weekID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	pipeline, exists := o.pipelines[weekID]
	if !exists {
		return fmt.Errorf("%w %s", ErrPipelineNotFound, weekID)
	}

	pipeline.Stop()
	delete(o.pipelines, weekID)
	logger.WithWeek(weekID).Info("Week pipeline stopped")

	return nil
}

// RefreshOnce runs a single cycle for a week without scheduling it.
func (o *Orchestrator) RefreshOnce(ctx context.Context, weekID string, coll collector.Collector) (*service.WeekReport, error) {
	return o.newPipeline(weekID, coll).Refresh(ctx)
}

func (o *Orchestrator) GetWeekStatus(weekID string) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	pipeline, exists := o.pipelines[weekID]
	if !exists {
		return false, fmt.Errorf("%w %s", ErrPipelineNotFound, weekID)
	}

	return pipeline.IsRunning(), nil
}

func (o *Orchestrator) LastReport(weekID string) (*service.WeekReport, error) {
	o.mu.RLock()
	pipeline, exists := o.pipelines[weekID]
	o.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w %s", ErrPipelineNotFound, weekID)
	}
	return pipeline.Last()
}

func (o *Orchestrator) ListRunningWeeks() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	weeks := make([]string, 0, len(o.pipelines))
	for weekID, pipeline := range o.pipelines {
		if pipeline.IsRunning() {
			weeks = append(weeks, weekID)
		}
	}
	sort.Strings(weeks)
	return weeks
}

// Publisher publishes onto the orchestrator's bus, e.g. after readings are ingested over HTTP.
func (o *Orchestrator) Publisher() *events.Publisher {
	return o.publisher
}

func (o *Orchestrator) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventType)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}

func (o *Orchestrator) UnsubscribeEvents(ch <-chan *models.Event) {
	o.eventBus.Unsubscribe(ch)
}
