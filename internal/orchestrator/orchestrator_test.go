package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/internal/collector"
	"github.com/OldStager01/pool-occupancy/internal/events"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/service"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/config"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

const week = "2024-W05"

type recordingSink struct {
	mu    sync.Mutex
	count int
}

func (s *recordingSink) InsertBatch(ctx context.Context, weekID string, readings []models.OccupancyReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count += len(readings)
	return nil
}

func (s *recordingSink) stored() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func newTestOrchestrator(t *testing.T, sink *recordingSink, capacityFlat int) *Orchestrator {
	t.Helper()
	cfg := &config.Config{
		Refresh: config.RefreshConfig{Interval: 50 * time.Millisecond},
		Events:  config.EventsConfig{BufferSize: 100},
	}
	svc := service.New(service.Config{
		Engine: aggregator.New(aggregator.Config{
			Domain:   timedomain.Default(),
			Capacity: capacity.Flat(capacityFlat),
		}),
	})
	var o *Orchestrator
	if sink == nil {
		o = New(cfg, svc, nil, metrics.New())
	} else {
		o = New(cfg, svc, sink, metrics.New())
	}
	require.NoError(t, o.Start())
	t.Cleanup(o.Stop)
	return o
}

func waitFor(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestOrchestrator_RefreshPublishesDenseWeek(t *testing.T) {
	sink := &recordingSink{}
	o := newTestOrchestrator(t, sink, 50)
	refreshed := o.SubscribeEvents(models.EventTypeSummaryRefreshed)
	rejected := o.SubscribeEvents(models.EventTypeReadingsRejected)

	coll := collector.NewMockCollector(collector.MockCollectorConfig{SamplesPerHour: 2})
	coll.AddReadings(week, models.OccupancyReading{Day: models.Monday, Hour: 9, Occupancy: -4})

	require.NoError(t, o.StartWeek(week, coll))
	assert.Error(t, o.StartWeek(week, coll))

	e := waitFor(t, refreshed)
	summary, ok := e.Data.(*models.WeekSummary)
	require.True(t, ok)
	assert.Equal(t, week, summary.WeekID)
	assert.Equal(t, 1, summary.Rejected)
	assert.Len(t, summary.Days, 7)

	domain := timedomain.Default()
	expected := 0
	for _, day := range domain.Days() {
		expected += len(domain.ValidHours(day))
	}
	assert.Len(t, summary.Summaries, expected)

	r := waitFor(t, rejected)
	assert.Equal(t, models.SeverityWarning, r.Severity)

	assert.Eventually(t, func() bool { return sink.stored() > 0 }, 2*time.Second, 10*time.Millisecond)

	running, err := o.GetWeekStatus(week)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, []string{week}, o.ListRunningWeeks())

	report, err := o.LastReport(week)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, expected, report.Week.Len())

	require.NoError(t, o.StopWeek(week))
	assert.ErrorIs(t, o.StopWeek(week), ErrPipelineNotFound)
	_, err = o.GetWeekStatus(week)
	assert.ErrorIs(t, err, ErrPipelineNotFound)
}

func TestOrchestrator_CollectionFailurePublishesError(t *testing.T) {
	o := newTestOrchestrator(t, nil, 50)
	errs := o.SubscribeEvents(models.EventTypeError)

	coll := collector.NewMockCollector(collector.MockCollectorConfig{})
	coll.SetShouldFail(true, errors.New("feed down"))

	require.NoError(t, o.StartWeek(week, coll))

	e := waitFor(t, errs)
	assert.Equal(t, models.SeverityCritical, e.Severity)
	assert.Equal(t, week, e.WeekID)

	assert.Eventually(t, func() bool {
		_, err := o.LastReport(week)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOrchestrator_RefreshOnce_AlertsAtCapacity(t *testing.T) {
	o := newTestOrchestrator(t, nil, 10)
	alerts := o.SubscribeEvents(models.EventTypeAlert)

	coll := collector.NewMockCollector(collector.MockCollectorConfig{BaseOccupancy: 25, SamplesPerHour: 1})

	report, err := o.RefreshOnce(context.Background(), week, coll)
	require.NoError(t, err)

	s, ok := report.Week.Lookup(models.Monday, 9)
	require.True(t, ok)
	assert.Equal(t, 25, s.MaxOccupancy)
	assert.Equal(t, 100.0, s.UtilizationRate)
	assert.Equal(t, 0.0, s.RemainingCapacity)

	e := waitFor(t, alerts)
	assert.Equal(t, "Pool at capacity", e.Message)
	assert.Empty(t, o.ListRunningWeeks())
}

func TestPipeline_RestartKeepsTicking(t *testing.T) {
	bus := events.NewEventBus(100)
	defer bus.Close()

	coll := collector.NewMockCollector(collector.MockCollectorConfig{SamplesPerHour: 1})
	p := NewPipeline(PipelineConfig{
		WeekID:          week,
		RefreshInterval: 20 * time.Millisecond,
		Collector:       coll,
		Service: service.New(service.Config{
			Engine: aggregator.New(aggregator.Config{Domain: timedomain.Default(), Capacity: capacity.Flat(50)}),
		}),
		EventPublisher: events.NewPublisher(bus),
		Metrics:        metrics.New(),
	})

	require.NoError(t, p.Start())
	assert.Eventually(t, func() bool { return coll.Calls() >= 1 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()
	assert.False(t, p.IsRunning())

	stopped := coll.Calls()
	require.NoError(t, p.Start())
	defer p.Stop()
	assert.True(t, p.IsRunning())

	// A restarted pipeline keeps refreshing on its ticker, not just once.
	assert.Eventually(t, func() bool { return coll.Calls() >= stopped+3 }, 2*time.Second, 5*time.Millisecond)

	report, err := p.Last()
	require.NoError(t, err)
	require.NotNil(t, report)
}
