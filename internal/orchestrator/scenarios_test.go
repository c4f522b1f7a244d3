package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/pool-occupancy/internal/collector"
	"github.com/OldStager01/pool-occupancy/internal/heatmap"
	"github.com/OldStager01/pool-occupancy/internal/resilience"
	"github.com/OldStager01/pool-occupancy/internal/severity"
	"github.com/OldStager01/pool-occupancy/internal/simulator"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

func newScenarioCollector(pattern string) *collector.MockCollector {
	return collector.NewMockCollector(collector.MockCollectorConfig{
		BaseOccupancy:  30,
		SamplesPerHour: 2,
		Pattern:        pattern,
	})
}

func noEvent(t *testing.T, ch <-chan *models.Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected %s event: %s", e.Type, e.Message)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScenario_WeekdayPeak(t *testing.T) {
	o := newTestOrchestrator(t, nil, 50)
	alerts := o.SubscribeEvents(models.EventTypeAlert)

	report, err := o.RefreshOnce(context.Background(), week, newScenarioCollector("weekday_peak"))
	require.NoError(t, err)

	raw := heatmap.RawGrid(report.Week, timedomain.Default(), severity.Default())

	tests := []struct {
		day  models.Day
		hour int
		want severity.Bucket
		text string
	}{
		{models.Monday, 18, severity.High, "48"},
		{models.Monday, 10, severity.VeryLow, "18"},
		{models.Friday, 7, severity.High, "45"},
		{models.Saturday, 10, severity.VeryLow, "24"},
		// Closed at weekends after 18:00.
		{models.Sunday, 20, severity.Empty, ""},
	}

	for _, tt := range tests {
		cell, ok := raw.Cell(tt.day, tt.hour)
		require.True(t, ok)
		assert.Equal(t, tt.want.String(), cell.Color, "%s %d:00", tt.day, tt.hour)
		assert.Equal(t, tt.text, cell.DisplayText, "%s %d:00", tt.day, tt.hour)
	}

	evening, ok := report.Week.Lookup(models.Wednesday, 18)
	require.True(t, ok)
	assert.InDelta(t, 96.0, evening.UtilizationRate, 1e-9)

	noEvent(t, alerts)
}

func TestScenario_SchoolClassFillsPool(t *testing.T) {
	o := newTestOrchestrator(t, nil, 50)
	alerts := o.SubscribeEvents(models.EventTypeAlert)

	coll := newScenarioCollector("steady")
	coll.Pool().InjectSpike(simulator.Spike{Day: models.Tuesday, Hour: 10, Extra: 25})

	report, err := o.RefreshOnce(context.Background(), week, coll)
	require.NoError(t, err)

	s, ok := report.Week.Lookup(models.Tuesday, 10)
	require.True(t, ok)
	assert.Equal(t, 55, s.MaxOccupancy)
	assert.Equal(t, 100.0, s.UtilizationRate)
	assert.Zero(t, s.RemainingCapacity)

	util := heatmap.UtilizationGrid(report.Week, timedomain.Default(), severity.Default())
	cell, ok := util.Cell(models.Tuesday, 10)
	require.True(t, ok)
	assert.Equal(t, severity.VeryHigh.String(), cell.Color)
	require.NotNil(t, cell.ExtraRow)
	assert.Equal(t, 1.0, cell.ExtraRow.FillRatio)

	e := waitFor(t, alerts)
	full, ok := e.Data.([]models.HourlyOccupancySummary)
	require.True(t, ok)
	require.Len(t, full, 1)
	assert.Equal(t, models.Tuesday, full[0].Day)
	assert.Equal(t, 10, full[0].Hour)
}

func TestScenario_WeekendCrowd(t *testing.T) {
	o := newTestOrchestrator(t, nil, 50)
	alerts := o.SubscribeEvents(models.EventTypeAlert)

	report, err := o.RefreshOnce(context.Background(), week, newScenarioCollector("weekend"))
	require.NoError(t, err)

	saturday := heatmap.DayChart(models.Saturday, report.Week.Day(models.Saturday))
	assert.Len(t, saturday.Points, 11)
	assert.Equal(t, 54.0, saturday.MaxValue)

	monday, ok := report.Week.Lookup(models.Monday, 12)
	require.True(t, ok)
	assert.Equal(t, 21.0, monday.AverageOccupancy)

	e := waitFor(t, alerts)
	full, ok := e.Data.([]models.HourlyOccupancySummary)
	require.True(t, ok)
	// 11:00-15:00 on both weekend days.
	assert.Len(t, full, 10)
}

func TestScenario_CollectorFailureAndRecovery(t *testing.T) {
	o := newTestOrchestrator(t, nil, 50)

	mock := newScenarioCollector("steady")
	mock.SetShouldFail(true, errors.New("feed unreachable"))

	resilient := collector.NewResilientCollector(collector.ResilientCollectorConfig{
		Collector:     mock,
		MaxFailures:   2,
		Timeout:       50 * time.Millisecond,
		RetryAttempts: 1,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := o.RefreshOnce(ctx, week, resilient)
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, resilient.CircuitState())

	_, err := o.RefreshOnce(ctx, week, resilient)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, mock.Calls())

	mock.SetShouldFail(false, nil)
	time.Sleep(60 * time.Millisecond)

	for i := 0; i < 3; i++ {
		report, err := o.RefreshOnce(ctx, week, resilient)
		require.NoError(t, err)
		assert.Equal(t, report.Week.Len(), len(report.Week.All()))
	}
	assert.Equal(t, resilience.StateClosed, resilient.CircuitState())
}
