package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSummary_CapacityFields(t *testing.T) {
	tests := []struct {
		name              string
		average           float64
		capacity          int
		expectedRate      float64
		expectedRemaining float64
	}{
		{name: "half full", average: 25, capacity: 50, expectedRate: 50, expectedRemaining: 25},
		{name: "no capacity", average: 10, capacity: 0, expectedRate: 0, expectedRemaining: 0},
		{name: "over capacity clamps", average: 80, capacity: 50, expectedRate: 100, expectedRemaining: 0},
		{name: "empty pool", average: 0, capacity: 40, expectedRate: 0, expectedRemaining: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummary(Monday, 9, 0, 100, tt.average, tt.capacity, 1, time.Time{})

			assert.InDelta(t, tt.expectedRate, s.UtilizationRate, 1e-9)
			assert.InDelta(t, tt.expectedRemaining, s.RemainingCapacity, 1e-9)
			assert.GreaterOrEqual(t, s.UtilizationRate, 0.0)
			assert.LessOrEqual(t, s.UtilizationRate, 100.0)
		})
	}
}

func TestEmptySummary(t *testing.T) {
	s := EmptySummary(Tuesday, 10, 50)

	assert.Equal(t, Tuesday, s.Day)
	assert.Equal(t, 10, s.Hour)
	assert.Zero(t, s.MinOccupancy)
	assert.Zero(t, s.MaxOccupancy)
	assert.Zero(t, s.AverageOccupancy)
	assert.Equal(t, 50, s.MaximumOccupancy)
	assert.Zero(t, s.UtilizationRate)
	assert.Equal(t, 50.0, s.RemainingCapacity)
	assert.False(t, s.HasData())
}

func TestEvent_Builders(t *testing.T) {
	e := NewEvent(EventTypeSummaryRefreshed, "2024-W01", "refreshed").
		WithSeverity(SeverityWarning).
		WithData(map[string]int{"rejected": 2}).
		WithTraceID("trace-1")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "2024-W01", e.WeekID)
	assert.Equal(t, SeverityWarning, e.Severity)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.NotNil(t, e.Data)
}

func TestReadingID_Stable(t *testing.T) {
	ts := time.Date(2024, 1, 29, 9, 30, 0, 0, time.UTC)

	id := ReadingID("2024-W05", ts)
	assert.Equal(t, id, ReadingID("2024-W05", ts.In(time.FixedZone("CET", 3600))))
	assert.NotEqual(t, id, ReadingID("2024-W06", ts))
	assert.NotEqual(t, id, ReadingID("2024-W05", ts.Add(time.Second)))
	assert.NotEqual(t, NewUUID(), NewUUID())
}
