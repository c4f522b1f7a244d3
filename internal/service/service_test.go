package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
	"github.com/OldStager01/pool-occupancy/pkg/validation"
)

type memoryStore struct {
	readings map[string][]models.OccupancyReading
	loadErr  error
	saveErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{readings: make(map[string][]models.OccupancyReading)}
}

func (m *memoryStore) ReadingsForWeek(ctx context.Context, weekID string) ([]models.OccupancyReading, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.readings[weekID], nil
}

func (m *memoryStore) InsertBatch(ctx context.Context, weekID string, readings []models.OccupancyReading) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.readings[weekID] = append(m.readings[weekID], readings...)
	return nil
}

type staticCapacity struct {
	slots map[capacity.Slot]int
	err   error
	loads int
}

func (s *staticCapacity) Load(ctx context.Context, fallback capacity.Table) (*capacity.Slots, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	out := capacity.NewSlots(fallback)
	for slot, c := range s.slots {
		out.Set(slot.Day, slot.Hour, c)
	}
	return out, nil
}

var weekStart = time.Date(2024, time.January, 29, 0, 0, 0, 0, time.UTC)

func at(day models.Day, hour, occupancy int) models.OccupancyReading {
	ts := weekStart.AddDate(0, 0, day.Index()).Add(time.Duration(hour) * time.Hour)
	return models.OccupancyReading{Timestamp: ts, Day: day, Hour: hour, Occupancy: occupancy}
}

func newTestService(store *memoryStore, caps CapacitySource) *Service {
	return New(Config{
		Engine:   aggregator.New(aggregator.Config{Domain: timedomain.Default(), Capacity: capacity.Flat(50)}),
		Source:   store,
		Sink:     store,
		Capacity: caps,
		Fallback: capacity.Flat(50),
		Metrics:  metrics.New(),
	})
}

func TestService_Week(t *testing.T) {
	store := newMemoryStore()
	store.readings["2024-W05"] = []models.OccupancyReading{
		at(models.Monday, 9, 20),
		at(models.Monday, 9, 30),
		at(models.Monday, 22, 10),
		at(models.Tuesday, 10, -1),
	}
	svc := newTestService(store, nil)

	report, err := svc.Week(context.Background(), "2024-W05")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Accepted)
	assert.Len(t, report.Rejected, 2)
	require.Len(t, report.Sparse, 1)

	s, ok := report.Week.Lookup(models.Monday, 9)
	require.True(t, ok)
	assert.Equal(t, 20, s.MinOccupancy)
	assert.Equal(t, 30, s.MaxOccupancy)
	assert.InDelta(t, 25.0, s.AverageOccupancy, 1e-9)
	assert.Equal(t, 50, s.MaximumOccupancy)

	empty, ok := report.Week.Lookup(models.Sunday, 12)
	require.True(t, ok)
	assert.False(t, empty.HasData())
	assert.Equal(t, 50, empty.MaximumOccupancy)

	summary := report.Summary()
	assert.Equal(t, "2024-W05", summary.WeekID)
	assert.Equal(t, report.Week.Len(), len(summary.Summaries))
	assert.Equal(t, 2, summary.Rejected)
}

func TestService_Week_EmptyWeekIsFullyZeroFilled(t *testing.T) {
	svc := newTestService(newMemoryStore(), nil)

	report, err := svc.Week(context.Background(), "2024-W06")
	require.NoError(t, err)

	domain := svc.Domain()
	expected := 0
	for _, day := range domain.Days() {
		expected += len(domain.ValidHours(day))
	}
	assert.Equal(t, expected, report.Week.Len())
	assert.Empty(t, report.Sparse)
	for _, s := range report.Week.All() {
		assert.Equal(t, 0, s.SampleCount)
	}
}

func TestService_Week_CapacityFromSource(t *testing.T) {
	store := newMemoryStore()
	store.readings["2024-W05"] = []models.OccupancyReading{at(models.Monday, 9, 40)}
	caps := &staticCapacity{slots: map[capacity.Slot]int{{Day: models.Monday, Hour: 9}: 80}}
	svc := newTestService(store, caps)

	report, err := svc.Week(context.Background(), "2024-W05")
	require.NoError(t, err)

	s, _ := report.Week.Lookup(models.Monday, 9)
	assert.Equal(t, 80, s.MaximumOccupancy)
	assert.InDelta(t, 50.0, s.UtilizationRate, 1e-9)

	other, _ := report.Week.Lookup(models.Monday, 10)
	assert.Equal(t, 50, other.MaximumOccupancy)
	assert.Equal(t, 1, caps.loads)
}

func TestService_Week_Errors(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil)

	_, err := svc.Week(context.Background(), "week five")
	assert.ErrorIs(t, err, validation.ErrInvalidWeekID)

	store.loadErr = errors.New("connection refused")
	_, err = svc.Week(context.Background(), "2024-W05")
	assert.ErrorIs(t, err, store.loadErr)

	store.loadErr = nil
	capErr := errors.New("capacity table missing")
	_, err = newTestService(store, &staticCapacity{err: capErr}).Week(context.Background(), "2024-W05")
	assert.ErrorIs(t, err, capErr)
}

func TestService_Ingest(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil)

	result, err := svc.Ingest(context.Background(), "2024-W05", []models.OccupancyReading{
		at(models.Monday, 9, 20),
		at(models.Monday, 3, 20),
		at(models.Friday, 18, 12),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stored)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 1, result.Rejected[0].Index)
	require.Len(t, store.readings["2024-W05"], 2)
	for _, r := range store.readings["2024-W05"] {
		assert.NotEmpty(t, r.ID)
	}

	report, err := svc.Week(context.Background(), "2024-W05")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Accepted)
	assert.Empty(t, report.Rejected)
}

func TestService_Ingest_Errors(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil)

	result, err := svc.Ingest(context.Background(), "2024-W05", []models.OccupancyReading{at(models.Monday, 9, -5)})
	assert.ErrorIs(t, err, ErrNoValidReadings)
	assert.Len(t, result.Rejected, 1)

	_, err = svc.Ingest(context.Background(), "bad", []models.OccupancyReading{at(models.Monday, 9, 5)})
	assert.ErrorIs(t, err, validation.ErrInvalidWeekID)

	// A padded id would be stored under a different key than "2024-W05".
	_, err = svc.Ingest(context.Background(), "2024-W05 ", []models.OccupancyReading{at(models.Monday, 9, 5)})
	assert.ErrorIs(t, err, validation.ErrInvalidWeekID)
	assert.Empty(t, store.readings["2024-W05 "])

	store.saveErr = errors.New("disk full")
	_, err = svc.Ingest(context.Background(), "2024-W05", []models.OccupancyReading{at(models.Monday, 9, 5)})
	assert.ErrorIs(t, err, store.saveErr)

	_, err = New(Config{Source: store}).Ingest(context.Background(), "2024-W05", nil)
	assert.ErrorIs(t, err, ErrNoReadingSink)
}
