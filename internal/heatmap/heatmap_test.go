package heatmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/internal/severity"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

func testWeek(t *testing.T) (*aggregator.Engine, *aggregator.Week) {
	t.Helper()
	e := aggregator.New(aggregator.Config{Domain: timedomain.Default(), Capacity: capacity.Flat(50)})
	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	result := e.Aggregate([]models.OccupancyReading{
		{Timestamp: ts, Day: models.Monday, Hour: 9, Occupancy: 10},
		{Timestamp: ts, Day: models.Monday, Hour: 9, Occupancy: 24},
		{Timestamp: ts, Day: models.Monday, Hour: 12, Occupancy: 60},
		{Timestamp: ts, Day: models.Monday, Hour: 12, Occupancy: 60},
	})
	require.NoError(t, result.Err())
	return e, e.Week(result.Summaries)
}

func TestRawOccupancy(t *testing.T) {
	_, week := testWeek(t)
	cell := RawOccupancy(week, severity.Default())

	c := cell(models.Monday, 9)
	assert.Equal(t, "very_low", c.Color)
	assert.Equal(t, "10-24", c.DisplayText)
	assert.Equal(t, "Monday 9:00: min 10, max 24", c.Title)
	assert.Nil(t, c.ExtraRow)

	c = cell(models.Monday, 12)
	assert.Equal(t, "very_high", c.Color)
	assert.Equal(t, "60", c.DisplayText)

	c = cell(models.Monday, 10)
	assert.Equal(t, "empty", c.Color)
	assert.Empty(t, c.DisplayText)

	// Outside Sunday's window: no summary at all.
	c = cell(models.Sunday, 20)
	assert.Equal(t, "empty", c.Color)
}

func TestHeatmaps_ReadingInClosedSlotIsRejected(t *testing.T) {
	e := aggregator.New(aggregator.Config{Domain: timedomain.Default(), Capacity: capacity.Flat(50)})
	ts := time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC)

	result := e.Aggregate([]models.OccupancyReading{
		{Timestamp: ts, Day: models.Sunday, Hour: 20, Occupancy: 45},
	})

	// The reading is reported instead of vanishing from the grid.
	require.Len(t, result.Rejected, 1)
	assert.ErrorIs(t, result.Err(), aggregator.ErrHourClosed)
	assert.Zero(t, result.Accepted)
	assert.Empty(t, result.Summaries)

	week := e.Week(result.Summaries)

	raw := RawOccupancy(week, severity.Default())(models.Sunday, 20)
	assert.Equal(t, "empty", raw.Color)

	util := Utilization(week, severity.Default())(models.Sunday, 20)
	assert.Equal(t, "empty", util.Color)
	assert.Empty(t, util.DisplayText)
	assert.Nil(t, util.ExtraRow)
	assert.Equal(t, "Sunday 20:00: closed", util.Title)

	g := UtilizationGrid(week, e.Domain(), severity.Default())
	data, ok := g.Cell(models.Sunday, 20)
	require.True(t, ok)
	assert.Nil(t, data.ExtraRow)
	data, ok = g.Cell(models.Sunday, 18)
	require.True(t, ok)
	require.NotNil(t, data.ExtraRow)
	assert.Equal(t, "50", data.ExtraRow.Text)
}

func TestUtilization(t *testing.T) {
	_, week := testWeek(t)
	cell := Utilization(week, severity.Default())

	c := cell(models.Monday, 9)
	assert.Equal(t, "17", c.DisplayText)
	require.NotNil(t, c.ExtraRow)
	assert.Equal(t, "33", c.ExtraRow.Text)
	assert.InDelta(t, 0.34, c.ExtraRow.FillRatio, 1e-9)

	c = cell(models.Monday, 12)
	require.NotNil(t, c.ExtraRow)
	assert.Equal(t, "0", c.ExtraRow.Text)
	assert.Equal(t, 1.0, c.ExtraRow.FillRatio)

	c = cell(models.Tuesday, 8)
	assert.Empty(t, c.DisplayText)
	assert.Equal(t, "50", c.ExtraRow.Text)
	assert.Zero(t, c.ExtraRow.FillRatio)
}

func TestGrids_CoverDomain(t *testing.T) {
	e, week := testWeek(t)
	d := e.Domain()

	raw := RawGrid(week, d, severity.Default())
	util := UtilizationGrid(week, d, severity.Default())

	assert.Len(t, raw.Rows, len(d.Days()))
	assert.Len(t, util.Rows, len(d.Days()))
	assert.False(t, raw.HasExtraRow)
	assert.True(t, util.HasExtraRow)
	for _, row := range util.Rows {
		assert.Len(t, row.Cells, len(d.Hours()))
		for _, c := range row.Cells {
			assert.Equal(t, d.IsValidHour(row.Day, c.Hour), c.Data.ExtraRow != nil, "%s %d", row.Day, c.Hour)
		}
	}
}

func TestDayChart(t *testing.T) {
	e, week := testWeek(t)

	chart := DayChart(models.Monday, week.Day(models.Monday))

	require.Len(t, chart.Points, len(e.Domain().ValidHours(models.Monday)))
	assert.Equal(t, "7:00", chart.Points[0].Label)
	assert.Equal(t, 9, chart.Points[2].Hour)
	assert.Equal(t, 17.0, chart.Points[2].Average)
	assert.Equal(t, 50, chart.Points[2].Maximum)
	assert.Equal(t, 60.0, chart.MaxValue)

	empty := DayChart(models.Sunday, nil)
	assert.Empty(t, empty.Points)
	assert.Zero(t, empty.MaxValue)
}
