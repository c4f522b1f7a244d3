// Package heatmap builds the cell functions and grids of the occupancy heatmaps and the
// per-day chart series from a dense week.
package heatmap

import (
	"fmt"
	"strconv"

	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/grid"
	"github.com/OldStager01/pool-occupancy/internal/severity"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// HourLabel formats an hour the way every axis shows it.
func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}

// rangeOf is the observed range of a slot; closed slots hold no readings.
func rangeOf(week *aggregator.Week, day models.Day, hour int) severity.Range {
	s, ok := week.Lookup(day, hour)
	if !ok {
		return severity.Range{}
	}
	return severity.Range{Min: s.MinOccupancy, Max: s.MaxOccupancy}
}

// RawOccupancy colors each cell by its observed min/max headcount.
func RawOccupancy(week *aggregator.Week, c *severity.Classifier) grid.CellFunc {
	return func(day models.Day, hour int) models.CellData {
		r := rangeOf(week, day, hour)
		return models.CellData{
			Color:       c.Classify(r).String(),
			DisplayText: severity.DisplayText(r),
			Title:       fmt.Sprintf("%s %s: min %d, max %d", day, HourLabel(hour), r.Min, r.Max),
		}
	}
}

// Utilization shows the rounded average headcount with a capacity bar underneath.
// Slots outside a day's opening window have no bar.
func Utilization(week *aggregator.Week, c *severity.Classifier) grid.CellFunc {
	return func(day models.Day, hour int) models.CellData {
		s, ok := week.Lookup(day, hour)
		if !ok {
			return models.CellData{
				Color: severity.Empty.String(),
				Title: fmt.Sprintf("%s %s: closed", day, HourLabel(hour)),
			}
		}
		r := severity.Range{Min: s.MinOccupancy, Max: s.MaxOccupancy}

		avg := severity.Round(s.AverageOccupancy)
		text := ""
		if avg > 0 {
			text = strconv.Itoa(avg)
		}

		return models.CellData{
			Color:       c.Classify(r).String(),
			DisplayText: text,
			Title: fmt.Sprintf("%s %s: average %d of %d, %.0f%% used",
				day, HourLabel(hour), avg, s.MaximumOccupancy, s.UtilizationRate),
			ExtraRow: &models.ExtraRow{
				Text:      strconv.Itoa(severity.Round(s.RemainingCapacity)),
				FillRatio: s.UtilizationRate / 100,
			},
		}
	}
}

func RawGrid(week *aggregator.Week, domain *timedomain.Domain, c *severity.Classifier) grid.Grid {
	return grid.Build(domain.Days(), domain.Hours(), RawOccupancy(week, c), false)
}

func UtilizationGrid(week *aggregator.Week, domain *timedomain.Domain, c *severity.Classifier) grid.Grid {
	return grid.Build(domain.Days(), domain.Hours(), Utilization(week, c), true)
}
