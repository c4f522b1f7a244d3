package heatmap

import (
	"math"

	"github.com/OldStager01/pool-occupancy/pkg/models"
)

type ChartPoint struct {
	Hour              int     `json:"hour"`
	Label             string  `json:"label"`
	Average           float64 `json:"average"`
	Maximum           int     `json:"maximum"`
	UtilizationRate   float64 `json:"utilization_rate"`
	RemainingCapacity float64 `json:"remaining_capacity"`
}

// Chart is the bar chart series of one day. MaxValue scales the value axis.
type Chart struct {
	Day      models.Day   `json:"day"`
	Points   []ChartPoint `json:"points"`
	MaxValue float64      `json:"max_value"`
}

// DayChart expects the dense summaries of a single day.
func DayChart(day models.Day, summaries []models.HourlyOccupancySummary) Chart {
	chart := Chart{Day: day, Points: make([]ChartPoint, 0, len(summaries))}
	for _, s := range summaries {
		chart.Points = append(chart.Points, ChartPoint{
			Hour:              s.Hour,
			Label:             HourLabel(s.Hour),
			Average:           s.AverageOccupancy,
			Maximum:           s.MaximumOccupancy,
			UtilizationRate:   s.UtilizationRate,
			RemainingCapacity: s.RemainingCapacity,
		})
		chart.MaxValue = math.Max(chart.MaxValue, math.Max(s.AverageOccupancy, float64(s.MaximumOccupancy)))
	}
	return chart
}
