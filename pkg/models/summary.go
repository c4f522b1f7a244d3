package models

import (
	"math"
	"time"
)

// HourlyOccupancySummary holds the statistics of one (day, hour) bucket.
//
// AverageOccupancy is kept exact; rounding happens only when display text is produced.
// Date is the calendar date of the earliest reading in the bucket and exists for display
// only. It is not part of the bucket key and is zero for buckets without readings.
type HourlyOccupancySummary struct {
	Day               Day       `json:"day"`
	Hour              int       `json:"hour"`
	MinOccupancy      int       `json:"min_occupancy"`
	MaxOccupancy      int       `json:"max_occupancy"`
	AverageOccupancy  float64   `json:"average_occupancy"`
	MaximumOccupancy  int       `json:"maximum_occupancy"`
	UtilizationRate   float64   `json:"utilization_rate"`
	RemainingCapacity float64   `json:"remaining_capacity"`
	SampleCount       int       `json:"sample_count"`
	Date              time.Time `json:"date"`
}

// NewSummary fills the capacity-relative fields from the raw statistics.
func NewSummary(day Day, hour, min, max int, average float64, capacity, samples int, date time.Time) HourlyOccupancySummary {
	return HourlyOccupancySummary{
		Day:               day,
		Hour:              hour,
		MinOccupancy:      min,
		MaxOccupancy:      max,
		AverageOccupancy:  average,
		MaximumOccupancy:  capacity,
		UtilizationRate:   UtilizationRate(average, capacity),
		RemainingCapacity: RemainingCapacity(average, capacity),
		SampleCount:       samples,
		Date:              date,
	}
}

// EmptySummary is the zero-traffic summary of a bucket with the given capacity.
func EmptySummary(day Day, hour, capacity int) HourlyOccupancySummary {
	return NewSummary(day, hour, 0, 0, 0, capacity, 0, time.Time{})
}

// UtilizationRate is average/capacity as a percentage in [0, 100]; 0 without capacity.
func UtilizationRate(average float64, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	rate := average / float64(capacity) * 100
	return math.Max(0, math.Min(100, rate))
}

func RemainingCapacity(average float64, capacity int) float64 {
	return math.Max(0, float64(capacity)-average)
}

// HasData reports whether the summary was built from at least one reading.
func (s HourlyOccupancySummary) HasData() bool {
	return s.SampleCount > 0
}
