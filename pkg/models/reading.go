package models

import "time"

// OccupancyReading is one timestamped headcount observation for a day/hour bucket.
type OccupancyReading struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Day       Day       `json:"day"`
	Hour      int       `json:"hour"`
	Occupancy int       `json:"occupancy"`
}

// NewReading derives day and hour from the timestamp in its own location.
func NewReading(ts time.Time, occupancy int) OccupancyReading {
	return OccupancyReading{
		ID:        NewUUID(),
		Timestamp: ts,
		Day:       DayOf(ts),
		Hour:      ts.Hour(),
		Occupancy: occupancy,
	}
}

// DayOf maps a time.Weekday onto the Monday-first pool week.
func DayOf(t time.Time) Day {
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	return Day(t.Weekday())
}
