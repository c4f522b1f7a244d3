package models

import "time"

// ReadingBatch is the payload of a readings_collected event.
type ReadingBatch struct {
	WeekID      string             `json:"week_id"`
	CollectedAt time.Time          `json:"collected_at"`
	Readings    []OccupancyReading `json:"readings"`
}

// RejectedReading describes a reading excluded from aggregation. Day is kept as
// text because the offending value may not be a valid day.
type RejectedReading struct {
	Index     int    `json:"index"`
	Day       string `json:"day"`
	Hour      int    `json:"hour"`
	Occupancy int    `json:"occupancy"`
	Reason    string `json:"reason"`
}

// WeekSummary is the dense summary set of a week, as pushed to subscribers.
type WeekSummary struct {
	WeekID      string                   `json:"week_id"`
	Days        []Day                    `json:"days"`
	Summaries   []HourlyOccupancySummary `json:"summaries"`
	Accepted    int                      `json:"accepted"`
	Rejected    int                      `json:"rejected"`
	RefreshedAt time.Time                `json:"refreshed_at"`
}
