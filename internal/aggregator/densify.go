package aggregator

import (
	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// Densify returns exactly one summary per valid hour of day, ascending by hour.
// Hours without a sparse summary are zero-filled with the slot capacity.
func (e *Engine) Densify(sparse []models.HourlyOccupancySummary, day models.Day) []models.HourlyOccupancySummary {
	byHour := make(map[int]models.HourlyOccupancySummary)
	for _, s := range sparse {
		if s.Day != day {
			continue
		}
		if _, seen := byHour[s.Hour]; !seen {
			byHour[s.Hour] = s
		}
	}

	hours := e.domain.ValidHours(day)
	dense := make([]models.HourlyOccupancySummary, 0, len(hours))
	for _, h := range hours {
		if s, ok := byHour[h]; ok {
			dense = append(dense, s)
			continue
		}
		dense = append(dense, models.EmptySummary(day, h, capacity.Resolve(e.capacity, day, h)))
	}
	return dense
}

// Week is the dense summary set of every domain day with constant-time lookup.
type Week struct {
	days  []models.Day
	byDay map[models.Day][]models.HourlyOccupancySummary
	index map[bucketKey]int
}

func (e *Engine) Week(sparse []models.HourlyOccupancySummary) *Week {
	w := &Week{
		days:  e.domain.Days(),
		byDay: make(map[models.Day][]models.HourlyOccupancySummary),
		index: make(map[bucketKey]int),
	}
	for _, day := range w.days {
		dense := e.Densify(sparse, day)
		w.byDay[day] = dense
		for i, s := range dense {
			w.index[bucketKey{day: day, hour: s.Hour}] = i
		}
	}
	return w
}

// Lookup returns the summary of a valid (day, hour) pair.
func (w *Week) Lookup(day models.Day, hour int) (models.HourlyOccupancySummary, bool) {
	i, ok := w.index[bucketKey{day: day, hour: hour}]
	if !ok {
		return models.HourlyOccupancySummary{}, false
	}
	return w.byDay[day][i], true
}

// Day returns the dense summaries of one day. The slice must not be modified.
func (w *Week) Day(day models.Day) []models.HourlyOccupancySummary {
	return w.byDay[day]
}

func (w *Week) Days() []models.Day {
	return append([]models.Day(nil), w.days...)
}

// All returns every summary in domain day order, then hour order.
func (w *Week) All() []models.HourlyOccupancySummary {
	all := make([]models.HourlyOccupancySummary, 0, len(w.index))
	for _, day := range w.days {
		all = append(all, w.byDay[day]...)
	}
	return all
}

// Len is the number of (day, hour) slots in the week.
func (w *Week) Len() int {
	return len(w.index)
}
