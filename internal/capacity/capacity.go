package capacity

import (
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// Table provides the configured maximum occupancy of a (day, hour) slot.
type Table interface {
	MaximumOccupancy(day models.Day, hour int) (int, bool)
}

// Resolve returns the slot capacity, or 0 when the table has no entry.
func Resolve(t Table, day models.Day, hour int) int {
	if t == nil {
		return 0
	}
	if c, ok := t.MaximumOccupancy(day, hour); ok && c > 0 {
		return c
	}
	return 0
}

// Flat applies the same capacity to every slot.
type Flat int

func (f Flat) MaximumOccupancy(models.Day, int) (int, bool) {
	return int(f), true
}

type Slot struct {
	Day  models.Day
	Hour int
}

// Slots is a per-slot capacity table with an optional fallback for unlisted slots.
type Slots struct {
	entries  map[Slot]int
	fallback Table
}

func NewSlots(fallback Table) *Slots {
	return &Slots{
		entries:  make(map[Slot]int),
		fallback: fallback,
	}
}

func (s *Slots) Set(day models.Day, hour, capacity int) *Slots {
	s.entries[Slot{Day: day, Hour: hour}] = capacity
	return s
}

func (s *Slots) Len() int {
	return len(s.entries)
}

func (s *Slots) MaximumOccupancy(day models.Day, hour int) (int, bool) {
	if c, ok := s.entries[Slot{Day: day, Hour: hour}]; ok {
		return c, true
	}
	if s.fallback != nil {
		return s.fallback.MaximumOccupancy(day, hour)
	}
	return 0, false
}
