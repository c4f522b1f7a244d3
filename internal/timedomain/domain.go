// Package timedomain defines the days and opening hours every summary and grid is built over.
package timedomain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OldStager01/pool-occupancy/pkg/models"
)

var (
	ErrNoDays        = errors.New("time domain needs at least one day")
	ErrNoHours       = errors.New("time domain needs at least one hour")
	ErrDuplicateDay  = errors.New("duplicate day")
	ErrInvalidHours  = errors.New("hours must be strictly ascending within 0-23")
	ErrInvalidWindow = errors.New("invalid opening window")
)

// Window is an inclusive range of opening hours.
type Window struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

func (w Window) Contains(hour int) bool {
	return hour >= w.Open && hour <= w.Close
}

// Domain is immutable once built; accessors hand out copies.
type Domain struct {
	days       []models.Day
	hours      []int
	hourSet    map[int]bool
	daySet     map[models.Day]bool
	validHours map[models.Day][]int
}

// New builds a domain. Days without a window are open for every canonical hour.
func New(days []models.Day, hours []int, windows map[models.Day]Window) (*Domain, error) {
	if len(days) == 0 {
		return nil, ErrNoDays
	}
	if len(hours) == 0 {
		return nil, ErrNoHours
	}

	d := &Domain{
		days:       append([]models.Day(nil), days...),
		hours:      append([]int(nil), hours...),
		hourSet:    make(map[int]bool, len(hours)),
		daySet:     make(map[models.Day]bool, len(days)),
		validHours: make(map[models.Day][]int, len(days)),
	}

	for i, h := range hours {
		if h < 0 || h > 23 || (i > 0 && h <= hours[i-1]) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHours, hours)
		}
		d.hourSet[h] = true
	}

	for _, day := range days {
		if !day.Valid() {
			return nil, fmt.Errorf("%w: %d", models.ErrUnknownDay, int(day))
		}
		if d.daySet[day] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDay, day)
		}
		d.daySet[day] = true
	}

	for day, w := range windows {
		if !d.daySet[day] {
			return nil, fmt.Errorf("%w: %s is not a domain day", ErrInvalidWindow, day)
		}
		if w.Open > w.Close || !d.hourSet[w.Open] || !d.hourSet[w.Close] {
			return nil, fmt.Errorf("%w: %s %d-%d", ErrInvalidWindow, day, w.Open, w.Close)
		}
	}

	for _, day := range days {
		w, restricted := windows[day]
		valid := make([]int, 0, len(hours))
		for _, h := range hours {
			if !restricted || w.Contains(h) {
				valid = append(valid, h)
			}
		}
		d.validHours[day] = valid
	}

	return d, nil
}

// Default is the standard pool week: open 7:00-20:00 on weekdays, 8:00-18:00 at weekends.
func Default() *Domain {
	d, err := New(models.AllDays(), HourRange(7, 20), map[models.Day]Window{
		models.Saturday: {Open: 8, Close: 18},
		models.Sunday:   {Open: 8, Close: 18},
	})
	if err != nil {
		panic(err)
	}
	return d
}

// HourRange returns the inclusive hours from..to.
func HourRange(from, to int) []int {
	if to < from {
		return nil
	}
	hours := make([]int, 0, to-from+1)
	for h := from; h <= to; h++ {
		hours = append(hours, h)
	}
	return hours
}

func (d *Domain) Days() []models.Day {
	return append([]models.Day(nil), d.days...)
}

// Hours returns the canonical hour set in ascending order.
func (d *Domain) Hours() []int {
	return append([]int(nil), d.hours...)
}

// ValidHours returns the opening hours of a day, ascending. Unknown days have none.
func (d *Domain) ValidHours(day models.Day) []int {
	return append([]int(nil), d.validHours[day]...)
}

func (d *Domain) HasDay(day models.Day) bool {
	return d.daySet[day]
}

// InDomain reports whether hour belongs to the canonical hour set.
func (d *Domain) InDomain(hour int) bool {
	return d.hourSet[hour]
}

func (d *Domain) IsValidHour(day models.Day, hour int) bool {
	hours := d.validHours[day]
	i := sort.SearchInts(hours, hour)
	return i < len(hours) && hours[i] == hour
}

// DayOrder returns the position of day in the domain, or -1.
func (d *Domain) DayOrder(day models.Day) int {
	for i, dd := range d.days {
		if dd == day {
			return i
		}
	}
	return -1
}
