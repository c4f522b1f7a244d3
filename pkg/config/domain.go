package config

import (
	"fmt"
	"strings"

	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/internal/severity"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// Domain builds the pool time domain. Viper lower-cases map keys, so day names in
// windows are matched case-insensitively. Windows for days the pool does not report
// on are ignored, since the defaults carry weekend windows.
func (p PoolConfig) Domain() (*timedomain.Domain, error) {
	days := make([]models.Day, 0, len(p.Days))
	for _, name := range p.Days {
		day, err := models.ParseDay(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	listed := make(map[models.Day]bool, len(days))
	for _, day := range days {
		listed[day] = true
	}

	windows := make(map[models.Day]timedomain.Window, len(p.Windows))
	for name, w := range p.Windows {
		day, err := models.ParseDay(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("windows: %w", err)
		}
		if !listed[day] {
			continue
		}
		windows[day] = timedomain.Window{Open: w.Open, Close: w.Close}
	}

	return timedomain.New(days, timedomain.HourRange(p.OpenHour, p.CloseHour), windows)
}

// Table builds the configured capacity table: per-slot entries over a flat default.
func (c CapacityConfig) Table() (capacity.Table, error) {
	if c.Default < 0 {
		return nil, fmt.Errorf("default capacity must not be negative: %d", c.Default)
	}

	var fallback capacity.Table
	if c.Default > 0 {
		fallback = capacity.Flat(c.Default)
	}
	if len(c.Slots) == 0 {
		if fallback == nil {
			return capacity.NewSlots(nil), nil
		}
		return fallback, nil
	}

	slots := capacity.NewSlots(fallback)
	for _, s := range c.Slots {
		day, err := models.ParseDay(s.Day)
		if err != nil {
			return nil, fmt.Errorf("slot: %w", err)
		}
		if s.Hour < 0 || s.Hour > 23 || s.Capacity < 0 {
			return nil, fmt.Errorf("invalid slot %s %d: capacity %d", s.Day, s.Hour, s.Capacity)
		}
		slots.Set(day, s.Hour, s.Capacity)
	}
	return slots, nil
}

func (s SeverityConfig) Thresholds() severity.Thresholds {
	return severity.Thresholds{
		VeryLow: s.VeryLow,
		Low:     s.Low,
		Medium:  s.Medium,
		High:    s.High,
	}
}
