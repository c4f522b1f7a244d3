package simulator

import (
	"math/rand"

	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// Pattern shapes the expected headcount of an hour from the pool's base occupancy.
type Pattern interface {
	Apply(base float64, day models.Day, hour int, rng *rand.Rand) float64
	Name() string
}

var (
	PatternSteady      Pattern = &SteadyPattern{}
	PatternWeekdayPeak Pattern = &WeekdayPeakPattern{}
	PatternWeekend     Pattern = &WeekendPattern{}
	PatternRandom      Pattern = &RandomPattern{}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "weekday_peak":
		return PatternWeekdayPeak
	case "weekend":
		return PatternWeekend
	case "random":
		return PatternRandom
	default:
		return PatternSteady
	}
}

func PatternNames() []string {
	return []string{"steady", "weekday_peak", "weekend", "random"}
}

// SteadyPattern - constant load
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(base float64, _ models.Day, _ int, _ *rand.Rand) float64 {
	return base
}

func (p *SteadyPattern) Name() string {
	return "steady"
}

// WeekdayPeakPattern - lane swimmers before work and after work, quiet at midday
type WeekdayPeakPattern struct{}

func (p *WeekdayPeakPattern) Apply(base float64, day models.Day, hour int, _ *rand.Rand) float64 {
	if day == models.Saturday || day == models.Sunday {
		return base * 0.8
	}

	var modifier float64
	switch {
	case hour >= 7 && hour <= 8:
		modifier = 1.5
	case hour >= 17 && hour <= 19:
		modifier = 1.6
	case hour >= 12 && hour <= 13:
		modifier = 1.1
	case hour >= 9 && hour <= 11:
		modifier = 0.6
	default:
		modifier = 0.8
	}
	return base * modifier
}

func (p *WeekdayPeakPattern) Name() string {
	return "weekday_peak"
}

// WeekendPattern - families fill the pool from late morning on weekends
type WeekendPattern struct{}

func (p *WeekendPattern) Apply(base float64, day models.Day, hour int, _ *rand.Rand) float64 {
	if day != models.Saturday && day != models.Sunday {
		return base * 0.7
	}

	switch {
	case hour >= 11 && hour <= 15:
		return base * 1.8
	case hour >= 9 && hour <= 17:
		return base * 1.3
	default:
		return base
	}
}

func (p *WeekendPattern) Name() string {
	return "weekend"
}

// RandomPattern - unpredictable spikes and drops
type RandomPattern struct{}

func (p *RandomPattern) Apply(base float64, _ models.Day, _ int, rng *rand.Rand) float64 {
	// Random modifier between 0.3 and 1.7
	return base * (0.3 + rng.Float64()*1.4)
}

func (p *RandomPattern) Name() string {
	return "random"
}
