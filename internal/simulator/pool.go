package simulator

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
	"github.com/OldStager01/pool-occupancy/pkg/validation"
)

type PoolSimConfig struct {
	Domain         *timedomain.Domain
	BaseOccupancy  float64
	Variance       float64
	SamplesPerHour int
	Location       *time.Location
}

// PoolSim generates a week of readings. Output depends only on the week id and
// the current settings.
type PoolSim struct {
	domain         *timedomain.Domain
	baseOccupancy  float64
	variance       float64
	samplesPerHour int
	location       *time.Location
	pattern        Pattern
	spikes         []Spike
	mu             sync.RWMutex
}

// Spike adds a fixed headcount to one (day, hour) slot, such as a school class.
type Spike struct {
	Day   models.Day `json:"day"`
	Hour  int        `json:"hour"`
	Extra int        `json:"extra"`
}

func NewPoolSim(cfg PoolSimConfig) *PoolSim {
	if cfg.Domain == nil {
		cfg.Domain = timedomain.Default()
	}
	if cfg.BaseOccupancy <= 0 {
		cfg.BaseOccupancy = 25
	}
	if cfg.Variance < 0 {
		cfg.Variance = 0
	}
	if cfg.SamplesPerHour <= 0 {
		cfg.SamplesPerHour = 4
	}
	if cfg.SamplesPerHour > 60 {
		cfg.SamplesPerHour = 60
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &PoolSim{
		domain:         cfg.Domain,
		baseOccupancy:  cfg.BaseOccupancy,
		variance:       cfg.Variance,
		samplesPerHour: cfg.SamplesPerHour,
		location:       cfg.Location,
		pattern:        PatternSteady,
	}
}

// Week returns readings for every valid hour of the domain in the given ISO week.
func (p *PoolSim) Week(weekID string) ([]models.OccupancyReading, error) {
	start, err := validation.WeekStart(weekID)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	rng := rand.New(rand.NewSource(p.seed(weekID)))
	step := time.Hour / time.Duration(p.samplesPerHour)

	var readings []models.OccupancyReading
	for _, day := range p.domain.Days() {
		date := time.Date(start.Year(), start.Month(), start.Day()+day.Index(), 0, 0, 0, 0, p.location)
		for _, hour := range p.domain.ValidHours(day) {
			expected := p.pattern.Apply(p.baseOccupancy, day, hour, rng) + float64(p.spikeAt(day, hour))
			for i := 0; i < p.samplesPerHour; i++ {
				ts := date.Add(time.Duration(hour)*time.Hour + time.Duration(i)*step)
				readings = append(readings, models.OccupancyReading{
					ID:        models.ReadingID(weekID, ts),
					Timestamp: ts,
					Day:       day,
					Hour:      hour,
					Occupancy: p.sample(expected, rng),
				})
			}
		}
	}

	return readings, nil
}

func (p *PoolSim) seed(weekID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(weekID))
	h.Write([]byte(p.pattern.Name()))
	return int64(h.Sum64())
}

func (p *PoolSim) sample(expected float64, rng *rand.Rand) int {
	value := expected + (rng.Float64()*2-1)*p.variance
	if value < 0 {
		return 0
	}
	return int(math.Round(value))
}

func (p *PoolSim) spikeAt(day models.Day, hour int) int {
	extra := 0
	for _, s := range p.spikes {
		if s.Day == day && s.Hour == hour {
			extra += s.Extra
		}
	}
	return extra
}

func (p *PoolSim) SetBaseOccupancy(base float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if base > 0 {
		p.baseOccupancy = base
	}
}

func (p *PoolSim) SetVariance(variance float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if variance >= 0 {
		p.variance = variance
	}
}

func (p *PoolSim) SetPattern(pattern Pattern) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pattern = pattern
}

func (p *PoolSim) GetPattern() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pattern.Name()
}

func (p *PoolSim) InjectSpike(s Spike) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spikes = append(p.spikes, s)
}

func (p *PoolSim) ClearSpikes() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spikes = nil
}

func (p *PoolSim) Status() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"base_occupancy":   p.baseOccupancy,
		"variance":         p.variance,
		"samples_per_hour": p.samplesPerHour,
		"pattern":          p.pattern.Name(),
		"spikes":           append([]Spike(nil), p.spikes...),
	}
}
