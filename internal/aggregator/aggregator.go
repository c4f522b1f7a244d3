package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

var (
	ErrHourOutOfDomain   = errors.New("hour outside the canonical hour domain")
	ErrHourClosed        = errors.New("hour outside the day's opening window")
	ErrUnknownDay        = errors.New("day outside the time domain")
	ErrNegativeOccupancy = errors.New("negative occupancy")
)

type Config struct {
	Domain   *timedomain.Domain
	Capacity capacity.Table
}

// Engine turns raw readings into hourly summaries. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	domain   *timedomain.Domain
	capacity capacity.Table
}

func New(cfg Config) *Engine {
	if cfg.Domain == nil {
		cfg.Domain = timedomain.Default()
	}
	return &Engine{
		domain:   cfg.Domain,
		capacity: cfg.Capacity,
	}
}

func (e *Engine) Domain() *timedomain.Domain {
	return e.domain
}

// WithCapacity returns an engine over the same domain that resolves capacity from t.
func (e *Engine) WithCapacity(t capacity.Table) *Engine {
	return &Engine{domain: e.domain, capacity: t}
}

// Filter splits readings into those aggregation would accept and those it would reject.
func (e *Engine) Filter(readings []models.OccupancyReading) ([]models.OccupancyReading, []*ReadingError) {
	accepted := make([]models.OccupancyReading, 0, len(readings))
	var rejected []*ReadingError
	for i, r := range readings {
		if err := e.Check(r); err != nil {
			rejected = append(rejected, &ReadingError{Index: i, Reading: r, Err: err})
			continue
		}
		accepted = append(accepted, r)
	}
	return accepted, rejected
}

// ReadingError reports a reading that was excluded from aggregation.
type ReadingError struct {
	Index   int
	Reading models.OccupancyReading
	Err     error
}

func (e *ReadingError) Error() string {
	return fmt.Sprintf("reading %d (%s %d:00, occupancy %d): %v",
		e.Index, e.Reading.Day, e.Reading.Hour, e.Reading.Occupancy, e.Err)
}

func (e *ReadingError) Unwrap() error {
	return e.Err
}

// Result is the sparse aggregation output. Summaries are ordered by domain day, then hour.
type Result struct {
	Summaries []models.HourlyOccupancySummary `json:"summaries"`
	Rejected  []*ReadingError                 `json:"-"`
	Accepted  int                             `json:"accepted"`
}

// Err joins every rejected reading, or returns nil when all readings were accepted.
func (r *Result) Err() error {
	if len(r.Rejected) == 0 {
		return nil
	}
	errs := make([]error, len(r.Rejected))
	for i, re := range r.Rejected {
		errs[i] = re
	}
	return errors.Join(errs...)
}

// Rejections describes every rejected reading for clients and event payloads.
func Rejections(rejected []*ReadingError) []models.RejectedReading {
	out := make([]models.RejectedReading, len(rejected))
	for i, re := range rejected {
		out[i] = models.RejectedReading{
			Index:     re.Index,
			Day:       re.Reading.Day.String(),
			Hour:      re.Reading.Hour,
			Occupancy: re.Reading.Occupancy,
			Reason:    re.Err.Error(),
		}
	}
	return out
}

type bucketKey struct {
	day  models.Day
	hour int
}

type bucket struct {
	min, max int
	sum      float64
	count    int
	earliest time.Time
}

// Aggregate groups readings by (day, hour). Buckets without readings are absent.
func (e *Engine) Aggregate(readings []models.OccupancyReading) *Result {
	result := &Result{}
	buckets := make(map[bucketKey]*bucket)

	for i, r := range readings {
		if err := e.Check(r); err != nil {
			result.Rejected = append(result.Rejected, &ReadingError{Index: i, Reading: r, Err: err})
			continue
		}
		result.Accepted++

		key := bucketKey{day: r.Day, hour: r.Hour}
		b, ok := buckets[key]
		if !ok {
			buckets[key] = &bucket{
				min:      r.Occupancy,
				max:      r.Occupancy,
				sum:      float64(r.Occupancy),
				count:    1,
				earliest: r.Timestamp,
			}
			continue
		}

		if r.Occupancy < b.min {
			b.min = r.Occupancy
		}
		if r.Occupancy > b.max {
			b.max = r.Occupancy
		}
		b.sum += float64(r.Occupancy)
		b.count++
		if r.Timestamp.Before(b.earliest) {
			b.earliest = r.Timestamp
		}
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := e.domain.DayOrder(keys[i].day), e.domain.DayOrder(keys[j].day)
		if oi != oj {
			return oi < oj
		}
		return keys[i].hour < keys[j].hour
	})

	result.Summaries = make([]models.HourlyOccupancySummary, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		avg := b.sum / float64(b.count)
		result.Summaries = append(result.Summaries, models.NewSummary(
			k.day, k.hour, b.min, b.max, avg,
			capacity.Resolve(e.capacity, k.day, k.hour),
			b.count, calendarDate(b.earliest),
		))
	}

	return result
}

// Check reports why a reading would be excluded from aggregation, or nil.
func (e *Engine) Check(r models.OccupancyReading) error {
	switch {
	case !e.domain.HasDay(r.Day):
		return ErrUnknownDay
	case !e.domain.InDomain(r.Hour):
		return ErrHourOutOfDomain
	case !e.domain.IsValidHour(r.Day, r.Hour):
		return ErrHourClosed
	case r.Occupancy < 0:
		return ErrNegativeOccupancy
	}
	return nil
}

func calendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
