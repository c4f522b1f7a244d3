package severity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrInvalidThresholds = errors.New("severity thresholds must be positive and strictly increasing")

// Bucket is an ordered severity level; a larger value is more severe.
type Bucket int

const (
	Empty Bucket = iota
	VeryLow
	Low
	Medium
	High
	VeryHigh
)

var bucketNames = [...]string{
	Empty:    "empty",
	VeryLow:  "very_low",
	Low:      "low",
	Medium:   "medium",
	High:     "high",
	VeryHigh: "very_high",
}

func Buckets() []Bucket {
	return []Bucket{Empty, VeryLow, Low, Medium, High, VeryHigh}
}

func (b Bucket) String() string {
	if b < Empty || b > VeryHigh {
		return "unknown"
	}
	return bucketNames[b]
}

func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Thresholds are the exclusive upper bounds of the VeryLow, Low, Medium and High buckets.
// They are fixed configuration so colors mean the same thing across weeks and pools.
type Thresholds struct {
	VeryLow int `json:"very_low" mapstructure:"very_low"`
	Low     int `json:"low" mapstructure:"low"`
	Medium  int `json:"medium" mapstructure:"medium"`
	High    int `json:"high" mapstructure:"high"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{VeryLow: 25, Low: 33, Medium: 42, High: 52}
}

func (t Thresholds) Validate() error {
	if t.VeryLow <= 0 || t.Low <= t.VeryLow || t.Medium <= t.Low || t.High <= t.Medium {
		return fmt.Errorf("%w: %d/%d/%d/%d", ErrInvalidThresholds, t.VeryLow, t.Low, t.Medium, t.High)
	}
	return nil
}

// Range is the observed occupancy span of a cell.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t}, nil
}

// Default uses DefaultThresholds.
func Default() *Classifier {
	return &Classifier{thresholds: DefaultThresholds()}
}

func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify buckets a range by its upper bound only.
func (c *Classifier) Classify(r Range) Bucket {
	t := c.thresholds
	switch {
	case r.Max <= 0:
		return Empty
	case r.Max < t.VeryLow:
		return VeryLow
	case r.Max < t.Low:
		return Low
	case r.Max < t.Medium:
		return Medium
	case r.Max < t.High:
		return High
	default:
		return VeryHigh
	}
}

// DisplayText shows a single value when min equals max (nothing for zero), else "min-max".
func DisplayText(r Range) string {
	if r.Min == r.Max {
		if r.Min > 0 {
			return strconv.Itoa(r.Min)
		}
		return ""
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Round is the single rounding rule for values shown to users.
func Round(v float64) int {
	return int(math.Round(v))
}

// LegendItem describes the half-open interval [Lower, Upper) covered by a bucket.
// Upper is nil for the open-ended top bucket.
type LegendItem struct {
	Bucket Bucket `json:"bucket"`
	Lower  int    `json:"lower"`
	Upper  *int   `json:"upper,omitempty"`
}

func (c *Classifier) Legend() []LegendItem {
	t := c.thresholds
	bound := func(v int) *int { return &v }

	return []LegendItem{
		{Bucket: Empty, Lower: 0, Upper: bound(1)},
		{Bucket: VeryLow, Lower: 1, Upper: bound(t.VeryLow)},
		{Bucket: Low, Lower: t.VeryLow, Upper: bound(t.Low)},
		{Bucket: Medium, Lower: t.Low, Upper: bound(t.Medium)},
		{Bucket: High, Lower: t.Medium, Upper: bound(t.High)},
		{Bucket: VeryHigh, Lower: t.High},
	}
}
