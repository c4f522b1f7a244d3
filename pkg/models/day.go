package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDay = errors.New("unknown day")

// Day is a day of the pool week. The zero value is not a valid day.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// AllDays returns the seven days in week order, Monday first.
func AllDays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Index is the zero-based position of the day in the week.
func (d Day) Index() int {
	return int(d) - 1
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

func ParseDay(s string) (Day, error) {
	name := strings.TrimSpace(s)
	for _, d := range AllDays() {
		if strings.EqualFold(dayNames[d], name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDay, s)
}

func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDay, int(d))
	}
	return []byte(dayNames[d]), nil
}

func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	text, err := d.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownDay, err)
	}
	return d.UnmarshalText([]byte(name))
}
