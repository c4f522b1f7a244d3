package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidWeekID indicates a week identifier that is not an ISO week such as 2024-W05
	ErrInvalidWeekID = errors.New("invalid week id")

	weekIDRegex = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateWeekID checks that id names an existing ISO week, e.g. 2024-W05.
func ValidateWeekID(id string) error {
	_, err := WeekStart(id)
	return err
}

// WeekStart returns midnight UTC of the Monday that opens the ISO week id. The id is
// used verbatim as a storage key, so surrounding whitespace is rejected, not trimmed.
func WeekStart(id string) (time.Time, error) {
	m := weekIDRegex.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidWeekID, id)
	}

	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if year < 1970 || week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidWeekID, id)
	}

	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	start := jan4.AddDate(0, 0, -offset+(week-1)*7)

	if y, w := start.ISOWeek(); y != year || w != week {
		return time.Time{}, fmt.Errorf("%w: %d has no week %d", ErrInvalidWeekID, year, week)
	}
	return start, nil
}

// WeekID formats the ISO week containing t.
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ValidateReadingCount bounds the size of a single ingest request.
func ValidateReadingCount(n, max int) error {
	if n == 0 {
		return fmt.Errorf("%w: no readings", ErrInvalidInput)
	}
	if max > 0 && n > max {
		return fmt.Errorf("%w: %d readings exceeds the limit of %d", ErrInvalidInput, n, max)
	}
	return nil
}
