package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello \x00"))
	assert.Equal(t, "a\tb", SanitizeString("a\tb\x07"))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		id      string
		want    time.Time
		wantErr bool
	}{
		{id: "2024-W01", want: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{id: "2024-W05", want: time.Date(2024, time.January, 29, 0, 0, 0, 0, time.UTC)},
		{id: "2021-W01", want: time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC)},
		{id: "2020-W53", want: time.Date(2020, time.December, 28, 0, 0, 0, 0, time.UTC)},
		{id: "2021-W53", wantErr: true},
		{id: "2024-W00", wantErr: true},
		{id: "2024-W54", wantErr: true},
		{id: "2024W05", wantErr: true},
		{id: "", wantErr: true},
		{id: "2024-W05 ", wantErr: true},
		{id: " 2024-W05", wantErr: true},
		{id: "2024-W05\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := WeekStart(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeekID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
			assert.Equal(t, tt.id, WeekID(got))
		})
	}
}

func TestValidateReadingCount(t *testing.T) {
	assert.NoError(t, ValidateReadingCount(5, 10))
	assert.NoError(t, ValidateReadingCount(5, 0))
	assert.ErrorIs(t, ValidateReadingCount(0, 10), ErrInvalidInput)
	assert.ErrorIs(t, ValidateReadingCount(11, 10), ErrInvalidInput)
}
