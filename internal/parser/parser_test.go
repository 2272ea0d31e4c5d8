package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/medalert/internal/errors"
)

// =============================================================================
// Time of Day Tests
// =============================================================================

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"08:00", "08:00"},
		{"8:00", "08:00"},
		{"8", "08:00"},
		{"20:30", "20:30"},
		{" 23:59 ", "23:59"},
		{"00:00", "00:00"},
		{"8am", "08:00"},
		{"8 AM", "08:00"},
		{"8:30pm", "20:30"},
		{"12am", "00:00"},
		{"12pm", "12:00"},
		{"12:15 a.m.", "00:15"},
		{"noon", "12:00"},
		{"Midnight", "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	for _, input := range []string{"", "24:00", "8:60", "13pm", "0am", "8:5", "eight", "08:00:00", "123"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTimeOfDay(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidTime)
		})
	}
}

func TestParseTimes(t *testing.T) {
	t.Run("keeps_order_and_duplicates", func(t *testing.T) {
		times, err := ParseTimes("8pm, 8am,08:00")
		require.NoError(t, err)
		assert.Equal(t, []string{"20:00", "08:00", "08:00"}, times)
	})

	t.Run("skips_empty_entries", func(t *testing.T) {
		times, err := ParseTimes("08:00,, 14:00,")
		require.NoError(t, err)
		assert.Equal(t, []string{"08:00", "14:00"}, times)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseTimes(" , ")
		assert.ErrorIs(t, err, errors.ErrInvalidSchedule)
	})

	t.Run("one_bad_entry", func(t *testing.T) {
		_, err := ParseTimes("08:00, 25:00")
		assert.ErrorIs(t, err, errors.ErrInvalidTime)
	})
}

func TestNormalizeSchedule(t *testing.T) {
	s, err := NormalizeSchedule("8am, 2pm")
	require.NoError(t, err)
	assert.Equal(t, "08:00, 14:00", s)
}

// =============================================================================
// Days Tests
// =============================================================================

func TestParseDays(t *testing.T) {
	tests := []struct {
		input string
		days  int
		valid bool
	}{
		{"7", 7, true},
		{"10d", 10, true},
		{"10 days", 10, true},
		{"1 day", 1, true},
		{"2w", 14, true},
		{"2 Weeks", 14, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"", 0, false},
		{"1.5d", 0, false},
		{"3 months", 0, false},
		{"99999999999999999999", 0, false},
		{"7905747460161236407w", 0, false},
		{"2635249153387078802w", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := ParseDays(tt.input)
			assert.Equal(t, tt.valid, r.Valid)
			assert.Equal(t, tt.days, r.Days)
		})
	}
}

// =============================================================================
// Timestamp Tests
// =============================================================================

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	t.Run("empty_is_now", func(t *testing.T) {
		r := ParseTimestamp("", now)
		assert.NoError(t, r.Error)
		assert.Equal(t, now, r.Time)
	})

	t.Run("now_case_insensitive", func(t *testing.T) {
		r := ParseTimestamp("  NOW ", now)
		assert.NoError(t, r.Error)
		assert.Equal(t, now, r.Time)
	})

	t.Run("relative", func(t *testing.T) {
		r := ParseTimestamp("2 days ago", now)
		require.NoError(t, r.Error)
		assert.Equal(t, 2026, r.Time.Year())
		assert.Equal(t, time.March, r.Time.Month())
		assert.Equal(t, 8, r.Time.Day())
	})

	t.Run("absolute", func(t *testing.T) {
		r := ParseTimestamp("2026-03-01", now)
		require.NoError(t, r.Error)
		assert.Equal(t, 1, r.Time.Day())
	})

	t.Run("garbage", func(t *testing.T) {
		r := ParseTimestamp("when pigs fly", now)
		require.Error(t, r.Error)
		assert.ErrorIs(t, r.Error, errors.ErrInvalidTimestamp)
	})
}

func TestParseSince(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	got, err := ParseSince("yesterday", now)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Day())

	_, err = ParseSince("2026-04-01", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "future")
}

// =============================================================================
// Error Tests
// =============================================================================

func TestTimeParseError(t *testing.T) {
	err := NewTimeParseError("times", "xyz", "invalid format", "08:00", "8am")
	assert.Equal(t, "invalid times 'xyz': invalid format", err.Error())
	assert.Len(t, err.Examples, 2)
	assert.Nil(t, err.Unwrap())
}

func TestFormatWithExamples(t *testing.T) {
	out := NewTimeOfDayError("25:00").FormatWithExamples()
	assert.Contains(t, out, "invalid time '25:00'")
	assert.Contains(t, out, "Valid examples:")
	assert.Contains(t, out, "  - 8am")
	assert.Contains(t, out, "HH:MM")

	out = (&TimeParseError{Field: "x", Input: "y", Message: "z"}).FormatWithExamples()
	assert.NotContains(t, out, "Valid examples:")
}

func TestToUserError(t *testing.T) {
	ue := NewDaysError("forever").ToUserError()
	assert.Equal(t, "days", ue.Field)
	assert.Equal(t, "forever", ue.Value)
	assert.NotEmpty(t, ue.Suggestion)
	assert.ErrorIs(t, ue, errors.ErrInvalidDuration)

	ue = NewTimeParseError("times", "x", "bad", "08:00", "8am", "noon", "20:00").ToUserError()
	assert.Equal(t, "Try: 08:00, 8am, noon", ue.Suggestion)
}
