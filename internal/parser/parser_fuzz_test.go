package parser

import (
	"regexp"
	"testing"
	"time"
)

var timeKeyPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// FuzzParseTimeOfDay checks that accepted input always normalizes to HH:MM.
// Run with: go test ./internal/parser -fuzz=FuzzParseTimeOfDay -fuzztime=30s
func FuzzParseTimeOfDay(f *testing.F) {
	for _, seed := range []string{"08:00", "8am", "8:30 pm", "noon", "midnight", "24:00", "12am", "", "  9 ", "99:99"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		key, err := ParseTimeOfDay(input)
		if err != nil {
			return
		}
		if !timeKeyPattern.MatchString(key) {
			t.Fatalf("ParseTimeOfDay(%q) = %q, not HH:MM", input, key)
		}
	})
}

// FuzzParseTimes checks that every parsed schedule entry is a valid key.
// Run with: go test ./internal/parser -fuzz=FuzzParseTimes -fuzztime=30s
func FuzzParseTimes(f *testing.F) {
	for _, seed := range []string{"08:00, 20:00", "8am,2pm,8pm", ",,", "08:00,,09:00", "noon, noon"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		times, err := ParseTimes(input)
		if err != nil {
			return
		}
		for _, key := range times {
			if !timeKeyPattern.MatchString(key) {
				t.Fatalf("ParseTimes(%q) returned %q", input, key)
			}
		}
	})
}

// FuzzParseDays checks that valid treatment lengths are positive.
// Run with: go test ./internal/parser -fuzz=FuzzParseDays -fuzztime=30s
func FuzzParseDays(f *testing.F) {
	for _, seed := range []string{"7", "10d", "2 weeks", "0", "-3", "99999999999999999999", "7905747460161236407w", "w"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		r := ParseDays(input)
		if r.Valid && r.Days <= 0 {
			t.Fatalf("ParseDays(%q) = %d", input, r.Days)
		}
	})
}

// FuzzParseSince checks that a parsed start is never in the future.
// Run with: go test ./internal/parser -fuzz=FuzzParseSince -fuzztime=30s
func FuzzParseSince(f *testing.F) {
	for _, seed := range []string{"yesterday", "2 days ago", "last monday", "2026-03-01", "tomorrow", "in 5 minutes"} {
		f.Add(seed)
	}
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	f.Fuzz(func(t *testing.T, input string) {
		since, err := ParseSince(input, now)
		if err == nil && since.After(now) {
			t.Fatalf("ParseSince(%q) = %v, after %v", input, since, now)
		}
	})
}
