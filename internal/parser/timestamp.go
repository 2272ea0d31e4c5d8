package parser

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// TimestampResult holds the parsed timestamp and any error.
type TimestampResult struct {
	Time  time.Time
	Error error
}

// ParseTimestamp parses a natural language timestamp relative to now.
func ParseTimestamp(input string, now time.Time) TimestampResult {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "now") {
		return TimestampResult{Time: now}
	}

	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		PreferredDateSource: dateparser.Past,
	}

	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return TimestampResult{Error: NewSinceError(input)}
	}
	return TimestampResult{Time: result.Time}
}

// ParseSince parses the start of a treatment already under way. It must
// not be in the future.
func ParseSince(input string, now time.Time) (time.Time, error) {
	r := ParseTimestamp(input, now)
	if r.Error != nil {
		return time.Time{}, r.Error
	}
	if r.Time.After(now) {
		e := NewSinceError(input)
		e.Message = "start date is in the future"
		return time.Time{}, e
	}
	return r.Time, nil
}
