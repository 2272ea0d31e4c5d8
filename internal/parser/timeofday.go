// Package parser parses the dose times, treatment lengths and start dates
// typed on the command line.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/manav03panchal/medalert/internal/model"
)

// clockPattern matches "8", "8am", "08:30", "8:30 pm" and "20:30".
var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)

// ParseTimeOfDay parses a time of day and returns it as HH:MM.
func ParseTimeOfDay(input string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "":
		return "", NewTimeOfDayError(input)
	case "noon", "midday":
		return "12:00", nil
	case "midnight":
		return "00:00", nil
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", NewTimeOfDayError(input)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return "", NewTimeOfDayError(input)
	}

	switch strings.ReplaceAll(m[3], ".", "") {
	case "am":
		if hour < 1 || hour > 12 {
			return "", NewTimeOfDayError(input)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", NewTimeOfDayError(input)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		// 24-hour clock. A bare "8" is 08:00.
		if hour > 23 {
			return "", NewTimeOfDayError(input)
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ParseTimes parses a comma-separated list of times of day. Order and
// duplicates are kept.
func ParseTimes(input string) ([]string, error) {
	parts := strings.Split(input, ",")
	times := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		t, err := ParseTimeOfDay(p)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if len(times) == 0 {
		return nil, NewScheduleError(input)
	}
	return times, nil
}

// NormalizeSchedule parses input and returns the stored schedule string.
func NormalizeSchedule(input string) (string, error) {
	times, err := ParseTimes(input)
	if err != nil {
		return "", err
	}
	return model.JoinSchedule(times), nil
}
