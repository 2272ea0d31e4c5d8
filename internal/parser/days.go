package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DaysResult represents the result of parsing a treatment length.
type DaysResult struct {
	Days  int
	Valid bool
}

// daysPattern matches "7", "7d", "7 days", "2w" and "2 weeks".
var daysPattern = regexp.MustCompile(`(?i)^(\d+)\s*(d|day|days|w|wk|wks|week|weeks)?$`)

// ParseDays parses a treatment length in days. A bare number is days.
func ParseDays(input string) DaysResult {
	input = strings.TrimSpace(input)
	m := daysPattern.FindStringSubmatch(input)
	if m == nil {
		return DaysResult{}
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DaysResult{}
	}

	switch strings.ToLower(m[2]) {
	case "w", "wk", "wks", "week", "weeks":
		if n > math.MaxInt/7 {
			return DaysResult{}
		}
		n *= 7
	}
	return DaysResult{Days: n, Valid: true}
}
