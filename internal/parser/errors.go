package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/medalert/internal/errors"
)

// TimeParseError represents a parse error with example inputs.
type TimeParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
	Cause      error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

// Unwrap returns the matching sentinel.
func (e *TimeParseError) Unwrap() error {
	return e.Cause
}

// NewTimeParseError creates a new parse error with examples.
func NewTimeParseError(field, input, message string, examples ...string) *TimeParseError {
	return &TimeParseError{
		Input:    input,
		Field:    field,
		Message:  message,
		Examples: examples,
	}
}

// FormatWithExamples returns the error message with example suggestions.
func (e *TimeParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// TimeOfDayExamples provides example dose times.
var TimeOfDayExamples = []string{
	"08:00",
	"8am",
	"8:30pm",
	"20:30",
	"noon",
}

// DaysExamples provides example treatment lengths.
var DaysExamples = []string{
	"7",
	"10d",
	"2 weeks",
}

// SinceExamples provides example start dates.
var SinceExamples = []string{
	"yesterday",
	"2 days ago",
	"last monday",
	"2026-03-01",
}

// NewTimeOfDayError creates a time of day error with standard examples.
func NewTimeOfDayError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "time",
		Message:    "could not parse time of day",
		Examples:   TimeOfDayExamples,
		Suggestion: "Use 24-hour HH:MM or a 12-hour time like '8am'.",
		Cause:      errors.ErrInvalidTime,
	}
}

// NewScheduleError creates an error for a schedule with no times.
func NewScheduleError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "times",
		Message:    "no dose times given",
		Examples:   []string{"08:00", "08:00, 20:00", "8am, 2pm, 8pm"},
		Suggestion: "Separate several times with commas.",
		Cause:      errors.ErrInvalidSchedule,
	}
}

// NewDaysError creates a treatment length error with standard examples.
func NewDaysError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "days",
		Message:    "could not parse treatment length",
		Examples:   DaysExamples,
		Suggestion: "Give a positive number of days or weeks.",
		Cause:      errors.ErrInvalidDuration,
	}
}

// NewSinceError creates a start date error with standard examples.
func NewSinceError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "since",
		Message:    "could not parse date",
		Examples:   SinceExamples,
		Suggestion: "Try natural language like 'yesterday' or '3 days ago'.",
		Cause:      errors.ErrInvalidTimestamp,
	}
}

// ToUserError converts a TimeParseError to a UserError for consistent handling.
func (e *TimeParseError) ToUserError() *errors.UserError {
	suggestion := e.Suggestion
	if len(e.Examples) > 0 && suggestion == "" {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}

	ue := errors.NewUserErrorWithField(e.Field, e.Input, e.Message, suggestion)
	ue.Cause = e.Cause
	return ue
}
