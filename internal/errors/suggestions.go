package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	// User input errors
	ErrNoActiveSession:     "Use 'medalert login <account>' to sign in first.",
	ErrSessionNotValidated: "Use 'medalert login <account>' to start a validated session.",
	ErrMedicationNotFound:  "Use 'medalert list --all' to see your medications and their IDs.",
	ErrAmbiguousID:         "Type more characters of the ID shown by 'medalert list'.",
	ErrWebhookNotFound:     "Use 'medalert webhook list' to see configured webhooks.",
	ErrInvalidTime:         "Times are 24-hour HH:MM, like '08:00' or '21:30'.",
	ErrInvalidSchedule:     "Pass a comma-separated list of times, like --times \"08:00, 20:00\".",
	ErrInvalidDuration:     "Pass the treatment length in days as a positive number, like --days 7.",
	ErrInvalidTimestamp:    "Try formats like '2 days ago', 'yesterday at 8am' or '2026-03-01'.",
	ErrInvalidAccount:      "Accounts are letters, digits, dots, dashes, underscores or an email address.",
	ErrInvalidURL:          "Provide a valid URL starting with https:// (or http:// for localhost).",

	// System errors
	ErrDatabaseCorrupted:  "Move the database directory aside (see MEDALERT_DATABASE) and add your medications again.",
	ErrLockHeld:           "The daemon keeps the database open. Stop it with 'medalert daemon stop' and try again.",
	ErrNetworkUnavailable: "Check your internet connection. Alerts will still show in the terminal.",
	ErrDaemonRunning:      "Use 'medalert daemon status' to inspect it or 'medalert daemon stop' to stop it.",
	ErrDaemonNotRunning:   "Use 'medalert daemon start' to start it.",
	ErrTimeout:            "The operation took too long. Try again or check your network connection.",
	ErrPermissionDenied:   "Check file permissions in your data directory (~/.local/share/medalert/).",
}

// GetSuggestion returns a suggestion for an error, if available.
// A UserError's own suggestion wins over the sentinel table.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}

	return ""
}

// CommandExamples provides example commands for common errors.
var CommandExamples = map[error][]string{
	ErrInvalidSchedule: {
		"medalert add Amoxicillin --dose 500mg --times \"08:00, 20:00\" --days 7",
		"medalert edit 3f2a1c --times \"07:30\"",
	},
	ErrInvalidTimestamp: {
		"medalert add Ibuprofen --dose 200mg --times 12:00 --days 3 --since yesterday",
		"medalert add Vitamin-D --dose 1000IU --times 09:00 --days 30 --since \"2 weeks ago\"",
	},
	ErrNoActiveSession: {
		"medalert login alice",
		"medalert whoami",
	},
}

// GetExamples returns example commands for an error.
func GetExamples(err error) []string {
	for knownErr, examples := range CommandExamples {
		if errors.Is(err, knownErr) {
			return examples
		}
	}
	return nil
}
