package errors

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates an error the user can fix.
	CategoryUser
	// CategorySystem indicates a system-level error.
	CategorySystem
	// CategoryRecoverable indicates an error that goes away on retry.
	CategoryRecoverable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if IsUserError(err) {
		return CategoryUser
	}
	// Retrieval errors wrap ErrNoActiveSession, which the user fixes by logging in.
	if IsRetrievalError(err) {
		if errors.Is(err, ErrNoActiveSession) {
			return CategoryUser
		}
		return CategoryRecoverable
	}
	if IsRecoverableError(err) {
		return CategoryRecoverable
	}
	if IsSystemError(err) || isSystemLevel(err) {
		return CategorySystem
	}
	if isRecoverablePattern(err) {
		return CategoryRecoverable
	}
	if errors.Is(err, ErrNoActiveSession) || errors.Is(err, ErrSessionNotValidated) {
		return CategoryUser
	}

	return CategoryUnknown
}

func isSystemLevel(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EACCES, syscall.EPERM, syscall.EIO, syscall.EROFS:
			return true
		}
	}

	return errors.Is(err, ErrDatabaseCorrupted) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrLockHeld)
}

func isRecoverablePattern(err error) bool {
	if errors.Is(err, ErrNetworkUnavailable) || errors.Is(err, ErrTimeout) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EINTR, syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return true
		}
	}

	return false
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch Classify(err) {
	case CategoryUser:
		var sb strings.Builder
		sb.WriteString(msg)
		if suggestion != "" {
			sb.WriteString("\n\nTry: ")
			sb.WriteString(suggestion)
		}
		if examples := GetExamples(err); len(examples) > 0 {
			sb.WriteString("\n\nExamples:\n")
			for _, ex := range examples {
				fmt.Fprintf(&sb, "  %s\n", ex)
			}
		}
		return strings.TrimRight(sb.String(), "\n")

	case CategorySystem:
		if suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg

	case CategoryRecoverable:
		return msg + " (will retry automatically)"

	default:
		return msg
	}
}
