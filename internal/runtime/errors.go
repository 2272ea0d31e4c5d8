package runtime

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	merrors "github.com/manav03panchal/medalert/internal/errors"
)

// ErrDiskFull reports a write that failed for lack of space.
var ErrDiskFull = errors.New("disk full: unable to write to database")

// FormatError renders err for the terminal according to its category.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	if IsDiskFullError(err) {
		return "System error: " + err.Error() + "\n\n" + Suggestion(err)
	}
	return merrors.FormatByCategory(err)
}

// Suggestion returns the fix hint for err, if any.
func Suggestion(err error) string {
	if IsDiskFullError(err) {
		return "Free up disk space and try again. Medications already saved are kept."
	}
	return merrors.GetSuggestion(err)
}

// DiskFullError records which write ran out of space.
type DiskFullError struct {
	Op   string
	Path string
	err  error
}

func (e *DiskFullError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("disk full during %s on %s: %v", e.Op, e.Path, e.err)
	}
	return fmt.Sprintf("disk full during %s: %v", e.Op, e.err)
}

func (e *DiskFullError) Unwrap() error {
	return ErrDiskFull
}

// IsDiskFullError reports whether err indicates ENOSPC or a similar
// out-of-space condition.
func IsDiskFullError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDiskFull) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ENOSPC {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"no space left on device", "disk full", "not enough space"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WrapWriteError wraps err as a DiskFullError when it indicates disk full.
// Other errors are returned unchanged.
func WrapWriteError(err error, op, path string) error {
	if err == nil || !IsDiskFullError(err) {
		return err
	}
	return &DiskFullError{Op: op, Path: path, err: err}
}

// Persist runs a database write and classifies a disk-full failure.
func (c *Context) Persist(op string, write func() error) error {
	return WrapWriteError(write(), op, c.DB.Path())
}
