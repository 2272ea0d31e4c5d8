package scheduler

import (
	"slices"
	"time"

	"github.com/manav03panchal/medalert/internal/model"
)

// UpcomingLead is how far ahead an upcoming alert looks.
const UpcomingLead = 5 * time.Minute

// timeKeyLayout renders a time of day as zero-padded 24-hour HH:MM.
const timeKeyLayout = "15:04"

// Classification is the result of evaluating one record at one instant.
type Classification struct {
	Active  bool
	DueNow  bool
	DueSoon bool
}

// TimeKey formats t as HH:MM. Seconds are truncated, never rounded.
func TimeKey(t time.Time) string {
	return t.Format(timeKeyLayout)
}

// SoonKey formats the time UpcomingLead after t as HH:MM.
func SoonKey(t time.Time) string {
	return TimeKey(t.Add(UpcomingLead))
}

// ActiveUntil returns the end of the record's treatment window in loc.
func ActiveUntil(m *model.Medication, loc *time.Location) (time.Time, bool) {
	if m == nil {
		return time.Time{}, false
	}
	return m.ActiveUntil(loc)
}

// Classify evaluates a record against now. Records that are nil, lack a
// creation time, or have a non-positive duration classify as inactive.
// It never panics.
func Classify(m *model.Medication, now time.Time) Classification {
	if m == nil || m.CreatedAt == nil || !m.IsActive(now) {
		return Classification{}
	}

	times := m.Times()
	return Classification{
		Active:  true,
		DueNow:  slices.Contains(times, TimeKey(now)),
		DueSoon: slices.Contains(times, SoonKey(now)),
	}
}

// DelayUntilNextMinute returns the wait from now to the next minute boundary
// in whole seconds. An instant already on a boundary (second 0) waits zero.
func DelayUntilNextMinute(now time.Time) time.Duration {
	s := now.Second()
	if s == 0 {
		return 0
	}
	return time.Duration(60-s) * time.Second
}
