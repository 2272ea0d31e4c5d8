// Package export renders medication schedules as an iCalendar feed.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/scheduler"
)

// ProductID identifies medalert as the producer of exported calendars.
const ProductID = "-//medalert//Medication Schedule//EN"

// Calendar builds one daily recurring event per distinct dose time of every
// record active at now. Records without a creation time and entries that
// are not HH:MM are skipped.
func Calendar(records []*model.Medication, now time.Time, loc *time.Location) *ical.Calendar {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, m := range records {
		if !scheduler.Classify(m, now).Active {
			continue
		}
		until, _ := m.ActiveUntil(loc)
		created := m.CreatedAt.In(loc)

		seen := make(map[string]bool)
		for _, entry := range m.Times() {
			if seen[entry] {
				continue
			}
			seen[entry] = true

			start, ok := firstOccurrence(created, entry)
			if !ok || !start.Before(until) {
				continue
			}
			cal.Children = append(cal.Children, doseEvent(m, entry, start, until, now).Component)
		}
	}
	return cal
}

// DoseCount returns how many daily doses fall in [start, until), keeping
// start's wall-clock time in its location.
func DoseCount(start, until time.Time) int {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Until:   until.Add(-time.Second),
	})
	if err != nil {
		return 1
	}
	return max(len(r.All()), 1)
}

func floatingDateTime(name string, t time.Time) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = t.Format(floatingLayout)
	return prop
}

// Encode writes cal in iCalendar format.
func Encode(w io.Writer, cal *ical.Calendar) error {
	return ical.NewEncoder(w).Encode(cal)
}

// EventUID returns the stable UID of the event for one dose time.
func EventUID(recordKey, entry string) string {
	return fmt.Sprintf("%s-%s@medalert", recordKey, strings.ReplaceAll(entry, ":", ""))
}

// firstOccurrence returns the first instant at or after created whose local
// time of day is entry.
func firstOccurrence(created time.Time, entry string) (time.Time, bool) {
	tod, err := time.Parse("15:04", entry)
	if err != nil || scheduler.TimeKey(tod) != entry {
		return time.Time{}, false
	}
	y, mo, d := created.Date()
	start := time.Date(y, mo, d, tod.Hour(), tod.Minute(), 0, 0, created.Location())
	if start.Before(created) {
		start = start.AddDate(0, 0, 1)
	}
	return start, true
}

// floatingLayout is an iCalendar DATE-TIME without a zone. Floating times
// recur at the same wall-clock time in whatever zone the reader is in, so a
// daily dose stays at 08:00 across DST changes.
const floatingLayout = "20060102T150405"

func doseEvent(m *model.Medication, entry string, start, until, stamp time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, EventUID(m.Key, entry))
	ev.Props.SetText(ical.PropSummary, m.Name)
	ev.Props.SetText(ical.PropDescription, m.Dose)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ev.Props.Set(floatingDateTime(ical.PropDateTimeStart, start))

	// A floating DTSTART forbids a UTC UNTIL, so the feed ends by count
	// with the last dose before activeUntil.
	rule := rrule.ROption{Freq: rrule.DAILY, Count: DoseCount(start, until)}
	rr := ical.NewProp(ical.PropRecurrenceRule)
	rr.Value = rule.RRuleString()
	ev.Props.Set(rr)

	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, fmt.Sprintf("%s (%s)", m.Name, m.Dose))
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = fmt.Sprintf("-PT%dM", int(scheduler.UpcomingLead.Minutes()))
	alarm.Props.Set(trigger)
	ev.Children = append(ev.Children, alarm)

	return ev
}
