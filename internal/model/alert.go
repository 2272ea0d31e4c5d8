package model

import (
	"fmt"
	"strings"
	"time"
)

// AlertKind distinguishes an alert for a dose due now from one due soon.
type AlertKind string

// Alert kinds.
const (
	AlertDue      AlertKind = "due"
	AlertUpcoming AlertKind = "upcoming"
)

// AlertKey identifies a live alert for deduplication.
// Minute is only set for due alerts; an upcoming alert has one live
// instance per record.
type AlertKey struct {
	RecordKey string
	Kind      AlertKind
	Minute    string
}

// DueKey returns the key of a due alert fired at minute.
func DueKey(recordKey, minute string) AlertKey {
	return AlertKey{RecordKey: recordKey, Kind: AlertDue, Minute: minute}
}

// UpcomingKey returns the key of an upcoming alert.
func UpcomingKey(recordKey string) AlertKey {
	return AlertKey{RecordKey: recordKey, Kind: AlertUpcoming}
}

// String returns the stable text form of the key.
func (k AlertKey) String() string {
	if k.Kind == AlertDue {
		return fmt.Sprintf("%s|%s|%s", k.Kind, k.RecordKey, k.Minute)
	}
	return fmt.Sprintf("%s|%s", k.Kind, k.RecordKey)
}

// ParseAlertKey parses the form produced by AlertKey.String.
func ParseAlertKey(s string) (AlertKey, error) {
	parts := strings.Split(s, "|")
	switch {
	case len(parts) == 3 && AlertKind(parts[0]) == AlertDue:
		return DueKey(parts[1], parts[2]), nil
	case len(parts) == 2 && AlertKind(parts[0]) == AlertUpcoming:
		return UpcomingKey(parts[1]), nil
	default:
		return AlertKey{}, fmt.Errorf("invalid alert key %q", s)
	}
}

// AlertEvent is an alert emitted by the dispatcher. It is never persisted.
type AlertEvent struct {
	RecordKey     string    `json:"record_key"`
	Kind          AlertKind `json:"kind"`
	FiredAtMinute string    `json:"fired_at_minute"`
	Name          string    `json:"name"`
	Dose          string    `json:"dose"`
	At            time.Time `json:"at"`
}

// NewAlertEvent creates an alert event for a medication.
func NewAlertEvent(m *Medication, kind AlertKind, minute string, at time.Time) AlertEvent {
	return AlertEvent{
		RecordKey:     m.Key,
		Kind:          kind,
		FiredAtMinute: minute,
		Name:          m.Name,
		Dose:          m.Dose,
		At:            at,
	}
}

// Key returns the deduplication key of the event.
func (e AlertEvent) Key() AlertKey {
	if e.Kind == AlertDue {
		return DueKey(e.RecordKey, e.FiredAtMinute)
	}
	return UpcomingKey(e.RecordKey)
}
