package model

import (
	"fmt"
	"strings"
	"time"
)

// PrefixMedication is the database key prefix for medications.
const PrefixMedication = "medication"

// Medication is a medication record owned by an account.
type Medication struct {
	Key          string     `json:"key"`
	Account      string     `json:"account"`
	Name         string     `json:"name" validate:"required,max=200"`
	Dose         string     `json:"dose" validate:"required,max=200"`
	Schedule     string     `json:"schedule" validate:"required"` // "08:00, 14:00, 20:00"
	DurationDays int        `json:"duration_days" validate:"min=1"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
}

// SetKey sets the database key for this medication.
func (m *Medication) SetKey(key string) {
	m.Key = key
}

// GetKey returns the database key for this medication.
func (m *Medication) GetKey() string {
	return m.Key
}

// Times returns the schedule split on commas with surrounding whitespace
// trimmed. Order and duplicates are preserved.
func (m *Medication) Times() []string {
	return SplitSchedule(m.Schedule)
}

// ActiveUntil returns the instant the treatment ends, computed by adding
// DurationDays calendar days to CreatedAt in loc. The second return value
// is false when the record has no creation time.
func (m *Medication) ActiveUntil(loc *time.Location) (time.Time, bool) {
	if m.CreatedAt == nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	return m.CreatedAt.In(loc).AddDate(0, 0, m.DurationDays), true
}

// IsActive reports whether the treatment window is still open at now.
// Records without a creation time or with a non-positive duration are
// never active.
func (m *Medication) IsActive(now time.Time) bool {
	if m.DurationDays <= 0 {
		return false
	}
	until, ok := m.ActiveUntil(now.Location())
	if !ok {
		return false
	}
	return now.Before(until)
}

// ShortID returns the first 6 characters of the UUID for display.
func (m *Medication) ShortID() string {
	// Key format: "medication:account:uuid"
	idx := strings.LastIndex(m.Key, ":")
	if idx < 0 {
		return m.Key
	}
	id := m.Key[idx+1:]
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

// SplitSchedule splits a comma-separated schedule string into time-of-day
// entries. An empty string yields no entries.
func SplitSchedule(schedule string) []string {
	if strings.TrimSpace(schedule) == "" {
		return nil
	}
	parts := strings.Split(schedule, ",")
	times := make([]string, 0, len(parts))
	for _, p := range parts {
		times = append(times, strings.TrimSpace(p))
	}
	return times
}

// JoinSchedule joins time-of-day entries into the stored schedule form.
func JoinSchedule(times []string) string {
	return strings.Join(times, ", ")
}

// GenerateMedicationKey generates a database key for a medication.
func GenerateMedicationKey(account, uuid string) string {
	return fmt.Sprintf("%s:%s:%s", PrefixMedication, account, uuid)
}

// MedicationPrefix returns the key prefix covering all medications of an account.
func MedicationPrefix(account string) string {
	return fmt.Sprintf("%s:%s:", PrefixMedication, account)
}

// NewMedication creates a new medication record for an account.
// CreatedAt is left unset so storage assigns it on creation.
func NewMedication(account, name, dose string, times []string, durationDays int) *Medication {
	return &Medication{
		Account:      account,
		Name:         name,
		Dose:         dose,
		Schedule:     JoinSchedule(times),
		DurationDays: durationDays,
	}
}
