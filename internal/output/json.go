package output

import (
	"time"

	"github.com/manav03panchal/medalert/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// MedicationOutput represents a medication in JSON output.
type MedicationOutput struct {
	Key          string   `json:"key"`
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Dose         string   `json:"dose"`
	Times        []string `json:"times"`
	DurationDays int      `json:"duration_days"`
	CreatedAt    string   `json:"created_at,omitempty"`
	ActiveUntil  string   `json:"active_until,omitempty"`
	Active       bool     `json:"active"`
}

// NewMedicationOutput creates a MedicationOutput evaluated at now.
func NewMedicationOutput(m *model.Medication, now time.Time) *MedicationOutput {
	out := &MedicationOutput{
		Key:          m.Key,
		ID:           m.ShortID(),
		Name:         m.Name,
		Dose:         m.Dose,
		Times:        m.Times(),
		DurationDays: m.DurationDays,
		Active:       m.IsActive(now),
	}
	if out.Times == nil {
		out.Times = []string{}
	}
	if m.CreatedAt != nil {
		out.CreatedAt = m.CreatedAt.Format(time.RFC3339)
	}
	if until, ok := m.ActiveUntil(now.Location()); ok {
		out.ActiveUntil = until.Format(time.RFC3339)
	}
	return out
}

// MedicationsResponse represents the medication list output in JSON.
type MedicationsResponse struct {
	Medications []*MedicationOutput `json:"medications"`
	TotalCount  int                 `json:"total_count"`
	ActiveCount int                 `json:"active_count"`
}

// NewMedicationsResponse creates a MedicationsResponse.
func NewMedicationsResponse(meds []*model.Medication, now time.Time) *MedicationsResponse {
	resp := &MedicationsResponse{
		Medications: make([]*MedicationOutput, 0, len(meds)),
		TotalCount:  len(meds),
	}
	for _, m := range meds {
		out := NewMedicationOutput(m, now)
		if out.Active {
			resp.ActiveCount++
		}
		resp.Medications = append(resp.Medications, out)
	}
	return resp
}

// AlertOutput represents an alert in JSON output.
type AlertOutput struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Minute string `json:"minute"`
	Record string `json:"record"`
	Name   string `json:"name"`
	Dose   string `json:"dose"`
	At     string `json:"at"`
}

// NewAlertOutput creates an AlertOutput from an event.
func NewAlertOutput(e model.AlertEvent) *AlertOutput {
	return &AlertOutput{
		Key:    e.Key().String(),
		Kind:   string(e.Kind),
		Minute: e.FiredAtMinute,
		Record: e.RecordKey,
		Name:   e.Name,
		Dose:   e.Dose,
		At:     e.At.Format(time.RFC3339),
	}
}

// CheckResponse represents the output of one evaluation pass.
type CheckResponse struct {
	TickID     string         `json:"tick_id"`
	At         string         `json:"at"`
	Skipped    string         `json:"skipped,omitempty"`
	Records    int            `json:"records"`
	Alerts     []*AlertOutput `json:"alerts"`
	Suppressed int            `json:"suppressed"`
	Error      string         `json:"error,omitempty"`
}

// SessionResponse represents the whoami output in JSON.
type SessionResponse struct {
	LoggedIn  bool   `json:"logged_in"`
	Account   string `json:"account,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
}

// NewSessionResponse creates a SessionResponse. s may be nil.
func NewSessionResponse(s *model.Session) *SessionResponse {
	if !s.IsValidated() {
		return &SessionResponse{}
	}
	return &SessionResponse{
		LoggedIn:  true,
		Account:   s.Account,
		StartedAt: s.StartedAt.Format(time.RFC3339),
	}
}

// WebhookOutput represents a webhook in JSON output. The URL is masked.
type WebhookOutput struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Enabled   bool   `json:"enabled"`
	LastUsed  string `json:"last_used,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// NewWebhookOutput creates a WebhookOutput from a Webhook.
func NewWebhookOutput(w *model.Webhook) *WebhookOutput {
	out := &WebhookOutput{
		Name:      w.Name,
		Type:      w.Type,
		URL:       w.MaskedURL(),
		Enabled:   w.Enabled,
		LastError: w.LastError,
	}
	if !w.LastUsed.IsZero() {
		out.LastUsed = w.LastUsed.Format(time.RFC3339)
	}
	return out
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintMedications outputs medications in JSON format.
func (j *JSONFormatter) PrintMedications(meds []*model.Medication, now time.Time) error {
	return j.JSON(NewMedicationsResponse(meds, now))
}

// PrintMedication outputs one medication in JSON format.
func (j *JSONFormatter) PrintMedication(m *model.Medication, now time.Time) error {
	return j.JSON(NewMedicationOutput(m, now))
}

// PrintAlerts outputs alerts in JSON format.
func (j *JSONFormatter) PrintAlerts(events []model.AlertEvent) error {
	out := make([]*AlertOutput, 0, len(events))
	for _, e := range events {
		out = append(out, NewAlertOutput(e))
	}
	return j.JSON(out)
}

// PrintSession outputs the session in JSON format.
func (j *JSONFormatter) PrintSession(s *model.Session) error {
	return j.JSON(NewSessionResponse(s))
}

// PrintWebhooks outputs webhooks in JSON format.
func (j *JSONFormatter) PrintWebhooks(webhooks []*model.Webhook) error {
	out := make([]*WebhookOutput, 0, len(webhooks))
	for _, w := range webhooks {
		out = append(out, NewWebhookOutput(w))
	}
	return j.JSON(out)
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(errMsg, suggestion string) error {
	return j.JSON(ErrorResponse{
		Status:     "error",
		Error:      errMsg,
		Suggestion: suggestion,
	})
}
