package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/scheduler"
)

// maxNumberedAlerts is how many alerts get a dismiss key.
const maxNumberedAlerts = 9

// AlertsComponent lists the live alerts, numbered for dismissal.
type AlertsComponent struct {
	Alerts []model.AlertEvent
	Width  int
}

// NewAlertsComponent creates a new alerts component.
func NewAlertsComponent(alerts []model.AlertEvent, width int) *AlertsComponent {
	return &AlertsComponent{Alerts: alerts, Width: width}
}

// View renders the alerts component.
func (ac *AlertsComponent) View() string {
	var content strings.Builder

	if len(ac.Alerts) == 0 {
		content.WriteString(StyleMuted.Render("No alerts right now"))
		return StyleAlertsBox.Width(boxWidth(ac.Width)).Render(content.String())
	}

	content.WriteString(StyleDue.Render("● TAKE NOW"))
	content.WriteString("\n")
	for i, e := range ac.Alerts {
		content.WriteString("\n")
		content.WriteString(renderAlert(i, e))
	}
	return StyleLiveAlertsBox.Width(boxWidth(ac.Width)).Render(content.String())
}

func renderAlert(i int, e model.AlertEvent) string {
	num := "   "
	if i < maxNumberedAlerts {
		num = StyleHelpKey.Render(fmt.Sprintf("[%d]", i+1))
	}

	label := StyleDue.Render("DUE ")
	if e.Kind == model.AlertUpcoming {
		label = StyleSoon.Render("SOON")
	}
	return fmt.Sprintf("%s %s %s %s", num, label, StyleSubtitle.Render(e.FiredAtMinute), FormatMedication(e.Name, e.Dose))
}

// MedicationsComponent lists today's active medications.
type MedicationsComponent struct {
	Records []*model.Medication
	Now     time.Time
	Width   int
}

// NewMedicationsComponent keeps the records active at now.
func NewMedicationsComponent(records []*model.Medication, now time.Time, width int) *MedicationsComponent {
	var active []*model.Medication
	for _, m := range records {
		if scheduler.Classify(m, now).Active {
			active = append(active, m)
		}
	}
	return &MedicationsComponent{Records: active, Now: now, Width: width}
}

// View renders the medications component.
func (mc *MedicationsComponent) View() string {
	var content strings.Builder

	content.WriteString(StyleTitle.Render("Today"))
	content.WriteString("\n")

	if len(mc.Records) == 0 {
		content.WriteString(StyleMuted.Render("No active medications"))
	}
	for i, m := range mc.Records {
		if i > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(mc.renderMedication(m))
	}

	return StyleMedicationsBox.Width(boxWidth(mc.Width)).Render(content.String())
}

func (mc *MedicationsComponent) renderMedication(m *model.Medication) string {
	var sb strings.Builder

	sb.WriteString(FormatMedication(m.Name, m.Dose))
	if next, ok := NextDose(m, mc.Now); ok {
		sb.WriteString("  ")
		sb.WriteString(StyleNext.Render("next " + next))
	} else {
		sb.WriteString("  ")
		sb.WriteString(StyleMuted.Render("done for today"))
	}

	sb.WriteString("\n")
	sb.WriteString(StyleSubtitle.Render("  " + strings.Join(m.Times(), ", ")))

	barWidth := mc.Width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	sb.WriteString("\n  ")
	sb.WriteString(ProgressBar(TreatmentProgress(m, mc.Now), barWidth))
	if until, ok := m.ActiveUntil(mc.Now.Location()); ok {
		sb.WriteString(StyleSubtitle.Render(" until " + output.FormatDate(until, mc.Now.Location())))
	}
	return sb.String()
}

// NextDose returns the earliest well-formed schedule entry after now's
// minute on the same day.
func NextDose(m *model.Medication, now time.Time) (string, bool) {
	current := scheduler.TimeKey(now)
	next := ""
	for _, entry := range m.Times() {
		if !isTimeKey(entry) || entry <= current {
			continue
		}
		if next == "" || entry < next {
			next = entry
		}
	}
	return next, next != ""
}

// TreatmentProgress returns how much of the treatment window has elapsed
// at now, in percent.
func TreatmentProgress(m *model.Medication, now time.Time) float64 {
	until, ok := m.ActiveUntil(now.Location())
	if !ok {
		return 0
	}
	total := until.Sub(*m.CreatedAt)
	if total <= 0 {
		return 100
	}
	return float64(now.Sub(*m.CreatedAt)) / float64(total) * 100
}

func isTimeKey(s string) bool {
	t, err := time.Parse("15:04", s)
	return err == nil && scheduler.TimeKey(t) == s
}

func boxWidth(width int) int {
	if width < 24 {
		return 20
	}
	return width - 4
}

// HelpBar renders the help bar at the bottom.
func HelpBar() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"1-9", "dismiss"},
		{"c", "dismiss all"},
		{"r", "check now"},
		{"q", "quit"},
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, StyleHelpKey.Render(k.key)+" "+StyleHelpDesc.Render(k.desc))
	}
	return StyleHelp.Render(strings.Join(parts, "  •  "))
}
