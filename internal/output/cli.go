package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/medalert/internal/model"
)

var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorMuted     = lipgloss.Color("#6B7280")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")

	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorSecondary)
	styleWarning  = lipgloss.NewStyle().Foreground(colorWarning)
	styleError    = lipgloss.NewStyle().Foreground(colorError)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleBold     = lipgloss.NewStyle().Bold(true)
	styleName     = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleActive   = lipgloss.NewStyle().Bold(true).Foreground(colorSecondary)
	styleFinished = lipgloss.NewStyle().Foreground(colorMuted)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// MedicationName formats a medication name.
func (c *CLIFormatter) MedicationName(name string) string {
	return c.render(styleName, name)
}

// MedicationStatus describes whether a treatment is running at now.
func MedicationStatus(m *model.Medication, now time.Time) string {
	until, ok := m.ActiveUntil(now.Location())
	switch {
	case !ok:
		return "unscheduled"
	case m.IsActive(now):
		return "active until " + FormatDate(until, now.Location())
	default:
		return "finished " + FormatDate(until, now.Location())
	}
}

func (c *CLIFormatter) status(m *model.Medication, now time.Time) string {
	text := MedicationStatus(m, now)
	if m.IsActive(now) {
		return c.render(styleActive, text)
	}
	return c.render(styleFinished, text)
}

// PrintMedication prints the details of one medication.
func (c *CLIFormatter) PrintMedication(m *model.Medication, now time.Time) {
	c.Printf("%s %s\n", c.MedicationName(m.Name), c.render(styleMuted, "("+m.ShortID()+")"))
	c.Printf("  Dose:   %s\n", m.Dose)
	c.Printf("  Times:  %s\n", strings.Join(m.Times(), ", "))
	c.Printf("  Days:   %d\n", m.DurationDays)
	if m.CreatedAt != nil {
		c.Printf("  Since:  %s\n", FormatTimeShort(*m.CreatedAt, now.Location()))
	}
	c.Printf("  Status: %s\n", c.status(m, now))
}

// PrintMedications prints medications as a table.
func (c *CLIFormatter) PrintMedications(meds []*model.Medication, now time.Time) {
	if len(meds) == 0 {
		c.Muted("No medications.")
		c.Muted("Use 'medalert add <name> --dose <dose> --times <HH:MM> --days <n>' to add one.")
		return
	}

	rows := make([]TableRow, 0, len(meds))
	for _, m := range meds {
		rows = append(rows, TableRow{Columns: []string{
			m.ShortID(),
			m.Name,
			m.Dose,
			strings.Join(m.Times(), ", "),
			MedicationStatus(m, now),
		}})
	}
	c.PrintTable([]string{"ID", "NAME", "DOSE", "TIMES", "STATUS"}, rows)
}

// PrintAlerts prints alerts in emission order.
func (c *CLIFormatter) PrintAlerts(events []model.AlertEvent) {
	if len(events) == 0 {
		c.Muted("No alerts right now.")
		return
	}
	for _, e := range events {
		label := "DUE"
		style := styleError
		if e.Kind == model.AlertUpcoming {
			label = "SOON"
			style = styleWarning
		}
		c.Printf("%s %s %s %s\n",
			c.render(style, fmt.Sprintf("%-4s", label)),
			e.FiredAtMinute,
			c.MedicationName(e.Name),
			c.render(styleMuted, e.Dose),
		)
	}
}

// PrintSession prints the signed-in account.
func (c *CLIFormatter) PrintSession(s *model.Session) {
	if !s.IsValidated() {
		c.Muted("Not logged in.")
		c.Muted("Use 'medalert login <account>' to sign in.")
		return
	}
	c.Printf("Logged in as %s\n", c.render(styleBold, s.Account))
	c.Printf("  Since: %s\n", FormatTimeShort(s.StartedAt, time.Local))
}

// PrintWebhooks prints configured webhooks.
func (c *CLIFormatter) PrintWebhooks(webhooks []*model.Webhook) {
	if len(webhooks) == 0 {
		c.Muted("No webhooks configured.")
		c.Muted("Use 'medalert webhook add <name> <url>' to add one.")
		return
	}

	rows := make([]TableRow, 0, len(webhooks))
	for _, w := range webhooks {
		state := "enabled"
		if !w.Enabled {
			state = "disabled"
		}
		if w.LastError != "" {
			state += " (last error)"
		}
		rows = append(rows, TableRow{Columns: []string{w.Name, w.Type, w.MaskedURL(), state}})
	}
	c.PrintTable([]string{"NAME", "TYPE", "URL", "STATE"}, rows)
}

// TableRow is one row of PrintTable.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple aligned table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", w-lipgloss.Width(s)) + "  "
	}

	var header strings.Builder
	for i, h := range headers {
		header.WriteString(pad(h, widths[i]))
	}
	c.Println(c.render(styleBold, strings.TrimRight(header.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				line.WriteString(pad(col, widths[i]))
			}
		}
		c.Println(strings.TrimRight(line.String(), " "))
	}
}

// Count formats n with a singular or plural noun.
func Count(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}
