// Package tui provides the terminal watch screen for medalert.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/medalert/internal/validate"
)

// Color palette for the watch screen.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorActive    = lipgloss.Color("#3B82F6") // Blue
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

// Base styles.
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleMedication is used for medication names.
	StyleMedication = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	StyleDose = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// StyleDue marks an alert for a dose due now.
	StyleDue = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// StyleSoon marks an alert for a dose due in a few minutes.
	StyleSoon = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	StyleNext = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// StyleMuted is used for muted text.
var StyleMuted = StyleSubtitle

// Box styles.
var (
	StyleAlertsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginBottom(1)

	// StyleLiveAlertsBox is used while at least one alert is live.
	StyleLiveAlertsBox = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorError).
				Padding(1, 2).
				MarginBottom(1)

	StyleMedicationsBox = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(1, 2).
				MarginBottom(1)
)

// ProgressBar renders percentage of width as filled blocks.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	emptyStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}

// maxNameWidth caps the medication names shown in the dashboard.
const maxNameWidth = 40

// FormatMedication renders "name dose" with styles.
func FormatMedication(name, dose string) string {
	name = validate.TruncateString(name, maxNameWidth)
	if dose == "" {
		return StyleMedication.Render(name)
	}
	return StyleMedication.Render(name) + " " + StyleDose.Render(dose)
}
