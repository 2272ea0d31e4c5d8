package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/manav03panchal/medalert/internal/model"
)

const (
	defaultConsoleWidth = 80
	maxBoxWidth         = 60
)

var (
	dueBorder      = lipgloss.Color("#EF4444")
	upcomingBorder = lipgloss.Color("#F59E0B")
	mutedColor     = lipgloss.Color("#6B7280")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().Bold(true)
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// ConsoleSink prints alerts as bordered boxes on a terminal.
type ConsoleSink struct {
	out   io.Writer
	width func() int

	mu    sync.Mutex
	names map[model.AlertKey]string
}

// NewConsoleSink creates a sink writing to stdout.
func NewConsoleSink() *ConsoleSink {
	return NewConsoleSinkWriter(os.Stdout, stdoutWidth)
}

// NewConsoleSinkWriter creates a sink writing to w. width reports the
// terminal width; nil means a fixed default.
func NewConsoleSinkWriter(w io.Writer, width func() int) *ConsoleSink {
	if width == nil {
		width = func() int { return defaultConsoleWidth }
	}
	return &ConsoleSink{
		out:   w,
		width: width,
		names: make(map[model.AlertKey]string),
	}
}

func stdoutWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultConsoleWidth
	}
	return w
}

// PresentAlert prints the alert box.
func (c *ConsoleSink) PresentAlert(_ context.Context, e model.AlertEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.names[e.Key()] = e.Name
	fmt.Fprintln(c.out, RenderAlertBox(e, c.width()))
}

// DismissAlert prints a muted line for an alert shown by this sink.
func (c *ConsoleSink) DismissAlert(key model.AlertKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, ok := c.names[key]
	if !ok {
		return
	}
	delete(c.names, key)
	fmt.Fprintln(c.out, mutedStyle.Render(fmt.Sprintf("  · %s alert for %s closed", key.Kind, name)))
}

// RenderAlertBox renders e as a bordered box no wider than width.
func RenderAlertBox(e model.AlertEvent, width int) string {
	title, body := AlertContent(e)

	border := dueBorder
	if e.Kind == model.AlertUpcoming {
		border = upcomingBorder
	}

	w := min(width-2, maxBoxWidth)
	if w < 20 {
		w = 20
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Foreground(border).Render(title),
		nameStyle.Render(e.Name),
		body,
		mutedStyle.Render(e.FiredAtMinute),
	)
	return boxStyle.BorderForeground(border).Width(w).Render(content)
}
