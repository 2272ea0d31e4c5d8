package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/scheduler"
)

// refreshMsg is sent every refresh interval.
type refreshMsg time.Time

// recordsMsg carries a fresh record snapshot.
type recordsMsg struct {
	records []*model.Medication
	err     error
}

// dismissedMsg reports how many alerts a key press withdrew.
type dismissedMsg struct {
	count int
}

// checkedMsg carries the report of a pass triggered with 'r'.
type checkedMsg struct {
	report scheduler.TickReport
}

// AlertPresentedMsg is sent to the program when the dispatcher presents
// an alert.
type AlertPresentedMsg struct {
	Event model.AlertEvent
}

// AlertDismissedMsg is sent to the program when an alert is withdrawn.
type AlertDismissedMsg struct {
	Key model.AlertKey
}

// AlertController is the part of the dispatcher the watch screen drives.
type AlertController interface {
	Tick(ctx context.Context) scheduler.TickReport
	Dismiss(key model.AlertKey) bool
	DismissAll() int
	LiveAlerts() []model.AlertEvent
}

// WatchConfig holds configuration for the watch screen.
type WatchConfig struct {
	Alerts          AlertController
	Records         scheduler.RecordSource
	Account         string
	RefreshInterval time.Duration
	Now             func() time.Time
}

// WatchModel is the bubbletea model of the watch screen.
type WatchModel struct {
	alerts   AlertController
	source   scheduler.RecordSource
	account  string
	interval time.Duration
	clock    func() time.Time

	// Data
	live    []model.AlertEvent
	records []*model.Medication
	now     time.Time

	// UI state
	width      int
	height     int
	err        error
	message    string
	messageExp time.Time
}

// NewWatchModel creates a new watch model.
func NewWatchModel(cfg WatchConfig) *WatchModel {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &WatchModel{
		alerts:   cfg.Alerts,
		source:   cfg.Records,
		account:  cfg.Account,
		interval: cfg.RefreshInterval,
		clock:    cfg.Now,
		now:      cfg.Now(),
	}
}

// Init initializes the model.
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.loadRecordsCmd())
}

// Update handles messages and updates the model.
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.now = m.clock()
		m.live = m.alerts.LiveAlerts()
		if !m.messageExp.IsZero() && m.now.After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, tea.Batch(m.refreshCmd(), m.loadRecordsCmd())

	case recordsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.records = msg.records
		m.err = nil
		return m, nil

	case AlertPresentedMsg:
		m.live = m.alerts.LiveAlerts()
		return m, nil

	case AlertDismissedMsg:
		m.live = m.alerts.LiveAlerts()
		return m, nil

	case dismissedMsg:
		m.live = m.alerts.LiveAlerts()
		if msg.count > 1 {
			m.setMessage(fmt.Sprintf("Dismissed %s", output.Count(msg.count, "alert", "alerts")), 2*time.Second)
		}
		return m, nil

	case checkedMsg:
		m.live = m.alerts.LiveAlerts()
		switch {
		case msg.report.Err != nil:
			m.err = msg.report.Err
		case msg.report.Skipped != "":
			m.setMessage("Check skipped: "+string(msg.report.Skipped), 2*time.Second)
		default:
			m.err = nil
			m.setMessage(fmt.Sprintf("Checked %s", output.Count(msg.report.Records, "medication", "medications")), 2*time.Second)
		}
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input.
func (m *WatchModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "c":
		if len(m.live) == 0 {
			m.setMessage("Nothing to dismiss", time.Second)
			return m, nil
		}
		return m, m.dismissAllCmd()

	case "r":
		return m, m.checkCmd()
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		i := int(key[0] - '1')
		if i >= len(m.live) {
			return m, nil
		}
		return m, m.dismissCmd(m.live[i].Key())
	}
	return m, nil
}

// View renders the watch screen.
func (m *WatchModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	sections = append(sections,
		NewAlertsComponent(m.live, m.width).View(),
		NewMedicationsComponent(m.records, m.now, m.width).View(),
		HelpBar(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *WatchModel) renderHeader() string {
	title := StyleTitle.Render("medalert")
	if m.account != "" {
		title += StyleSubtitle.Render(" · " + m.account)
	}
	clock := StyleSubtitle.Render(m.now.Format("Mon Jan 2, 15:04:05"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", clock) + "\n"
}

func (m *WatchModel) setMessage(msg string, d time.Duration) {
	m.message = msg
	m.messageExp = m.clock().Add(d)
}

// The dispatcher calls back into the sink, which sends to the program.
// Those calls must run off the event loop, so they are commands.

func (m *WatchModel) dismissCmd(key model.AlertKey) tea.Cmd {
	return func() tea.Msg {
		n := 0
		if m.alerts.Dismiss(key) {
			n = 1
		}
		return dismissedMsg{count: n}
	}
}

func (m *WatchModel) dismissAllCmd() tea.Cmd {
	return func() tea.Msg {
		return dismissedMsg{count: m.alerts.DismissAll()}
	}
}

func (m *WatchModel) checkCmd() tea.Cmd {
	return func() tea.Msg {
		return checkedMsg{report: m.alerts.Tick(context.Background())}
	}
}

func (m *WatchModel) loadRecordsCmd() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		if source == nil {
			return recordsMsg{}
		}
		records, err := source.FetchActiveAccountRecords(context.Background())
		return recordsMsg{records: records, err: err}
	}
}

func (m *WatchModel) refreshCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// ProgramSink forwards alerts to a running bubbletea program. Messages
// sent before Attach are dropped.
type ProgramSink struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewProgramSink creates a detached program sink.
func NewProgramSink() *ProgramSink {
	return &ProgramSink{}
}

// Attach routes messages to p.
func (s *ProgramSink) Attach(p *tea.Program) {
	s.attach(p.Send)
}

func (s *ProgramSink) attach(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

func (s *ProgramSink) forward(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// PresentAlert sends an AlertPresentedMsg.
func (s *ProgramSink) PresentAlert(_ context.Context, event model.AlertEvent) {
	s.forward(AlertPresentedMsg{Event: event})
}

// DismissAlert sends an AlertDismissedMsg.
func (s *ProgramSink) DismissAlert(key model.AlertKey) {
	s.forward(AlertDismissedMsg{Key: key})
}

// Run starts the watch screen and blocks until the user quits. sink is
// attached to the program for the lifetime of the run.
func Run(cfg WatchConfig, sink *ProgramSink) error {
	p := tea.NewProgram(NewWatchModel(cfg), tea.WithAltScreen())
	if sink != nil {
		sink.Attach(p)
		defer sink.attach(nil)
	}
	_, err := p.Run()
	return err
}
