package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/scheduler"
)

type fakeAlerts struct {
	mu        sync.Mutex
	live      []model.AlertEvent
	dismissed []model.AlertKey
	ticks     int
	report    scheduler.TickReport
}

func (f *fakeAlerts) Tick(context.Context) scheduler.TickReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	return f.report
}

func (f *fakeAlerts) Dismiss(key model.AlertKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.live {
		if e.Key() == key {
			f.live = append(f.live[:i], f.live[i+1:]...)
			f.dismissed = append(f.dismissed, key)
			return true
		}
	}
	return false
}

func (f *fakeAlerts) DismissAll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.live)
	for _, e := range f.live {
		f.dismissed = append(f.dismissed, e.Key())
	}
	f.live = nil
	return n
}

func (f *fakeAlerts) LiveAlerts() []model.AlertEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AlertEvent(nil), f.live...)
}

type fakeRecords struct {
	records []*model.Medication
	err     error
}

func (f *fakeRecords) FetchActiveAccountRecords(context.Context) ([]*model.Medication, error) {
	return f.records, f.err
}

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testMed(key string, days int, schedule string) *model.Medication {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &model.Medication{
		Key:          key,
		Name:         "Med " + key,
		Dose:         "1 pill",
		Schedule:     schedule,
		DurationDays: days,
		CreatedAt:    &created,
	}
}

func dueEvent(key, minute string) model.AlertEvent {
	return model.AlertEvent{RecordKey: key, Kind: model.AlertDue, FiredAtMinute: minute, Name: "Med " + key, Dose: "1 pill", At: testNow}
}

func newTestModel(alerts *fakeAlerts, records *fakeRecords) *WatchModel {
	return NewWatchModel(WatchConfig{
		Alerts:  alerts,
		Records: records,
		Account: "alice",
		Now:     func() time.Time { return testNow },
	})
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run feeds msg to the model and then the message of the returned command.
func run(t *testing.T, m *WatchModel, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	out := cmd()
	m.Update(out)
	return out
}

// =============================================================================
// Watch Model Tests
// =============================================================================

func TestWatchModelDismissByNumber(t *testing.T) {
	alerts := &fakeAlerts{live: []model.AlertEvent{dueEvent("a", "08:00"), dueEvent("b", "08:00")}}
	m := newTestModel(alerts, &fakeRecords{})
	m.Update(refreshMsg(testNow))
	require.Len(t, m.live, 2)

	out := run(t, m, key("2"))
	assert.Equal(t, dismissedMsg{count: 1}, out)
	assert.Equal(t, []model.AlertKey{model.DueKey("b", "08:00")}, alerts.dismissed)
	require.Len(t, m.live, 1)
	assert.Equal(t, "a", m.live[0].RecordKey)
}

func TestWatchModelDismissOutOfRange(t *testing.T) {
	alerts := &fakeAlerts{live: []model.AlertEvent{dueEvent("a", "08:00")}}
	m := newTestModel(alerts, &fakeRecords{})
	m.Update(refreshMsg(testNow))

	_, cmd := m.Update(key("5"))
	assert.Nil(t, cmd)
	assert.Empty(t, alerts.dismissed)
}

func TestWatchModelDismissAll(t *testing.T) {
	alerts := &fakeAlerts{live: []model.AlertEvent{dueEvent("a", "08:00"), dueEvent("b", "08:00")}}
	m := newTestModel(alerts, &fakeRecords{})
	m.Update(refreshMsg(testNow))

	out := run(t, m, key("c"))
	assert.Equal(t, dismissedMsg{count: 2}, out)
	assert.Empty(t, m.live)
	assert.Equal(t, "Dismissed 2 alerts", m.message)

	_, cmd := m.Update(key("c"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to dismiss", m.message)
}

func TestWatchModelCheck(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		alerts := &fakeAlerts{report: scheduler.TickReport{Records: 3}}
		m := newTestModel(alerts, &fakeRecords{})

		run(t, m, key("r"))
		assert.Equal(t, 1, alerts.ticks)
		assert.Equal(t, "Checked 3 medications", m.message)
	})

	t.Run("skipped", func(t *testing.T) {
		alerts := &fakeAlerts{report: scheduler.TickReport{Skipped: scheduler.SkipNoSession}}
		m := newTestModel(alerts, &fakeRecords{})

		run(t, m, key("r"))
		assert.Equal(t, "Check skipped: no_session", m.message)
	})

	t.Run("error", func(t *testing.T) {
		alerts := &fakeAlerts{report: scheduler.TickReport{Err: errors.New("gone")}}
		m := newTestModel(alerts, &fakeRecords{})

		run(t, m, key("r"))
		assert.EqualError(t, m.err, "gone")
	})
}

func TestWatchModelQuit(t *testing.T) {
	m := newTestModel(&fakeAlerts{}, &fakeRecords{})
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestWatchModelSinkMessagesRefreshAlerts(t *testing.T) {
	alerts := &fakeAlerts{}
	m := newTestModel(alerts, &fakeRecords{})

	alerts.live = []model.AlertEvent{dueEvent("a", "08:00")}
	m.Update(AlertPresentedMsg{Event: alerts.live[0]})
	assert.Len(t, m.live, 1)

	alerts.live = nil
	m.Update(AlertDismissedMsg{Key: model.DueKey("a", "08:00")})
	assert.Empty(t, m.live)
}

func TestWatchModelRecords(t *testing.T) {
	records := &fakeRecords{records: []*model.Medication{testMed("a", 5, "08:00")}}
	m := newTestModel(&fakeAlerts{}, records)

	m.Update(m.loadRecordsCmd()())
	assert.Len(t, m.records, 1)
	assert.NoError(t, m.err)

	records.err = errors.New("locked")
	m.Update(m.loadRecordsCmd()())
	assert.EqualError(t, m.err, "locked")
	assert.Len(t, m.records, 1, "last good snapshot is kept")
}

func TestWatchModelView(t *testing.T) {
	alerts := &fakeAlerts{live: []model.AlertEvent{dueEvent("a", "08:00")}}
	records := &fakeRecords{records: []*model.Medication{
		testMed("a", 5, "08:00, 20:00"),
		testMed("old", 0, "08:00"),
	}}
	m := newTestModel(alerts, records)

	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m.Update(refreshMsg(testNow))
	m.Update(m.loadRecordsCmd()())

	view := m.View()
	assert.Contains(t, view, "medalert")
	assert.Contains(t, view, "alice")
	assert.Contains(t, view, "[1]")
	assert.Contains(t, view, "Med a")
	assert.Contains(t, view, "next 20:00")
	assert.NotContains(t, view, "Med old")
	assert.Contains(t, view, "dismiss all")
}

func TestWatchModelMessageExpires(t *testing.T) {
	now := testNow
	m := NewWatchModel(WatchConfig{Alerts: &fakeAlerts{}, Now: func() time.Time { return now }})
	m.setMessage("hello", time.Second)

	m.Update(refreshMsg(now))
	assert.Equal(t, "hello", m.message)

	now = now.Add(2 * time.Second)
	m.Update(refreshMsg(now))
	assert.Empty(t, m.message)
}

// =============================================================================
// Program Sink Tests
// =============================================================================

func TestProgramSink(t *testing.T) {
	s := NewProgramSink()
	ev := dueEvent("a", "08:00")

	// Detached sinks drop messages.
	s.PresentAlert(context.Background(), ev)

	var got []tea.Msg
	s.attach(func(msg tea.Msg) { got = append(got, msg) })
	s.PresentAlert(context.Background(), ev)
	s.DismissAlert(ev.Key())

	require.Len(t, got, 2)
	assert.Equal(t, AlertPresentedMsg{Event: ev}, got[0])
	assert.Equal(t, AlertDismissedMsg{Key: ev.Key()}, got[1])

	s.attach(nil)
	s.DismissAlert(ev.Key())
	assert.Len(t, got, 2)
}

// =============================================================================
// Component Tests
// =============================================================================

func TestAlertsComponentView(t *testing.T) {
	empty := NewAlertsComponent(nil, 60).View()
	assert.Contains(t, empty, "No alerts right now")

	var live []model.AlertEvent
	for i := 0; i < 10; i++ {
		live = append(live, dueEvent(string(rune('a'+i)), "08:00"))
	}
	live[1].Kind = model.AlertUpcoming
	view := NewAlertsComponent(live, 60).View()
	assert.Contains(t, view, "TAKE NOW")
	assert.Contains(t, view, "[9]")
	assert.NotContains(t, view, "[10]")
	assert.Contains(t, view, "SOON")
}

func TestNextDose(t *testing.T) {
	m := testMed("a", 5, "20:00, 08:00, 12:30, 8:15")

	next, ok := NextDose(m, testNow)
	require.True(t, ok)
	assert.Equal(t, "12:30", next, "the current minute and malformed entries are skipped")

	_, ok = NextDose(m, time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC))
	assert.False(t, ok)

	view := NewMedicationsComponent([]*model.Medication{m}, time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC), 80).View()
	assert.Contains(t, view, "done for today")
}

func TestTreatmentProgress(t *testing.T) {
	m := testMed("a", 4, "08:00")
	assert.InDelta(t, 0, TreatmentProgress(m, *m.CreatedAt), 0.001)
	assert.InDelta(t, 50, TreatmentProgress(m, m.CreatedAt.AddDate(0, 0, 2)), 0.001)

	assert.Zero(t, TreatmentProgress(&model.Medication{DurationDays: 3}, testNow))
	assert.Equal(t, 100.0, TreatmentProgress(testMed("z", 0, "08:00"), testNow))
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		filled     int
	}{
		{"zero", 0, 0},
		{"half", 50, 5},
		{"full", 100, 10},
		{"over", 150, 10},
		{"negative", -10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := ProgressBar(tt.percentage, 10)
			assert.Equal(t, tt.filled, strings.Count(bar, "█"))
			assert.Equal(t, 10-tt.filled, strings.Count(bar, "░"))
		})
	}
}

func TestFormatMedication(t *testing.T) {
	assert.Contains(t, FormatMedication("Ibuprofen", "200mg"), "Ibuprofen")
	assert.Contains(t, FormatMedication("Ibuprofen", "200mg"), "200mg")
	assert.Contains(t, FormatMedication("Ibuprofen", ""), "Ibuprofen")

	long := strings.Repeat("x", 60)
	out := FormatMedication(long, "")
	assert.NotContains(t, out, long)
	assert.Contains(t, out, strings.Repeat("x", maxNameWidth-3)+"...")
}

func TestHelpBar(t *testing.T) {
	bar := HelpBar()
	for _, k := range []string{"1-9", "dismiss", "c", "r", "q", "quit"} {
		assert.Contains(t, bar, k)
	}
}
