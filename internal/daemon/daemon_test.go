package daemon

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/scheduler"
	"github.com/manav03panchal/medalert/internal/storage"
)

func setupTestStore(t *testing.T) *storage.Shared {
	store := storage.NewShared(storage.Options{InMemory: true}, time.Second)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// PID File Tests
// =============================================================================

func TestPIDFile(t *testing.T) {
	p := NewPIDFile(t.TempDir())

	_, err := p.Read()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.False(t, p.IsRunning())
	assert.Zero(t, p.RunningPID())

	require.NoError(t, p.Write())
	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, p.IsRunning())
	assert.Equal(t, os.Getpid(), p.RunningPID())

	require.NoError(t, p.Remove())
	assert.NoFileExists(t, p.Path())
	assert.NoError(t, p.Remove(), "removing a missing file is fine")
}

func TestPIDFileInvalidContent(t *testing.T) {
	p := NewPIDFile(t.TempDir())
	require.NoError(t, os.WriteFile(p.Path(), []byte("not-a-pid"), 0o644))

	_, err := p.Read()
	assert.Error(t, err)
	assert.False(t, p.IsRunning())
}

func TestPIDFileStaleProcess(t *testing.T) {
	p := NewPIDFile(t.TempDir())
	// PID values this large are never allocated on Linux.
	require.NoError(t, p.WritePID(1<<30))
	assert.False(t, p.IsRunning())
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(0))
	assert.False(t, IsProcessRunning(-1))
}

func TestDaemonErrorsAreCategorized(t *testing.T) {
	assert.True(t, errors.Is(ErrNotRunning, merrors.ErrDaemonNotRunning))
	assert.True(t, errors.Is(ErrAlreadyRunning, merrors.ErrDaemonRunning))
}

// =============================================================================
// Signal Tests
// =============================================================================

func TestSignalHandlerContextDone(t *testing.T) {
	h := NewSignalHandler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, h.Run(ctx, nil))
}

func TestSignalHandlerCheckThenStop(t *testing.T) {
	h := NewSignalHandler()
	checks := 0
	h.signals <- syscall.SIGHUP

	done := make(chan os.Signal, 1)
	go func() {
		done <- h.Run(context.Background(), func() {
			checks++
			h.signals <- syscall.SIGTERM
		})
	}()

	select {
	case sig := <-done:
		assert.Equal(t, syscall.SIGTERM, sig)
		assert.Equal(t, 1, checks)
	case <-time.After(2 * time.Second):
		t.Fatal("signal handler did not return")
	}
}

// =============================================================================
// Metrics Tests
// =============================================================================

func TestMetricsObserveTick(t *testing.T) {
	m := NewMetrics()
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	m.ObserveTick(scheduler.TickReport{
		TickID:     "t1",
		At:         at,
		Records:    2,
		Emitted:    []model.AlertEvent{{}, {}},
		Suppressed: 1,
	})
	m.ObserveTick(scheduler.TickReport{TickID: "t2", At: at.Add(time.Minute), Skipped: scheduler.SkipNoSession})

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TicksTotal)
	assert.Equal(t, int64(1), snap.TicksSkippedTotal)
	assert.Equal(t, int64(2), snap.AlertsEmittedTotal)
	assert.Equal(t, int64(1), snap.AlertsSuppressedTotal)
	assert.Equal(t, "t2", snap.LastTickID)
	require.NotNil(t, snap.LastAlertAt)
	assert.Equal(t, at, *snap.LastAlertAt)
	assert.Nil(t, snap.LastErrorAt)
	assert.Equal(t, int64(2), m.Ticks())
	assert.Equal(t, int64(2), m.AlertsEmitted())
}

func TestMetricsConsecutiveFailures(t *testing.T) {
	m := NewMetrics()
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	fail := scheduler.TickReport{At: at, Err: errors.New("fetch failed")}

	m.ObserveTick(fail)
	m.ObserveTick(fail)
	assert.Equal(t, 2, m.Snapshot().ConsecutiveFailures)
	assert.Equal(t, int64(2), m.FetchFailures())
	assert.Equal(t, "fetch failed", m.Snapshot().LastError)

	// A skipped pass neither fails nor recovers.
	m.ObserveTick(scheduler.TickReport{At: at, Skipped: scheduler.SkipOverlap})
	assert.Equal(t, 2, m.Snapshot().ConsecutiveFailures)

	m.ObserveTick(scheduler.TickReport{At: at})
	assert.Zero(t, m.Snapshot().ConsecutiveFailures)
}

func TestMetricsRecordDigest(t *testing.T) {
	m := NewMetrics()
	at := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	m.RecordDigest(at, nil)
	m.RecordDigest(at, errors.New("webhook down"))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.DigestsSentTotal)
	assert.Equal(t, "webhook down", snap.LastError)
	require.NotNil(t, snap.LastErrorAt)
	assert.Equal(t, at, *snap.LastErrorAt)
}

// =============================================================================
// Health Tests
// =============================================================================

func TestHealth(t *testing.T) {
	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tickAt := started.Add(time.Minute)

	tests := []struct {
		name     string
		snap     MetricsSnapshot
		now      time.Time
		expected string
	}{
		{"waiting_for_first_pass", MetricsSnapshot{}, started.Add(30 * time.Second), HealthWaiting},
		{"never_ticked", MetricsSnapshot{}, started.Add(10 * time.Minute), HealthStale},
		{"healthy", MetricsSnapshot{LastTickAt: &tickAt}, tickAt.Add(time.Minute), HealthHealthy},
		{"stale", MetricsSnapshot{LastTickAt: &tickAt}, tickAt.Add(4 * time.Minute), HealthStale},
		{"degraded", MetricsSnapshot{LastTickAt: &tickAt, ConsecutiveFailures: 3}, tickAt, HealthDegraded},
		{"recovering", MetricsSnapshot{LastTickAt: &tickAt, ConsecutiveFailures: 2}, tickAt, HealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Health(tt.snap, started, tt.now, time.Minute))
		})
	}
}

func TestHealthDefaultPeriod(t *testing.T) {
	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, HealthWaiting, Health(MetricsSnapshot{}, started, started.Add(2*time.Minute), 0))
}

// =============================================================================
// Daemon Tests
// =============================================================================

func TestDaemonStatusNotRunning(t *testing.T) {
	d := NewDaemon(nil, Options{StateDir: t.TempDir()})

	assert.False(t, d.IsRunning())
	status := d.GetStatus()
	assert.False(t, status.Running)
	assert.Zero(t, status.PID)
	assert.Empty(t, status.Health)

	assert.ErrorIs(t, d.Stop(), ErrNotRunning)
	assert.ErrorIs(t, d.CheckNow(), ErrNotRunning)
}

func TestDaemonStatusFromState(t *testing.T) {
	dir := t.TempDir()
	d := NewDaemon(nil, Options{StateDir: dir})

	require.NoError(t, d.pidFile.Write())
	d.startedAt = time.Now().Add(-90 * time.Minute)
	d.metrics.ObserveTick(scheduler.TickReport{TickID: "t1", At: time.Now()})
	require.NoError(t, d.writeState())

	status := d.GetStatus()
	assert.True(t, status.Running)
	assert.Equal(t, os.Getpid(), status.PID)
	assert.Equal(t, "1h 30m", status.Uptime)
	assert.Equal(t, HealthHealthy, status.Health)
	require.NotNil(t, status.Metrics)
	assert.Equal(t, int64(1), status.Metrics.TicksTotal)

	d.cleanup()
	assert.NoFileExists(t, filepath.Join(dir, PIDFileName))
	assert.NoFileExists(t, d.statePath())
}

func TestDaemonStartRequiresDatabase(t *testing.T) {
	d := NewDaemon(nil, Options{StateDir: t.TempDir()})
	assert.Error(t, d.Start(context.Background()))
}

func TestDaemonStartAlreadyRunning(t *testing.T) {
	d := NewDaemon(setupTestStore(t), Options{StateDir: t.TempDir()})
	require.NoError(t, d.pidFile.Write())

	assert.ErrorIs(t, d.Start(context.Background()), ErrAlreadyRunning)
}

func TestDaemonStartWithoutSession(t *testing.T) {
	dir := t.TempDir()
	d := NewDaemon(setupTestStore(t), Options{StateDir: dir, Console: &bytes.Buffer{}})

	err := d.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, merrors.ErrSessionNotValidated)
	assert.NoFileExists(t, filepath.Join(dir, PIDFileName), "a failed start leaves no PID file")
}

func TestDaemonStartStop(t *testing.T) {
	opts := storage.Options{Path: filepath.Join(t.TempDir(), "db")}
	db, err := storage.Open(opts)
	require.NoError(t, err)
	_, err = storage.NewSessionRepo(db).Start("alice")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	dir := t.TempDir()
	d := NewDaemon(storage.NewShared(opts, time.Second), Options{StateDir: dir, Console: &bytes.Buffer{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	require.Eventually(t, d.IsRunning, 2*time.Second, 10*time.Millisecond)
	pid, err := d.pidFile.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.FileExists(t, d.statePath())

	// The CLI can still write while the daemon runs.
	db, err = storage.OpenWait(opts, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, storage.NewMedicationRepo(db).Create(model.NewMedication("alice", "Ibuprofen", "200mg", []string{"09:00"}, 3)))
	require.NoError(t, storage.NewSessionRepo(db).End())
	require.NoError(t, db.Close())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.False(t, d.IsRunning())
	assert.NoFileExists(t, d.statePath())
}

func TestDaemonLogPath(t *testing.T) {
	dir := t.TempDir()
	d := NewDaemon(nil, Options{StateDir: dir})
	assert.Equal(t, filepath.Join(dir, "daemon.log"), d.LogPath())
	assert.Empty(t, d.lastLogError())

	require.NoError(t, os.WriteFile(d.LogPath(), []byte("started\nfailed to open database\nbye\n"), 0o644))
	assert.Equal(t, "failed to open database", d.lastLogError())
}

func TestDigestSenderCounts(t *testing.T) {
	m := NewMetrics()
	s := &digestSender{sender: broadcastFunc(func(context.Context, *model.Notification) error { return nil }), metrics: m}

	require.NoError(t, s.Broadcast(context.Background(), &model.Notification{}))
	assert.Equal(t, int64(1), m.Snapshot().DigestsSentTotal)
}

type broadcastFunc func(context.Context, *model.Notification) error

func (f broadcastFunc) Broadcast(ctx context.Context, n *model.Notification) error { return f(ctx, n) }
