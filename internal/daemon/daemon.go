package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/manav03panchal/medalert/internal/config"
	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/notify"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/scheduler"
	"github.com/manav03panchal/medalert/internal/storage"
)

// Options configures a Daemon.
type Options struct {
	// StateDir holds the PID, state and log files. Empty means StateDir().
	StateDir string
	// Console receives alert boxes. Nil means stdout.
	Console io.Writer
	// Clock drives the alert dispatcher. Nil means the system clock.
	Clock scheduler.Clock
	Debug bool
}

// Daemon manages the background daemon process. Status, stop and
// background start work without a store; Start needs one. The store is
// opened per read so the CLI can write while the daemon runs.
type Daemon struct {
	pidFile  *PIDFile
	stateDir string
	store    *storage.Shared
	console  io.Writer
	clock    scheduler.Clock
	metrics  *Metrics
	debug    bool

	startedAt time.Time
}

// Status represents the daemon status.
type Status struct {
	Running   bool             `json:"running"`
	PID       int              `json:"pid,omitempty"`
	StartedAt time.Time        `json:"started_at,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Health    string           `json:"health,omitempty"`
	Autostart bool             `json:"autostart"`
	Metrics   *MetricsSnapshot `json:"metrics,omitempty"`
}

// DaemonState is the state file the running daemon keeps current.
type DaemonState struct {
	PID       int              `json:"pid"`
	StartedAt time.Time        `json:"started_at"`
	Metrics   *MetricsSnapshot `json:"metrics,omitempty"`
}

// NewDaemon creates a daemon manager. store may be nil when only status,
// stop or background start are needed.
func NewDaemon(store *storage.Shared, opts Options) *Daemon {
	dir := opts.StateDir
	if dir == "" {
		dir = StateDir()
	}
	clock := opts.Clock
	if clock == nil {
		clock = scheduler.SystemClock{}
	}
	return &Daemon{
		pidFile:  NewPIDFile(dir),
		stateDir: dir,
		store:    store,
		console:  opts.Console,
		clock:    clock,
		metrics:  NewMetrics(),
		debug:    opts.Debug,
	}
}

// Metrics returns the metrics of this process.
func (d *Daemon) Metrics() *Metrics {
	return d.metrics
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	return d.pidFile.IsRunning()
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() *Status {
	status := &Status{Autostart: AutostartEnabled()}

	pid := d.pidFile.RunningPID()
	if pid == 0 {
		return status
	}
	status.Running = true
	status.PID = pid

	if state, err := d.readState(); err == nil {
		now := time.Now()
		status.StartedAt = state.StartedAt
		status.Uptime = output.FormatDuration(now.Sub(state.StartedAt))
		snap := MetricsSnapshot{}
		if state.Metrics != nil {
			snap = *state.Metrics
		}
		status.Metrics = &snap
		status.Health = Health(snap, state.StartedAt, now, config.Global.Scheduler.TickPeriod)
	}
	return status
}

// Start runs the daemon in the foreground until ctx is done or a shutdown
// signal arrives. It needs a validated session.
func (d *Daemon) Start(ctx context.Context) error {
	if d.store == nil {
		return fmt.Errorf("daemon: no database")
	}
	if d.IsRunning() {
		return ErrAlreadyRunning
	}

	records := d.store.Records()
	webhooks := notify.NewDispatcher(d.store.Webhooks())

	sink, wait, err := d.buildSinks(webhooks)
	if err != nil {
		return err
	}

	cfg := config.Global.Scheduler
	alerts := scheduler.NewAlertDispatcher(records, records, sink,
		scheduler.WithClock(d.clock),
		scheduler.WithVisibility(cfg.AlertVisibility),
		scheduler.WithPeriod(cfg.TickPeriod),
		scheduler.WithTickTimeout(cfg.TickTimeout),
		scheduler.WithTickObserver(d.observe),
	)
	sched := scheduler.NewScheduler(alerts)
	digest := scheduler.NewDigestGenerator(records, records, &digestSender{sender: webhooks, metrics: d.metrics})
	if err := sched.SetDigest(digest, cfg.DigestAt); err != nil {
		return err
	}

	if err := d.pidFile.Write(); err != nil {
		return err
	}
	d.startedAt = time.Now()
	if err := d.writeState(); err != nil {
		d.pidFile.Remove()
		return err
	}

	if err := sched.Start(); err != nil {
		d.cleanup()
		return err
	}

	sigHandler := NewSignalHandler()
	sigHandler.Setup()
	defer sigHandler.Cleanup()

	logging.Info("daemon started", "pid", os.Getpid(), "next_run", sched.NextRun())

	sig := sigHandler.Run(ctx, func() {
		logging.Info("check requested")
		go alerts.Tick(context.Background())
	})
	if sig != nil {
		logging.Info("received signal", "signal", sig.String())
	}

	sched.Stop()
	alerts.DismissAll()
	wait()
	d.cleanup()
	logging.Info("daemon stopped")
	return nil
}

// buildSinks assembles console, webhook and Telegram sinks. The returned
// func waits for background deliveries.
func (d *Daemon) buildSinks(webhooks notify.Broadcaster) (notify.MultiSink, func(), error) {
	console := notify.NewConsoleSink()
	if d.console != nil {
		console = notify.NewConsoleSinkWriter(d.console, nil)
	}

	webhookSink := notify.NewWebhookSink(webhooks, 0)
	telegram, err := notify.NewTelegramSinkFromConfig(config.Global.Telegram)
	if err != nil {
		return nil, nil, fmt.Errorf("telegram: %w", err)
	}

	sinks := []notify.Sink{console, webhookSink}
	if telegram != nil {
		sinks = append(sinks, telegram)
	}
	wait := func() {
		webhookSink.Wait()
		if telegram != nil {
			telegram.Wait()
		}
	}
	return notify.NewMultiSink(sinks...), wait, nil
}

// observe records a pass and persists the metrics for status.
func (d *Daemon) observe(r scheduler.TickReport) {
	d.metrics.ObserveTick(r)
	if err := d.writeState(); err != nil {
		logging.Warn("failed to write daemon state", logging.KeyError, err)
	}
}

// digestSender counts digest deliveries.
type digestSender struct {
	sender  notify.Broadcaster
	metrics *Metrics
}

func (s *digestSender) Broadcast(ctx context.Context, n *model.Notification) error {
	err := s.sender.Broadcast(ctx, n)
	s.metrics.RecordDigest(time.Now(), err)
	return err
}

// CheckNow asks the running daemon for an immediate pass.
func (d *Daemon) CheckNow() error {
	pid := d.pidFile.RunningPID()
	if pid == 0 {
		return ErrNotRunning
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGHUP); err != nil {
		return fmt.Errorf("failed to signal daemon: %w", err)
	}
	return nil
}

// StartBackground re-executes the binary as a detached foreground daemon.
func (d *Daemon) StartBackground() (int, error) {
	if pid := d.pidFile.RunningPID(); pid > 0 {
		return pid, ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"daemon", "start", "--foreground"}
	if d.debug {
		args = append(args, "--debug")
	}
	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil

	logPath := d.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err == nil {
		if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			defer logFile.Close()
			cmd.Stdout = logFile
			cmd.Stderr = logFile
		}
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()

	time.Sleep(config.Global.Daemon.StartupWait)

	if !d.pidFile.IsRunning() {
		if errMsg := d.lastLogError(); errMsg != "" {
			return 0, fmt.Errorf("daemon failed to start: %s", errMsg)
		}
		return 0, fmt.Errorf("daemon failed to start (check logs: %s)", logPath)
	}
	return pid, nil
}

// lastLogError finds the most recent error line in the last lines of the log.
func (d *Daemon) lastLogError() string {
	data, err := os.ReadFile(d.LogPath())
	if err != nil {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	start := max(len(lines)-10, 0)
	for i := len(lines) - 1; i >= start; i-- {
		line := strings.TrimSpace(lines[i])
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "failed to") {
			return line
		}
	}
	return ""
}

// Stop asks the running daemon to shut down and waits up to the kill
// timeout before forcing it.
func (d *Daemon) Stop() error {
	pid := d.pidFile.RunningPID()
	if pid == 0 {
		return ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
	}

	deadline := time.Now().Add(config.Global.Daemon.KillTimeout)
	for IsProcessRunning(pid) && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if IsProcessRunning(pid) {
		process.Kill()
	}

	d.cleanup()
	return nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.stateDir, "daemon.log")
}

func (d *Daemon) statePath() string {
	return filepath.Join(d.stateDir, "daemon.json")
}

func (d *Daemon) writeState() error {
	snap := d.metrics.Snapshot()
	state := &DaemonState{PID: os.Getpid(), StartedAt: d.startedAt, Metrics: &snap}

	path := d.statePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *Daemon) readState() (*DaemonState, error) {
	data, err := os.ReadFile(d.statePath())
	if err != nil {
		return nil, err
	}

	var state DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (d *Daemon) cleanup() {
	if err := d.pidFile.Remove(); err != nil {
		logging.Warn("failed to remove PID file", logging.KeyError, err)
	}
	if err := os.Remove(d.statePath()); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove daemon state file", logging.KeyError, err, "path", d.statePath())
	}
}
