package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/daemon"
	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/notify"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/validate"
)

// Daemon command flags.
var (
	daemonStartFlagForeground bool
	daemonLogsFlagTail        int
	daemonLogsFlagFollow      bool
)

// noDB is shared by the daemon commands; a running daemon holds the database.
var noDB = map[string]string{annotationNoDB: ""}

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"d", "bg", "service"},
	Short:   "Manage the background daemon",
	Long: `Manage the medalert background daemon. The daemon checks the schedule
every minute, shows alerts, sends them to webhooks and Telegram, and sends
the daily digest.

Examples:
  medalert daemon start
  medalert daemon status
  medalert daemon stop
  medalert daemon logs --tail 20`,
	Annotations: noDB,
	RunE:        runDaemonStatus,
}

// daemonStartCmd starts the daemon.
var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the medalert background daemon. A signed-in account is required.

Examples:
  medalert daemon start           # Start in background
  medalert daemon start -f        # Start in foreground (for debugging)`,
	Annotations: noDB,
	RunE:        runDaemonStart,
}

// daemonStopCmd stops the daemon.
var daemonStopCmd = &cobra.Command{
	Use:         "stop",
	Short:       "Stop the background daemon",
	Annotations: noDB,
	RunE:        runDaemonStop,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show daemon status",
	Annotations: noDB,
	RunE:        runDaemonStatus,
}

// daemonLogsCmd shows daemon logs.
var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `View the daemon log file.

Examples:
  medalert daemon logs
  medalert daemon logs --tail 50
  medalert daemon logs --follow`,
	Annotations: noDB,
	RunE:        runDaemonLogs,
}

// daemonInstallCmd registers the daemon to start on login.
var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Start the daemon automatically on login",
	Long: `Register the medalert daemon to start automatically when you log in.

On macOS this creates a launchd agent; on Linux an XDG autostart entry.`,
	Annotations: noDB,
	RunE:        runDaemonInstall,
}

// daemonUninstallCmd removes the login registration.
var daemonUninstallCmd = &cobra.Command{
	Use:         "uninstall",
	Short:       "Stop starting the daemon on login",
	Annotations: noDB,
	RunE:        runDaemonUninstall,
}

func init() {
	daemonStartCmd.Flags().BoolVarP(&daemonStartFlagForeground, "foreground", "f", false,
		"Run in foreground (don't daemonize)")

	daemonLogsCmd.Flags().IntVarP(&daemonLogsFlagTail, "tail", "n", 20,
		"Number of lines to show")
	daemonLogsCmd.Flags().BoolVar(&daemonLogsFlagFollow, "follow", false,
		"Follow log output (like tail -f)")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonLogsCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)

	rootCmd.AddCommand(daemonCmd)
}

// runDaemonStart handles the daemon start command.
func runDaemonStart(cmd *cobra.Command, args []string) error {
	f := formatterFor(cmd)
	cli := output.NewCLIFormatter(f)

	if !daemonStartFlagForeground {
		// Background mode spawns a child without holding the database lock.
		d := daemon.NewDaemon(nil, daemon.Options{Debug: flagDebug})
		pid, err := d.StartBackground()
		if err != nil {
			return err
		}
		if f.IsJSON() {
			return f.JSON(map[string]any{"status": "started", "pid": pid})
		}
		cli.Success(fmt.Sprintf("Daemon started (PID: %d)", pid))
		cli.Muted("Logs: " + d.LogPath())
		return nil
	}

	var err error
	ctx, err = openContext(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	logCfg := logging.DaemonConfig(cmd.ErrOrStderr())
	if flagDebug {
		logCfg = logging.DebugConfig()
	}
	logging.Init(logCfg)

	if notify.NewDispatcher(ctx.WebhookRepo).CountEnabledWebhooks() == 0 {
		logging.Info("no webhooks configured; alerts are shown on the console only")
	}

	store, err := ctx.Share()
	if err != nil {
		return err
	}
	defer store.Close()

	d := daemon.NewDaemon(store, daemon.Options{Console: cmd.OutOrStdout(), Debug: flagDebug})
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !f.IsJSON() {
		cli.Muted("Starting medalert daemon (foreground mode)...")
	}
	return d.Start(runCtx)
}

// runDaemonStop handles the daemon stop command.
func runDaemonStop(cmd *cobra.Command, args []string) error {
	f := formatterFor(cmd)
	d := daemon.NewDaemon(nil, daemon.Options{})

	pid := d.GetStatus().PID
	if err := d.Stop(); err != nil {
		if errors.Is(err, daemon.ErrNotRunning) && !f.IsJSON() {
			output.NewCLIFormatter(f).Muted("Daemon is not running")
			return nil
		}
		return err
	}

	if f.IsJSON() {
		return f.JSON(map[string]any{"status": "stopped", "pid": pid})
	}
	output.NewCLIFormatter(f).Success(fmt.Sprintf("Daemon stopped (was PID: %d)", pid))
	return nil
}

// runDaemonStatus handles the daemon status command.
func runDaemonStatus(cmd *cobra.Command, args []string) error {
	f := formatterFor(cmd)
	status := daemon.NewDaemon(nil, daemon.Options{}).GetStatus()

	if f.IsJSON() {
		return f.JSON(status)
	}

	cli := output.NewCLIFormatter(f)
	cli.Title("medalert daemon")

	autostart := "disabled"
	if status.Autostart {
		autostart = "enabled"
	}

	if !status.Running {
		f.Printf("  Status:    stopped\n")
		f.Printf("  Autostart: %s\n", autostart)
		f.Println("")
		cli.Muted("Start with: medalert daemon start")
		return nil
	}

	f.Printf("  Status:    running (%s)\n", status.Health)
	f.Printf("  PID:       %d\n", status.PID)
	f.Printf("  Uptime:    %s\n", status.Uptime)
	f.Printf("  Autostart: %s\n", autostart)

	if m := status.Metrics; m != nil {
		f.Println("")
		f.Printf("  Checks:    %d (%d skipped)\n", m.TicksTotal, m.TicksSkippedTotal)
		f.Printf("  Alerts:    %d shown, %d suppressed\n", m.AlertsEmittedTotal, m.AlertsSuppressedTotal)
		f.Printf("  Digests:   %d\n", m.DigestsSentTotal)
		if m.LastTickAt != nil {
			f.Printf("  Last run:  %s\n", output.FormatTimeShort(*m.LastTickAt, time.Local))
		}
		if m.LastError != "" {
			cli.Warning(fmt.Sprintf("Last error: %s", m.LastError))
		}
	}
	return nil
}

// runDaemonLogs handles the daemon logs command.
func runDaemonLogs(cmd *cobra.Command, args []string) error {
	if err := validate.InRange("tail", daemonLogsFlagTail, 1, maxTailLines); err != nil {
		return err
	}
	f := formatterFor(cmd)
	logPath := daemon.NewDaemon(nil, daemon.Options{}).LogPath()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		output.NewCLIFormatter(f).Muted("No log file found.")
		f.Printf("Log path: %s\n", logPath)
		return nil
	}

	lines, err := tailFile(logPath, daemonLogsFlagTail)
	if err != nil {
		return err
	}
	for _, line := range lines {
		f.Println(line)
	}

	if daemonLogsFlagFollow {
		followCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return followLogs(followCtx, logPath, f.Writer)
	}
	return nil
}

// maxTailLines bounds daemon logs --tail.
const maxTailLines = 10000

// tailFile reads the last n lines from a file.
func tailFile(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// followLogs copies lines appended to path to w until ctx is done.
func followLogs(ctx context.Context, path string, w io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		for {
			line, err := reader.ReadString('\n')
			if len(line) > 0 {
				fmt.Fprint(w, line)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runDaemonInstall handles the daemon install command.
func runDaemonInstall(cmd *cobra.Command, args []string) error {
	f := formatterFor(cmd)

	if daemon.AutostartEnabled() {
		if f.IsJSON() {
			return f.JSON(map[string]any{"status": "already_installed"})
		}
		output.NewCLIFormatter(f).Muted("Autostart is already enabled.")
		return nil
	}

	if err := daemon.EnableAutostart(); err != nil {
		return err
	}

	if f.IsJSON() {
		return f.JSON(map[string]any{
			"status":  "installed",
			"message": "Daemon will start automatically on login",
		})
	}

	cli := output.NewCLIFormatter(f)
	cli.Success("Autostart enabled")
	f.Println("")
	f.Println("The daemon will now start automatically when you log in.")
	cli.Muted("To start it now: medalert daemon start")
	cli.Muted("To remove: medalert daemon uninstall")
	return nil
}

// runDaemonUninstall handles the daemon uninstall command.
func runDaemonUninstall(cmd *cobra.Command, args []string) error {
	f := formatterFor(cmd)

	if !daemon.AutostartEnabled() {
		if f.IsJSON() {
			return f.JSON(map[string]any{"status": "not_installed"})
		}
		output.NewCLIFormatter(f).Muted("Autostart is not enabled.")
		return nil
	}

	if err := daemon.DisableAutostart(); err != nil {
		return err
	}

	if f.IsJSON() {
		return f.JSON(map[string]any{"status": "uninstalled"})
	}
	output.NewCLIFormatter(f).Success("Autostart disabled")
	output.NewCLIFormatter(f).Muted("A running daemon keeps running; stop it with: medalert daemon stop")
	return nil
}
