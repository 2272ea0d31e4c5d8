package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/config"
	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/storage"
)

// configCmd shows the effective runtime configuration.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Show the runtime configuration",
	Long: `Show the effective runtime configuration. Values come from MEDALERT_*
environment variables or a .env file in the working directory.

Variables:
  MEDALERT_DATABASE           Database directory, or :memory:
  MEDALERT_ALERT_VISIBILITY   How long an alert stays up (e.g. 30s)
  MEDALERT_TICK_PERIOD        Interval between checks (e.g. 1m)
  MEDALERT_TICK_TIMEOUT       Timeout for loading medications
  MEDALERT_DIGEST_AT          Daily digest time (HH:MM), empty to disable
  MEDALERT_HTTP_TIMEOUT       Webhook request timeout
  MEDALERT_HTTP_MAX_RETRIES   Webhook delivery attempts
  MEDALERT_TELEGRAM_TOKEN     Telegram bot token
  MEDALERT_TELEGRAM_CHAT_ID   Telegram chat to alert
  MEDALERT_DAEMON_STARTUP_WAIT
  MEDALERT_DAEMON_KILL_TIMEOUT`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoDB: ""},
	RunE:        runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configEntries lists the effective settings in display order.
func configEntries(c *config.RuntimeConfig) [][2]string {
	database := c.Storage.Database
	if database == "" {
		database = storage.DefaultPath()
	}
	digest := c.Scheduler.DigestAt
	if digest == "" {
		digest = "disabled"
	}
	telegram := "disabled"
	if c.Telegram.Enabled() {
		telegram = fmt.Sprintf("chat %d, token %s", c.Telegram.ChatID, logging.MaskValue(c.Telegram.Token))
	}
	delays := make([]string, 0, len(c.HTTP.RetryDelays))
	for _, d := range c.HTTP.RetryDelays {
		delays = append(delays, d.String())
	}

	return [][2]string{
		{"storage.database", database},
		{"storage.lock_timeout", c.Storage.LockTimeout.String()},
		{"storage.poll_interval", c.Storage.PollInterval.String()},
		{"scheduler.alert_visibility", c.Scheduler.AlertVisibility.String()},
		{"scheduler.tick_period", c.Scheduler.TickPeriod.String()},
		{"scheduler.tick_timeout", c.Scheduler.TickTimeout.String()},
		{"scheduler.digest_at", digest},
		{"http.timeout", c.HTTP.Timeout.String()},
		{"http.max_retries", fmt.Sprintf("%d", c.HTTP.MaxRetries)},
		{"http.retry_delays", strings.Join(delays, ", ")},
		{"telegram", telegram},
		{"daemon.startup_wait", c.Daemon.StartupWait.String()},
		{"daemon.kill_timeout", c.Daemon.KillTimeout.String()},
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	f := formatterFor(cmd)
	entries := configEntries(config.Global)

	if f.IsJSON() {
		out := make(map[string]string, len(entries))
		for _, e := range entries {
			out[e[0]] = e[1]
		}
		return f.JSON(out)
	}

	rows := make([]output.TableRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, output.TableRow{Columns: []string{e[0], e[1]}})
	}
	output.NewCLIFormatter(f).PrintTable([]string{"KEY", "VALUE"}, rows)
	return nil
}
