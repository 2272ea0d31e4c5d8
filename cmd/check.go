package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/config"
	"github.com/manav03panchal/medalert/internal/daemon"
	"github.com/manav03panchal/medalert/internal/notify"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/scheduler"
)

var checkFlagNotify bool

// checkCmd runs one evaluation pass now.
var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"now"},
	Short:   "Check for due medications now",
	Long: `Run one evaluation pass immediately and print any alert.

When the daemon is running it holds the database, so the pass is handed to
the daemon instead and its alerts appear wherever the daemon delivers them.

Examples:
  medalert check
  medalert check --notify
  medalert check --format json`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoDB: ""},
	RunE:        runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkFlagNotify, "notify", false, "Also send alerts to the configured webhooks")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	d := daemon.NewDaemon(nil, daemon.Options{})
	if pid := d.GetStatus().PID; pid > 0 {
		if err := d.CheckNow(); err != nil {
			return err
		}
		f := formatterFor(cmd)
		if f.IsJSON() {
			return f.JSON(map[string]any{"status": "delegated", "pid": pid})
		}
		output.NewCLIFormatter(f).Success("Asked the running daemon to check now")
		return nil
	}

	var err error
	ctx, err = openContext(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if _, err := ctx.RequireSession(); err != nil {
		return err
	}

	var sinks []notify.Sink
	if !ctx.IsJSON() {
		sinks = append(sinks, notify.NewConsoleSinkWriter(ctx.Formatter.Writer, nil))
	}
	var webhooks *notify.WebhookSink
	if checkFlagNotify {
		webhooks = notify.NewWebhookSink(notify.NewDispatcher(ctx.WebhookRepo), 0)
		sinks = append(sinks, webhooks)
	}

	alerts := scheduler.NewAlertDispatcher(ctx.Records, ctx.SessionRepo, notify.NewMultiSink(sinks...),
		scheduler.WithClock(nowClock{now: ctx.Now}),
		scheduler.WithTickTimeout(config.Global.Scheduler.TickTimeout),
	)
	report := alerts.Tick(context.Background())
	if webhooks != nil {
		webhooks.Wait()
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(newCheckResponse(report))
	}
	if report.Err != nil {
		return report.Err
	}
	switch {
	case report.Skipped != "":
		ctx.CLIFormatter().Warning("Check skipped: " + string(report.Skipped))
	case len(report.Emitted) == 0:
		ctx.CLIFormatter().Muted("Nothing due. Checked " + output.Count(report.Records, "medication", "medications") + ".")
	}
	return nil
}

// newCheckResponse converts a pass report for JSON output.
func newCheckResponse(r scheduler.TickReport) *output.CheckResponse {
	resp := &output.CheckResponse{
		TickID:     r.TickID,
		At:         r.At.Format(time.RFC3339),
		Skipped:    string(r.Skipped),
		Records:    r.Records,
		Alerts:     make([]*output.AlertOutput, 0, len(r.Emitted)),
		Suppressed: r.Suppressed,
	}
	for _, e := range r.Emitted {
		resp.Alerts = append(resp.Alerts, output.NewAlertOutput(e))
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

// nowClock reads the time from the runtime context. Timers are real.
type nowClock struct {
	now func() time.Time
}

func (c nowClock) Now() time.Time {
	return c.now()
}

func (c nowClock) AfterFunc(d time.Duration, f func()) scheduler.Timer {
	return scheduler.SystemClock{}.AfterFunc(d, f)
}
