package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/config"
	"github.com/manav03panchal/medalert/internal/notify"
	"github.com/manav03panchal/medalert/internal/scheduler"
	"github.com/manav03panchal/medalert/internal/tui"
)

var watchFlagNotify bool

// watchCmd runs the alert dispatcher behind an interactive screen.
var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w", "ui"},
	Short:   "Watch for due medications interactively",
	Long: `Open an interactive screen that raises alerts as doses come due.

Keys:
  1-9  dismiss the numbered alert
  c    dismiss all alerts
  r    check now
  q    quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchFlagNotify, "notify", false, "Also send alerts to the configured webhooks")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := ctx.RequireSession()
	if err != nil {
		return err
	}

	store, err := ctx.Share()
	if err != nil {
		return err
	}
	defer store.Close()
	records := store.Records()

	screen := tui.NewProgramSink()
	sinks := []notify.Sink{screen}
	var webhooks *notify.WebhookSink
	if watchFlagNotify {
		webhooks = notify.NewWebhookSink(notify.NewDispatcher(store.Webhooks()), 0)
		sinks = append(sinks, webhooks)
	}

	cfg := config.Global.Scheduler
	alerts := scheduler.NewAlertDispatcher(records, records, notify.NewMultiSink(sinks...),
		scheduler.WithVisibility(cfg.AlertVisibility),
		scheduler.WithPeriod(cfg.TickPeriod),
		scheduler.WithTickTimeout(cfg.TickTimeout),
	)
	if err := alerts.Start(); err != nil {
		return err
	}
	defer func() {
		alerts.Stop()
		alerts.DismissAll()
		if webhooks != nil {
			webhooks.Wait()
		}
	}()

	return tui.Run(tui.WatchConfig{
		Alerts:  alerts,
		Records: records,
		Account: s.Account,
		Now:     ctx.Now,
	}, screen)
}
