package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/config"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/scheduler"
)

// List command flags.
var (
	listFlagAll   bool
	listFlagWatch bool
)

// listCmd lists medications.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List medications",
	Long: `List the medications of the signed-in account. Finished treatments are
hidden unless --all is given.

Examples:
  medalert list
  medalert list --all
  medalert list --watch`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listFlagAll, "all", "a", false, "Include finished treatments")
	listCmd.Flags().BoolVarP(&listFlagWatch, "watch", "w", false, "Reprint the list whenever it changes")

	rootCmd.AddCommand(listCmd)
}

// filterActive keeps the medications whose treatment is running at now.
func filterActive(meds []*model.Medication, now time.Time) []*model.Medication {
	active := make([]*model.Medication, 0, len(meds))
	for _, m := range meds {
		if scheduler.Classify(m, now).Active {
			active = append(active, m)
		}
	}
	return active
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := ctx.RequireSession()
	if err != nil {
		return err
	}

	if listFlagWatch {
		return watchList(s.Account)
	}

	meds, err := ctx.MedicationRepo.ListByAccount(s.Account)
	if err != nil {
		return err
	}
	printList(meds)
	return nil
}

func printList(meds []*model.Medication) {
	now := ctx.Now()
	if !listFlagAll {
		meds = filterActive(meds, now)
	}

	if ctx.IsJSON() {
		ctx.JSONFormatter().PrintMedications(meds, now)
		return
	}
	ctx.CLIFormatter().PrintMedications(meds, now)
	if len(meds) > 0 {
		ctx.Formatter.Println("")
		ctx.CLIFormatter().Muted(output.Count(len(meds), "medication", "medications"))
	}
}

// watchList reprints the list after every change until interrupted. The
// database is reopened for each poll so other commands can write.
func watchList(account string) error {
	store, err := ctx.Share()
	if err != nil {
		return err
	}
	defer store.Close()

	wctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	first := true
	err = store.PollMedications(wctx, account, config.Global.Storage.PollInterval, func(meds []*model.Medication) {
		if !first && !ctx.IsJSON() {
			ctx.Formatter.Println("")
			ctx.CLIFormatter().Muted("Updated " + output.FormatTimeShort(ctx.Now(), time.Local))
		}
		first = false
		printList(meds)
	})
	if err != nil && wctx.Err() != nil {
		return nil
	}
	return err
}
