package cmd

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/export"
	"github.com/manav03panchal/medalert/internal/validate"
)

var exportFlagOutput string

// exportCmd writes the active schedule as an iCalendar file.
var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"ex", "ical"},
	Short:   "Export the schedule as a calendar",
	Long: `Export the active medications of the signed-in account as an iCalendar
file. Every dose time becomes a daily event that ends with the treatment,
with a reminder shortly before.

Examples:
  medalert export > doses.ics
  medalert export -o doses.ics
  medalert export -o ~/calendars/`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlagOutput, "output", "o", "", "Output file or directory (stdout if omitted)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := ctx.RequireSession()
	if err != nil {
		return err
	}

	meds, err := ctx.MedicationRepo.ListByAccount(s.Account)
	if err != nil {
		return err
	}
	cal := export.Calendar(meds, ctx.Now(), time.Local)

	// Determine output destination
	var writer io.Writer = cmd.OutOrStdout()
	path := exportPath(exportFlagOutput, s.Account)
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		writer = f
	}

	if err := export.Encode(writer, cal); err != nil {
		return err
	}
	if path != "" && !ctx.IsJSON() {
		ctx.CLIFormatter().Success("Wrote " + path)
	}
	return nil
}

// exportPath resolves --output. A directory gets a file named after the
// account.
func exportPath(output, account string) string {
	if output == "" {
		return ""
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, validate.SafeFilename(account)+".ics")
	}
	return output
}
