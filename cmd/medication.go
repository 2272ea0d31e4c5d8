package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/parser"
	"github.com/manav03panchal/medalert/internal/validate"
)

// Medication command flags.
var (
	addFlagDose  string
	addFlagTimes string
	addFlagDays  string
	addFlagSince string

	editFlagName  string
	editFlagDose  string
	editFlagTimes string
	editFlagDays  string

	deleteFlagForce bool
)

// addCmd adds a medication.
var addCmd = &cobra.Command{
	Use:     "add NAME",
	Aliases: []string{"a", "new"},
	Short:   "Add a medication",
	Long: `Add a medication to the signed-in account.

Times are a comma-separated list of times of day. The treatment runs for
the given number of days from now, or from --since for a treatment that is
already under way.

Examples:
  medalert add Ibuprofen --dose 200mg --times "08:00, 20:00" --days 5
  medalert add "Vitamin D" --dose "1 drop" --times 9am --days 2w
  medalert add Amoxicillin --dose 500mg --times "8, 14, 20" --days 7 --since "2 days ago"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

// editCmd edits a medication.
var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a medication",
	Long: `Edit a medication. Only the given fields change; the treatment start
is kept.

Examples:
  medalert edit 3f2a1c --times "09:00, 21:00"
  medalert edit 3f2a1c --days 10`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

// deleteCmd deletes a medication.
var deleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm", "remove"},
	Short:   "Delete a medication",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	addCmd.Flags().StringVarP(&addFlagDose, "dose", "d", "", "Dose, like 200mg (required)")
	addCmd.Flags().StringVarP(&addFlagTimes, "times", "t", "", "Times of day, like \"08:00, 20:00\" (required)")
	addCmd.Flags().StringVarP(&addFlagDays, "days", "n", "", "Treatment length, like 7 or 2w (required)")
	addCmd.Flags().StringVarP(&addFlagSince, "since", "s", "", "Treatment start, like \"2 days ago\"")
	addCmd.MarkFlagRequired("dose")
	addCmd.MarkFlagRequired("times")
	addCmd.MarkFlagRequired("days")

	editCmd.Flags().StringVar(&editFlagName, "name", "", "New name")
	editCmd.Flags().StringVarP(&editFlagDose, "dose", "d", "", "New dose")
	editCmd.Flags().StringVarP(&editFlagTimes, "times", "t", "", "New times of day")
	editCmd.Flags().StringVarP(&editFlagDays, "days", "n", "", "New treatment length")

	deleteCmd.Flags().BoolVar(&deleteFlagForce, "force", false, "Skip confirmation")

	editCmd.ValidArgsFunction = completeMedicationArgs
	deleteCmd.ValidArgsFunction = completeMedicationArgs

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
}

// parseDays validates a treatment length flag.
func parseDays(input string) (int, error) {
	r := parser.ParseDays(input)
	if !r.Valid {
		return 0, parser.NewDaysError(input).ToUserError()
	}
	if err := validate.Days(r.Days); err != nil {
		return 0, err
	}
	return r.Days, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := ctx.RequireSession()
	if err != nil {
		return err
	}

	name := validate.SanitizeName(strings.Join(args, " "))
	if err := validate.MedicationName(name); err != nil {
		return err
	}
	dose := validate.SanitizeName(addFlagDose)
	if err := validate.Dose(dose); err != nil {
		return err
	}
	times, err := validate.Times(addFlagTimes)
	if err != nil {
		return err
	}
	days, err := parseDays(addFlagDays)
	if err != nil {
		return err
	}

	m := model.NewMedication(s.Account, name, dose, times, days)
	if addFlagSince != "" {
		since, err := parser.ParseSince(addFlagSince, ctx.Now())
		if err != nil {
			var pe *parser.TimeParseError
			if merrors.As(err, &pe) {
				return pe.ToUserError()
			}
			return err
		}
		m.CreatedAt = &since
	}

	if err := ctx.Persist("add", func() error { return ctx.MedicationRepo.Create(m) }); err != nil {
		return err
	}
	ctx.Debugf("created %s", m.Key)

	now := ctx.Now()
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintMedication(m, now)
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Added %s (%s)", m.Name, m.ShortID()))
	ctx.CLIFormatter().PrintMedication(m, now)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	m, err := ctx.ResolveMedication(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	changed := false
	if flags.Changed("name") {
		name := validate.SanitizeName(editFlagName)
		if err := validate.MedicationName(name); err != nil {
			return err
		}
		m.Name = name
		changed = true
	}
	if flags.Changed("dose") {
		dose := validate.SanitizeName(editFlagDose)
		if err := validate.Dose(dose); err != nil {
			return err
		}
		m.Dose = dose
		changed = true
	}
	if flags.Changed("times") {
		times, err := validate.Times(editFlagTimes)
		if err != nil {
			return err
		}
		m.Schedule = model.JoinSchedule(times)
		changed = true
	}
	if flags.Changed("days") {
		days, err := parseDays(editFlagDays)
		if err != nil {
			return err
		}
		m.DurationDays = days
		changed = true
	}

	now := ctx.Now()
	if !changed {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintMedication(m, now)
		}
		ctx.CLIFormatter().Warning("Nothing to change. Use --name, --dose, --times or --days.")
		return nil
	}

	if err := ctx.Persist("edit", func() error { return ctx.MedicationRepo.Update(m) }); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintMedication(m, now)
	}
	ctx.CLIFormatter().Success("Updated " + m.Name)
	ctx.CLIFormatter().PrintMedication(m, now)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	m, err := ctx.ResolveMedication(args[0])
	if err != nil {
		return err
	}

	// Confirmation (skip if --force)
	if !deleteFlagForce && !ctx.IsJSON() {
		ctx.Formatter.Printf("Delete %s (%s)? [y/N] ", m.Name, m.ShortID())
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			ctx.Formatter.Println("Cancelled.")
			return nil
		}
	}

	if err := ctx.Persist("delete", func() error { return ctx.MedicationRepo.Delete(m.Key) }); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{
			"status": "deleted",
			"id":     m.ShortID(),
			"name":   m.Name,
		})
	}
	ctx.CLIFormatter().Success("Deleted " + m.Name)
	return nil
}
