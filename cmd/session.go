package cmd

import (
	"github.com/spf13/cobra"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/validate"
)

// loginCmd signs an account in on this device.
var loginCmd = &cobra.Command{
	Use:   "login ACCOUNT",
	Short: "Sign in to an account",
	Long: `Sign in to an account. Alerts are only raised for the medications of
the signed-in account. Signing in replaces any previous session.

Examples:
  medalert login alice`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

// logoutCmd ends the session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// whoamiCmd shows the signed-in account.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	account := args[0]
	if err := validate.Account(account); err != nil {
		return err
	}

	var s *model.Session
	err := ctx.Persist("login", func() error {
		var err error
		s, err = ctx.SessionRepo.Start(account)
		return err
	})
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintSession(s)
	}
	ctx.CLIFormatter().Success("Logged in as " + s.Account)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	s, err := ctx.SessionRepo.Get()
	if err != nil && !merrors.Is(err, merrors.ErrNoActiveSession) {
		return err
	}
	if err := ctx.Persist("logout", ctx.SessionRepo.End); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintSession(nil)
	}
	if s == nil {
		ctx.CLIFormatter().Muted("Not logged in.")
		return nil
	}
	ctx.CLIFormatter().Success("Logged out of " + s.Account)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	s, err := ctx.SessionRepo.Get()
	if err != nil && !merrors.Is(err, merrors.ErrNoActiveSession) {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintSession(s)
	}
	ctx.CLIFormatter().PrintSession(s)
	return nil
}
