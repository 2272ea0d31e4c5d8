// Package cmd provides the CLI commands for medalert.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
)

// annotationNoDB marks commands that must not open the database in
// PersistentPreRunE. A running daemon holds the database lock, so these
// commands open it themselves or not at all.
const annotationNoDB = "medalert/no-db"

// ctx is the shared runtime context.
var ctx *runtime.Context

// nowFunc is the wall clock handed to every runtime context.
var nowFunc = time.Now

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "medalert",
	Short: "Medication reminders from your terminal",
	Long: `medalert keeps track of the medications you take and alerts you when
a dose is due.

Examples:
  medalert login alice
  medalert add Ibuprofen --dose 200mg --times "08:00, 20:00" --days 5
  medalert list
  medalert check
  medalert daemon start`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for completion and help commands (but allow __complete for dynamic completions)
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		if flagDebug {
			logging.InitDebug()
		}

		if _, skip := cmd.Annotations[annotationNoDB]; skip {
			return nil
		}

		var err error
		ctx, err = openContext(cmd.OutOrStdout())
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeContext()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: today's list, or how to sign in
		if !ctx.SessionRepo.IsSessionValidated() {
			return runWhoami(cmd, args)
		}
		return runList(cmd, args)
	},
}

// runtimeOptions builds runtime options from the global flags.
func runtimeOptions() (runtime.Options, error) {
	format, err := output.ParseFormat(flagFormat)
	if err != nil {
		return runtime.Options{}, err
	}
	colorMode, err := output.ParseColorMode(flagColor)
	if err != nil {
		return runtime.Options{}, err
	}

	opts := runtime.DefaultOptions()
	opts.Format = format
	opts.ColorMode = colorMode
	opts.Debug = flagDebug
	return opts, nil
}

// openContext opens the database and builds a runtime context writing to w.
func openContext(w io.Writer) (*runtime.Context, error) {
	opts, err := runtimeOptions()
	if err != nil {
		return nil, err
	}
	c, err := runtime.New(opts)
	if err != nil {
		return nil, err
	}
	c.Formatter.Writer = w
	c.Now = nowFunc
	return c, nil
}

// closeContext releases the database. Cobra skips PersistentPostRunE when
// RunE fails, so Execute calls it as well.
func closeContext() error {
	if ctx == nil {
		return nil
	}
	err := ctx.Close()
	ctx = nil
	return err
}

// formatterFor returns a formatter for commands that run without a context.
func formatterFor(cmd *cobra.Command) *output.Formatter {
	f := output.NewFormatter()
	f.Writer = cmd.OutOrStdout()
	if opts, err := runtimeOptions(); err == nil {
		f.Format = opts.Format
		f.ColorMode = opts.ColorMode
	}
	return f
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeContext(); err == nil {
		err = cerr
	}
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{annotationNoDB: ""},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("medalert %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
		cmd.Println("")
		cmd.Println("Based on Zeit (https://github.com/mrusme/zeit)")
		cmd.Println("Licensed under SEGV License v1.0")
	},
}

// printError writes err the way the selected format expects.
func printError(w io.Writer, err error) {
	if flagFormat == string(output.FormatJSON) {
		f := output.NewFormatter()
		f.Writer = w
		output.NewJSONFormatter(f).PrintError(err.Error(), runtime.Suggestion(err))
		return
	}
	fmt.Fprintln(w, "Error: "+runtime.FormatError(err))
}

// Die prints an error and exits.
func Die(err error) {
	printError(os.Stderr, err)
	os.Exit(1)
}
