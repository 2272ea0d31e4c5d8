package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/notify"
	"github.com/manav03panchal/medalert/internal/validate"
)

// Webhook command flags.
var (
	webhookAddFlagType     string
	webhookAddFlagTemplate string
	webhookRemoveFlagForce bool
	webhookTestFlagAll     bool
)

// webhookCmd represents the webhook command.
var webhookCmd = &cobra.Command{
	Use:     "webhook [command]",
	Aliases: []string{"wh", "hook"},
	Short:   "Configure notification webhooks",
	Long: `Configure webhooks for Discord, Slack, or custom endpoints.

Webhooks receive medication alerts and the daily digest.

Examples:
  medalert webhook add discord https://discord.com/api/webhooks/...
  medalert webhook add slack https://hooks.slack.com/services/...
  medalert webhook list
  medalert webhook test discord
  medalert webhook disable slack
  medalert webhook remove discord`,
	RunE: runWebhookList,
}

// webhookAddCmd adds a new webhook.
var webhookAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a new webhook",
	Long: `Add a webhook for receiving notifications.

The webhook type is auto-detected from the URL:
  - Discord: discord.com/api/webhooks/...
  - Slack:   hooks.slack.com/services/...
  - Generic: Any other URL

Examples:
  medalert webhook add discord https://discord.com/api/webhooks/123/abc
  medalert webhook add my-hook https://example.com/hook --type generic`,
	Args: cobra.ExactArgs(2),
	RunE: runWebhookAdd,
}

// webhookListCmd lists all webhooks.
var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all webhooks",
	RunE:  runWebhookList,
}

// webhookTestCmd tests a webhook.
var webhookTestCmd = &cobra.Command{
	Use:   "test [NAME]",
	Short: "Test a webhook by sending a test notification",
	Long: `Send a test notification to verify webhook configuration.

Examples:
  medalert webhook test discord
  medalert webhook test --all`,
	RunE: runWebhookTest,
}

// webhookRemoveCmd removes a webhook.
var webhookRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a webhook",
	Args:    cobra.ExactArgs(1),
	RunE:    runWebhookRemove,
}

// webhookEnableCmd enables a webhook.
var webhookEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebhookEnable,
}

// webhookDisableCmd disables a webhook.
var webhookDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebhookDisable,
}

func init() {
	webhookAddCmd.Flags().StringVarP(&webhookAddFlagType, "type", "t", "",
		"Webhook type: discord, slack, generic (auto-detected from URL if not specified)")
	webhookAddCmd.Flags().StringVar(&webhookAddFlagTemplate, "template", "",
		"Custom payload template for generic webhooks")

	webhookRemoveCmd.Flags().BoolVar(&webhookRemoveFlagForce, "force", false,
		"Skip confirmation")

	webhookTestCmd.Flags().BoolVarP(&webhookTestFlagAll, "all", "a", false,
		"Test all enabled webhooks")

	// Dynamic completion for webhook names
	webhookTestCmd.ValidArgsFunction = completeWebhookArgs
	webhookRemoveCmd.ValidArgsFunction = completeWebhookArgs
	webhookEnableCmd.ValidArgsFunction = completeWebhookArgs
	webhookDisableCmd.ValidArgsFunction = completeWebhookArgs

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
	webhookCmd.AddCommand(webhookEnableCmd)
	webhookCmd.AddCommand(webhookDisableCmd)

	rootCmd.AddCommand(webhookCmd)
}

// runWebhookAdd handles the webhook add command.
func runWebhookAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	webhookURL := args[1]

	if err := validate.WebhookName(name); err != nil {
		return err
	}
	if err := validate.URL(webhookURL); err != nil {
		return err
	}

	webhookType := webhookAddFlagType
	if webhookType == "" {
		webhookType = model.DetectWebhookType(webhookURL)
	}
	if err := validate.WebhookType(webhookType); err != nil {
		return err
	}

	template := validate.StripControlChars(webhookAddFlagTemplate)
	if cmd.Flags().Changed("template") {
		if err := validate.NonEmpty("template", template); err != nil {
			return err
		}
	}

	webhook := model.NewWebhook(name, webhookType, webhookURL)
	webhook.Template = template

	if err := ctx.Persist("webhook add", func() error { return ctx.WebhookRepo.Create(webhook) }); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintWebhooks([]*model.Webhook{webhook})
	}

	ctx.CLIFormatter().Success("Added webhook: " + name)
	ctx.Formatter.Printf("  Type: %s\n", webhook.Type)
	ctx.Formatter.Printf("  URL:  %s\n", webhook.MaskedURL())
	ctx.Formatter.Println("")
	ctx.CLIFormatter().Muted("Test with: medalert webhook test " + name)
	return nil
}

// runWebhookList handles the webhook list command.
func runWebhookList(cmd *cobra.Command, args []string) error {
	webhooks, err := ctx.WebhookRepo.List()
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintWebhooks(webhooks)
	}
	ctx.CLIFormatter().PrintWebhooks(webhooks)
	return nil
}

// runWebhookTest handles the webhook test command.
func runWebhookTest(cmd *cobra.Command, args []string) error {
	dispatcher := notify.NewDispatcher(ctx.WebhookRepo)
	c, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var names []string
	switch {
	case webhookTestFlagAll:
		webhooks, err := ctx.WebhookRepo.ListEnabled()
		if err != nil {
			return err
		}
		if len(webhooks) == 0 {
			return merrors.NewUserError("No enabled webhooks to test", "Add one with 'medalert webhook add <name> <url>'.")
		}
		for _, wh := range webhooks {
			names = append(names, wh.Name)
		}
	case len(args) == 1:
		names = args
	default:
		return merrors.NewUserError("Webhook name required", "Give a name or use --all.")
	}

	results := make([]notify.DispatchResult, 0, len(names))
	for _, name := range names {
		if !ctx.IsJSON() {
			ctx.CLIFormatter().Muted("Sending test notification to " + name + "...")
		}
		results = append(results, dispatcher.TestWebhook(c, name))
	}

	if ctx.IsJSON() {
		out := make([]map[string]any, 0, len(results))
		for _, r := range results {
			out = append(out, map[string]any{
				"webhook":     r.WebhookName,
				"success":     r.Success,
				"status_code": r.StatusCode,
				"attempts":    r.Attempts,
				"duration_ms": r.Duration.Milliseconds(),
				"error":       errorString(r.Error),
			})
		}
		return ctx.Formatter.JSON(out)
	}

	for _, r := range results {
		if r.Success {
			ctx.CLIFormatter().Success(fmt.Sprintf("%s: delivered in %dms", r.WebhookName, r.Duration.Milliseconds()))
		} else {
			ctx.CLIFormatter().Error(fmt.Sprintf("%s: %s", r.WebhookName, errorString(r.Error)))
		}
	}
	return nil
}

// runWebhookRemove handles the webhook remove command.
func runWebhookRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	exists, err := ctx.WebhookRepo.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return merrors.NewFieldError(merrors.ErrWebhookNotFound, "name", name, "")
	}

	// Confirmation (skip if --force)
	if !webhookRemoveFlagForce && !ctx.IsJSON() {
		ctx.Formatter.Printf("Remove webhook %q? [y/N] ", name)
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if !strings.EqualFold(response, "y") {
			ctx.Formatter.Println("Cancelled.")
			return nil
		}
	}

	if err := ctx.Persist("webhook remove", func() error { return ctx.WebhookRepo.Delete(name) }); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "removed", "webhook": name})
	}
	ctx.CLIFormatter().Success("Removed webhook: " + name)
	return nil
}

// runWebhookEnable handles the webhook enable command.
func runWebhookEnable(cmd *cobra.Command, args []string) error {
	return setWebhookEnabled(args[0], true)
}

// runWebhookDisable handles the webhook disable command.
func runWebhookDisable(cmd *cobra.Command, args []string) error {
	return setWebhookEnabled(args[0], false)
}

func setWebhookEnabled(name string, enabled bool) error {
	op, state := ctx.WebhookRepo.Disable, "disabled"
	if enabled {
		op, state = ctx.WebhookRepo.Enable, "enabled"
	}
	if err := ctx.Persist("webhook "+state, func() error { return op(name) }); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": state, "webhook": name})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Webhook %s %s", name, state))
	return nil
}

// errorString returns the error message or empty string if nil.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
