package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/medalert/internal/runtime"
)

// completionContext returns the shared context, opening one for the
// duration of a completion request when needed.
func completionContext() (*runtime.Context, func(), bool) {
	if ctx != nil {
		return ctx, func() {}, true
	}
	opts, err := runtimeOptions()
	if err != nil {
		return nil, nil, false
	}
	c, err := runtime.New(opts)
	if err != nil {
		return nil, nil, false
	}
	return c, func() { c.Close() }, true
}

// completeMedicationArgs completes medication IDs of the signed-in account.
func completeMedicationArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	c, done, ok := completionContext()
	if !ok {
		return nil, cobra.ShellCompDirectiveError
	}
	defer done()

	s, err := c.RequireSession()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	meds, err := c.MedicationRepo.ListByAccount(s.Account)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, m := range meds {
		if strings.HasPrefix(m.ShortID(), strings.ToLower(toComplete)) {
			completions = append(completions, m.ShortID()+"\t"+m.Name+" "+m.Dose)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeWebhookArgs provides completion for webhook names.
func completeWebhookArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	c, done, ok := completionContext()
	if !ok {
		return nil, cobra.ShellCompDirectiveError
	}
	defer done()

	webhooks, err := c.WebhookRepo.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, wh := range webhooks {
		if strings.HasPrefix(wh.Name, toComplete) {
			names = append(names, wh.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
