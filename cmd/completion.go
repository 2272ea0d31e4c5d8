package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd represents the completion command.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for medalert.

To load completions:

Bash:
  $ source <(medalert completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ medalert completion bash > /etc/bash_completion.d/medalert
  # macOS:
  $ medalert completion bash > $(brew --prefix)/etc/bash_completion.d/medalert

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ medalert completion zsh > "${fpath[1]}/_medalert"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ medalert completion fish | source

  # To load completions for each session, execute once:
  $ medalert completion fish > ~/.config/fish/completions/medalert.fish

PowerShell:
  PS> medalert completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
