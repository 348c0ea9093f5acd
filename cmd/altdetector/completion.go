package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for AltDetector.

Player names for alts and delete are completed from the configured store.

To load completions:

Bash:
  $ source <(altdetector completion bash)

Zsh:
  $ altdetector completion zsh > "${fpath[1]}/_altdetector"
  $ compinit

Fish:
  $ altdetector completion fish | source

PowerShell:
  PS> altdetector completion powershell | Out-String | Invoke-Expression
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.ExactArgs(1),
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
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

// completeNames offers stored player names starting with toComplete.
func completeNames(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if logLevel == "" {
		logLevel = "error"
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer a.Close()

	if err := a.store.RebuildNameCache(ctx); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return a.store.CompleteNames(toComplete), cobra.ShellCompDirectiveNoFileComp
}
