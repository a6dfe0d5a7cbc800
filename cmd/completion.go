package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:

  $ source <(uvmgen completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ uvmgen completion bash > /etc/bash_completion.d/uvmgen
  # macOS:
  $ uvmgen completion bash > /usr/local/etc/bash_completion.d/uvmgen

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ uvmgen completion zsh > "${fpath[1]}/_uvmgen"

  # You will need to start a new shell for this setup to take effect.

fish:

  $ uvmgen completion fish | source

  # To load completions for each session, execute once:
  $ uvmgen completion fish > ~/.config/fish/completions/uvmgen.fish

PowerShell:

  PS> uvmgen completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
	Hidden: true,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
