package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/pkg/io"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for layerstack.

Bash:
  $ source <(layerstack completion bash)

Zsh:
  $ layerstack completion zsh > "${fpath[1]}/_layerstack"

Fish:
  $ layerstack completion fish > ~/.config/fish/completions/layerstack.fish

PowerShell:
  PS> layerstack completion powershell | Out-String | Invoke-Expression

Layer arguments of reorder and rename complete to the names of the layers in
the given source file.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeLayers completes the layer argument (position 1) of commands that
// take <src> <layer> with the layer names found in src.
func completeLayers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return nil, cobra.ShellCompDirectiveDefault
	case 1:
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	doc, err := io.ImportDocument(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	model, _ := cmd.Flags().GetInt("model")
	raw, err := doc.Select(model)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, l := range raw.Layers {
		if strings.HasPrefix(l.Name, toComplete) {
			names = append(names, l.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
