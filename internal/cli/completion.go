package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/pipeline"
)

var renderFormats = []string{pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatDOT, pipeline.FormatJSON}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for scenegraph.

Bash:
  $ source <(scenegraph completion bash)

Zsh:
  $ scenegraph completion zsh > "${fpath[1]}/_scenegraph"

Fish:
  $ scenegraph completion fish > ~/.config/fish/completions/scenegraph.fish

PowerShell:
  PS> scenegraph completion powershell | Out-String | Invoke-Expression

Scenario and layout arguments complete to .json files and --format
completes the supported output formats.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Completion scripts must work even when the config file is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeJSONFiles restricts the first positional argument to .json files.
func completeJSONFiles(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormats completes the last element of a comma-separated format list.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	done, _ := cutLast(toComplete, ",")
	var out []string
	for _, f := range renderFormats {
		if strings.Contains(","+done+",", ","+f+",") {
			continue
		}
		if done != "" {
			out = append(out, done+","+f)
		} else {
			out = append(out, f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// cutLast splits s around the last sep. Without sep, before is empty.
func cutLast(s, sep string) (before, after string) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):]
	}
	return "", s
}
