package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/pipeline"
)

// inspectCommand creates the inspect command for browsing a scenario.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "inspect [scenario.json]",
		Short: "Browse the scenes of a scenario interactively",
		Long: `Browse the scenes of a scenario interactively.

Lists every scene with its computed position and shows the choices of the
selected scene. Missing targets and choices that close a cycle are marked.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeJSONFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, flags layoutFlags) error {
	sc, err := readScenario(input, flags.graphql)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Layout: flags.options(c.Config.LayoutOptions()),
		Logger: loggerFromContext(ctx),
	}
	report := runner.Check(ctx, sc)
	l, err := runner.Layout(ctx, sc, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	model := NewSceneListModel(sc, l, report)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run inspector: %w", err)
	}
	return nil
}
