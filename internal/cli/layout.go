package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/pipeline"
	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// layoutFlags holds the flags shared by every command that computes a layout.
type layoutFlags struct {
	hspace   float64
	vspace   float64
	maxDepth int
	strict   bool
	graphql  bool
	noCache  bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.hspace, "hspace", 0, "horizontal spacing between scenes (default from config)")
	cmd.Flags().Float64Var(&f.vspace, "vspace", 0, "vertical spacing between levels (default from config)")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "depth at which branches are cut off (default from config)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "leave scenarios without a start scene unplaced")
	cmd.Flags().BoolVar(&f.graphql, "graphql", false, "input is a scenarioById API response")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options merges the flags over the configured layout options.
func (f *layoutFlags) options(base layout.Options) layout.Options {
	if f.hspace > 0 {
		base.HorizontalSpacing = f.hspace
	}
	if f.vspace > 0 {
		base.LevelSpacing = f.vspace
	}
	if f.maxDepth > 0 {
		base.MaxDepth = f.maxDepth
	}
	if f.strict {
		base.StrictStart = true
	}
	return base
}

// layoutCommand creates the layout command for computing scene positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		apply  string
	)

	cmd := &cobra.Command{
		Use:   "layout [scenario.json]",
		Short: "Compute scene positions for a scenario",
		Long: `Compute scene positions for a scenario.

The layout command reads a scenario file (a scenario object or a bare array of
scenes) and places every scene on a tree rooted at the start scene. Scenes that
cannot be reached from the start scene are placed on a row below the tree.

The output is a layout.json file that can be rendered with 'visualize'. Use
--apply to also write a copy of the scenario with the positions filled in.

Results are cached for faster subsequent runs.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeJSONFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], flags, output, apply)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&apply, "apply", "", "write the scenario with positions applied to this file")

	return cmd
}

// runLayout loads the scenario, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, flags layoutFlags, output, apply string) error {
	logger := loggerFromContext(ctx)

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
		Logger: logger,
	}

	prog := newProgress(logger)
	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, sc, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	prog.done("Computed layout", "scenes", len(l.Nodes), "cached", cacheHit)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input) + ".layout.json"
	}
	if err := layout.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)

	if apply != "" {
		positioned := sc.Clone()
		positioned.Scenes = story.WithPositions(positioned.Scenes, l.Positions())
		if err := story.ExportScenario(positioned, apply); err != nil {
			return fmt.Errorf("write scenario %s: %w", apply, err)
		}
		printFile(apply)
	}

	printStats(len(l.Nodes), len(l.Edges), cacheHit)
	if l.HasCycle {
		printWarning("Scenario contains a cycle; back edges are marked in the layout")
	}
	if l.Fallback {
		printWarning("No start scene; laid out from %s", l.Root)
	}
	printNewline()
	printNextStep("Render", appName+" visualize "+outputPath)

	return nil
}
