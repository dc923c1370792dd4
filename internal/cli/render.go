package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/pipeline"
)

// renderFlags holds the flags shared by render and visualize.
type renderFlags struct {
	formats string
	output  string
	scale   float64
	labels  bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "points per layout unit (default 0.5)")
	cmd.Flags().BoolVar(&f.labels, "labels", false, "print choice text on edges")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// renderCommand creates the render command that goes from a scenario
// straight to diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		lf           layoutFlags
		rf           renderFlags
		rejectCycles bool
	)

	cmd := &cobra.Command{
		Use:   "render [scenario.json]",
		Short: "Render a scenario as a scene diagram",
		Long: `Render a scenario as a scene diagram.

The render command computes the layout and draws every scene at its computed
position. The start scene is outlined twice, unreachable scenes are greyed out
and choices that close a cycle are drawn dashed.

Use 'layout' and 'visualize' to keep the intermediate layout file.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeJSONFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(rf.formats)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			opts := pipeline.Options{
				Layout:       lf.options(c.Config.LayoutOptions()),
				Formats:      formats,
				Scale:        rf.scale,
				EdgeLabels:   rf.labels,
				RejectCycles: rejectCycles,
			}
			return c.runRender(cmd.Context(), args[0], lf, rf.output, opts)
		},
	}

	lf.register(cmd)
	rf.register(cmd)
	cmd.Flags().BoolVar(&rejectCycles, "reject-cycles", false, "fail instead of rendering a cyclic scenario")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, lf layoutFlags, output string, opts pipeline.Options) error {
	sc, err := readScenario(input, lf.graphql)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, lf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = loggerFromContext(ctx)

	spinner := newSpinnerWithContext(ctx, "Rendering scene graph...")
	spinner.Start()

	result, err := runner.Execute(ctx, sc, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		cacheHit:  result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit,
		scenes:    result.Stats.SceneCount,
		edges:     result.Stats.EdgeCount,
	}); err != nil {
		return err
	}
	for _, w := range result.Report.Warnings() {
		printWarning("%s", w)
	}
	return nil
}

// =============================================================================
// Artifact Output
// =============================================================================

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	cacheHit  bool
	scenes    int
	edges     int
}

// artifactPath names the file for one format. A single format honors output
// as a file name; otherwise output (or the input name) is a base path.
func artifactPath(p artifactWriteParams, format string) string {
	if p.output != "" && len(p.formats) == 1 {
		return p.output
	}
	base := p.output
	if base == "" {
		base = outputBase(p.input)
	}
	if format == pipeline.FormatJSON {
		return base + ".layout.json"
	}
	return base + "." + format
}

func writeArtifacts(p artifactWriteParams) error {
	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return fmt.Errorf("no %s output produced", format)
		}
		path := artifactPath(p, format)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	printSuccess("Rendered %d file(s)", len(paths))
	for _, path := range paths {
		printFile(path)
	}
	printStats(p.scenes, p.edges, p.cacheHit)
	return nil
}
