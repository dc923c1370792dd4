package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/pipeline"
)

// validateCommand creates the validate command for checking a scenario.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		graphql bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "validate [scenario.json]",
		Short: "Check a scenario for cycles and broken choices",
		Long: `Check a scenario for cycles and broken choices.

A cycle among the scenes reachable from the start scene makes the scenario
invalid and the command exits with an error. Dangling choices, unreachable
scenes, duplicate ids and extra start scenes are reported as warnings.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeJSONFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], graphql, asJSON)
		},
	}

	cmd.Flags().BoolVar(&graphql, "graphql", false, "input is a scenarioById API response")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func (c *CLI) runValidate(ctx context.Context, input string, graphql, asJSON bool) error {
	sc, err := readScenario(input, graphql)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, loggerFromContext(ctx))
	report := runner.Check(ctx, sc)

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(input, report)
	}

	if !report.OK() {
		return errors.Wrap(errors.ErrCodeCycleDetected,
			&errors.CycleError{ScenarioID: sc.ID, Path: report.Cycle},
			"%s is not playable", input)
	}
	return nil
}
