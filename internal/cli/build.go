package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/atelier/internal/engine"
	"github.com/danieljhkim/atelier/internal/planner"
)

var buildDryRun bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compose the configured layers and run the bundler",
	Long: `Read src/tool.config.yaml, resolve every declared layer package, write the
currentLayer marker modules into the build cache and hand the composition to
the bundler.

The build cache is wiped at the start of every build. Layers whose descriptor
or entry module is missing are skipped with an error log; the build goes on
with the rest.`,
	Example: `  atelier build
  atelier build --dry-run
  atelier build --tool-dir ./editor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newEngine()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		p := newPrinter(cmd)
		result, err := a.engine.Build(cmd.Context(), &engine.BuildRequest{DryRun: buildDryRun})
		if err != nil {
			if result != nil && result.Plan != nil && result.Plan.HasConflicts() {
				p.section("Conflicts Detected")
				for _, conflict := range result.Plan.Conflicts {
					p.errorf("%s: %s", conflict.Path, conflict.Reason)
				}
				p.blank()
			}
			return err
		}

		if jsonOutput {
			return p.json(result)
		}

		for _, w := range result.Plan.Warnings {
			p.warning("%s", w)
		}

		if buildDryRun {
			p.section("Dry Run")
			p.line("Would run " + plural(len(result.Plan.Operations), "operation", "operations"))
			ops := make([]string, 0, len(result.Plan.Operations))
			for _, op := range result.Plan.Operations {
				ops = append(ops, describeOperation(op))
			}
			p.list(ops)
			return nil
		}

		p.success("Built %s in %s",
			plural(len(result.Composition.Entries), "layer", "layers"),
			result.Duration.Round(time.Millisecond))
		p.labelValue("Output", result.Bundle.OutputPath)
		p.labelValue("Fingerprint", result.Bundle.Fingerprint)
		return nil
	},
}

func describeOperation(op planner.Operation) string {
	switch op.Type {
	case planner.OpWipeCache:
		return "wipe: " + op.DestPath
	case planner.OpWriteMarker:
		return fmt.Sprintf("marker: %s (%s)", op.DestPath, op.Layer)
	case planner.OpBundle:
		return "bundle: " + op.DestPath
	default:
		return fmt.Sprintf("%s: %s", op.Type, op.DestPath)
	}
}

func init() {
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Show the build plan without touching the cache or output")
}
