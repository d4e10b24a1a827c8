package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/atelier/internal/engine"
	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/replay"
)

var (
	dropInto      string
	dropIndex     int
	dropX         float64
	dropY         float64
	dropRootID    string
	dropForestPkg string
	dropForest    string
	dropTree      string
)

var dropCmd = &cobra.Command{
	Use:   "drop <dir> <name>",
	Short: "Instantiate a template into a forest",
	Long: `Replay the template <dir>/<name> into a forest as if it had been dropped on
the canvas. Every node gets a fresh id and alias; the template root is placed
under --into at --index. When --index is negative the index is derived from
the drop location --x/--y; with no child boxes known that is after the last
child.

The forest is rebuilt from the journal before the drop and the emitted events
are journaled, so the result is visible to a running event server after it
restarts.`,
	Example: `  atelier drop basics card --forest home
  atelier drop basics card --forest home --into Flex1 --index 0
  atelier drop forms login --forest checkout --root-id hero --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p := newPrinter(cmd)
		a, err := newRuntimeApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		req := &engine.DropRequest{
			Dir:         args[0],
			Name:        args[1],
			NewRootID:   dropRootID,
			CaughtBy:    dropInto,
			X:           dropX,
			Y:           dropY,
			ForestPkgID: dropForestPkg,
			ForestID:    dropForest,
			TreeID:      dropTree,
		}
		if dropIndex >= 0 {
			index := dropIndex
			req.Index = &index
		}

		result, err := a.engine.Drop(ctx, req)
		if err != nil {
			if result != nil && result.Emitted > 0 {
				p.warning("%d of %d events were applied before the failure", result.Emitted, len(result.Events))
			}
			return err
		}

		if jsonOutput {
			return p.json(result)
		}

		p.success("Dropped %s/%s as %s", req.Dir, req.Name, result.RootID)
		p.labelValue("Forest", req.ForestPkgID+"/"+req.ForestID)
		p.labelValue("Events", fmt.Sprint(result.Emitted))
		if len(result.Aliases) > 0 {
			p.subsection("Aliases:")
			items := make([]string, 0, len(result.Aliases))
			for _, ev := range result.Events {
				if c, ok := ev.(*event.CreateEvent); ok && result.Aliases[c.ID] != "" {
					items = append(items, fmt.Sprintf("%s  %s", result.Aliases[c.ID], c.ID))
				}
			}
			p.list(items)
		}
		return nil
	},
}

func init() {
	dropCmd.Flags().StringVar(&dropInto, "into", event.BodyID, "Component that catches the drop")
	dropCmd.Flags().IntVar(&dropIndex, "index", -1, "Child index under --into; negative uses the drop location")
	dropCmd.Flags().Float64Var(&dropX, "x", 0, "Drop location x")
	dropCmd.Flags().Float64Var(&dropY, "y", 0, "Drop location y")
	dropCmd.Flags().StringVar(&dropRootID, "root-id", "", "Id for the template root (generated when empty)")
	dropCmd.Flags().StringVar(&dropForestPkg, "forest-pkg", "page", "Forest package")
	dropCmd.Flags().StringVar(&dropForest, "forest", "", "Forest id")
	dropCmd.Flags().StringVar(&dropTree, "tree", replay.DefaultComponentTree, "Component tree")
	_ = dropCmd.MarkFlagRequired("forest")
}
