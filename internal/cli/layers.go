package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/atelier/internal/layers"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Show the resolved layer composition",
	Long: `Resolve the layers declared in src/tool.config.yaml and print them in build
order with their exposed sockets. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newEngine()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		p := newPrinter(cmd)
		result, err := a.engine.Layers(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return p.json(result)
		}

		comp := result.Composition
		p.section("Layers")
		if len(comp.Entries) == 0 {
			p.empty("No layers resolved")
		} else {
			rows := make([][]string, 0, len(comp.Entries))
			for _, e := range comp.Entries {
				role := layers.LayerChild
				if e.IsRoot {
					role = layers.LayerRoot
				}
				rows = append(rows, []string{fmt.Sprint(e.Index), e.PackageName, role, e.EntryFile})
			}
			p.table([]string{"#", "Package", "Role", "Entry"}, rows)
		}

		p.section("Sockets")
		for _, c := range layers.Capabilities {
			names := comp.Sockets.List(c)
			value := strings.Join(names, ", ")
			if value == "" {
				value = "-"
			}
			p.labelValue(string(c), value)
		}

		if len(result.Warnings) > 0 {
			p.blank()
			for _, w := range result.Warnings {
				p.warning("%s", w)
			}
		}
		return nil
	},
}
