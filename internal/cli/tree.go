package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/atelier/internal/engine"
	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/forest"
)

var treeCmd = &cobra.Command{
	Use:   "tree <forest-pkg> <forest> <tree>",
	Short: "Print a tree of a forest",
	Long:  `Rebuild the forest from the journal and print one of its trees.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p := newPrinter(cmd)
		a, err := newRuntimeApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		tree, err := a.engine.Tree(ctx, &engine.TreeRequest{
			ForestPkgID: args[0],
			ForestID:    args[1],
			TreeID:      args[2],
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return p.json(tree)
		}

		p.section(fmt.Sprintf("%s/%s %s", args[0], args[1], tree.ID))
		lines := renderTree(tree)
		if len(lines) == 0 {
			p.empty("Tree is empty")
			return nil
		}
		for _, line := range lines {
			p.line(line)
		}
		if len(tree.Links) > 0 {
			p.subsection(plural(len(tree.Links), "link", "links"))
		}
		return nil
	},
}

// renderTree returns one indented line per node, depth first from body.
func renderTree(tree *forest.Tree) []string {
	var lines []string
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, n := range tree.Children(parent) {
			label := n.ID
			if n.Alias != "" {
				label = fmt.Sprintf("%s (%s)", n.Alias, n.ID)
			}
			if key, _ := n.Meta["key"].(string); key != "" {
				label += " " + dimColor.Sprint(key)
			}
			lines = append(lines, strings.Repeat("  ", depth+1)+label)
			walk(n.ID, depth+1)
		}
	}
	walk(event.BodyID, 0)
	return lines
}
