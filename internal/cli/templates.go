package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage recorded templates",
	Long: `Templates are recorded event sequences grouped in directories. They are read
from .atelier/data/templates and, read-only, from templates/ in the tool
directory.`,
}

var templatesLsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List template directories, or the templates of one directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrinter(cmd)
		a, err := newRuntimeApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if len(args) == 0 {
			dirs, err := a.engine.TemplateDirs()
			if err != nil {
				return err
			}
			if jsonOutput {
				return p.json(dirs)
			}
			p.section("Template Directories")
			if len(dirs) == 0 {
				p.empty("No templates found")
				return nil
			}
			p.list(dirs)
			return nil
		}

		list, err := a.engine.Templates(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return p.json(list)
		}

		p.section("Templates in " + list.Dir)
		if len(list.Templates) == 0 {
			p.empty("No templates found")
			return nil
		}
		rows := make([][]string, 0, len(list.Templates))
		for _, s := range list.Templates {
			rows = append(rows, []string{s.Name, s.RootKey, fmt.Sprint(s.Creates), fmt.Sprint(s.Links)})
		}
		p.table([]string{"Name", "Root", "Creates", "Links"}, rows)
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesLsCmd)
}
