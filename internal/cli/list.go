package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/environment"
	"github.com/wengchengjian/env/pkg/layout"
)

var listInstalled bool

var listCmd = &cobra.Command{
	Use:   "list [NAME]",
	Short: "List environments and their versions",
	Long: `Show every environment with its current and installed versions.
With NAME, show all versions of that environment.

Examples:
  devenv list                 # All environments
  devenv list --installed     # Only environments with installs
  devenv list java            # Java versions`,
	Aliases: []string{"ls"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "only show installed environments")
}

func runList(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		def, err := lookup(args[0])
		if err != nil {
			return err
		}
		listVersions(def)
		return nil
	}

	ui.PrintEnvironments(os.Stdout, environmentRows(catalog.Environments, listInstalled))
	return nil
}

// environmentRows joins the catalog with the ledger.
func environmentRows(defs []environment.Definition, installedOnly bool) []ui.EnvRow {
	var rows []ui.EnvRow
	for _, def := range defs {
		installed := environment.SortVersions(installs.Versions(def.Name))
		if installedOnly && len(installed) == 0 {
			continue
		}
		current, _ := installs.Current(def.Name)
		rows = append(rows, ui.EnvRow{
			Name:      def.Name,
			Supported: def.Supported,
			Current:   current,
			Installed: installed,
			Available: len(def.Versions),
		})
	}
	return rows
}

func listVersions(def *environment.Definition) {
	root := installRoot()
	installed := make(map[string]string)
	all := append([]string(nil), def.Versions...)
	for _, v := range installs.Versions(def.Name) {
		installed[v] = layout.InstallDir(root, def.Name, v)
		if !def.HasVersion(v) {
			all = append(all, v)
		}
	}

	current, _ := installs.Current(def.Name)
	ui.PrintVersions(os.Stdout, def.Name, environment.SortVersions(all), current, installed)
	if !def.Supported {
		ui.WarningMsg("%s is not supported yet", def.Name)
	}
}
