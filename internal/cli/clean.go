package cli

import (
	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/fetch"
	"github.com/wengchengjian/env/pkg/layout"
)

var cleanTemp bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove downloaded archives",
	Long: `Remove partially or fully downloaded archives from the download
cache. Installed environments are not touched.

Examples:
  devenv clean              # Empty the download cache
  devenv clean --temp       # Also remove leftover extraction directories`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanTemp, "temp", false, "also remove leftover temp extraction directories")
}

func runClean(cmd *cobra.Command, args []string) error {
	f := fetch.New(cfg.CachePath(), fetch.WithLogger(logger))

	if cfg.General.DryRun {
		ui.InfoMsg("Would empty %s", f.CacheDir())
		return nil
	}

	entry := history.NewEntry(history.OpClean, "", "")

	var removed int
	err := ui.WithSpinner("Cleaning download cache", func() error {
		var err error
		if removed, err = f.Clean(); err != nil {
			return err
		}
		if cleanTemp {
			return clearTempDirs()
		}
		return nil
	})
	entry.Finish(err)
	if err == nil {
		entry.Detail = f.CacheDir()
	}
	recordHistory(entry)
	if err != nil {
		return err
	}

	ui.MutedMsg("  Removed %d item(s) from %s", removed, f.CacheDir())
	return nil
}

// clearTempDirs removes the {root}/{name}/temp directory of every catalog
// environment.
func clearTempDirs() error {
	root := installRoot()
	for _, name := range catalog.Names() {
		if err := layout.ClearStale(layout.TempDir(root, name)); err != nil {
			return err
		}
	}
	return nil
}
