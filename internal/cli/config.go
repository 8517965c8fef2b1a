package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/config"
	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/snapshot"
)

var (
	configDir   string
	configFlush bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change where environments are installed",
	Long: `Without flags, print the locations devenv uses.

--dir changes the install root for future installs (existing ones are
not moved). --flush rebuilds the installed-version list from the
directories actually present under the install root.

Examples:
  devenv config                      # Show paths
  devenv config --dir ~/devenvs      # Install under ~/devenvs
  devenv config --flush              # Rescan installed versions`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&configDir, "dir", "", "set the install root")
	configCmd.Flags().BoolVar(&configFlush, "flush", false, "rescan installed versions")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configDir == "" && !configFlush {
		printPaths()
		return nil
	}

	if configDir != "" {
		if err := setInstallRoot(configDir); err != nil {
			return err
		}
	}

	if configFlush {
		return flushLedger()
	}
	return nil
}

func printPaths() {
	ui.HeaderMsg("devenv paths")
	ui.Field("Install root", installRoot())
	ui.Field("Ledger", installs.Path())
	if _, err := os.Stat(config.LocalLedgerPath()); err == nil {
		ui.Field("Local ledger", config.LocalLedgerPath())
	}
	ui.Field("Config", configPath())
	ui.Field("Profile", cfg.ProfilePath())
	ui.Field("Download cache", cfg.CachePath())
	ui.Field("History", config.HistoryPath())
	ui.Field("Snapshots", config.SnapshotPath())
	if defs := cfg.DefinitionsPath(); defs != "" {
		ui.Field("Definitions", defs)
	}
	if cfg.InstallRoot() != "" {
		ui.MutedMsg("install_root is set in the config file and overrides the ledger")
	}
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}

func setInstallRoot(dir string) error {
	entry := history.NewEntry(history.OpSetRoot, "", "")
	entry.Previous = installs.InstallPath()

	if cfg.General.DryRun {
		ui.InfoMsg("Would set install root to %s", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create install root: %w", err)
	}

	err := installs.SetInstallPath(dir)
	if err == nil {
		err = installs.Save()
	}
	entry.Detail = installs.InstallPath()
	entry.Finish(err)
	recordHistory(entry)
	if err != nil {
		return err
	}

	ui.SuccessMsg("Install root set to %s", installs.InstallPath())
	if cfg.InstallRoot() != "" {
		ui.WarningMsg("install_root in %s still takes precedence", configPath())
	}
	return nil
}

func flushLedger() error {
	if cfg.General.DryRun {
		ui.InfoMsg("Would rescan %s", installs.InstallPath())
		return nil
	}

	captureSnapshot(snapshot.TriggerFlush, nil)

	entry := history.NewEntry(history.OpFlush, "", "")
	before := installs.Snapshot()

	err := installs.Flush(catalog.Names())
	if err == nil {
		err = installs.Save()
	}
	entry.Finish(err)

	if err == nil {
		after := installs.Snapshot()
		diff := snapshot.Compare(
			snapshot.NewSnapshot(snapshot.TriggerFlush, "before", before),
			snapshot.NewSnapshot(snapshot.TriggerFlush, "after", after),
		)
		entry.Detail = diff.Summary()
		recordHistory(entry)

		if diff.IsEmpty() {
			ui.SuccessMsg("Ledger already matches %s", installs.InstallPath())
			return nil
		}
		for _, c := range diff.Changes {
			ui.MutedMsg("  %s", c.String())
		}
		ui.SuccessMsg("Ledger rebuilt from %s", installs.InstallPath())
		return nil
	}

	recordHistory(entry)
	return err
}
