package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/tui"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/environment"
	"github.com/wengchengjian/env/pkg/snapshot"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal user interface",
	Long: `Launch the interactive environment browser.

The TUI provides a visual way to:
  - Browse environments with their current and installed versions
  - Install a version or switch the current one
  - View operation history
  - Check system information

Navigation:
  - Use arrow keys or j/k to navigate
  - Press 1-4 to switch tabs
  - Press Enter on an environment to see its versions
  - Press Enter or u on a version to install or use it
  - Press / to filter
  - Press ? for help
  - Press q to quit`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	if cfg.General.DryRun {
		ui.WarningMsg("--dry-run has no effect in the TUI")
	}
	return tui.Run(&tuiBackend{})
}

// tuiBackend exposes the catalog, ledger and pipeline to the TUI.
type tuiBackend struct{}

func (b *tuiBackend) Environments() ([]tui.EnvItem, error) {
	if err := installs.Reload(); err != nil {
		return nil, err
	}
	if root := cfg.InstallRoot(); root != "" {
		if err := installs.SetInstallPath(root); err != nil {
			return nil, err
		}
	}

	items := make([]tui.EnvItem, 0, len(catalog.Environments))
	for _, def := range catalog.Environments {
		current, _ := installs.Current(def.Name)
		items = append(items, tui.EnvItem{
			Name:        def.Name,
			Description: def.Description,
			Supported:   def.Supported,
			Current:     current,
			Installed:   environment.SortVersions(installs.Versions(def.Name)),
			Versions:    def.Versions,
		})
	}
	return items, nil
}

func (b *tuiBackend) History(limit int) ([]history.Entry, error) {
	store, err := history.Open()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(limit)
}

func (b *tuiBackend) System() []tui.Field {
	osToken, archToken := catalog.Platform.Canonical(host)
	fields := []tui.Field{
		{Label: "System", Value: host.PrettyName()},
		{Label: "Artifacts", Value: osToken + "/" + archToken},
		{Label: "Install root", Value: installRoot()},
		{Label: "Ledger", Value: installs.Path()},
		{Label: "Profile", Value: cfg.ProfilePath()},
		{Label: "Cache", Value: cfg.CachePath()},
	}
	if host.Hostname != "" {
		fields = append(fields, tui.Field{Label: "Hostname", Value: host.Hostname})
	}
	return fields
}

// Use installs version when needed and makes it current, with the default
// argument values.
func (b *tuiBackend) Use(ctx context.Context, name, version string) error {
	def, err := lookup(name)
	if err != nil {
		return err
	}
	req, err := catalog.Request(def, version, host, def.DefaultArgs())
	if err != nil {
		return err
	}

	op, trigger := history.OpInstall, snapshot.TriggerInstall
	if installs.IsInstalled(def.Name, version) {
		op, trigger = history.OpSwitch, snapshot.TriggerSwitch
	}
	captureSnapshot(trigger, []string{def.Name})

	p, _ := newPipeline(true)
	entry := history.NewEntry(op, def.Name, version)
	entry.Previous, _ = installs.Current(def.Name)
	_, err = p.Run(ctx, req)
	entry.Finish(err)
	recordHistory(entry)
	return err
}
