package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/environment"
	"github.com/wengchengjian/env/pkg/pipeline"
	"github.com/wengchengjian/env/pkg/snapshot"
)

var chooseCmd = &cobra.Command{
	Use:   "choose NAME [VERSION]",
	Short: "Switch the current version of an environment",
	Long: `Make an installed version the current one. The environment
variables and PATH entry are rewritten to point at it; nothing is
downloaded.

Without VERSION, pick among the installed versions.

Examples:
  devenv choose java 11.0.21     # Switch Java to 11.0.21
  devenv choose node             # Pick an installed Node version`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runChoose,
}

func runChoose(cmd *cobra.Command, args []string) error {
	def, err := lookup(args[0])
	if err != nil {
		return err
	}

	var requested string
	if len(args) > 1 {
		requested = args[1]
	}

	version, err := pickInstalled(def, requested, cfg.General.AutoConfirm)
	if err != nil {
		return err
	}

	req, err := catalog.Request(def, version, host, def.DefaultArgs())
	if err != nil {
		return err
	}

	if cfg.General.DryRun {
		printPlan([]pipeline.Request{req})
		return nil
	}

	if current, _ := installs.Current(def.Name); current == version {
		ui.MutedMsg("%s %s is already current; re-applying activation", def.Name, version)
	}

	captureSnapshot(snapshot.TriggerSwitch, []string{def.Name})
	return runRequests(cmd.Context(), history.OpSwitch, []pipeline.Request{req})
}

// pickInstalled returns requested when it is installed, or prompts among the
// installed versions. Under auto a single installed version is taken as is.
func pickInstalled(def *environment.Definition, requested string, auto bool) (string, error) {
	versions := environment.SortVersions(installs.Versions(def.Name))
	if len(versions) == 0 {
		return "", fmt.Errorf("%w: no %s versions installed; run devenv dev --name %s", ErrNotInstalled, def.Name, def.Name)
	}

	if requested != "" {
		if !installs.IsInstalled(def.Name, requested) {
			return "", fmt.Errorf("%w: %s %s (installed: %v)", ErrNotInstalled, def.Name, requested, versions)
		}
		return requested, nil
	}

	if len(versions) == 1 {
		return versions[0], nil
	}
	if auto {
		return "", fmt.Errorf("%w: specify one of %v", ErrNoSelection, versions)
	}

	current, _ := installs.Current(def.Name)
	labels := make([]string, len(versions))
	defaultIdx := 0
	for i, v := range versions {
		labels[i] = ui.VersionLabel(v, current, true)
		if v == current {
			defaultIdx = i
		}
	}

	return ui.SelectVersion(versions, labels, defaultIdx, fmt.Sprintf("Select %s version", def.Name))
}
