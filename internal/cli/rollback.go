package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/pipeline"
	"github.com/wengchengjian/env/pkg/snapshot"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback [SNAPSHOT-ID]",
	Short: "Restore current versions from a snapshot",
	Long: `Switch every environment back to the version that was current when
a snapshot was taken. Without an id, the most recent snapshot is used.

Only versions still on disk can be restored; versions installed since the
snapshot are kept. Nothing is downloaded.

Examples:
  devenv rollback                    # Restore the latest snapshot
  devenv rollback 20250114-153045    # Restore a specific snapshot`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRollback,
}

func runRollback(cmd *cobra.Command, args []string) error {
	store, err := openSnapshots()
	if err != nil {
		return err
	}

	var target *snapshot.Snapshot
	if len(args) == 1 {
		target, err = store.Get(args[0])
	} else {
		target, err = store.Latest()
	}
	store.Close()
	if err != nil {
		return fmt.Errorf("no snapshot to roll back to: %w", err)
	}

	plan := snapshot.PlanRestore(target, currentState())

	ui.HeaderMsg("Rollback to %s", target.Summary())
	ui.MutedMsg("  taken %s", target.FormatTime())
	if plan.IsEmpty() {
		ui.SuccessMsg("Already at the snapshot state")
		return nil
	}
	ui.Println("%s", plan.Summary())

	if len(plan.Switches) == 0 {
		ui.WarningMsg("Nothing can be restored from disk; reinstall with devenv dev")
		return nil
	}

	reqs, err := restoreRequests(plan.Switches)
	if err != nil {
		return err
	}

	if cfg.General.DryRun {
		printPlan(reqs)
		return nil
	}

	if !cfg.General.AutoConfirm {
		confirmed, err := ui.Confirm("Proceed with rollback?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	targets := make([]string, len(reqs))
	for i, req := range reqs {
		targets[i] = req.Name
	}
	captureSnapshot(snapshot.TriggerRollback, targets)

	return runRequests(cmd.Context(), history.OpRollback, reqs)
}

// restoreRequests builds switch requests with default argument values.
func restoreRequests(switches []snapshot.Switch) ([]pipeline.Request, error) {
	reqs := make([]pipeline.Request, 0, len(switches))
	for _, s := range switches {
		def, err := lookup(s.Environment)
		if err != nil {
			return nil, err
		}
		req, err := catalog.Request(def, s.To, host, def.DefaultArgs())
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
