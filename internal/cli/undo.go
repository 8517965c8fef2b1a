package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/pipeline"
	"github.com/wengchengjian/env/pkg/snapshot"
)

var undoID string

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Switch back to the version that was current before the last change",
	Long: `Undo the most recent install or switch by making the previously
current version current again. The version installed by the undone
operation stays on disk.

Examples:
  devenv undo               # Undo the last reversible operation
  devenv undo --id=xyz      # Undo a specific history entry`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().StringVar(&undoID, "id", "", "history entry to undo")
}

func runUndo(cmd *cobra.Command, args []string) error {
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	var entry *history.Entry
	if undoID != "" {
		entry, err = store.Get(undoID)
	} else {
		entry, err = store.LastReversible()
	}
	store.Close()
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return ErrNothingToUndo
		}
		return err
	}

	if !entry.CanRollback() {
		return fmt.Errorf("%w: %s cannot be undone", ErrNothingToUndo, entry.Summary())
	}

	def, err := lookup(entry.Environment)
	if err != nil {
		return err
	}
	if !installs.IsInstalled(def.Name, entry.Previous) {
		return fmt.Errorf("%w: %s %s was removed since", ErrNotInstalled, def.Name, entry.Previous)
	}

	ui.HeaderMsg("Undo: %s", entry.Summary())
	ui.InfoMsg("%s: %s -> %s", def.Name, entry.Version, entry.Previous)

	req, err := catalog.Request(def, entry.Previous, host, def.DefaultArgs())
	if err != nil {
		return err
	}

	if cfg.General.DryRun {
		printPlan([]pipeline.Request{req})
		return nil
	}

	if !cfg.General.AutoConfirm {
		confirmed, err := ui.Confirm("Proceed with undo?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	captureSnapshot(snapshot.TriggerSwitch, []string{def.Name})
	return runRequests(cmd.Context(), history.OpSwitch, []pipeline.Request{req})
}
