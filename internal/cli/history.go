package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
)

var (
	historyLimit int
	historyEnv   string
	historyClear bool
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show operation history",
	Long: `Display the installs, switches and maintenance operations devenv
has performed.

Examples:
  devenv history                 # Show recent history
  devenv history -l 20           # Show last 20 operations
  devenv history -e java         # Only Java operations
  devenv history --prune 720h    # Drop entries older than 30 days
  devenv history --clear         # Delete all history`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().StringVarP(&historyEnv, "env", "e", "", "only show entries for one environment")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history entries")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete entries older than this duration")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if historyClear {
		if !cfg.General.AutoConfirm {
			confirmed, err := ui.Confirm("Delete all history entries?", false)
			if err != nil {
				return err
			}
			if !confirmed {
				return ErrAborted
			}
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		ui.SuccessMsg("History cleared")
		return nil
	}

	if historyPrune > 0 {
		removed, err := store.Prune(historyPrune)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		ui.SuccessMsg("Removed %d entries older than %s", removed, historyPrune)
		return nil
	}

	var entries []history.Entry
	if historyEnv != "" {
		entries, err = store.ForEnvironment(historyEnv, historyLimit)
	} else {
		entries, err = store.List(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		ui.MutedMsg("No history entries found")
		return nil
	}

	ui.HeaderMsg("Operation History")

	for i, entry := range entries {
		status := ui.Green("success")
		if !entry.Success {
			status = ui.Red("failed")
		}

		reverseIndicator := ""
		if entry.CanRollback() {
			reverseIndicator = " " + ui.Cyan("[reversible]")
		}

		target := entry.Target()
		if entry.Previous != "" && entry.Environment != "" {
			target += ui.Muted.Sprintf(" (was %s)", entry.Previous)
		}

		fmt.Printf("%2d. %s %s %s (%s)%s\n",
			i+1,
			ui.Muted.Sprint(entry.FormatTime()),
			ui.Bold(string(entry.Operation)),
			target,
			status,
			reverseIndicator,
		)

		if entry.Detail != "" {
			ui.MutedMsg("    %s", entry.Detail)
		}
		if entry.Error != "" {
			ui.MutedMsg("    Error: %s", entry.Error)
		}
	}

	total, _ := store.Count()
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)

	return nil
}
