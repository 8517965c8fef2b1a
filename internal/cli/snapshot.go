package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/config"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage install ledger snapshots",
	Long: `Manage snapshots of the install ledger.

A snapshot records which versions of every environment are installed and
which one is current. One is taken automatically before each install,
switch, flush and rollback, and can be restored with devenv rollback.

Examples:
  devenv snapshot list                # List available snapshots
  devenv snapshot create "before jdk21"
  devenv snapshot show <id>           # Show details of a snapshot
  devenv snapshot diff <id>           # Compare a snapshot with now
  devenv snapshot diff <id1> <id2>    # Compare two snapshots
  devenv snapshot delete <id>         # Delete a snapshot
  devenv snapshot prune               # Remove old snapshots`,
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotDiffCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
	snapshotCmd.AddCommand(snapshotPruneCmd)
}

func openSnapshots() (*snapshot.Store, error) {
	store, err := snapshot.OpenStore(config.SnapshotPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return store, nil
}

// currentState captures the ledger as it is now, without saving it.
func currentState() *snapshot.Snapshot {
	snap := snapshot.NewSnapshot(snapshot.TriggerManual, "current state", installs.Snapshot())
	snap.ID = "current"
	return snap
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available snapshots",
	Long: `List snapshots, most recent first.

Use --trigger to filter by what took the snapshot (manual, install,
switch, flush, rollback).`,
	Args: cobra.NoArgs,
	RunE: runSnapshotList,
}

var (
	snapshotListLimit   int
	snapshotListTrigger string
)

func init() {
	snapshotListCmd.Flags().IntVarP(&snapshotListLimit, "limit", "l", 20, "maximum number of snapshots to list")
	snapshotListCmd.Flags().StringVarP(&snapshotListTrigger, "trigger", "t", "", "filter by trigger type")
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	store, err := openSnapshots()
	if err != nil {
		return err
	}
	defer store.Close()

	snapshots, err := store.List(snapshotListLimit, snapshot.Trigger(snapshotListTrigger))
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snapshots) == 0 {
		ui.InfoMsg("No snapshots available")
		ui.MutedMsg("Snapshots are taken before installs and switches, or with: devenv snapshot create")
		return nil
	}

	ui.HeaderMsg("Available Snapshots")
	table := ui.NewTable([]string{"id", "taken", "trigger", "versions", "description"})
	for _, snap := range snapshots {
		trigger := string(snap.Trigger)
		if snap.Trigger == snapshot.TriggerManual {
			trigger = ui.Green(trigger)
		}
		table.AddRow([]string{
			ui.Cyan(snap.ID),
			snap.FormatTime(),
			trigger,
			fmt.Sprintf("%d", snap.VersionCount()),
			orDash(snap.Description),
		})
	}
	table.Render()

	count, _ := store.Count()
	ui.MutedMsg("Showing %d of %d total snapshots", len(snapshots), count)
	return nil
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create [description]",
	Short: "Create a manual snapshot",
	Long: `Record the current install ledger as a manual snapshot.

Automatic pruning keeps fewer automatic snapshots than manual ones.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshotCreate,
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	description := "manual snapshot"
	if len(args) > 0 {
		description = args[0]
	}

	if cfg.General.DryRun {
		ui.InfoMsg("Would snapshot %d installed versions", currentState().VersionCount())
		return nil
	}

	store, err := openSnapshots()
	if err != nil {
		return err
	}
	defer store.Close()

	snap := snapshot.NewSnapshot(snapshot.TriggerManual, description, installs.Snapshot())
	if err := store.Save(snap); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	ui.SuccessMsg("Created snapshot %s with %d versions", snap.ID, snap.VersionCount())
	for _, env := range snap.Envs {
		ui.MutedMsg("  %s: %d installed, current %s", env.Name, len(env.Installed), orDash(env.Current))
	}
	return nil
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <snapshot-id>",
	Short: "Show details of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	store, err := openSnapshots()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("snapshot not found: %s", args[0])
	}

	ui.HeaderMsg("Snapshot: %s", snap.ID)
	ui.Field("Timestamp", snap.FormatTime())
	ui.Field("Trigger", string(snap.Trigger))
	ui.Field("Description", orDash(snap.Description))
	ui.Field("Install root", snap.InstallPath)
	if len(snap.Targets) > 0 {
		ui.Field("Targets", fmt.Sprint(snap.Targets))
	}
	ui.Println("")

	for _, env := range snap.Envs {
		ui.InfoMsg("%s (%d installed)", env.Name, len(env.Installed))
		for _, v := range env.Installed {
			if v == env.Current {
				ui.Println("  %s %s", ui.Green(v), ui.Muted.Sprint("(current)"))
			} else {
				ui.MutedMsg("  %s", v)
			}
		}
	}
	return nil
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff <snapshot-id-1> [snapshot-id-2]",
	Short: "Compare snapshots",
	Long: `Show what changed between two snapshots. The first snapshot is the
"from" state. Without a second id, compare against the ledger as it is
now.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSnapshotDiff,
}

func runSnapshotDiff(cmd *cobra.Command, args []string) error {
	store, err := openSnapshots()
	if err != nil {
		return err
	}
	defer store.Close()

	from, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("snapshot not found: %s", args[0])
	}

	to := currentState()
	if len(args) > 1 {
		to, err = store.Get(args[1])
		if err != nil {
			return fmt.Errorf("snapshot not found: %s", args[1])
		}
	}

	diff := snapshot.Compare(from, to)
	ui.HeaderMsg("Diff: %s -> %s", from.ID, to.ID)

	if diff.IsEmpty() {
		ui.SuccessMsg("No differences")
		return nil
	}

	ui.InfoMsg("%s", diff.Summary())
	for _, c := range diff.Of(snapshot.ChangeSwitched) {
		ui.Println("  %s", ui.Cyan(c.String()))
	}
	for _, c := range diff.Of(snapshot.ChangeAdded) {
		ui.Println("  %s", ui.Green(c.String()))
	}
	for _, c := range diff.Of(snapshot.ChangeRemoved) {
		ui.Println("  %s", ui.Red(c.String()))
	}
	return nil
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <snapshot-id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotDelete,
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	store, err := openSnapshots()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("snapshot not found: %s", args[0])
	}

	if !cfg.General.AutoConfirm {
		ui.WarningMsg("About to delete snapshot: %s", snap.Summary())
		confirmed, err := ui.Confirm("Delete this snapshot?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	if err := store.Delete(snap.ID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	ui.SuccessMsg("Deleted snapshot %s", snap.ID)
	return nil
}

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old snapshots",
	Long: `Remove old snapshots. By default keeps the 50 most recent snapshots
overall, and at most 20 automatic ones among them.`,
	Args: cobra.NoArgs,
	RunE: runSnapshotPrune,
}

var (
	pruneKeep     int
	pruneAutoKeep int
)

func init() {
	snapshotPruneCmd.Flags().IntVar(&pruneKeep, "keep", snapshot.MaxSnapshots, "number of snapshots to keep")
	snapshotPruneCmd.Flags().IntVar(&pruneAutoKeep, "keep-auto", snapshot.MaxAutoSnapshots, "number of automatic snapshots to keep")
}

func runSnapshotPrune(cmd *cobra.Command, args []string) error {
	store, err := openSnapshots()
	if err != nil {
		return err
	}
	defer store.Close()

	before, _ := store.Count()
	deleted, err := store.Prune(pruneKeep, pruneAutoKeep)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if deleted == 0 {
		ui.InfoMsg("No snapshots to prune (keeping %d)", before)
	} else {
		ui.SuccessMsg("Pruned %d old snapshot(s)", deleted)
	}
	after, _ := store.Count()
	ui.MutedMsg("Remaining snapshots: %d", after)
	return nil
}
