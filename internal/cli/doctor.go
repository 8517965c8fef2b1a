package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/config"
	"github.com/wengchengjian/env/internal/executor"
	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/layout"
)

// lowSpaceThreshold is the free space below which doctor warns; a JDK
// unpacks to a few hundred MiB and databases are larger.
const lowSpaceThreshold = 2 << 30

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose setup issues",
	Long: `Check platform detection, the install root, the shell profile,
the install ledger and the local databases devenv relies on.

Examples:
  devenv doctor             # Run diagnostics`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	issues := 0

	ui.HeaderMsg("Running diagnostics...")

	// Platform
	ui.SuccessMsg("System detected: %s", host.PrettyName())
	osToken, archToken := catalog.Platform.Canonical(host)
	ui.MutedMsg("  Artifacts resolve as %s/%s", osToken, archToken)
	if executor.IsElevated() {
		ui.WarningMsg("Running with elevated privileges; profile changes apply to that account")
	}

	// Catalog
	ui.HeaderMsg("Catalog")
	ui.SuccessMsg("%d environments, %d supported", len(catalog.Environments), len(catalog.Supported()))
	if defs := cfg.DefinitionsPath(); defs != "" {
		ui.MutedMsg("  Definitions merged from %s", defs)
	}

	// Install root
	ui.HeaderMsg("Install Root")
	root := installRoot()
	if err := checkWritableDir(root); err != nil {
		ui.ErrorMsg("%s is not writable: %v", root, err)
		issues++
	} else {
		ui.SuccessMsg("%s is writable", root)
	}

	if free, err := freeSpace(ctx, root); err != nil {
		ui.WarningMsg("Could not read free space: %v", err)
	} else if free < lowSpaceThreshold {
		ui.WarningMsg("Only %s free under %s", ui.FormatBytes(int64(free)), root)
		issues++
	} else {
		ui.SuccessMsg("%s free", ui.FormatBytes(int64(free)))
	}

	// Activation target
	ui.HeaderMsg("Activation")
	if host.IsWindows() {
		ui.SuccessMsg("User environment is written to the registry with setx")
		if _, ok := executor.LookPath("setx"); !ok {
			ui.ErrorMsg("setx not found on PATH")
			issues++
		}
	} else {
		profile := cfg.ProfilePath()
		if err := checkWritableFile(profile); err != nil {
			ui.ErrorMsg("Profile %s is not writable: %v", profile, err)
			issues++
		} else {
			ui.SuccessMsg("Profile %s is writable", profile)
		}
	}

	// Ledger
	ui.HeaderMsg("Install Ledger")
	ui.SuccessMsg("Ledger loaded from %s", installs.Path())
	issues += checkLedger(root)

	// Local state
	ui.HeaderMsg("Local State")
	if store, err := history.Open(); err != nil {
		ui.WarningMsg("History unavailable: %v", err)
	} else {
		count, _ := store.Count()
		store.Close()
		ui.SuccessMsg("History: %d entries (%s)", count, config.HistoryPath())
	}
	ui.MutedMsg("  Download cache: %s", cfg.CachePath())

	// Summary
	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No issues found! devenv is ready to use.")
	} else {
		ui.WarningMsg("Found %d issue(s). Some features may not work correctly.", issues)
	}

	return nil
}

// checkLedger reports ledger entries whose directories are gone and
// install directories the ledger does not know about.
func checkLedger(root string) int {
	issues := 0
	for _, entry := range installs.Entries() {
		for _, v := range entry.InstalledVersions {
			if !layout.Exists(root, entry.Name, v) {
				ui.WarningMsg("%s %s is recorded but %s is missing", entry.Name, v, layout.InstallDir(root, entry.Name, v))
				issues++
			}
		}
	}

	for _, name := range catalog.Names() {
		found, err := layout.Installed(root, name)
		if err != nil {
			continue
		}
		for _, v := range found {
			if !installs.IsInstalled(name, v) {
				ui.WarningMsg("%s %s is on disk but not in the ledger", name, v)
				issues++
			}
		}
	}

	if issues > 0 {
		ui.MutedMsg("  Run devenv config --flush to rebuild the ledger from disk")
	} else {
		ui.SuccessMsg("Ledger matches the install root")
	}
	return issues
}

// checkWritableDir creates dir if needed and writes a probe file into it.
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".devenv-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// checkWritableFile opens path for appending, or probes its directory when
// the file does not exist yet.
func checkWritableFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err == nil {
		return f.Close()
	}
	if errors.Is(err, os.ErrNotExist) {
		return checkWritableDir(filepath.Dir(path))
	}
	return err
}

// freeSpace returns the free bytes on the filesystem holding path, walking
// up to the nearest existing ancestor.
func freeSpace(ctx context.Context, path string) (uint64, error) {
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
