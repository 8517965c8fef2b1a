package cli

import (
	"context"
	"fmt"

	"github.com/wengchengjian/env/internal/config"
	"github.com/wengchengjian/env/internal/executor"
	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/logging"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/activate"
	"github.com/wengchengjian/env/pkg/archive"
	"github.com/wengchengjian/env/pkg/fetch"
	"github.com/wengchengjian/env/pkg/layout"
	"github.com/wengchengjian/env/pkg/pipeline"
	"github.com/wengchengjian/env/pkg/progress"
	"github.com/wengchengjian/env/pkg/snapshot"
)

// newPipeline assembles the acquisition pipeline from the loaded config.
// A quiet pipeline reports nothing on stdout, for use under the TUI.
func newPipeline(quiet bool) (*pipeline.Pipeline, *stageObserver) {
	var reporter progress.Reporter = progress.Nop{}
	if cfg.Output.Progress && !quiet {
		reporter = ui.NewProgressBar()
	}

	pipeLogger := logger
	if quiet {
		pipeLogger = logging.Discard()
	}

	fetcher := fetch.New(cfg.CachePath(),
		fetch.WithTimeout(cfg.ProbeTimeout(), cfg.RequestTimeout()),
		fetch.WithLogger(pipeLogger),
		fetch.WithProgress(reporter),
		fetch.WithUserAgent("devenv/"+Version),
	)

	extractor := archive.New(
		archive.WithLogger(pipeLogger),
		archive.WithProgress(reporter),
	)

	runner := executor.New(false, cfg.Output.Verbose && !quiet)

	p := &pipeline.Pipeline{
		InstallRoot:    installRoot(),
		Fetcher:        fetcher,
		Extractor:      extractor,
		Activator:      activate.New(cfg.ProfilePath(), runner),
		Ledger:         installs,
		Logger:         pipeLogger,
		ClearStaleTemp: cfg.General.ClearStaleTemp,
	}

	var obs *stageObserver
	if !quiet {
		obs = &stageObserver{}
		p.Observer = obs.observe
	}
	return p, obs
}

// stageObserver turns pipeline transitions into terminal feedback. Downloads
// and extraction draw their own progress; the short local stages get a
// spinner.
type stageObserver struct {
	spinner *ui.Spinner
}

func (o *stageObserver) observe(state pipeline.State, req pipeline.Request) {
	target := req.Name + " " + req.Version
	switch state {
	case pipeline.Normalizing:
		o.show(fmt.Sprintf("Installing %s", target))
		return
	case pipeline.Activating:
		o.show(fmt.Sprintf("Activating %s", target))
		return
	case pipeline.Recording:
		o.show("Updating install ledger")
		return
	}

	o.stop()
	switch state {
	case pipeline.Skip:
		ui.MutedMsg("  %s is already installed", target)
	case pipeline.Fetching:
		ui.InfoMsg("Downloading %s", target)
		ui.MutedMsg("  %s", req.URL)
	case pipeline.Extracting:
		ui.InfoMsg("Extracting %s", target)
	}
}

// show keeps one spinner running across consecutive local stages.
func (o *stageObserver) show(message string) {
	if o.spinner != nil {
		o.spinner.UpdateMessage(message)
		return
	}
	o.spinner = ui.NewSpinner(message)
	o.spinner.Start()
}

func (o *stageObserver) stop() {
	if o == nil || o.spinner == nil {
		return
	}
	o.spinner.Stop()
	o.spinner = nil
}

// runRequests runs reqs in order and records one history entry per request,
// stopping at the first failure.
func runRequests(ctx context.Context, op history.Operation, reqs []pipeline.Request) error {
	p, obs := newPipeline(false)

	for _, req := range reqs {
		entry := history.NewEntry(op, req.Name, req.Version)
		entry.Previous, _ = installs.Current(req.Name)

		res, err := p.Run(ctx, req)
		obs.stop()
		entry.Finish(err)
		if res != nil && res.Skipped && op == history.OpInstall {
			entry.Detail = "already installed"
		}
		recordHistory(entry)

		if err != nil {
			ui.ErrorMsg("Failed to set up %s %s", req.Name, req.Version)
			return err
		}
		ui.SuccessMsg("%s %s is now current (%s)", req.Name, req.Version, res.InstallDir)
	}

	if len(reqs) > 0 {
		ui.MutedMsg("Open a new shell, or source %s, to pick up the changes", cfg.ProfilePath())
	}
	return nil
}

// printPlan describes what running reqs would do without doing it.
func printPlan(reqs []pipeline.Request) {
	root := installRoot()
	ui.HeaderMsg("Dry run")
	for _, req := range reqs {
		dir := layout.InstallDir(root, req.Name, req.Version)
		if layout.Exists(root, req.Name, req.Version) {
			ui.InfoMsg("%s %s: installed at %s, would activate", req.Name, req.Version, dir)
		} else {
			ui.InfoMsg("%s %s: would download and install to %s", req.Name, req.Version, dir)
			ui.MutedMsg("  %s", req.URL)
		}

		dry := &activate.DryRun{}
		if err := activate.Activate(dry, req.Activation, dir); err != nil {
			ui.WarningMsg("  activation: %v", err)
			continue
		}
		for _, call := range dry.Calls {
			ui.MutedMsg("  %s", call)
		}
	}
}

// recordHistory stores entry, ignoring errors as history is best-effort.
func recordHistory(entry *history.Entry) {
	if cfg.General.DryRun {
		return
	}
	store, err := history.Open()
	if err != nil {
		logger.Debug("history unavailable", "err", err)
		return
	}
	defer store.Close()

	if err := store.Record(entry); err != nil {
		logger.Debug("history record failed", "err", err)
	}
}

// captureSnapshot saves the ledger state before an operation. It returns nil
// when snapshots are disabled or capture fails.
func captureSnapshot(trigger snapshot.Trigger, targets []string) *snapshot.Snapshot {
	if !cfg.General.Snapshots || cfg.General.DryRun {
		return nil
	}

	description := fmt.Sprintf("before %s", trigger)
	switch len(targets) {
	case 0:
	case 1:
		description = fmt.Sprintf("before %s %s", trigger, targets[0])
	default:
		description = fmt.Sprintf("before %s of %d environments", trigger, len(targets))
	}

	store, err := snapshot.OpenStore(config.SnapshotPath())
	if err != nil {
		logger.Debug("snapshot store unavailable", "err", err)
		return nil
	}
	defer store.Close()

	snap := snapshot.NewSnapshot(trigger, description, installs.Snapshot())
	snap.Targets = targets
	if err := store.Save(snap); err != nil {
		logger.Debug("snapshot save failed", "err", err)
		return nil
	}
	if _, err := store.Prune(snapshot.MaxSnapshots, snapshot.MaxAutoSnapshots); err != nil {
		logger.Debug("snapshot prune failed", "err", err)
	}

	logger.Debug("captured snapshot", "id", snap.ID, "versions", snap.VersionCount())
	return snap
}
