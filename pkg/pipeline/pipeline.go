// Package pipeline turns a (name, version) request into an installed,
// activated and recorded environment.
//
// A run moves through CheckLocal, then either Skip or Fetching, Extracting
// and Normalizing, then Activating, Recording and Done. Any failure ends in
// Failed with a *StageError naming the state. The ledger is only written in
// Recording, so a failed run leaves it unchanged.
package pipeline

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/wengchengjian/env/internal/logging"
	"github.com/wengchengjian/env/pkg/activate"
	"github.com/wengchengjian/env/pkg/errdefs"
	"github.com/wengchengjian/env/pkg/layout"
)

// Request is a resolved install request.
type Request struct {
	Name       string
	Version    string
	URL        string
	Activation activate.Record
}

// Validate checks that the request carries everything a run needs.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return errdefs.Newf(errdefs.KindConfig, "validate request", "", "missing environment name")
	case strings.TrimSpace(r.Version) == "":
		return errdefs.Newf(errdefs.KindConfig, "validate request", r.Name, "missing version")
	case strings.TrimSpace(r.URL) == "":
		return errdefs.Newf(errdefs.KindConfig, "validate request", r.Name, "missing source url")
	}
	return nil
}

// Fetcher downloads a URL into the local cache.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Extractor unpacks an archive into a directory.
type Extractor interface {
	Extract(ctx context.Context, filePath, outputDir string) error
}

// Ledger records installed and current versions.
type Ledger interface {
	Record(name, version, homeDir string) error
	Save() error
}

// Observer is told about every state a run enters.
type Observer func(State, Request)

// Result describes a finished run.
type Result struct {
	Request     Request
	InstallDir  string
	Skipped     bool
	Transitions []State
}

// Final returns the last state entered.
func (r *Result) Final() State {
	if len(r.Transitions) == 0 {
		return CheckLocal
	}
	return r.Transitions[len(r.Transitions)-1]
}

// Pipeline wires the stage collaborators together.
type Pipeline struct {
	InstallRoot    string
	Fetcher        Fetcher
	Extractor      Extractor
	Activator      activate.Activator
	Ledger         Ledger
	Logger         *log.Logger
	Observer       Observer
	ClearStaleTemp bool
}

// Run executes one request to completion.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	logger := logging.OrDiscard(p.Logger)
	res := &Result{Request: req}

	p.enter(res, CheckLocal)
	if err := req.Validate(); err != nil {
		return p.fail(res, CheckLocal, err)
	}

	installDir := layout.InstallDir(p.InstallRoot, req.Name, req.Version)
	res.InstallDir = installDir

	if layout.Exists(p.InstallRoot, req.Name, req.Version) {
		res.Skipped = true
		p.enter(res, Skip)
		logger.Info("already installed", "name", req.Name, "version", req.Version, "dir", installDir)
	} else {
		if err := p.acquire(ctx, res); err != nil {
			return res, err
		}
	}

	if err := ctx.Err(); err != nil {
		return p.fail(res, Activating, err)
	}

	p.enter(res, Activating)
	if err := activate.Activate(p.Activator, req.Activation, installDir); err != nil {
		return p.fail(res, Activating, err)
	}

	p.enter(res, Recording)
	if err := p.Ledger.Record(req.Name, req.Version, installDir); err != nil {
		return p.fail(res, Recording, err)
	}
	if err := p.Ledger.Save(); err != nil {
		return p.fail(res, Recording, err)
	}

	p.enter(res, Done)
	logger.Info("environment ready", "name", req.Name, "version", req.Version, "skipped", res.Skipped)
	return res, nil
}

// acquire runs Fetching, Extracting and Normalizing.
func (p *Pipeline) acquire(ctx context.Context, res *Result) error {
	req := res.Request
	logger := logging.OrDiscard(p.Logger)

	p.enter(res, Fetching)
	archivePath, err := p.Fetcher.Fetch(ctx, req.URL)
	if err != nil {
		_, err = p.fail(res, Fetching, err)
		return err
	}
	logger.Debug("fetched", "url", req.URL, "file", archivePath)

	p.enter(res, Extracting)
	tempDir := layout.TempDir(p.InstallRoot, req.Name)
	if p.ClearStaleTemp {
		if err := layout.ClearStale(tempDir); err != nil {
			_, err = p.fail(res, Extracting, err)
			return err
		}
	}
	if err := p.Extractor.Extract(ctx, archivePath, tempDir); err != nil {
		_, err = p.fail(res, Extracting, err)
		return err
	}

	p.enter(res, Normalizing)
	dir, err := layout.Normalize(tempDir, p.InstallRoot, req.Name, req.Version)
	if err != nil {
		_, err = p.fail(res, Normalizing, err)
		return err
	}
	res.InstallDir = dir
	return nil
}

// RunAll runs requests strictly one after another and stops at the first
// failure. Results of every attempted request are returned.
func (p *Pipeline) RunAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, 0, len(reqs))
	for _, req := range reqs {
		res, err := p.Run(ctx, req)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (p *Pipeline) enter(res *Result, s State) {
	res.Transitions = append(res.Transitions, s)
	if p.Observer != nil {
		p.Observer(s, res.Request)
	}
}

func (p *Pipeline) fail(res *Result, stage State, err error) (*Result, error) {
	logging.OrDiscard(p.Logger).Debug("stage failed", "stage", stage.String(), "name", res.Request.Name,
		"version", res.Request.Version, "err", err)
	p.enter(res, Failed)
	return res, &StageError{
		Stage:   stage,
		Name:    res.Request.Name,
		Version: res.Request.Version,
		Err:     err,
	}
}
