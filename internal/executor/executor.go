// Package executor runs external commands on behalf of devenv, with dry-run
// and verbose modes.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner is the subset of Executor that activators and probes depend on.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	OutputCombined(ctx context.Context, name string, args ...string) (string, error)
}

// Executor runs commands, or only describes them in dry-run mode.
type Executor struct {
	dryRun  bool
	verbose bool
	out     io.Writer
}

// New creates a new Executor with the given options.
func New(dryRun, verbose bool) *Executor {
	return &Executor{
		dryRun:  dryRun,
		verbose: verbose,
		out:     os.Stdout,
	}
}

// SetOutput redirects dry-run and verbose notices.
func (e *Executor) SetOutput(w io.Writer) {
	e.out = w
}

// DryRun reports whether commands are only being described.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Run executes a command with the terminal attached.
func (e *Executor) Run(ctx context.Context, name string, args ...string) error {
	if e.dryRun {
		e.printDryRun(name, args)
		return nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	e.printVerbose(name, args)
	return cmd.Run()
}

// Output runs a command and returns its stdout.
func (e *Executor) Output(ctx context.Context, name string, args ...string) (string, error) {
	if e.dryRun {
		e.printDryRun(name, args)
		return "", nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	e.printVerbose(name, args)
	err := cmd.Run()
	return stdout.String(), err
}

// OutputCombined runs a command and returns both stdout and stderr combined.
// Version probes need it since tools like `java -version` print to stderr.
func (e *Executor) OutputCombined(ctx context.Context, name string, args ...string) (string, error) {
	if e.dryRun {
		e.printDryRun(name, args)
		return "", nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	e.printVerbose(name, args)
	err := cmd.Run()
	return combined.String(), err
}

// LookPath finds name on PATH.
func LookPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	return p, err == nil
}

func (e *Executor) printVerbose(name string, args []string) {
	if e.verbose {
		fmt.Fprintf(e.out, "Executing: %s %s\n", name, strings.Join(args, " "))
	}
}

func (e *Executor) printDryRun(name string, args []string) {
	fmt.Fprintf(e.out, "[dry-run] Would execute: %s %s\n", name, strings.Join(args, " "))
}
