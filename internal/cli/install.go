package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/environment"
	"github.com/wengchengjian/env/pkg/pipeline"
	"github.com/wengchengjian/env/pkg/snapshot"
)

var (
	devName    string
	devVersion string
)

var devCmd = &cobra.Command{
	Use:     "dev [names...]",
	Aliases: []string{"install"},
	Short:   "Install and activate development environments",
	Long: `Download, unpack and activate one or more environments.

Without a name, devenv lists the supported environments and lets you
pick several at once. For each environment you choose a version and
answer its setup questions (ports, passwords, ...); --yes takes the
defaults everywhere.

Versions that are already installed are not downloaded again; they
are simply made current.

Examples:
  devenv dev                                 # Pick interactively
  devenv dev --name java --version 17.0.9    # Install a specific version
  devenv dev node go -y                      # Default versions, no prompts
  devenv install mysql                       # Alias of dev`,
	RunE: runDev,
}

func init() {
	devCmd.Flags().StringVar(&devName, "name", "", "environment to install")
	devCmd.Flags().StringVar(&devVersion, "version", "", "version to install (requires a single environment)")
}

func runDev(cmd *cobra.Command, args []string) error {
	names := append([]string(nil), args...)
	if devName != "" {
		names = append(names, devName)
	}
	if devVersion != "" && len(names) != 1 {
		return fmt.Errorf("--version needs exactly one environment, got %d", len(names))
	}

	defs, err := selectDefinitions(names, cfg.General.AutoConfirm)
	if err != nil {
		return err
	}

	prompter := argPrompter(uiPrompter{})
	var reqs []pipeline.Request
	for _, def := range defs {
		version, err := chooseVersion(def, devVersion, cfg.General.AutoConfirm)
		if err != nil {
			return err
		}

		values, err := collectArgs(def, cfg.General.AutoConfirm, prompter)
		if err != nil {
			return err
		}

		req, err := catalog.Request(def, version, host, values)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	if cfg.General.DryRun {
		printPlan(reqs)
		return nil
	}

	ui.InfoMsg("Installation plan:")
	targets := make([]string, 0, len(reqs))
	for _, req := range reqs {
		ui.MutedMsg("  - %s %s", req.Name, req.Version)
		targets = append(targets, req.Name)
	}

	if !cfg.General.AutoConfirm {
		confirmed, err := ui.Confirm("Proceed with installation?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	captureSnapshot(snapshot.TriggerInstall, targets)
	return runRequests(cmd.Context(), history.OpInstall, reqs)
}

// selectDefinitions resolves names, or asks for a multi-selection among the
// supported environments when none were given.
func selectDefinitions(names []string, auto bool) ([]*environment.Definition, error) {
	if len(names) > 0 {
		var defs []*environment.Definition
		seen := make(map[string]bool)
		for _, name := range names {
			def, err := lookup(name)
			if err != nil {
				return nil, err
			}
			if !def.Supported {
				return nil, fmt.Errorf("%w: %s", ErrUnsupported, def.Name)
			}
			if key := strings.ToLower(def.Name); !seen[key] {
				seen[key] = true
				defs = append(defs, def)
			}
		}
		return defs, nil
	}

	if auto {
		return nil, fmt.Errorf("%w: name an environment when running with --yes", ErrNoSelection)
	}

	supported := catalog.Supported()
	labels := make([]string, len(supported))
	for i, def := range supported {
		labels[i] = def.Name
		if def.Description != "" {
			labels[i] += " - " + def.Description
		}
	}

	picked, err := ui.SelectMultiple(labels, "Select environments to install:")
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, ErrNoSelection
	}

	var defs []*environment.Definition
	for _, label := range picked {
		for i := range labels {
			if labels[i] == label {
				defs = append(defs, supported[i])
				break
			}
		}
	}
	return defs, nil
}

// chooseVersion returns the requested version, the preferred one under
// auto, or the user's pick.
func chooseVersion(def *environment.Definition, requested string, auto bool) (string, error) {
	if requested != "" {
		if !def.HasVersion(requested) {
			ui.WarningMsg("%s %s is not in the catalog; trying anyway", def.Name, requested)
		}
		return requested, nil
	}

	preferred := def.PreferredVersion()
	if preferred == "" {
		return "", fmt.Errorf("%w for %s", ErrNoVersions, def.Name)
	}
	if auto {
		return preferred, nil
	}

	versions := environment.SortVersions(def.Versions)
	current, _ := installs.Current(def.Name)
	labels := make([]string, len(versions))
	defaultIdx := 0
	for i, v := range versions {
		labels[i] = ui.VersionLabel(v, current, installs.IsInstalled(def.Name, v))
		if v == preferred {
			defaultIdx = i
		}
	}

	return ui.SelectVersion(versions, labels, defaultIdx, fmt.Sprintf("Select %s version", def.Name))
}

// argPrompter asks for the value of one environment argument.
type argPrompter interface {
	Input(label, defaultValue string) (string, error)
	Select(items []string, defaultIdx int, label string) (int, error)
	Multi(items []string, label string) ([]string, error)
	Password(label string) (string, error)
}

type uiPrompter struct{}

func (uiPrompter) Input(label, defaultValue string) (string, error) {
	return ui.Input(label, defaultValue)
}

func (uiPrompter) Select(items []string, defaultIdx int, label string) (int, error) {
	return ui.SelectOption(items, defaultIdx, label)
}

func (uiPrompter) Multi(items []string, label string) ([]string, error) {
	return ui.SelectMultiple(items, label)
}

func (uiPrompter) Password(label string) (string, error) {
	return ui.Password(label)
}

// collectArgs gathers a value for every argument def declares. Under auto
// every argument takes its default. Empty answers fall back to the default.
func collectArgs(def *environment.Definition, auto bool, p argPrompter) (map[string]string, error) {
	values := def.DefaultArgs()
	if auto {
		return values, nil
	}

	for _, arg := range def.Args {
		label := arg.Description
		if label == "" {
			label = arg.Name
		}
		label = def.Name + " " + label

		var (
			value string
			err   error
		)
		switch arg.Type {
		case environment.ArgSelect:
			var idx int
			idx, err = p.Select(arg.OptionLabels(), arg.DefaultIndex(), label)
			if err == nil && idx >= 0 && idx < len(arg.Options) {
				value = arg.Options[idx]
			}
		case environment.ArgMultiSelect:
			var picked []string
			picked, err = p.Multi(arg.OptionLabels(), label)
			value = strings.Join(optionsFor(arg, picked), ",")
		case environment.ArgPassword:
			value, err = p.Password(label)
		default:
			value, err = p.Input(label, arg.Default)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg.Name, err)
		}

		if arg.Type != environment.ArgPassword {
			value = strings.TrimSpace(value)
		}
		if value != "" {
			values[arg.Name] = value
		}
	}

	return values, nil
}

// optionsFor maps picked option labels back to their option values.
func optionsFor(arg environment.Arg, picked []string) []string {
	labels := arg.OptionLabels()
	var out []string
	for _, p := range picked {
		for i, l := range labels {
			if l == p {
				out = append(out, arg.Options[i])
				break
			}
		}
	}
	return out
}
