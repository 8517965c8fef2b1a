// Package environment describes the installable environments: where their
// artifacts live, which variables activate them, and which versions exist.
package environment

import (
	"strings"

	"github.com/wengchengjian/env/pkg/activate"
)

// ArgType is the kind of prompt used to collect an environment argument.
type ArgType string

const (
	ArgInput       ArgType = "input"
	ArgSelect      ArgType = "select"
	ArgMultiSelect ArgType = "multi-select"
	ArgPassword    ArgType = "password"
)

// Arg is an interactive argument collected before install. Its value is
// bound as a %name% placeholder during activation.
type Arg struct {
	Name              string   `toml:"name" yaml:"name" json:"name"`
	Description       string   `toml:"description" yaml:"description" json:"description"`
	Type              ArgType  `toml:"type" yaml:"type" json:"type"`
	Default           string   `toml:"default" yaml:"default" json:"default"`
	Options           []string `toml:"options" yaml:"options" json:"options"`
	SelectDescription []string `toml:"select_description" yaml:"select_description" json:"select_description"`
}

// OptionLabels returns the select options decorated with their
// descriptions, as shown in prompts.
func (a Arg) OptionLabels() []string {
	labels := make([]string, len(a.Options))
	for i, opt := range a.Options {
		if i < len(a.SelectDescription) && a.SelectDescription[i] != "" {
			labels[i] = opt + " - " + a.SelectDescription[i]
			continue
		}
		labels[i] = opt
	}
	return labels
}

// DefaultIndex returns the index of the default option, or 0.
func (a Arg) DefaultIndex() int {
	for i, opt := range a.Options {
		if opt == a.Default {
			return i
		}
	}
	return 0
}

// Definition is one installable runtime or database.
type Definition struct {
	Name        string `toml:"name" yaml:"name" json:"name"`
	Description string `toml:"description" yaml:"description" json:"description"`
	Supported   bool   `toml:"supported" yaml:"supported" json:"supported"`

	// Repository is the URL template with %version%, %arch%, %platform%
	// and %format% placeholders.
	Repository string `toml:"repository" yaml:"repository" json:"repository"`

	// Formats overrides the platform default archive format, keyed by
	// canonical OS token.
	Formats map[string]string `toml:"formats" yaml:"formats" json:"formats"`

	// OSNames and ArchNames rename canonical tokens for this repository.
	OSNames   map[string]string `toml:"os_names" yaml:"os_names" json:"os_names"`
	ArchNames map[string]string `toml:"arch_names" yaml:"arch_names" json:"arch_names"`

	Environment map[string]string `toml:"environment" yaml:"environment" json:"environment"`
	Executable  []string          `toml:"executable" yaml:"executable" json:"executable"`
	PathBase    string            `toml:"path_base" yaml:"path_base" json:"path_base"`
	SearchPaths [][]string        `toml:"search_paths" yaml:"search_paths" json:"search_paths"`

	Versions       []string `toml:"versions" yaml:"versions" json:"versions"`
	DefaultVersion string   `toml:"default_version" yaml:"default_version" json:"default_version"`
	Args           []Arg    `toml:"args" yaml:"args" json:"args"`

	// Overrides maps "platform-arch" to version to a direct URL.
	Overrides map[string]map[string]string `toml:"overrides" yaml:"overrides" json:"overrides"`

	// VersionCommand probes an installed executable, e.g. ["java", "-version"].
	VersionCommand []string `toml:"version_command" yaml:"version_command" json:"version_command"`
}

// Activation returns the activation record with args bound as extra
// placeholders.
func (d *Definition) Activation(args map[string]string) activate.Record {
	return activate.Record{
		Environment: d.Environment,
		Executable:  d.Executable,
		PathBase:    d.PathBase,
		SearchPaths: d.SearchPaths,
		Extra:       args,
	}
}

// HasVersion reports whether version is in the catalog list.
func (d *Definition) HasVersion(version string) bool {
	for _, v := range d.Versions {
		if v == version {
			return true
		}
	}
	return false
}

// Is reports whether name refers to d, ignoring case.
func (d *Definition) Is(name string) bool {
	return strings.EqualFold(d.Name, name)
}

// PreferredVersion returns the default version, falling back to the newest
// catalog entry.
func (d *Definition) PreferredVersion() string {
	if d.DefaultVersion != "" {
		return d.DefaultVersion
	}
	sorted := SortVersions(d.Versions)
	if len(sorted) > 0 {
		return sorted[0]
	}
	return ""
}

// DefaultArgs returns every arg bound to its default.
func (d *Definition) DefaultArgs() map[string]string {
	out := make(map[string]string, len(d.Args))
	for _, a := range d.Args {
		out[a.Name] = a.Default
	}
	return out
}
