package environment

import (
	"sort"
	"strings"

	"github.com/wengchengjian/env/pkg/platform"
)

// PlatformTable normalizes raw OS and architecture identifiers into the
// canonical %platform% and %arch% tokens.
type PlatformTable struct {
	OS      map[string][]string `toml:"os" yaml:"os" json:"os"`
	Arch    map[string][]string `toml:"arch" yaml:"arch" json:"arch"`
	Formats map[string]string   `toml:"formats" yaml:"formats" json:"formats"`
}

// Canonical returns the canonical OS and arch tokens for info. Identifiers
// without an alias are passed through unchanged.
func (t PlatformTable) Canonical(info platform.Info) (osToken, archToken string) {
	return lookupAlias(t.OS, info.OS), lookupAlias(t.Arch, info.Arch)
}

// Key returns the "os-arch" key used by URL overrides.
func (t PlatformTable) Key(info platform.Info) string {
	osToken, archToken := t.Canonical(info)
	return osToken + "-" + archToken
}

// DefaultFormat returns the archive format used for osToken.
func (t PlatformTable) DefaultFormat(osToken string) string {
	if f, ok := t.Formats[osToken]; ok {
		return f
	}
	if osToken == "windows" {
		return "zip"
	}
	return "tar.gz"
}

func lookupAlias(table map[string][]string, raw string) string {
	raw = strings.ToLower(raw)

	canon := make([]string, 0, len(table))
	for k := range table {
		canon = append(canon, k)
	}
	sort.Strings(canon)

	for _, c := range canon {
		for _, alias := range table[c] {
			if strings.EqualFold(alias, raw) {
				return c
			}
		}
	}
	return raw
}

func (t PlatformTable) merge(o PlatformTable) PlatformTable {
	out := PlatformTable{
		OS:      make(map[string][]string),
		Arch:    make(map[string][]string),
		Formats: make(map[string]string),
	}
	for k, v := range t.OS {
		out.OS[k] = v
	}
	for k, v := range o.OS {
		out.OS[k] = v
	}
	for k, v := range t.Arch {
		out.Arch[k] = v
	}
	for k, v := range o.Arch {
		out.Arch[k] = v
	}
	for k, v := range t.Formats {
		out.Formats[k] = v
	}
	for k, v := range o.Formats {
		out.Formats[k] = v
	}
	return out
}
