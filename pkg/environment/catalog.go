package environment

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wengchengjian/env/pkg/errdefs"
)

//go:embed catalog.toml
var builtinCatalog []byte

// Catalog is the set of known environments plus the platform table used to
// resolve their artifact URLs.
type Catalog struct {
	Platform     PlatformTable `toml:"platform" yaml:"platform" json:"platform"`
	Environments []Definition  `toml:"environments" yaml:"environments" json:"environments"`
}

// Default decodes the built-in catalog.
func Default() (*Catalog, error) {
	var c Catalog
	if _, err := toml.NewDecoder(bytes.NewReader(builtinCatalog)).Decode(&c); err != nil {
		return nil, errdefs.Config("decode built-in catalog", "catalog.toml", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a catalog from a .toml, .yaml/.yml or .json file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.Config("read definitions", path, err)
	}

	var c Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".json":
		err = json.Unmarshal(data, &c)
	default:
		err = fmt.Errorf("unsupported definitions extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errdefs.Config("decode definitions", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load returns the built-in catalog merged with the definitions file at
// path, when path is non-empty.
func Load(path string) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	override, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Merge(c, override), nil
}

// Merge returns base with every definition of override replacing the
// same-named one (case-insensitive) or appended when new. Platform entries
// in override win.
func Merge(base, override *Catalog) *Catalog {
	out := &Catalog{
		Platform:     base.Platform.merge(override.Platform),
		Environments: append([]Definition(nil), base.Environments...),
	}

	for _, def := range override.Environments {
		replaced := false
		for i := range out.Environments {
			if out.Environments[i].Is(def.Name) {
				out.Environments[i] = def
				replaced = true
				break
			}
		}
		if !replaced {
			out.Environments = append(out.Environments, def)
		}
	}

	return out
}

// Validate checks that every definition can produce a URL and that catalog
// versions are well formed.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for _, def := range c.Environments {
		if strings.TrimSpace(def.Name) == "" {
			return errdefs.Newf(errdefs.KindConfig, "validate catalog", "", "environment without a name")
		}
		key := strings.ToLower(def.Name)
		if seen[key] {
			return errdefs.Newf(errdefs.KindConfig, "validate catalog", def.Name, "duplicate environment")
		}
		seen[key] = true

		if def.Repository == "" && len(def.Overrides) == 0 {
			return errdefs.Newf(errdefs.KindConfig, "validate catalog", def.Name, "no repository template or overrides")
		}
		for _, v := range def.Versions {
			if !ValidVersion(v) {
				return errdefs.Newf(errdefs.KindConfig, "validate catalog", def.Name, "invalid version %q", v)
			}
		}
		if def.DefaultVersion != "" && !def.HasVersion(def.DefaultVersion) {
			return errdefs.Newf(errdefs.KindConfig, "validate catalog", def.Name,
				"default version %q is not in the version list", def.DefaultVersion)
		}
	}
	return nil
}

// Lookup finds a definition by name, ignoring case.
func (c *Catalog) Lookup(name string) (*Definition, error) {
	for i := range c.Environments {
		if c.Environments[i].Is(name) {
			return &c.Environments[i], nil
		}
	}
	return nil, errdefs.Newf(errdefs.KindConfig, "lookup environment", name, "unknown environment")
}

// Names returns every environment name in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Environments))
	for i, def := range c.Environments {
		names[i] = def.Name
	}
	return names
}

// Supported returns the definitions that can be installed on this build.
func (c *Catalog) Supported() []*Definition {
	var out []*Definition
	for i := range c.Environments {
		if c.Environments[i].Supported {
			out = append(out, &c.Environments[i])
		}
	}
	return out
}
