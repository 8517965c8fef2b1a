package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete devenv configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Output  OutputConfig  `toml:"output"`
	Paths   PathsConfig   `toml:"paths"`
}

// GeneralConfig contains general devenv settings.
type GeneralConfig struct {
	// AutoConfirm skips prompts and takes defaults when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun shows what would happen without executing when true.
	DryRun bool `toml:"dry_run"`

	// ClearStaleTemp removes a leftover temp extraction directory before
	// extracting a new artifact.
	ClearStaleTemp bool `toml:"clear_stale_temp"`

	// RequestTimeout bounds a whole download, e.g. "30m".
	RequestTimeout string `toml:"request_timeout"`

	// ProbeTimeout bounds the metadata probe, e.g. "30s".
	ProbeTimeout string `toml:"probe_timeout"`

	// Snapshots captures the ledger before installs and switches so they
	// can be rolled back.
	Snapshots bool `toml:"snapshots"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`

	// Progress shows download and extraction progress.
	Progress bool `toml:"progress"`
}

// PathsConfig overrides the derived locations. Empty values fall back to
// the defaults in paths.go. A leading "~" is expanded to the home directory.
type PathsConfig struct {
	Home        string `toml:"home"`
	InstallRoot string `toml:"install_root"`
	CacheDir    string `toml:"cache_dir"`
	Profile     string `toml:"profile"`
	Definitions string `toml:"definitions"`
}

const (
	defaultRequestTimeout = 30 * time.Minute
	defaultProbeTimeout   = 30 * time.Second
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			AutoConfirm:    false,
			DryRun:         false,
			ClearStaleTemp: true,
			Snapshots:      true,
			RequestTimeout: defaultRequestTimeout.String(),
			ProbeTimeout:   defaultProbeTimeout.String(),
		},
		Output: OutputConfig{
			Color:    true,
			Unicode:  true,
			Verbose:  false,
			Progress: true,
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}

// RequestTimeout returns the download timeout, or the default when the
// configured value is empty or malformed.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.General.RequestTimeout, defaultRequestTimeout)
}

// ProbeTimeout returns the metadata probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return parseDuration(c.General.ProbeTimeout, defaultProbeTimeout)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// HomePath returns the devenv home directory.
func (c *Config) HomePath() string {
	if c.Paths.Home != "" {
		return expandHome(c.Paths.Home)
	}
	return HomeDir()
}

// LedgerPath returns the install ledger inside HomePath.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.HomePath(), ledgerFile)
}

// InstallRoot returns the configured install root, or "" when the ledger
// decides.
func (c *Config) InstallRoot() string {
	return expandHome(c.Paths.InstallRoot)
}

// CachePath returns the download cache directory.
func (c *Config) CachePath() string {
	if c.Paths.CacheDir != "" {
		return expandHome(c.Paths.CacheDir)
	}
	return CacheDir()
}

// ProfilePath returns the shell profile the activator rewrites.
func (c *Config) ProfilePath() string {
	if c.Paths.Profile != "" {
		return expandHome(c.Paths.Profile)
	}
	return DefaultProfile()
}

// DefinitionsPath returns the optional definitions override file.
func (c *Config) DefinitionsPath() string {
	return expandHome(c.Paths.Definitions)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[1:])
	}
	return p
}
