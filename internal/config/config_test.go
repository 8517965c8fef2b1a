package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if !cfg.Output.Color {
		t.Error("expected Color to be true by default")
	}
	if !cfg.Output.Unicode {
		t.Error("expected Unicode to be true by default")
	}
	if !cfg.Output.Progress {
		t.Error("expected Progress to be true by default")
	}
	if cfg.Output.Verbose {
		t.Error("expected Verbose to be false by default")
	}

	if cfg.General.AutoConfirm {
		t.Error("expected AutoConfirm to be false by default")
	}
	if cfg.General.DryRun {
		t.Error("expected DryRun to be false by default")
	}
	if !cfg.General.ClearStaleTemp {
		t.Error("expected ClearStaleTemp to be true by default")
	}
	if !cfg.General.Snapshots {
		t.Error("expected Snapshots to be true by default")
	}

	if got := cfg.RequestTimeout(); got != 30*time.Minute {
		t.Errorf("RequestTimeout() = %v, want 30m", got)
	}
	if got := cfg.ProbeTimeout(); got != 30*time.Second {
		t.Errorf("ProbeTimeout() = %v, want 30s", got)
	}
}

func TestTimeoutFallback(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"5m", 5 * time.Minute},
		{" 90s ", 90 * time.Second},
		{"", 30 * time.Minute},
		{"soon", 30 * time.Minute},
		{"-1m", 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := Default()
			cfg.General.RequestTimeout = tt.value
			if got := cfg.RequestTimeout(); got != tt.want {
				t.Errorf("RequestTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldUseColor(t *testing.T) {
	cfg := &Config{
		Output: OutputConfig{Color: true},
	}

	t.Setenv("NO_COLOR", "")
	if !cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return true")
	}

	t.Setenv("NO_COLOR", "1")
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when NO_COLOR is set")
	}

	t.Setenv("NO_COLOR", "")
	cfg.Output.Color = false
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when Color is false")
	}
}

func TestLoadSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.toml")

	cfg := Default()
	cfg.Paths.InstallRoot = "/opt/envs"
	cfg.Paths.Definitions = "/etc/devenv/defs.yaml"
	cfg.General.ProbeTimeout = "10s"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if loaded.InstallRoot() != "/opt/envs" {
		t.Errorf("InstallRoot() = %q, want /opt/envs", loaded.InstallRoot())
	}
	if loaded.DefinitionsPath() != "/etc/devenv/defs.yaml" {
		t.Errorf("DefinitionsPath() = %q", loaded.DefinitionsPath())
	}
	if loaded.ProbeTimeout() != 10*time.Second {
		t.Errorf("ProbeTimeout() = %v, want 10s", loaded.ProbeTimeout())
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[output]\ncolor = false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Output.Color {
		t.Error("expected Color to be false")
	}
	if !cfg.Output.Unicode || !cfg.General.ClearStaleTemp {
		t.Error("expected unspecified keys to keep their defaults")
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[general\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("LoadFrom() should fail on malformed TOML")
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	cfg, err := LoadFrom("/non/existent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadFrom() should not error for non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadFrom() should return default config for non-existent file")
	}

	if !cfg.Output.Color {
		t.Error("expected default Color to be true")
	}
}

func TestPathOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv(HomeEnv, "")

	cfg := Default()
	if got, want := cfg.HomePath(), filepath.Join(home, ".dev_env"); got != want {
		t.Errorf("HomePath() = %q, want %q", got, want)
	}
	if got, want := cfg.LedgerPath(), filepath.Join(home, ".dev_env", ".env.config.json"); got != want {
		t.Errorf("LedgerPath() = %q, want %q", got, want)
	}
	if cfg.InstallRoot() != "" {
		t.Errorf("InstallRoot() = %q, want empty", cfg.InstallRoot())
	}

	cfg.Paths.Home = "~/envs"
	cfg.Paths.CacheDir = "~/cache"
	cfg.Paths.Profile = "~/.profile"

	if got, want := cfg.HomePath(), filepath.Join(home, "envs"); got != want {
		t.Errorf("HomePath() = %q, want %q", got, want)
	}
	if got, want := cfg.CachePath(), filepath.Join(home, "cache"); got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
	if got, want := cfg.ProfilePath(), filepath.Join(home, ".profile"); got != want {
		t.Errorf("ProfilePath() = %q, want %q", got, want)
	}
}
