package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appName      = "devenv"
	configFile   = "config.toml"
	historyFile  = "history.db"
	snapshotFile = "snapshots.db"
	ledgerFile   = ".env.config.json"
	homeDirName  = ".dev_env"
	cacheName    = "env_download_cache"

	// HomeEnv overrides the devenv home directory.
	HomeEnv = "DEVENV_HOME"
)

// ConfigDir returns the platform-specific configuration directory for devenv.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, ".config", appName)
	}
}

// DataDir returns the platform-specific data directory for devenv.
func DataDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName)
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, ".local", "share", appName)
	}
}

// HomeDir returns the directory holding the install ledger and, by
// default, the installed environments.
func HomeDir() string {
	if h := os.Getenv(HomeEnv); h != "" {
		return h
	}
	home, _ := os.UserHomeDir() //nolint:errcheck
	return filepath.Join(home, homeDirName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// HistoryPath returns the full path to the history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// SnapshotPath returns the full path to the ledger snapshot database.
func SnapshotPath() string {
	return filepath.Join(DataDir(), snapshotFile)
}

// LedgerPath returns the full path to the home install ledger.
func LedgerPath() string {
	return filepath.Join(HomeDir(), ledgerFile)
}

// LocalLedgerPath returns the ledger override in the working directory.
func LocalLedgerPath() string {
	return ledgerFile
}

// CacheDir returns the download cache directory.
func CacheDir() string {
	return filepath.Join(os.TempDir(), cacheName)
}

// DefaultProfile returns the shell profile for the user's $SHELL: ~/.zshrc
// for zsh and ~/.bashrc otherwise.
func DefaultProfile() string {
	home, _ := os.UserHomeDir() //nolint:errcheck
	if strings.EqualFold(filepath.Base(os.Getenv("SHELL")), "zsh") {
		return filepath.Join(home, ".zshrc")
	}
	return filepath.Join(home, ".bashrc")
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0755)
}
