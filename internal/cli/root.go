// Package cli implements the command-line interface for devenv.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/config"
	"github.com/wengchengjian/env/internal/logging"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/environment"
	"github.com/wengchengjian/env/pkg/ledger"
	"github.com/wengchengjian/env/pkg/platform"
)

var (
	// Global flags
	cfgFile string
	dryRun  bool
	yes     bool
	verbose bool
	noColor bool

	// Global state
	cfg      *config.Config
	catalog  *environment.Catalog
	installs *ledger.Ledger
	host     platform.Info
	logger   *log.Logger
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "devenv",
	Short: "Install and switch development environments",
	Long: `devenv downloads, unpacks and activates versions of language
runtimes and databases, and switches which installed version is current.

Supported environments:
  Runtimes:  Java, Python, Node, Rust, Go
  Databases: MySQL, PostgreSQL, MongoDB, Redis

Examples:
  devenv dev                          # Pick environments interactively
  devenv dev --name java --version 17.0.9
  devenv choose java 11.0.21          # Switch the current Java
  devenv list                         # Show installed versions
  devenv config --dir /opt/devenv     # Change the install root`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without changing the environment")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume defaults and skip all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(devCmd)
	rootCmd.AddCommand(chooseCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(undoCmd)
}

// Execute runs the root command and prints any error it returns.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		ui.ErrorMsg("%v", err)
	}
	return err
}

// initializeApp loads configuration, the environment catalog, the install
// ledger and the host platform.
func initializeApp(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply global flag overrides
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}

	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)
	logger = logging.New(os.Stderr, cfg.Output.Verbose)

	catalog, err = environment.Load(cfg.DefinitionsPath())
	if err != nil {
		return err
	}

	installs, err = ledger.Load(cfg.LedgerPath(), config.LocalLedgerPath(), cfg.HomePath())
	if err != nil {
		return err
	}
	if root := cfg.InstallRoot(); root != "" {
		if err := installs.SetInstallPath(root); err != nil {
			return err
		}
	}

	host, err = platform.Detect(ctx)
	if err != nil {
		// Canonical OS and arch still come from the runtime.
		logger.Warn("platform detection incomplete", "err", err)
	}
	logger.Debug("initialized", "platform", host.PrettyName(), "arch", host.Arch, "ledger", installs.Path())

	return nil
}

// installRoot returns the directory environments are installed under. An
// install_root in the config file has already replaced the ledger's value.
func installRoot() string {
	return installs.InstallPath()
}

// lookup resolves an environment name against the catalog.
func lookup(name string) (*environment.Definition, error) {
	def, err := catalog.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (known: %v)", ErrUnknownEnvironment, name, catalog.Names())
	}
	return def, nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print devenv version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("devenv version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
