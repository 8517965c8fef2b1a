package cli

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/executor"
	"github.com/wengchengjian/env/internal/ui"
	"github.com/wengchengjian/env/pkg/environment"
)

var checkCmd = &cobra.Command{
	Use:   "check [NAME]",
	Short: "Verify that activated environments are on PATH",
	Long: `Run each environment's version command (java -version, go version,
node --version, ...) and compare what it reports with the current
version in the ledger.

Run it from a new shell after installing or switching, since the
profile changes only apply to new sessions.

Examples:
  devenv check               # Check every installed environment
  devenv check java          # Check Java only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// Check outcomes
const (
	checkOK       = "ok"
	checkMismatch = "mismatch"
	checkMissing  = "not on PATH"
	checkUnknown  = "unrecognized"
)

// checkResult is the outcome of probing one environment.
type checkResult struct {
	Name     string
	Path     string
	Reported string
	Expected string
	Status   string
}

func runCheck(cmd *cobra.Command, args []string) error {
	var defs []*environment.Definition
	if len(args) == 1 {
		def, err := lookup(args[0])
		if err != nil {
			return err
		}
		defs = append(defs, def)
	} else {
		for i := range catalog.Environments {
			def := &catalog.Environments[i]
			if len(installs.Versions(def.Name)) > 0 {
				defs = append(defs, def)
			}
		}
	}

	if len(defs) == 0 {
		ui.MutedMsg("Nothing installed yet; try devenv dev")
		return nil
	}

	// Probe notices go to stderr so the table on stdout stays parseable.
	runner := executor.New(false, cfg.Output.Verbose)
	runner.SetOutput(os.Stderr)
	table := ui.NewTable([]string{"environment", "executable", "reported", "expected", "status"})
	failed := 0
	for _, def := range defs {
		expected, _ := installs.Current(def.Name)
		res := checkEnvironment(cmd.Context(), runner, executor.LookPath, def, expected)
		if res.Status != checkOK {
			failed++
		}
		table.AddRow([]string{res.Name, orDash(res.Path), orDash(res.Reported), orDash(res.Expected), statusColor(res.Status)})
	}
	table.Render()

	if failed == 0 {
		ui.SuccessMsg("All checked environments report their current version")
		return nil
	}
	ui.MutedMsg("Open a new shell or source %s if you just switched versions", cfg.ProfilePath())
	if len(args) == 1 {
		return fmt.Errorf("%s check failed", defs[0].Name)
	}
	return nil
}

// checkEnvironment runs def's version command and classifies the result.
func checkEnvironment(ctx context.Context, runner executor.Runner, lookPath func(string) (string, bool),
	def *environment.Definition, expected string) checkResult {
	res := checkResult{Name: def.Name, Expected: expected}

	if len(def.VersionCommand) == 0 {
		res.Status = checkUnknown
		return res
	}

	path, ok := lookPath(def.VersionCommand[0])
	if !ok {
		res.Status = checkMissing
		return res
	}
	res.Path = path

	out, err := runner.OutputCombined(ctx, def.VersionCommand[0], def.VersionCommand[1:]...)
	if err != nil && out == "" {
		res.Status = checkUnknown
		return res
	}

	res.Reported = parseReportedVersion(out)
	switch {
	case res.Reported == "" || !environment.ValidVersion(res.Reported):
		res.Status = checkUnknown
	case expected == "" || sameVersion(res.Reported, expected):
		res.Status = checkOK
	default:
		res.Status = checkMismatch
	}
	return res
}

var (
	javaVersionRe    = regexp.MustCompile(`version "([^"]+)"`)
	genericVersionRe = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)
)

// parseReportedVersion extracts the version from a tool's version output.
// Legacy Java strings such as 1.8.0_392 become 8.0.392.
func parseReportedVersion(output string) string {
	if m := javaVersionRe.FindStringSubmatch(output); m != nil {
		v := m[1]
		if strings.HasPrefix(v, "1.") {
			v = strings.Replace(strings.TrimPrefix(v, "1."), "_", ".", 1)
		}
		if i := strings.IndexAny(v, "+-"); i > 0 {
			v = v[:i]
		}
		return v
	}
	return genericVersionRe.FindString(output)
}

// sameVersion compares loosely: "16.1" matches a ledger "16.1.0".
func sameVersion(reported, expected string) bool {
	if reported == expected {
		return true
	}
	return environment.CompareVersions(reported, expected) == 0
}

func statusColor(status string) string {
	switch status {
	case checkOK:
		return ui.Green(status)
	case checkMismatch:
		return ui.Yellow(status)
	default:
		return ui.Red(status)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
