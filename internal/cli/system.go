package cli

import (
	"github.com/spf13/cobra"

	"github.com/wengchengjian/env/internal/ui"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show system information",
	Long: `Display the detected platform and the tokens used to pick
download artifacts for it.

Examples:
  devenv system             # Show system info`,
	RunE: runSystem,
}

func runSystem(cmd *cobra.Command, args []string) error {
	osName, arch := catalog.Platform.Canonical(host)
	platformKey := catalog.Platform.Key(host)

	ui.PrintSystemInfo(host.PrettyName(), host.Arch, platformKey, host.Hostname, host.KernelArch)
	ui.Field("Artifact Tokens", osName+" / "+arch)
	ui.Field("Default Format", catalog.Platform.DefaultFormat(osName))

	return nil
}
