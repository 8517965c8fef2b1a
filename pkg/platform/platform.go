// Package platform detects the host operating system and architecture.
package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Info describes the host. OS and Arch hold the raw Go identifiers; the
// descriptive fields come from gopsutil and may be empty.
type Info struct {
	OS              string
	Arch            string
	Platform        string // distribution or product, e.g. "ubuntu"
	PlatformFamily  string
	PlatformVersion string
	KernelArch      string
	Hostname        string
}

// Detect returns the host info. OS and Arch are always set from the runtime;
// a gopsutil failure only leaves the descriptive fields empty, unless ctx was
// cancelled.
func Detect(ctx context.Context) (Info, error) {
	info := Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return info, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	info.Platform = strings.ToLower(strings.TrimSpace(hi.Platform))
	info.PlatformFamily = strings.ToLower(strings.TrimSpace(hi.PlatformFamily))
	info.PlatformVersion = strings.TrimSpace(hi.PlatformVersion)
	info.KernelArch = strings.TrimSpace(hi.KernelArch)
	info.Hostname = hi.Hostname

	return info, nil
}

// Current returns runtime-only info without touching the host.
func Current() Info {
	return Info{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// IsWindows reports whether the host runs Windows.
func (i Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsMacOS reports whether the host runs macOS.
func (i Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// PrettyName returns a human-readable description of the host.
func (i Info) PrettyName() string {
	switch {
	case i.Platform != "" && i.PlatformVersion != "":
		return fmt.Sprintf("%s %s (%s/%s)", i.Platform, i.PlatformVersion, i.OS, i.Arch)
	case i.Platform != "":
		return fmt.Sprintf("%s (%s/%s)", i.Platform, i.OS, i.Arch)
	default:
		return i.OS + "/" + i.Arch
	}
}
