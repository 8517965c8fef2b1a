//go:build !windows

package activate

import "github.com/wengchengjian/env/internal/executor"

// New returns the platform activator: a profile-file strategy on Unix-like
// systems. runner is unused here.
func New(profile string, runner executor.Runner) Activator {
	return NewProfile(profile)
}
