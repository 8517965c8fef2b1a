//go:build windows

package activate

import "github.com/wengchengjian/env/internal/executor"

// New returns the platform activator: the registry strategy on Windows.
// profile is unused here.
func New(profile string, runner executor.Runner) Activator {
	return NewRegistry(runner)
}
