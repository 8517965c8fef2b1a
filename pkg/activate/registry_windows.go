//go:build windows

package activate

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/wengchengjian/env/internal/executor"
	"github.com/wengchengjian/env/pkg/errdefs"
)

const setxTimeout = 30 * time.Second

// RegistryActivator persists user variables through setx and reads the user
// Path from HKCU\Environment.
type RegistryActivator struct {
	runner   executor.Runner
	userPath func() (string, error)
}

// NewRegistry returns a registry activator that runs setx through runner.
func NewRegistry(runner executor.Runner) *RegistryActivator {
	return &RegistryActivator{runner: runner, userPath: readUserPath}
}

func (r *RegistryActivator) SetVariable(name, value string) error {
	return r.setx(name, value)
}

// ExtendSearchPath prepends segment to the user Path unless present.
func (r *RegistryActivator) ExtendSearchPath(base, segment string) error {
	if base != "" {
		segment = "%" + base + "%\\" + segment
	}

	current, err := r.userPath()
	if err != nil {
		return classifyWindows("read user Path", err)
	}

	var entries []string
	for _, e := range strings.Split(current, ";") {
		if e == "" {
			continue
		}
		if strings.EqualFold(strings.TrimRight(e, `\`), strings.TrimRight(segment, `\`)) {
			return nil
		}
		entries = append(entries, e)
	}

	return r.setx("Path", strings.Join(append([]string{segment}, entries...), ";"))
}

func (r *RegistryActivator) setx(name, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), setxTimeout)
	defer cancel()

	out, err := r.runner.OutputCombined(ctx, "setx", name, value)
	if err != nil {
		if strings.Contains(strings.ToLower(out), "access") {
			return errdefs.Permission("setx", name, err)
		}
		return errdefs.IO("setx", name, err)
	}
	return nil
}

func readUserPath() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, `Environment`, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()

	v, _, err := k.GetStringValue("Path")
	if errors.Is(err, registry.ErrNotExist) {
		return "", nil
	}
	return v, err
}

func classifyWindows(op string, err error) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return errdefs.Permission(op, `HKCU\Environment`, err)
	}
	return errdefs.IO(op, `HKCU\Environment`, err)
}
