// Package activate persists environment variables and executable search
// path entries so that new shells see the selected version.
//
// Writes never touch the running process environment. Changes become
// visible to shells and sessions started after activation.
package activate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// InstallDirVar is the synthetic placeholder bound to the resolved install
// directory.
const InstallDirVar = "INSTALL_DIR"

// Activator persists environment state for the current user.
type Activator interface {
	// SetVariable replaces every prior assignment of name with value.
	SetVariable(name, value string) error
	// ExtendSearchPath adds segment to the executable search path once.
	// A non-empty base makes the entry relative to that variable.
	ExtendSearchPath(base, segment string) error
}

// Record is the activation data of one environment definition.
type Record struct {
	Environment map[string]string
	Executable  []string
	PathBase    string

	// SearchPaths lists further executable directories, each a segment
	// list like Executable, for archives that ship several bin dirs.
	SearchPaths [][]string

	// Extra binds request-level placeholders such as prompted args. They
	// shadow inherited variables but never INSTALL_DIR.
	Extra map[string]string
}

// Vars returns every inherited process variable plus INSTALL_DIR bound to
// installDir.
func Vars(installDir string) map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = v
		}
	}
	vars[InstallDirVar] = installDir
	return vars
}

// Substitute replaces every %NAME% placeholder whose NAME is bound in vars.
// Unknown placeholders are left as they are.
func Substitute(value string, vars map[string]string) string {
	var b strings.Builder
	rest := value

	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start + 1

		name := rest[start+1 : end]
		if v, ok := vars[name]; ok && name != "" {
			b.WriteString(rest[:start])
			b.WriteString(v)
			rest = rest[end+1:]
			continue
		}

		// Not a bound placeholder: keep the opening percent and rescan from
		// the closing one, which may start a real placeholder.
		b.WriteString(rest[:end])
		rest = rest[end:]
	}

	return b.String()
}

// Activate applies rec for an install located at installDir. Variables are
// set in sorted order, then the joined executable path and any further
// search paths are added.
func Activate(a Activator, rec Record, installDir string) error {
	vars := Vars(installDir)
	for k, v := range rec.Extra {
		if k != InstallDirVar {
			vars[k] = Substitute(v, vars)
		}
	}

	names := make([]string, 0, len(rec.Environment))
	for name := range rec.Environment {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := Substitute(rec.Environment[name], vars)
		if err := a.SetVariable(name, value); err != nil {
			return err
		}
	}

	dirs := append([][]string{rec.Executable}, rec.SearchPaths...)
	for _, dir := range dirs {
		if len(dir) == 0 {
			continue
		}
		segments := make([]string, len(dir))
		for i, s := range dir {
			segments[i] = Substitute(s, vars)
		}
		if err := a.ExtendSearchPath(rec.PathBase, filepath.Join(segments...)); err != nil {
			return err
		}
	}

	return nil
}
