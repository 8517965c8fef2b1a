// Package layout turns raw extraction output into the canonical
// {root}/{name}/{name}-{version} install directory.
package layout

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wengchengjian/env/pkg/errdefs"
)

const tempDirName = "temp"

// InstallDir returns the canonical install directory for name at version.
func InstallDir(root, name, version string) string {
	return filepath.Join(root, name, strings.ToLower(name)+"-"+version)
}

// TempDir returns the transient extraction directory for name.
func TempDir(root, name string) string {
	return filepath.Join(root, name, tempDirName)
}

// Exists reports whether the install directory for name at version is
// present. It is the only signal for "already installed".
func Exists(root, name, version string) bool {
	info, err := os.Stat(InstallDir(root, name, version))
	return err == nil && info.IsDir()
}

// ClearStale removes a leftover extraction directory from an interrupted run.
func ClearStale(tempDir string) error {
	if err := os.RemoveAll(tempDir); err != nil {
		return errdefs.Filesystem("clear stale temp dir", tempDir, err)
	}
	return nil
}

// Normalize relocates the contents of tempDir into the canonical install
// directory and returns its path.
//
// A single top-level directory is renamed into place. Anything else is moved
// entry by entry into a freshly created install directory. A previous
// install of the same version is removed first, never merged. An empty
// tempDir is an error and leaves any previous install untouched. tempDir is
// removed once its contents have been relocated.
func Normalize(tempDir, root, name, version string) (string, error) {
	dest := InstallDir(root, name, version)

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return "", errdefs.Filesystem("read extraction dir", tempDir, err)
	}
	if len(entries) == 0 {
		return "", errdefs.Newf(errdefs.KindFilesystem, "normalize", tempDir, "extraction produced no files")
	}

	if err := os.RemoveAll(dest); err != nil {
		return "", errdefs.Filesystem("remove stale install", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", errdefs.Filesystem("create install parent", filepath.Dir(dest), err)
	}

	if len(entries) == 1 && entries[0].IsDir() {
		src := filepath.Join(tempDir, entries[0].Name())
		if err := os.Rename(src, dest); err != nil {
			return "", errdefs.Filesystem("rename into place", src, err)
		}
	} else {
		if err := moveEntries(tempDir, dest, entries); err != nil {
			os.RemoveAll(dest)
			return "", err
		}
	}

	if err := os.RemoveAll(tempDir); err != nil {
		return "", errdefs.Filesystem("remove extraction dir", tempDir, err)
	}

	return dest, nil
}

func moveEntries(tempDir, dest string, entries []os.DirEntry) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return errdefs.Filesystem("create install dir", dest, err)
	}

	for _, e := range entries {
		src := filepath.Join(tempDir, e.Name())
		if err := os.Rename(src, filepath.Join(dest, e.Name())); err != nil {
			return errdefs.Filesystem("move entry", src, err)
		}
	}

	return nil
}

// Installed lists the versions of name present under root, sorted
// lexically. A missing environment directory yields no versions.
func Installed(root, name string) ([]string, error) {
	dir := filepath.Join(root, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errdefs.Filesystem("scan installs", dir, err)
	}

	prefix := strings.ToLower(name) + "-"
	var versions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if v, ok := strings.CutPrefix(e.Name(), prefix); ok && v != "" {
			versions = append(versions, v)
		}
	}

	sort.Strings(versions)
	return versions, nil
}
