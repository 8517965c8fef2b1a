// Package ledger persists which environment versions are installed and
// which one is current.
//
// The document lives in the devenv home directory as .env.config.json. A
// .env.config.json in the working directory is layered on top when present.
package ledger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/wengchengjian/env/pkg/errdefs"
	"github.com/wengchengjian/env/pkg/layout"
)

// FileName is the ledger file name in both the home and local layer.
const FileName = ".env.config.json"

// Entry is the state of one environment.
type Entry struct {
	Name              string   `mapstructure:"name" json:"name"`
	CurrentVersion    string   `mapstructure:"current_version" json:"current_version,omitempty"`
	HomeDir           string   `mapstructure:"home_dir" json:"home_dir,omitempty"`
	InstalledVersions []string `mapstructure:"installed_versions" json:"installed_versions"`
}

// Document is the on-disk form of the ledger.
type Document struct {
	InstallPath string  `mapstructure:"install_path" json:"install_path"`
	Installed   []Entry `mapstructure:"installed" json:"installed"`
}

// Ledger is the in-memory install ledger. It is safe for concurrent use;
// every read-modify-write holds the mutex.
type Ledger struct {
	mu          sync.Mutex
	homePath    string
	localPath   string
	defaultRoot string
	doc         Document
}

// Load reads the ledger at homePath and layers localPath on top when it
// exists. A missing home file yields an empty ledger rooted at defaultRoot.
func Load(homePath, localPath, defaultRoot string) (*Ledger, error) {
	l := &Ledger{
		homePath:    homePath,
		localPath:   localPath,
		defaultRoot: defaultRoot,
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload discards in-memory state and re-reads both layers.
func (l *Ledger) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("install_path", l.defaultRoot)

	if err := readLayer(v, l.homePath, false); err != nil {
		return err
	}
	if l.localPath != "" {
		if err := readLayer(v, l.localPath, true); err != nil {
			return err
		}
	}

	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return errdefs.Config("decode ledger", l.homePath, err)
	}
	if doc.InstallPath == "" {
		doc.InstallPath = l.defaultRoot
	}

	l.doc = doc
	return nil
}

func readLayer(v *viper.Viper, path string, merge bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errdefs.IO("read ledger", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if merge {
		err = v.MergeConfig(bytes.NewReader(data))
	} else {
		err = v.ReadConfig(bytes.NewReader(data))
	}
	if err != nil {
		return errdefs.Config("parse ledger", path, err)
	}
	return nil
}

// Save writes the ledger to the home path atomically.
func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *Ledger) saveLocked() error {
	data, err := json.MarshalIndent(l.doc, "", "  ")
	if err != nil {
		return errdefs.Config("encode ledger", l.homePath, err)
	}

	dir := filepath.Dir(l.homePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errdefs.IO("create ledger dir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".env.config-*.json")
	if err != nil {
		return errdefs.IO("create temp ledger", l.homePath, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errdefs.IO("write ledger", l.homePath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errdefs.IO("sync ledger", l.homePath, err)
	}
	if err := tmp.Close(); err != nil {
		return errdefs.IO("close ledger", l.homePath, err)
	}
	if err := os.Rename(tmpPath, l.homePath); err != nil {
		return errdefs.IO("replace ledger", l.homePath, err)
	}
	return nil
}

// Path returns the home ledger path.
func (l *Ledger) Path() string {
	return l.homePath
}

// InstallPath returns the install root.
func (l *Ledger) InstallPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.InstallPath
}

// SetInstallPath changes the install root. Existing installs are not moved.
func (l *Ledger) SetInstallPath(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errdefs.Config("resolve install path", dir, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.doc.InstallPath = abs
	return nil
}

func (l *Ledger) find(name string) *Entry {
	for i := range l.doc.Installed {
		if strings.EqualFold(l.doc.Installed[i].Name, name) {
			return &l.doc.Installed[i]
		}
	}
	return nil
}

// Current returns the current version of name.
func (l *Ledger) Current(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.find(name)
	if e == nil || e.CurrentVersion == "" {
		return "", false
	}
	return e.CurrentVersion, true
}

// Versions returns the installed versions of name. An environment absent
// from the ledger has none.
func (l *Ledger) Versions(name string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.find(name)
	if e == nil {
		return nil
	}
	return append([]string(nil), e.InstalledVersions...)
}

// IsInstalled reports whether version of name is recorded.
func (l *Ledger) IsInstalled(name, version string) bool {
	for _, v := range l.Versions(name) {
		if v == version {
			return true
		}
	}
	return false
}

// Entries returns a copy of every recorded environment, sorted by name.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.doc.Installed))
	for i, e := range l.doc.Installed {
		e.InstalledVersions = append([]string(nil), e.InstalledVersions...)
		out[i] = e
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Record marks version current for name and adds it to the installed list
// once.
func (l *Ledger) Record(name, version, homeDir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.find(name)
	if e == nil {
		l.doc.Installed = append(l.doc.Installed, Entry{Name: name})
		e = &l.doc.Installed[len(l.doc.Installed)-1]
	}

	e.CurrentVersion = version
	e.HomeDir = homeDir
	e.InstalledVersions = appendUnique(e.InstalledVersions, version)
	return nil
}

// SetCurrent switches the current version of name to an installed version.
func (l *Ledger) SetCurrent(name, version string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.find(name)
	if e == nil || !contains(e.InstalledVersions, version) {
		return errdefs.Newf(errdefs.KindConfig, "set current version", name, "version %s is not installed", version)
	}
	e.CurrentVersion = version
	e.HomeDir = layout.InstallDir(l.doc.InstallPath, e.Name, version)
	return nil
}

// Remove forgets version of name. Removing the current version clears it.
func (l *Ledger) Remove(name, version string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.find(name)
	if e == nil {
		return
	}

	kept := e.InstalledVersions[:0]
	for _, v := range e.InstalledVersions {
		if v != version {
			kept = append(kept, v)
		}
	}
	e.InstalledVersions = kept

	if e.CurrentVersion == version {
		e.CurrentVersion = ""
		e.HomeDir = ""
	}
}

// Flush rebuilds the installed lists from the directories under the install
// path for every name. Current versions survive only when still installed.
func (l *Ledger) Flush(names []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var rebuilt []Entry
	for _, name := range names {
		versions, err := layout.Installed(l.doc.InstallPath, name)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			continue
		}

		entry := Entry{Name: name, InstalledVersions: versions}
		if prev := l.find(name); prev != nil && contains(versions, prev.CurrentVersion) {
			entry.CurrentVersion = prev.CurrentVersion
			entry.HomeDir = layout.InstallDir(l.doc.InstallPath, name, prev.CurrentVersion)
		}
		rebuilt = append(rebuilt, entry)
	}

	l.doc.Installed = rebuilt
	return nil
}

// Snapshot returns a deep copy of the document.
func (l *Ledger) Snapshot() Document {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := Document{InstallPath: l.doc.InstallPath}
	for _, e := range l.doc.Installed {
		e.InstalledVersions = append([]string(nil), e.InstalledVersions...)
		doc.Installed = append(doc.Installed, e)
	}
	return doc
}

func appendUnique(list []string, v string) []string {
	if contains(list, v) {
		return list
	}
	return append(list, v)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
