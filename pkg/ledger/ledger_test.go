package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wengchengjian/env/pkg/errdefs"
	"github.com/wengchengjian/env/pkg/layout"
)

func setupLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	dir := t.TempDir()
	home := filepath.Join(dir, "home", FileName)
	l, err := Load(home, filepath.Join(dir, "local", FileName), filepath.Join(dir, "root"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return l, dir
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	l, dir := setupLedger(t)

	if got, want := l.InstallPath(), filepath.Join(dir, "root"); got != want {
		t.Errorf("InstallPath() = %q, want %q", got, want)
	}
	if v := l.Versions("Java"); len(v) != 0 {
		t.Errorf("Versions() = %v, want none", v)
	}
	if _, ok := l.Current("Java"); ok {
		t.Error("Current() reported a version for an empty ledger")
	}
}

func TestRecordDeduplicates(t *testing.T) {
	l, _ := setupLedger(t)

	if err := l.Record("Java", "17.0.9", "/x/java-17.0.9"); err != nil {
		t.Fatal(err)
	}
	if err := l.Record("java", "17.0.9", "/x/java-17.0.9"); err != nil {
		t.Fatal(err)
	}
	if err := l.Record("JAVA", "21.0.1", "/x/java-21.0.1"); err != nil {
		t.Fatal(err)
	}

	if got, want := l.Versions("Java"), []string{"17.0.9", "21.0.1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Versions() = %v, want %v", got, want)
	}
	if cur, _ := l.Current("java"); cur != "21.0.1" {
		t.Errorf("Current() = %q, want 21.0.1", cur)
	}
	if len(l.Entries()) != 1 {
		t.Errorf("Entries() = %d, want 1", len(l.Entries()))
	}
}

func TestSaveAndReload(t *testing.T) {
	l, _ := setupLedger(t)
	l.Record("Go", "1.21.5", "/root/Go/go-1.21.5")

	if err := l.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("saved ledger is not JSON: %v", err)
	}
	if len(doc.Installed) != 1 || doc.Installed[0].CurrentVersion != "1.21.5" {
		t.Errorf("saved doc = %+v", doc)
	}

	l.Record("Go", "1.20.12", "/root/Go/go-1.20.12")
	if err := l.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := l.Versions("Go"); !reflect.DeepEqual(got, []string{"1.21.5"}) {
		t.Errorf("Versions() after Reload = %v", got)
	}
}

func TestLocalLayerOverridesInstallPath(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, FileName)
	local := filepath.Join(dir, "project", FileName)

	homeDoc := `{"install_path": "/home/dev/.dev_env", "installed": [{"name": "Node", "current_version": "20.10.0", "installed_versions": ["20.10.0"]}]}`
	if err := os.WriteFile(home, []byte(homeDoc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(local, []byte(`{"install_path": "/work/envs"}`), 0644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(home, local, "/unused")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := l.InstallPath(); got != "/work/envs" {
		t.Errorf("InstallPath() = %q, want /work/envs", got)
	}
	if cur, _ := l.Current("node"); cur != "20.10.0" {
		t.Errorf("Current() = %q, want 20.10.0", cur)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, FileName)
	if err := os.WriteFile(home, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(home, "", dir)
	if !errdefs.IsKind(err, errdefs.KindConfig) {
		t.Fatalf("Load() error = %v, want ConfigError", err)
	}
}

func TestSetCurrent(t *testing.T) {
	l, _ := setupLedger(t)
	l.Record("Java", "8.0.392", "")
	l.Record("Java", "17.0.9", "")

	if err := l.SetCurrent("java", "8.0.392"); err != nil {
		t.Fatalf("SetCurrent() error = %v", err)
	}
	if cur, _ := l.Current("Java"); cur != "8.0.392" {
		t.Errorf("Current() = %q", cur)
	}
	if err := l.SetCurrent("Java", "11.0.21"); !errdefs.IsKind(err, errdefs.KindConfig) {
		t.Errorf("SetCurrent(not installed) error = %v, want ConfigError", err)
	}
}

func TestRemove(t *testing.T) {
	l, _ := setupLedger(t)
	l.Record("Redis", "7.0.14", "")
	l.Record("Redis", "7.2.3", "")

	l.Remove("redis", "7.2.3")

	if got := l.Versions("Redis"); !reflect.DeepEqual(got, []string{"7.0.14"}) {
		t.Errorf("Versions() = %v", got)
	}
	if _, ok := l.Current("Redis"); ok {
		t.Error("Current() still set after removing the current version")
	}
}

func TestFlush(t *testing.T) {
	l, _ := setupLedger(t)
	root := l.InstallPath()

	for _, d := range []string{
		layout.InstallDir(root, "Java", "17.0.9"),
		layout.InstallDir(root, "Java", "21.0.1"),
		layout.InstallDir(root, "Go", "1.21.5"),
	} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	l.Record("Java", "17.0.9", "")
	l.Record("Go", "1.20.12", "")
	l.Record("Python", "3.11.7", "")

	if err := l.Flush([]string{"Java", "Go", "Python", "Node"}); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if got := l.Versions("Java"); !reflect.DeepEqual(got, []string{"17.0.9", "21.0.1"}) {
		t.Errorf("Java versions = %v", got)
	}
	if cur, _ := l.Current("Java"); cur != "17.0.9" {
		t.Errorf("Java current = %q, want kept 17.0.9", cur)
	}
	if _, ok := l.Current("Go"); ok {
		t.Error("Go current survived although 1.20.12 is not on disk")
	}
	if v := l.Versions("Python"); len(v) != 0 {
		t.Errorf("Python versions = %v, want none", v)
	}
}

func TestSetInstallPath(t *testing.T) {
	l, dir := setupLedger(t)
	target := filepath.Join(dir, "elsewhere")

	if err := l.SetInstallPath(target); err != nil {
		t.Fatal(err)
	}
	if got := l.InstallPath(); got != target {
		t.Errorf("InstallPath() = %q, want %q", got, target)
	}
}
