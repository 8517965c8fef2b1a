package layout

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wengchengjian/env/pkg/errdefs"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func listTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestInstallDir(t *testing.T) {
	got := InstallDir("/opt/env", "Java", "17.0.9")
	want := filepath.Join("/opt/env", "Java", "java-17.0.9")
	if got != want {
		t.Errorf("InstallDir() = %q, want %q", got, want)
	}
	if got := TempDir("/opt/env", "Java"); got != filepath.Join("/opt/env", "Java", "temp") {
		t.Errorf("TempDir() = %q", got)
	}
}

func TestNormalizeSingleDirectory(t *testing.T) {
	root := t.TempDir()
	tmp := TempDir(root, "Java")
	writeFiles(t, tmp, map[string]string{
		"jdk-17.0.9/bin/java": "java",
		"jdk-17.0.9/release":  "17",
	})

	dest, err := Normalize(tmp, root, "Java", "17.0.9")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if dest != InstallDir(root, "Java", "17.0.9") {
		t.Errorf("Normalize() = %q", dest)
	}

	want := map[string]string{"bin/java": "java", "release": "17"}
	if got := listTree(t, dest); !reflect.DeepEqual(got, want) {
		t.Errorf("tree = %v, want %v", got, want)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("temp dir still exists")
	}
}

func TestNormalizeScatteredEntries(t *testing.T) {
	root := t.TempDir()
	tmp := TempDir(root, "Redis")
	writeFiles(t, tmp, map[string]string{
		"redis-server": "srv",
		"redis-cli":    "cli",
		"conf/a.conf":  "a",
	})

	dest, err := Normalize(tmp, root, "Redis", "7.2.3")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := map[string]string{"redis-server": "srv", "redis-cli": "cli", "conf/a.conf": "a"}
	if got := listTree(t, dest); !reflect.DeepEqual(got, want) {
		t.Errorf("tree = %v, want %v", got, want)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("temp dir still exists")
	}
}

func TestNormalizeSingleFile(t *testing.T) {
	root := t.TempDir()
	tmp := TempDir(root, "Rust")
	writeFiles(t, tmp, map[string]string{"rustup-init": "bin"})

	dest, err := Normalize(tmp, root, "Rust", "1.75.0")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := listTree(t, dest); !reflect.DeepEqual(got, map[string]string{"rustup-init": "bin"}) {
		t.Errorf("tree = %v", got)
	}
}

func TestNormalizeReplacesStaleInstall(t *testing.T) {
	root := t.TempDir()

	tmp := TempDir(root, "Go")
	writeFiles(t, tmp, map[string]string{"go/bin/go": "first", "go/old.txt": "stale"})
	if _, err := Normalize(tmp, root, "Go", "1.21.5"); err != nil {
		t.Fatal(err)
	}

	writeFiles(t, tmp, map[string]string{"go/bin/go": "second"})
	dest, err := Normalize(tmp, root, "Go", "1.21.5")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := map[string]string{"bin/go": "second"}
	if got := listTree(t, dest); !reflect.DeepEqual(got, want) {
		t.Errorf("tree = %v, want %v", got, want)
	}
}

func TestNormalizeMissingTempDir(t *testing.T) {
	root := t.TempDir()
	_, err := Normalize(filepath.Join(root, "nope"), root, "Go", "1.21.5")
	if !errdefs.IsKind(err, errdefs.KindFilesystem) {
		t.Fatalf("Normalize() error = %v, want FilesystemError", err)
	}
	if Exists(root, "Go", "1.21.5") {
		t.Error("install dir created after failure")
	}
}

func TestNormalizeEmptyExtraction(t *testing.T) {
	root := t.TempDir()

	tmp := TempDir(root, "Go")
	writeFiles(t, tmp, map[string]string{"go/bin/go": "first"})
	if _, err := Normalize(tmp, root, "Go", "1.21.5"); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(tmp, 0755); err != nil {
		t.Fatal(err)
	}
	_, err := Normalize(tmp, root, "Go", "1.21.5")
	if !errdefs.IsKind(err, errdefs.KindFilesystem) {
		t.Fatalf("Normalize() error = %v, want FilesystemError", err)
	}

	want := map[string]string{"bin/go": "first"}
	if got := listTree(t, InstallDir(root, "Go", "1.21.5")); !reflect.DeepEqual(got, want) {
		t.Errorf("previous install = %v, want %v", got, want)
	}
	if _, err := Normalize(TempDir(root, "Node"), root, "Node", "20.10.0"); err == nil || Exists(root, "Node", "20.10.0") {
		t.Errorf("Normalize() without extraction dir = %v, want error and no install dir", err)
	}
}

func TestClearStale(t *testing.T) {
	root := t.TempDir()
	tmp := TempDir(root, "Node")
	writeFiles(t, tmp, map[string]string{"half/extracted": "x"})

	if err := ClearStale(tmp); err != nil {
		t.Fatalf("ClearStale() error = %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("stale temp dir not removed")
	}
	if err := ClearStale(tmp); err != nil {
		t.Errorf("ClearStale() on missing dir error = %v", err)
	}
}

func TestInstalled(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"java-8.0.392", "java-17.0.9", "temp", "other-1.0"} {
		if err := os.MkdirAll(filepath.Join(root, "Java", d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	writeFiles(t, filepath.Join(root, "Java"), map[string]string{"java-9.txt": "file"})

	got, err := Installed(root, "Java")
	if err != nil {
		t.Fatalf("Installed() error = %v", err)
	}
	want := []string{"17.0.9", "8.0.392"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Installed() = %v, want %v", got, want)
	}

	none, err := Installed(root, "Python")
	if err != nil || len(none) != 0 {
		t.Errorf("Installed(missing) = %v, %v", none, err)
	}
}
