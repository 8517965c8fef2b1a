package activate

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/wengchengjian/env/pkg/errdefs"
)

func TestSubstitute(t *testing.T) {
	vars := map[string]string{
		"INSTALL_DIR": "/opt/env/Java/java-17.0.9",
		"HOME":        "/home/dev",
	}

	tests := []struct {
		in   string
		want string
	}{
		{"%INSTALL_DIR%", "/opt/env/Java/java-17.0.9"},
		{"%INSTALL_DIR%/bin", "/opt/env/Java/java-17.0.9/bin"},
		{"%HOME%/go:%INSTALL_DIR%", "/home/dev/go:/opt/env/Java/java-17.0.9"},
		{"%UNKNOWN%/x", "%UNKNOWN%/x"},
		{"100%%HOME%", "100%/home/dev"},
		{"plain", "plain"},
		{"50%", "50%"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Substitute(tt.in, vars); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVarsIncludesProcessEnv(t *testing.T) {
	t.Setenv("DEVENV_TEST_VAR", "inherited")

	vars := Vars("/install")
	if vars["DEVENV_TEST_VAR"] != "inherited" {
		t.Errorf("Vars()[DEVENV_TEST_VAR] = %q", vars["DEVENV_TEST_VAR"])
	}
	if vars[InstallDirVar] != "/install" {
		t.Errorf("Vars()[INSTALL_DIR] = %q", vars[InstallDirVar])
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestSetVariableIdempotent(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	p := NewProfile(profile)

	for i := 0; i < 2; i++ {
		if err := p.SetVariable("JAVA_HOME", "/opt/java"); err != nil {
			t.Fatalf("SetVariable() error = %v", err)
		}
	}

	lines := readLines(t, profile)
	if got := countPrefix(lines, "export JAVA_HOME="); got != 1 {
		t.Errorf("JAVA_HOME assignments = %d, want 1 (%v)", got, lines)
	}
}

func TestSetVariableRemovesDuplicates(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	existing := strings.Join([]string{
		"# user settings",
		"export JAVA_HOME=/old/one",
		"alias ll='ls -l'",
		"JAVA_HOME=/old/two",
		"export JAVA_HOME_EXTRA=/keep",
		"  export JAVA_HOME=/old/three",
	}, "\n") + "\n"
	if err := os.WriteFile(profile, []byte(existing), 0600); err != nil {
		t.Fatal(err)
	}

	if err := NewProfile(profile).SetVariable("JAVA_HOME", "/opt/java 17"); err != nil {
		t.Fatalf("SetVariable() error = %v", err)
	}

	want := []string{
		"# user settings",
		"alias ll='ls -l'",
		"export JAVA_HOME_EXTRA=/keep",
		"  :",
		`export JAVA_HOME="/opt/java 17"`,
	}
	if got := readLines(t, profile); !reflect.DeepEqual(got, want) {
		t.Errorf("profile = %q, want %q", got, want)
	}

	info, err := os.Stat(profile)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("profile mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestExtendSearchPathAppendsLine(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	p := NewProfile(profile)

	for i := 0; i < 2; i++ {
		if err := p.ExtendSearchPath("", "/opt/go/bin"); err != nil {
			t.Fatalf("ExtendSearchPath() error = %v", err)
		}
	}

	want := []string{`export PATH="$PATH:/opt/go/bin"`}
	if got := readLines(t, profile); !reflect.DeepEqual(got, want) {
		t.Errorf("profile = %q, want %q", got, want)
	}
}

func TestExtendSearchPathLeavesUserLines(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	existing := "export PATH=$HOME/bin:$PATH\nexport MANPATH=/usr/man\nexport EDITOR=vim\n"
	if err := os.WriteFile(profile, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	p := NewProfile(profile)
	if err := p.ExtendSearchPath("", "/opt/node/bin"); err != nil {
		t.Fatal(err)
	}
	if err := p.ExtendSearchPath("", "/opt/node/bin"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"export PATH=$HOME/bin:$PATH",
		"export MANPATH=/usr/man",
		"export EDITOR=vim",
		`export PATH="$PATH:/opt/node/bin"`,
	}
	if got := readLines(t, profile); !reflect.DeepEqual(got, want) {
		t.Errorf("profile = %q, want %q", got, want)
	}
}

func TestExtendSearchPathWithBase(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	p := NewProfile(profile)

	if err := p.ExtendSearchPath("JAVA_HOME", "bin"); err != nil {
		t.Fatal(err)
	}

	want := []string{`export PATH="$PATH:$JAVA_HOME/bin"`}
	if got := readLines(t, profile); !reflect.DeepEqual(got, want) {
		t.Errorf("profile = %q, want %q", got, want)
	}
}

func TestActivateSwitchKeepsOrder(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	p := NewProfile(profile)
	rec := Record{
		Environment: map[string]string{"JAVA_HOME": "%INSTALL_DIR%"},
		Executable:  []string{"bin"},
		PathBase:    "JAVA_HOME",
	}

	if err := Activate(p, rec, "/opt/env/Java/java-8.0.392"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := Activate(p, rec, "/opt/env/Java/java-17.0.9"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	want := []string{
		"export JAVA_HOME=/opt/env/Java/java-17.0.9",
		`export PATH="$PATH:$JAVA_HOME/bin"`,
	}
	if got := readLines(t, profile); !reflect.DeepEqual(got, want) {
		t.Errorf("profile = %q, want %q", got, want)
	}
}

func TestActivateDryRun(t *testing.T) {
	d := &DryRun{}
	rec := Record{
		Environment: map[string]string{
			"GOROOT": "%INSTALL_DIR%",
			"GOPATH": "%INSTALL_DIR%/work",
		},
		Executable: []string{"%INSTALL_DIR%", "bin"},
	}

	if err := Activate(d, rec, "/opt/go"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	want := []string{
		"set GOPATH=/opt/go/work",
		"set GOROOT=/opt/go",
		"path +" + filepath.Join("/opt/go", "bin"),
	}
	if !reflect.DeepEqual(d.Calls, want) {
		t.Errorf("calls = %q, want %q", d.Calls, want)
	}
}

func TestActivateSearchPaths(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	rec := Record{
		Environment: map[string]string{"RUST_HOME": "%INSTALL_DIR%"},
		Executable:  []string{"rustc", "bin"},
		SearchPaths: [][]string{{"cargo", "bin"}, nil},
		PathBase:    "RUST_HOME",
	}

	for i := 0; i < 2; i++ {
		if err := Activate(NewProfile(profile), rec, "/opt/env/Rust/rust-1.74.1"); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
	}

	want := []string{
		"export RUST_HOME=/opt/env/Rust/rust-1.74.1",
		`export PATH="$PATH:$RUST_HOME/rustc/bin:$RUST_HOME/cargo/bin"`,
	}
	if got := readLines(t, profile); !reflect.DeepEqual(got, want) {
		t.Errorf("profile = %q, want %q", got, want)
	}
}

func TestActivateNoExecutable(t *testing.T) {
	d := &DryRun{}
	if err := Activate(d, Record{Environment: map[string]string{"REDIS_PORT": "6379"}}, "/x"); err != nil {
		t.Fatal(err)
	}
	if len(d.Calls) != 1 {
		t.Errorf("calls = %q, want only the variable", d.Calls)
	}
}

func TestProfilePermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	dir := filepath.Join(t.TempDir(), "locked")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	err := NewProfile(filepath.Join(dir, ".bashrc")).SetVariable("A", "b")
	if !errdefs.IsKind(err, errdefs.KindPermission) {
		t.Fatalf("SetVariable() error = %v, want PermissionError", err)
	}
}

func TestActivateExtraBindings(t *testing.T) {
	d := &DryRun{}
	rec := Record{
		Environment: map[string]string{"MYSQL_TCP_PORT": "%port%", "MYSQL_HOME": "%INSTALL_DIR%"},
		Extra:       map[string]string{"port": "3307", InstallDirVar: "/ignored"},
	}

	if err := Activate(d, rec, "/opt/mysql"); err != nil {
		t.Fatal(err)
	}

	want := []string{"set MYSQL_HOME=/opt/mysql", "set MYSQL_TCP_PORT=3307"}
	if !reflect.DeepEqual(d.Calls, want) {
		t.Errorf("calls = %q, want %q", d.Calls, want)
	}
}

func TestActivateExtraReferencesInherited(t *testing.T) {
	t.Setenv("HOME", "/home/dev")
	d := &DryRun{}
	rec := Record{
		Environment: map[string]string{"GOPATH": "%gopath%"},
		Extra:       map[string]string{"gopath": "%HOME%/go"},
	}

	if err := Activate(d, rec, "/opt/go"); err != nil {
		t.Fatal(err)
	}
	if want := []string{"set GOPATH=/home/dev/go"}; !reflect.DeepEqual(d.Calls, want) {
		t.Errorf("calls = %q, want %q", d.Calls, want)
	}
}
