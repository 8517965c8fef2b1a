package pipeline

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/wengchengjian/env/pkg/activate"
	"github.com/wengchengjian/env/pkg/archive"
	"github.com/wengchengjian/env/pkg/errdefs"
	"github.com/wengchengjian/env/pkg/fetch"
	"github.com/wengchengjian/env/pkg/layout"
	"github.com/wengchengjian/env/pkg/ledger"
)

func jdkTarball(t *testing.T) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	files := []struct {
		name string
		body string
		dir  bool
	}{
		{name: "jdk-17.0.9/", dir: true},
		{name: "jdk-17.0.9/bin/", dir: true},
		{name: "jdk-17.0.9/bin/java", body: "#!/bin/sh\n"},
		{name: "jdk-17.0.9/release", body: "JAVA_VERSION=\"17.0.9\"\n"},
	}
	for _, f := range files {
		hdr := &tar.Header{Name: f.name, Mode: 0755, Typeflag: tar.TypeReg, Size: int64(len(f.body))}
		if f.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !f.dir {
			tw.Write([]byte(f.body))
		}
	}
	tw.Close()

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	gw.Write(tarBuf.Bytes())
	gw.Close()
	return gzBuf.Bytes()
}

type harness struct {
	pipeline *Pipeline
	ledger   *ledger.Ledger
	profile  string
	cacheDir string
	root     string
	gets     *atomic.Int64
	server   *httptest.Server
}

func newHarness(t *testing.T, status int) *harness {
	t.Helper()
	dir := t.TempDir()
	payload := jdkTarball(t)

	gets := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		http.ServeContent(w, r, "jdk.tar.gz", time.Time{}, bytes.NewReader(payload))
	}))
	t.Cleanup(srv.Close)

	root := filepath.Join(dir, "root")
	l, err := ledger.Load(filepath.Join(dir, "home", ledger.FileName), "", root)
	if err != nil {
		t.Fatal(err)
	}

	cacheDir := filepath.Join(dir, "cache")
	profile := filepath.Join(dir, ".bashrc")

	return &harness{
		pipeline: &Pipeline{
			InstallRoot:    root,
			Fetcher:        fetch.New(cacheDir),
			Extractor:      archive.New(),
			Activator:      activate.NewProfile(profile),
			Ledger:         l,
			ClearStaleTemp: true,
		},
		ledger:   l,
		profile:  profile,
		cacheDir: cacheDir,
		root:     root,
		gets:     gets,
		server:   srv,
	}
}

func (h *harness) javaRequest() Request {
	return Request{
		Name:    "Java",
		Version: "17.0.9",
		URL:     h.server.URL + "/openjdk-17.0.9_linux-x64_bin.tar.gz",
		Activation: activate.Record{
			Environment: map[string]string{"JAVA_HOME": "%INSTALL_DIR%"},
			Executable:  []string{"bin"},
			PathBase:    "JAVA_HOME",
		},
	}
}

func TestRunFreshInstall(t *testing.T) {
	h := newHarness(t, http.StatusOK)

	var observed []State
	h.pipeline.Observer = func(s State, _ Request) { observed = append(observed, s) }

	res, err := h.pipeline.Run(context.Background(), h.javaRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantStates := []State{CheckLocal, Fetching, Extracting, Normalizing, Activating, Recording, Done}
	if !reflect.DeepEqual(res.Transitions, wantStates) {
		t.Errorf("Transitions = %v, want %v", res.Transitions, wantStates)
	}
	if !reflect.DeepEqual(observed, wantStates) {
		t.Errorf("observed = %v, want %v", observed, wantStates)
	}

	installDir := layout.InstallDir(h.root, "Java", "17.0.9")
	if res.InstallDir != installDir {
		t.Errorf("InstallDir = %q, want %q", res.InstallDir, installDir)
	}
	if _, err := os.Stat(filepath.Join(installDir, "bin", "java")); err != nil {
		t.Errorf("normalized layout missing bin/java: %v", err)
	}
	if _, err := os.Stat(layout.TempDir(h.root, "Java")); !os.IsNotExist(err) {
		t.Error("temp dir left behind")
	}

	entries, _ := os.ReadDir(h.cacheDir)
	if len(entries) != 0 {
		t.Errorf("cache still holds %d files after extraction", len(entries))
	}

	profile, err := os.ReadFile(h.profile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(profile), "export JAVA_HOME="+installDir) {
		t.Errorf("profile missing JAVA_HOME:\n%s", profile)
	}
	if !strings.Contains(string(profile), "$JAVA_HOME/bin") {
		t.Errorf("profile missing PATH entry:\n%s", profile)
	}

	if got := h.ledger.Versions("Java"); !reflect.DeepEqual(got, []string{"17.0.9"}) {
		t.Errorf("ledger versions = %v", got)
	}
	if cur, _ := h.ledger.Current("Java"); cur != "17.0.9" {
		t.Errorf("ledger current = %q", cur)
	}
}

func TestRunRepeatedTakesSkipPath(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	req := h.javaRequest()

	if _, err := h.pipeline.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	getsAfterFirst := h.gets.Load()

	res, err := h.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	want := []State{CheckLocal, Skip, Activating, Recording, Done}
	if !reflect.DeepEqual(res.Transitions, want) {
		t.Errorf("Transitions = %v, want %v", res.Transitions, want)
	}
	if !res.Skipped {
		t.Error("Skipped = false, want true")
	}
	if h.gets.Load() != getsAfterFirst {
		t.Errorf("second run downloaded again (%d GETs)", h.gets.Load())
	}
	if got := h.ledger.Versions("Java"); !reflect.DeepEqual(got, []string{"17.0.9"}) {
		t.Errorf("ledger versions = %v, want no duplicate", got)
	}

	profile, _ := os.ReadFile(h.profile)
	if n := strings.Count(string(profile), "export JAVA_HOME="); n != 1 {
		t.Errorf("JAVA_HOME lines = %d, want 1", n)
	}
}

func TestRunProbeFailure(t *testing.T) {
	h := newHarness(t, http.StatusNotFound)

	res, err := h.pipeline.Run(context.Background(), h.javaRequest())
	if err == nil {
		t.Fatal("Run() error = nil, want failure")
	}

	var se *StageError
	if !errors.As(err, &se) || se.Stage != Fetching {
		t.Fatalf("error = %v, want StageError at fetching", err)
	}
	if !errdefs.IsKind(err, errdefs.KindNetwork) {
		t.Errorf("error kind = %v, want NetworkError", errdefs.KindOf(err))
	}
	if res.Final() != Failed {
		t.Errorf("Final() = %v, want failed", res.Final())
	}
	if _, err := os.Stat(h.cacheDir); !os.IsNotExist(err) {
		t.Error("cache dir created despite failed probe")
	}
	if v := h.ledger.Versions("Java"); len(v) != 0 {
		t.Errorf("ledger changed after failure: %v", v)
	}
	if _, err := os.Stat(h.ledger.Path()); !os.IsNotExist(err) {
		t.Error("ledger file written after failure")
	}
}

func TestRunInvalidRequest(t *testing.T) {
	h := newHarness(t, http.StatusOK)

	_, err := h.pipeline.Run(context.Background(), Request{Name: "Java"})
	var se *StageError
	if !errors.As(err, &se) || se.Stage != CheckLocal {
		t.Fatalf("error = %v, want StageError at check-local", err)
	}
	if !errdefs.IsKind(err, errdefs.KindConfig) {
		t.Errorf("error kind = %v, want ConfigError", errdefs.KindOf(err))
	}
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, string, string) error {
	return errdefs.Extraction("extract", "x", errors.New("corrupt"))
}

func TestRunExtractionFailureKeepsCache(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	h.pipeline.Extractor = failingExtractor{}

	_, err := h.pipeline.Run(context.Background(), h.javaRequest())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != Extracting {
		t.Fatalf("error = %v, want StageError at extracting", err)
	}
	if !strings.Contains(err.Error(), "stage extracting failed for Java 17.0.9") {
		t.Errorf("message = %q", err.Error())
	}

	entries, _ := os.ReadDir(h.cacheDir)
	if len(entries) != 1 {
		t.Errorf("cache entries = %d, want the downloaded archive kept", len(entries))
	}
	if layout.Exists(h.root, "Java", "17.0.9") {
		t.Error("install dir exists after failed extraction")
	}
}

func TestRunClearsStaleTemp(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	stale := filepath.Join(layout.TempDir(h.root, "Java"), "leftover", "file")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := h.pipeline.Run(context.Background(), h.javaRequest()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	installDir := layout.InstallDir(h.root, "Java", "17.0.9")
	if _, err := os.Stat(filepath.Join(installDir, "leftover")); !os.IsNotExist(err) {
		t.Error("stale temp content merged into install")
	}
	if _, err := os.Stat(filepath.Join(installDir, "bin", "java")); err != nil {
		t.Errorf("install missing bin/java: %v", err)
	}
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	h.pipeline.Activator = &activate.DryRun{}

	good := h.javaRequest()
	bad := Request{Name: "Go", Version: "1.21.5"}
	never := Request{Name: "Node", Version: "20.10.0", URL: h.server.URL + "/node.tar.gz"}

	results, err := h.pipeline.RunAll(context.Background(), []Request{good, bad, never})
	if err == nil {
		t.Fatal("RunAll() error = nil, want failure")
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Final() != Done || results[1].Final() != Failed {
		t.Errorf("finals = %v, %v", results[0].Final(), results[1].Final())
	}
	if v := h.ledger.Versions("Node"); len(v) != 0 {
		t.Error("request after the failure was run")
	}
}

func TestStateString(t *testing.T) {
	if Normalizing.String() != "normalizing" {
		t.Errorf("String() = %q", Normalizing.String())
	}
	if State(42).String() != "state(42)" {
		t.Errorf("String() = %q", State(42).String())
	}
	if !Done.Terminal() || Activating.Terminal() {
		t.Error("Terminal() mismatch")
	}
}
