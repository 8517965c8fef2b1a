package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wengchengjian/env/internal/history"
)

type fakeBackend struct {
	envs    []EnvItem
	entries []history.Entry
	used    []string
	useErr  error
}

func (f *fakeBackend) Environments() ([]EnvItem, error) { return f.envs, nil }

func (f *fakeBackend) History(limit int) ([]history.Entry, error) { return f.entries, nil }

func (f *fakeBackend) System() []Field {
	return []Field{{Label: "OS", Value: "linux"}}
}

func (f *fakeBackend) Use(_ context.Context, name, version string) error {
	f.used = append(f.used, name+"@"+version)
	return f.useErr
}

func testEnvs() []EnvItem {
	return []EnvItem{
		{Name: "Java", Description: "OpenJDK", Supported: true, Current: "17.0.9",
			Installed: []string{"17.0.9", "11.0.2"}, Versions: []string{"11.0.2", "17.0.9", "21.0.1"}},
		{Name: "Node", Description: "Node.js runtime", Supported: true,
			Versions: []string{"18.19.0", "20.10.0"}},
		{Name: "Redis", Description: "In-memory store", Supported: false,
			Versions: []string{"7.2.3"}},
	}
}

func TestVersionItems(t *testing.T) {
	env := testEnvs()[0]
	env.Installed = append(env.Installed, "8.0.392")

	got := env.VersionItems()
	want := []VersionItem{
		{Version: "21.0.1", Status: StatusAvailable},
		{Version: "17.0.9", Status: StatusCurrent},
		{Version: "11.0.2", Status: StatusInstalled},
		{Version: "8.0.392", Status: StatusInstalled},
	}
	if len(got) != len(want) {
		t.Fatalf("VersionItems() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("VersionItems()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	unsupported := testEnvs()[2].VersionItems()
	if len(unsupported) != 1 || unsupported[0].Status != StatusUnsupported {
		t.Errorf("unsupported VersionItems() = %v", unsupported)
	}
}

func TestFilteredEnvironments(t *testing.T) {
	tests := []struct {
		filter string
		want   int
	}{
		{"", 3},
		{"java", 1},
		{"RUNTIME", 1},
		{"o", 3},
		{"python", 0},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			m := NewModel(&fakeBackend{})
			m.SetEnvironments(testEnvs())
			m.filterText = tt.filter
			if got := len(m.FilteredEnvironments()); got != tt.want {
				t.Errorf("len(FilteredEnvironments()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMoveCursorClamps(t *testing.T) {
	m := NewModel(&fakeBackend{})
	m.SetSize(80, 30)
	m.SetEnvironments(testEnvs())

	m.MoveCursor(-5)
	if m.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", m.Cursor())
	}
	m.MoveCursor(10)
	if m.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", m.Cursor())
	}
	m.GoToTop()
	if m.Cursor() != 0 || m.Scroll() != 0 {
		t.Errorf("GoToTop() cursor=%d scroll=%d", m.Cursor(), m.Scroll())
	}
	m.GoToBottom()
	if m.Cursor() != 2 {
		t.Errorf("GoToBottom() cursor = %d, want 2", m.Cursor())
	}
}

func TestMoveCursorScrolls(t *testing.T) {
	m := NewModel(&fakeBackend{})
	m.SetSize(80, 10) // three visible rows

	var envs []EnvItem
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		envs = append(envs, EnvItem{Name: n, Supported: true})
	}
	m.SetEnvironments(envs)

	m.MoveCursor(4)
	if m.Scroll() != 2 {
		t.Errorf("Scroll() = %d, want 2", m.Scroll())
	}
	m.MoveCursor(-4)
	if m.Scroll() != 0 {
		t.Errorf("Scroll() = %d, want 0", m.Scroll())
	}
}

func TestTabs(t *testing.T) {
	m := NewModel(&fakeBackend{})

	m.NextTab()
	if m.activeView != ViewVersions {
		t.Errorf("NextTab() view = %v, want %v", m.activeView, ViewVersions)
	}
	m.PrevTab()
	m.PrevTab()
	if m.activeView != ViewSystem {
		t.Errorf("PrevTab() view = %v, want %v", m.activeView, ViewSystem)
	}
	m.SetTab(99)
	if m.activeView != ViewSystem {
		t.Errorf("SetTab(99) changed view to %v", m.activeView)
	}

	m.ShowHelp()
	if m.activeView != ViewHelp {
		t.Fatalf("ShowHelp() view = %v", m.activeView)
	}
	m.ShowHelp()
	if m.activeView != ViewSystem {
		t.Errorf("second ShowHelp() view = %v, want %v", m.activeView, ViewSystem)
	}
}

func TestOpenVersions(t *testing.T) {
	m := NewModel(&fakeBackend{})
	m.SetSize(80, 30)
	m.SetEnvironments(testEnvs())

	m.MoveCursor(1)
	m.OpenVersions()

	if m.activeView != ViewVersions {
		t.Fatalf("OpenVersions() view = %v", m.activeView)
	}
	if env := m.SelectedEnvironment(); env == nil || env.Name != "Node" {
		t.Fatalf("SelectedEnvironment() = %v, want Node", env)
	}
	if v := m.SelectedVersion(); v == nil || v.Version != "20.10.0" {
		t.Errorf("SelectedVersion() = %v, want 20.10.0", v)
	}

	m.GoBack()
	if m.activeView != ViewEnvironments {
		t.Errorf("GoBack() view = %v, want %v", m.activeView, ViewEnvironments)
	}
}

func TestSetEnvironmentsDropsMissingSelection(t *testing.T) {
	m := NewModel(&fakeBackend{})
	m.SetEnvironments(testEnvs())
	m.selectedEnv = "redis"

	m.SetEnvironments(testEnvs()[:2])
	if env := m.SelectedEnvironment(); env == nil || env.Name != "Java" {
		t.Errorf("SelectedEnvironment() = %v, want fallback to Java", env)
	}
}

func TestConfirm(t *testing.T) {
	m := NewModel(&fakeBackend{})

	called := false
	m.ShowConfirm("Proceed?", func() tea.Cmd {
		called = true
		return nil
	})
	m.ConfirmNo()
	if m.ConfirmYes() != nil || called {
		t.Fatal("ConfirmYes() ran an action after ConfirmNo()")
	}

	m.ShowConfirm("Proceed?", func() tea.Cmd {
		called = true
		return nil
	})
	m.ConfirmYes()
	if !called || m.showConfirm {
		t.Errorf("ConfirmYes() called=%v showConfirm=%v", called, m.showConfirm)
	}
}

func TestAppUseFlow(t *testing.T) {
	backend := &fakeBackend{envs: testEnvs()}
	app := NewApp(backend)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app.Update(environmentsLoadedMsg{envs: backend.envs})

	app.OpenVersions()
	// 21.0.1 is first and not installed
	app.confirmUse()
	if !app.showConfirm {
		t.Fatal("confirmUse() did not ask for confirmation")
	}

	cmd := app.ConfirmYes()
	if cmd == nil {
		t.Fatal("ConfirmYes() returned no command")
	}
	msg := cmd()
	if done, ok := msg.(operationCompleteMsg); !ok || done.err != nil {
		t.Fatalf("command message = %#v", msg)
	}
	if len(backend.used) != 1 || backend.used[0] != "Java@21.0.1" {
		t.Errorf("Use() calls = %v, want [Java@21.0.1]", backend.used)
	}
}

func TestAppUseCurrentIsNoop(t *testing.T) {
	backend := &fakeBackend{envs: testEnvs()}
	app := NewApp(backend)
	app.SetSize(100, 30)
	app.SetEnvironments(backend.envs)
	app.OpenVersions()
	app.MoveCursor(1) // 17.0.9, current

	app.confirmUse()
	if app.showConfirm {
		t.Error("confirmUse() on the current version asked for confirmation")
	}
	if app.successMsg == "" {
		t.Error("confirmUse() on the current version set no message")
	}
}

func TestAppOperationError(t *testing.T) {
	app := NewApp(&fakeBackend{})
	app.Update(operationCompleteMsg{err: errors.New("download failed")})
	if app.errorMsg != "download failed" {
		t.Errorf("errorMsg = %q, want %q", app.errorMsg, "download failed")
	}
	if app.loading {
		t.Error("loading still set after operation completed")
	}
}

func TestAppView(t *testing.T) {
	backend := &fakeBackend{envs: testEnvs()}
	app := NewApp(backend)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	app.Update(environmentsLoadedMsg{envs: backend.envs})

	view := app.View()
	for _, want := range []string{"Environments (3)", "> ", "Java", "Enter:versions  /:filter  r:refresh  ?:help  q:quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	app.OpenVersions()
	app.confirmUse()
	view = app.View()
	for _, want := range []string{"[Y]es", "[N]o"} {
		if !strings.Contains(view, want) {
			t.Errorf("dialog View() missing %q", want)
		}
	}

	app.ConfirmNo()
	if view := app.View(); !strings.Contains(view, "Enter:use  b:back") {
		t.Errorf("versions View() footer missing, got:\n%s", view)
	}
}
