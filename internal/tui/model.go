package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wengchengjian/env/internal/history"
	"github.com/wengchengjian/env/pkg/environment"
)

// View represents different views in the TUI
type View int

const (
	ViewEnvironments View = iota
	ViewVersions
	ViewHistory
	ViewSystem
	ViewHelp
)

// Tab represents a navigable tab
type Tab struct {
	Name string
	View View
}

// DefaultTabs returns the default tab configuration
func DefaultTabs() []Tab {
	return []Tab{
		{Name: "Environments", View: ViewEnvironments},
		{Name: "Versions", View: ViewVersions},
		{Name: "History", View: ViewHistory},
		{Name: "System", View: ViewSystem},
	}
}

// EnvItem is one catalog environment joined with its ledger state.
type EnvItem struct {
	Name        string
	Description string
	Supported   bool
	Current     string
	Installed   []string
	Versions    []string
}

// VersionItem is one row of the versions view.
type VersionItem struct {
	Version string
	Status  string
}

// VersionItems merges catalog and installed versions, newest first.
func (e EnvItem) VersionItems() []VersionItem {
	seen := make(map[string]bool, len(e.Versions)+len(e.Installed))
	var all []string
	for _, list := range [][]string{e.Versions, e.Installed} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				all = append(all, v)
			}
		}
	}

	installed := make(map[string]bool, len(e.Installed))
	for _, v := range e.Installed {
		installed[v] = true
	}

	items := make([]VersionItem, 0, len(all))
	for _, v := range environment.SortVersions(all) {
		status := StatusAvailable
		switch {
		case !e.Supported:
			status = StatusUnsupported
		case v == e.Current:
			status = StatusCurrent
		case installed[v]:
			status = StatusInstalled
		}
		items = append(items, VersionItem{Version: v, Status: status})
	}
	return items
}

// Field is a labelled value in the system view.
type Field struct {
	Label string
	Value string
}

// Backend supplies the browser's data and performs its single action:
// making a version current, installing it first when needed.
type Backend interface {
	Environments() ([]EnvItem, error)
	History(limit int) ([]history.Entry, error)
	System() []Field
	Use(ctx context.Context, name, version string) error
}

// Model holds the application state
type Model struct {
	// Core state
	ready    bool
	quitting bool

	// Dimensions
	width  int
	height int

	// Navigation
	tabs       []Tab
	activeTab  int
	activeView View
	prevView   View

	// Data
	backend        Backend
	envs           []EnvItem
	historyEntries []history.Entry
	system         []Field
	selectedEnv    string

	// UI state
	loading      bool
	loadingMsg   string
	errorMsg     string
	successMsg   string
	filterText   string
	inputMode    bool
	inputPrompt  string
	inputValue   string
	inputHandler func(string)

	// Cursor positions for each view
	cursors map[View]int

	// Scroll offsets for each view
	scrolls map[View]int

	// Styles and keys
	styles *Styles
	keys   KeyMap

	// Confirmation dialog
	showConfirm   bool
	confirmTitle  string
	confirmAction func() tea.Cmd
}

// NewModel creates a new TUI model
func NewModel(backend Backend) *Model {
	return &Model{
		tabs:       DefaultTabs(),
		activeTab:  0,
		activeView: ViewEnvironments,
		backend:    backend,
		cursors:    make(map[View]int),
		scrolls:    make(map[View]int),
		styles:     DefaultStyles(),
		keys:       DefaultKeyMap(),
	}
}

// SetSize sets the terminal size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// CurrentTab returns the current tab
func (m *Model) CurrentTab() Tab {
	if m.activeTab >= 0 && m.activeTab < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return m.tabs[0]
}

// Cursor returns the cursor position for the current view
func (m *Model) Cursor() int {
	return m.cursors[m.activeView]
}

// SetCursor sets the cursor position for the current view
func (m *Model) SetCursor(pos int) {
	m.cursors[m.activeView] = pos
}

// Scroll returns the scroll offset for the current view
func (m *Model) Scroll() int {
	return m.scrolls[m.activeView]
}

// SetScroll sets the scroll offset for the current view
func (m *Model) SetScroll(offset int) {
	m.scrolls[m.activeView] = offset
}

// VisibleHeight returns the height available for list content
func (m *Model) VisibleHeight() int {
	// header, tabs, footer and title lines
	h := m.height - 7
	if h < 1 {
		return 1
	}
	return h
}

// SetEnvironments replaces the environment list, keeping the selection when
// it still exists.
func (m *Model) SetEnvironments(envs []EnvItem) {
	m.envs = envs
	if m.selectedEnv != "" && m.findEnv(m.selectedEnv) == nil {
		m.selectedEnv = ""
	}
	m.clampCursors()
}

// FilteredEnvironments returns the environments matching the filter text.
func (m *Model) FilteredEnvironments() []EnvItem {
	if m.filterText == "" {
		return m.envs
	}

	needle := strings.ToLower(m.filterText)
	var filtered []EnvItem
	for _, env := range m.envs {
		if strings.Contains(strings.ToLower(env.Name), needle) ||
			strings.Contains(strings.ToLower(env.Description), needle) {
			filtered = append(filtered, env)
		}
	}
	return filtered
}

func (m *Model) findEnv(name string) *EnvItem {
	for i := range m.envs {
		if strings.EqualFold(m.envs[i].Name, name) {
			return &m.envs[i]
		}
	}
	return nil
}

// SelectedEnvironment returns the environment the versions view shows. It
// falls back to the first environment when nothing was picked.
func (m *Model) SelectedEnvironment() *EnvItem {
	if env := m.findEnv(m.selectedEnv); env != nil {
		return env
	}
	if len(m.envs) > 0 {
		return &m.envs[0]
	}
	return nil
}

// SelectedVersion returns the version under the cursor in the versions view.
func (m *Model) SelectedVersion() *VersionItem {
	env := m.SelectedEnvironment()
	if env == nil {
		return nil
	}
	items := env.VersionItems()
	cursor := m.cursors[ViewVersions]
	if cursor >= 0 && cursor < len(items) {
		return &items[cursor]
	}
	return nil
}

// ListLen returns the number of rows in the current view
func (m *Model) ListLen() int {
	return m.listLen(m.activeView)
}

func (m *Model) listLen(v View) int {
	switch v {
	case ViewEnvironments:
		return len(m.FilteredEnvironments())
	case ViewVersions:
		if env := m.SelectedEnvironment(); env != nil {
			return len(env.VersionItems())
		}
	case ViewHistory:
		return len(m.historyEntries)
	}
	return 0
}

func (m *Model) clampCursors() {
	for v, pos := range m.cursors {
		n := m.listLen(v)
		if pos >= n {
			pos = n - 1
		}
		if pos < 0 {
			pos = 0
		}
		m.cursors[v] = pos
		if m.scrolls[v] > pos {
			m.scrolls[v] = pos
		}
	}
}

// MoveCursor moves the cursor by delta, clamping to valid range
func (m *Model) MoveCursor(delta int) {
	n := m.ListLen()
	if n == 0 {
		return
	}

	newPos := m.Cursor() + delta
	if newPos < 0 {
		newPos = 0
	}
	if newPos >= n {
		newPos = n - 1
	}
	m.SetCursor(newPos)

	visibleHeight := m.VisibleHeight()
	scroll := m.Scroll()

	if newPos < scroll {
		m.SetScroll(newPos)
	} else if newPos >= scroll+visibleHeight {
		m.SetScroll(newPos - visibleHeight + 1)
	}
}

// GoToTop moves cursor to the top
func (m *Model) GoToTop() {
	m.SetCursor(0)
	m.SetScroll(0)
}

// GoToBottom moves cursor to the bottom
func (m *Model) GoToBottom() {
	n := m.ListLen()
	if n == 0 {
		return
	}
	m.SetCursor(n - 1)

	visibleHeight := m.VisibleHeight()
	if n > visibleHeight {
		m.SetScroll(n - visibleHeight)
	}
}

// NextTab switches to the next tab
func (m *Model) NextTab() {
	m.activeTab = (m.activeTab + 1) % len(m.tabs)
	m.activeView = m.tabs[m.activeTab].View
}

// PrevTab switches to the previous tab
func (m *Model) PrevTab() {
	m.activeTab--
	if m.activeTab < 0 {
		m.activeTab = len(m.tabs) - 1
	}
	m.activeView = m.tabs[m.activeTab].View
}

// SetTab switches to a specific tab by index
func (m *Model) SetTab(index int) {
	if index >= 0 && index < len(m.tabs) {
		m.activeTab = index
		m.activeView = m.tabs[m.activeTab].View
	}
}

// OpenVersions selects the environment under the cursor and shows its
// versions.
func (m *Model) OpenVersions() {
	envs := m.FilteredEnvironments()
	cursor := m.cursors[ViewEnvironments]
	if cursor < 0 || cursor >= len(envs) {
		return
	}
	if !strings.EqualFold(m.selectedEnv, envs[cursor].Name) {
		m.selectedEnv = envs[cursor].Name
		m.cursors[ViewVersions] = 0
		m.scrolls[ViewVersions] = 0
	}
	m.SetTab(int(ViewVersions))
}

// ShowHelp toggles the help view
func (m *Model) ShowHelp() {
	if m.activeView == ViewHelp {
		m.GoBack()
		return
	}
	m.prevView = m.activeView
	m.activeView = ViewHelp
}

// GoBack returns to the previous view
func (m *Model) GoBack() {
	switch m.activeView {
	case ViewHelp:
		m.activeView = m.prevView
	case ViewVersions:
		m.SetTab(int(ViewEnvironments))
	}
}

// SetLoading sets the loading state
func (m *Model) SetLoading(loading bool, msg string) {
	m.loading = loading
	m.loadingMsg = msg
}

// SetError sets an error message
func (m *Model) SetError(msg string) {
	m.errorMsg = msg
	m.successMsg = ""
}

// SetSuccess sets a success message
func (m *Model) SetSuccess(msg string) {
	m.successMsg = msg
	m.errorMsg = ""
}

// ClearMessages clears all messages
func (m *Model) ClearMessages() {
	m.errorMsg = ""
	m.successMsg = ""
}

// StartInput starts input mode
func (m *Model) StartInput(prompt string, handler func(string)) {
	m.inputMode = true
	m.inputPrompt = prompt
	m.inputValue = ""
	m.inputHandler = handler
}

// FinishInput finishes input mode and calls the handler
func (m *Model) FinishInput() {
	if m.inputHandler != nil {
		m.inputHandler(m.inputValue)
	}
	m.CancelInput()
}

// CancelInput cancels input mode
func (m *Model) CancelInput() {
	m.inputMode = false
	m.inputPrompt = ""
	m.inputValue = ""
	m.inputHandler = nil
}

// ShowConfirm shows a confirmation dialog
func (m *Model) ShowConfirm(title string, action func() tea.Cmd) {
	m.showConfirm = true
	m.confirmTitle = title
	m.confirmAction = action
}

// ConfirmYes runs the confirmation action and returns its command
func (m *Model) ConfirmYes() tea.Cmd {
	action := m.confirmAction
	m.ConfirmNo()
	if action != nil {
		return action()
	}
	return nil
}

// ConfirmNo cancels the confirmation
func (m *Model) ConfirmNo() {
	m.showConfirm = false
	m.confirmTitle = ""
	m.confirmAction = nil
}
