package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wengchengjian/env/internal/history"
)

// historyLimit caps the entries shown in the history tab.
const historyLimit = 50

// Messages for async operations
type (
	environmentsLoadedMsg struct {
		envs []EnvItem
		err  error
	}

	historyLoadedMsg struct {
		entries []history.Entry
		err     error
	}

	operationCompleteMsg struct {
		message string
		err     error
	}
)

// App wraps the Model with bubbletea components
type App struct {
	*Model
	spinner   spinner.Model
	textInput textinput.Model
}

// NewApp creates a new TUI application
func NewApp(backend Backend) *App {
	model := NewModel(backend)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = model.styles.Spinner

	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 64
	ti.Width = 40

	app := &App{
		Model:     model,
		spinner:   sp,
		textInput: ti,
	}
	app.system = backend.System()
	return app
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	a.SetLoading(true, "Loading environments...")
	return tea.Batch(
		a.spinner.Tick,
		a.loadEnvironments(),
		a.loadHistory(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		a.ready = true

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case environmentsLoadedMsg:
		a.SetLoading(false, "")
		if msg.err != nil {
			a.SetError(msg.err.Error())
		} else {
			a.SetEnvironments(msg.envs)
		}

	case historyLoadedMsg:
		if msg.err == nil {
			a.historyEntries = msg.entries
			a.clampCursors()
		}

	case operationCompleteMsg:
		a.SetLoading(false, "")
		if msg.err != nil {
			a.SetError(msg.err.Error())
		} else {
			a.SetSuccess(msg.message)
		}
		cmds = append(cmds, a.loadEnvironments(), a.loadHistory())

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			return a.ConfirmYes()
		case "n", "N", "esc", "q":
			a.ConfirmNo()
		}
		return nil
	}

	if a.inputMode {
		switch msg.String() {
		case "enter":
			a.FinishInput()
			a.textInput.Blur()
			return nil
		case "esc":
			a.CancelInput()
			a.textInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		a.textInput, cmd = a.textInput.Update(msg)
		a.inputValue = a.textInput.Value()
		return cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.ShowHelp()

	case key.Matches(msg, a.keys.Tab1):
		a.SetTab(0)
	case key.Matches(msg, a.keys.Tab2):
		a.SetTab(1)
	case key.Matches(msg, a.keys.Tab3):
		a.SetTab(2)
	case key.Matches(msg, a.keys.Tab4):
		a.SetTab(3)

	case key.Matches(msg, a.keys.Left):
		a.PrevTab()
	case key.Matches(msg, a.keys.Right):
		a.NextTab()

	case key.Matches(msg, a.keys.Back):
		a.GoBack()
	case key.Matches(msg, a.keys.Cancel):
		if a.filterText != "" && a.activeView == ViewEnvironments {
			a.filterText = ""
			a.GoToTop()
		} else {
			a.GoBack()
		}
		a.ClearMessages()

	case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.VimUp):
		a.MoveCursor(-1)
	case key.Matches(msg, a.keys.Down), key.Matches(msg, a.keys.VimDown):
		a.MoveCursor(1)
	case key.Matches(msg, a.keys.PageUp):
		a.MoveCursor(-a.VisibleHeight())
	case key.Matches(msg, a.keys.PageDown):
		a.MoveCursor(a.VisibleHeight())
	case key.Matches(msg, a.keys.Home), key.Matches(msg, a.keys.VimTop):
		a.GoToTop()
	case key.Matches(msg, a.keys.End), key.Matches(msg, a.keys.VimBot):
		a.GoToBottom()

	case key.Matches(msg, a.keys.Enter):
		switch a.activeView {
		case ViewEnvironments:
			a.OpenVersions()
		case ViewVersions:
			a.confirmUse()
		}

	case key.Matches(msg, a.keys.Use):
		switch a.activeView {
		case ViewEnvironments:
			a.OpenVersions()
		case ViewVersions:
			a.confirmUse()
		}

	case key.Matches(msg, a.keys.Filter):
		if a.activeView == ViewEnvironments {
			a.startFilter()
		}

	case key.Matches(msg, a.keys.Refresh):
		a.SetLoading(true, "Refreshing...")
		return tea.Batch(a.loadEnvironments(), a.loadHistory())
	}

	return nil
}

// confirmUse asks before activating the selected version.
func (a *App) confirmUse() {
	env := a.SelectedEnvironment()
	ver := a.SelectedVersion()
	if env == nil || ver == nil {
		return
	}

	switch ver.Status {
	case StatusUnsupported:
		a.SetError(fmt.Sprintf("%s is not supported yet", env.Name))
		return
	case StatusCurrent:
		a.SetSuccess(fmt.Sprintf("%s %s is already current", env.Name, ver.Version))
		return
	}

	verb := "Install and use"
	if ver.Status == StatusInstalled {
		verb = "Switch to"
	}
	name, version := env.Name, ver.Version
	a.ShowConfirm(fmt.Sprintf("%s %s %s?", verb, name, version), func() tea.Cmd {
		return a.useVersion(name, version)
	})
}

// View implements tea.Model
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderTabs())
	b.WriteString("\n")
	b.WriteString(a.renderContent())
	b.WriteString(a.renderFooter())

	if a.showConfirm {
		return a.renderWithDialog()
	}

	return b.String()
}

// renderHeader renders the header bar
func (a *App) renderHeader() string {
	title := a.styles.Header.Render(" devenv - Development Environments ")

	var right string
	if a.loading {
		right = a.spinner.View() + " " + a.loadingMsg
	} else if a.errorMsg != "" {
		right = a.styles.Error.Render(a.errorMsg)
	} else if a.successMsg != "" {
		right = a.styles.Success.Render(a.successMsg)
	}

	padding := a.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if padding < 0 {
		padding = 0
	}

	return title + strings.Repeat(" ", padding) + right
}

// renderTabs renders the tab bar
func (a *App) renderTabs() string {
	var tabs []string
	for i, tab := range a.tabs {
		style := a.styles.TabInactive
		if i == a.activeTab && a.activeView != ViewHelp {
			style = a.styles.TabActive
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d] %s", i+1, tab.Name)))
	}

	return a.styles.TabBar.
		Width(a.width).
		Render(strings.Join(tabs, " "))
}

// renderContent renders the main content area
func (a *App) renderContent() string {
	height := a.height - 5

	var content string
	switch a.activeView {
	case ViewEnvironments:
		content = a.renderEnvironmentsView()
	case ViewVersions:
		content = a.renderVersionsView()
	case ViewHistory:
		content = a.renderHistoryView()
	case ViewSystem:
		content = a.renderSystemView()
	case ViewHelp:
		content = a.renderHelpView()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Render(content)
}

// visibleRange returns the window of rows to draw for a list of n items.
func (a *App) visibleRange(n int) (start, end int) {
	start = a.Scroll()
	end = start + a.VisibleHeight()
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}

func (a *App) cursorMark(selected bool) string {
	if selected {
		return a.styles.Cursor.String()
	}
	return a.styles.Gutter.String()
}

func (a *App) renderEnvironmentsView() string {
	var b strings.Builder

	envs := a.FilteredEnvironments()
	title := fmt.Sprintf("Environments (%d)", len(envs))
	if a.inputMode {
		title = a.styles.InputPrompt.Render(a.inputPrompt) + a.textInput.View()
	} else if a.filterText != "" {
		title += fmt.Sprintf(" - Filter: %s", a.filterText)
	}
	b.WriteString(a.styles.Title.Render(title))
	b.WriteString("\n")

	if len(envs) == 0 {
		b.WriteString(a.styles.Description.Render("No environments found"))
		return b.String()
	}

	cursor := a.Cursor()
	start, end := a.visibleRange(len(envs))
	for i := start; i < end; i++ {
		env := envs[i]

		name := a.styles.EnvName.Render(fmt.Sprintf("%-12s", env.Name))
		var state string
		switch {
		case !env.Supported:
			state = StatusBadge(StatusUnsupported)
		case env.Current != "":
			state = a.styles.EnvVersion.Render(env.Current)
		default:
			state = a.styles.Description.Render("none")
		}

		installed := fmt.Sprintf("%d installed", len(env.Installed))
		line := fmt.Sprintf("%s%s %-20s %-14s %s",
			a.cursorMark(i == cursor), name, state,
			a.styles.Info.Render(installed),
			a.styles.EnvDesc.Render(env.Description))
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func (a *App) renderVersionsView() string {
	var b strings.Builder

	env := a.SelectedEnvironment()
	if env == nil {
		b.WriteString(a.styles.Description.Render("No environment selected"))
		return b.String()
	}

	items := env.VersionItems()
	b.WriteString(a.styles.Title.Render(fmt.Sprintf("%s versions (%d)", env.Name, len(items))))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(a.styles.Description.Render("No versions listed"))
		return b.String()
	}

	cursor := a.Cursor()
	start, end := a.visibleRange(len(items))
	for i := start; i < end; i++ {
		item := items[i]
		version := fmt.Sprintf("%-16s", item.Version)
		if item.Status == StatusCurrent || item.Status == StatusInstalled {
			version = a.styles.EnvVersion.Render(version)
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", a.cursorMark(i == cursor), version, StatusBadge(item.Status)))
	}

	return b.String()
}

func (a *App) renderHistoryView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Operation History"))
	b.WriteString("\n")

	if len(a.historyEntries) == 0 {
		b.WriteString(a.styles.Description.Render("No history entries"))
		return b.String()
	}

	cursor := a.Cursor()
	start, end := a.visibleRange(len(a.historyEntries))
	for i := start; i < end; i++ {
		entry := a.historyEntries[i]

		status := a.styles.Success.Render("OK")
		if !entry.Success {
			status = a.styles.Error.Render("FAILED")
		}

		target := entry.Target()
		if entry.Previous != "" {
			target += " (was " + entry.Previous + ")"
		}

		b.WriteString(fmt.Sprintf("%s%s  %-9s  %-36s  %s\n",
			a.cursorMark(i == cursor),
			entry.Timestamp.Format("2006-01-02 15:04"),
			entry.Operation, target, status))
	}

	return b.String()
}

func (a *App) renderSystemView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("System Information"))
	b.WriteString("\n")

	if len(a.system) == 0 {
		b.WriteString(a.styles.Error.Render("System information not available"))
		return b.String()
	}

	for _, f := range a.system {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", f.Label+":", a.styles.EnvPath.Render(f.Value)))
	}

	return b.String()
}

func (a *App) renderHelpView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n")

	for _, group := range a.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-12s%s%s\n",
				a.styles.HelpKey.Render(h.Key),
				a.styles.HelpSep.String(),
				a.styles.HelpDesc.Render(h.Desc)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderFooter renders the footer bar
func (a *App) renderFooter() string {
	var hints []string

	switch a.activeView {
	case ViewEnvironments:
		hints = []string{"Enter:versions", "/:filter", "r:refresh"}
	case ViewVersions:
		hints = []string{"Enter:use", "b:back"}
	case ViewHistory:
		hints = []string{"r:refresh"}
	}

	hints = append(hints, "?:help", "q:quit")

	return a.styles.Footer.
		Width(a.width).
		Render(strings.Join(hints, "  "))
}

// renderWithDialog renders the confirmation dialog centered on screen
func (a *App) renderWithDialog() string {
	dialog := a.styles.Dialog.Render(
		a.styles.DialogTitle.Render(a.confirmTitle) + "\n\n" +
			a.styles.DialogButton.Render("[Y]es") + " " +
			a.styles.DialogCancel.Render("[N]o"),
	)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, dialog,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorBg))
}

// startFilter initiates filter input
func (a *App) startFilter() {
	a.textInput.SetValue(a.filterText)
	a.textInput.Focus()
	a.StartInput("Filter: ", func(filter string) {
		a.filterText = strings.TrimSpace(filter)
		a.SetCursor(0)
		a.SetScroll(0)
	})
	a.inputValue = a.filterText
}

// Async commands

func (a *App) loadEnvironments() tea.Cmd {
	return func() tea.Msg {
		envs, err := a.backend.Environments()
		return environmentsLoadedMsg{envs: envs, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := a.backend.History(historyLimit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (a *App) useVersion(name, version string) tea.Cmd {
	a.SetLoading(true, fmt.Sprintf("Activating %s %s...", name, version))
	return func() tea.Msg {
		if err := a.backend.Use(context.Background(), name, version); err != nil {
			return operationCompleteMsg{err: err}
		}
		return operationCompleteMsg{message: fmt.Sprintf("%s %s is now current", name, version)}
	}
}

// Run starts the TUI application
func Run(backend Backend) error {
	app := NewApp(backend)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
