package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/printer"
	"github.com/slok/deployboard/internal/store"
)

// Dashboard is the part of the dashboard the TUI drives.
type Dashboard interface {
	Refresh(ctx context.Context) error
	Submit(ctx context.Context) error
	Abort(ctx context.Context, id, reason string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	SetFilter(filter string)
	View() dashboard.View
}

var _ Dashboard = &dashboard.Dashboard{}

// Filters are the task status filters cycled with the filter key.
var Filters = []string{
	store.FilterAll,
	string(model.TaskStatusPending),
	string(model.TaskStatusRunning),
	string(model.TaskStatusDone),
	string(model.TaskStatusFailed),
	string(model.TaskStatusAborted),
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Filter key.Binding
	Reload key.Binding
	Submit key.Binding
	Abort  key.Binding
	Delete key.Binding
	Global key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Filter, k.Reload, k.Submit, k.Abort, k.Delete, k.Global, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓", "down"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "filter"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Submit: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "submit"),
	),
	Abort: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "abort"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Global: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "global feed"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the bubbletea model of the deployment dashboard.
type Model struct {
	dash        Dashboard
	abortReason string

	view       dashboard.View
	selectedID string
	cursor     int
	filterIdx  int
	showGlobal bool
	notice     *dashboard.Notification
	err        error

	help     help.Model
	progress progress.Model
	width    int
	quitting bool
}

// New returns a new TUI model. The view starts from the current dashboard state,
// updates arrive through the Sink.
func New(dash Dashboard, abortReason string) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))

	m := Model{
		dash:        dash,
		abortReason: abortReason,
		help:        help.New(),
		progress:    bar,
	}
	m = m.withView(dash.View())
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case viewMsg:
		if msg.view.Revision < m.view.Revision {
			return m, nil
		}
		return m.withView(msg.view), nil

	case notifyMsg:
		n := msg.notification
		m.notice = &n
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		m = m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, keys.Down):
		m = m.moveCursor(1)
		return m, nil

	case key.Matches(msg, keys.Global):
		m.showGlobal = !m.showGlobal
		return m, nil

	case key.Matches(msg, keys.Filter):
		m.filterIdx = (m.filterIdx + 1) % len(Filters)
		filter := Filters[m.filterIdx]
		m.view.Filter = filter
		return m, m.action(func(context.Context) error {
			m.dash.SetFilter(filter)
			return nil
		})

	case key.Matches(msg, keys.Reload):
		m.err = nil
		return m, m.action(m.dash.Refresh)

	case key.Matches(msg, keys.Submit):
		m.err = nil
		return m, m.action(m.dash.Submit)
	}

	task, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Abort):
		if !task.CanAbort {
			return m, nil
		}
		id, reason := task.Task.ID, m.abortReason
		return m, m.action(func(ctx context.Context) error {
			_, err := m.dash.Abort(ctx, id, reason)
			return err
		})

	case key.Matches(msg, keys.Delete):
		if !task.CanDelete {
			return m, nil
		}
		id := task.Task.ID
		return m, m.action(func(ctx context.Context) error {
			_, err := m.dash.Delete(ctx, id)
			return err
		})
	}

	return m, nil
}

// action runs a dashboard call outside the update loop, the dashboard renders
// through the sink and that would block the loop.
func (m Model) action(f func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := f(context.Background()); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m Model) withView(v dashboard.View) Model {
	m.view = v
	for i, f := range Filters {
		if f == v.Filter {
			m.filterIdx = i
		}
	}

	// Keep the selected task, or the same position when it's gone.
	found := false
	for i, t := range v.Tasks {
		if t.Task.ID == m.selectedID {
			m.cursor = i
			found = true
			break
		}
	}
	if !found {
		m.cursor = max(min(m.cursor, len(v.Tasks)-1), 0)
	}
	m.selectedID = ""
	if len(v.Tasks) > 0 {
		m.selectedID = v.Tasks[m.cursor].Task.ID
	}

	return m
}

func (m Model) moveCursor(delta int) Model {
	if len(m.view.Tasks) == 0 {
		return m
	}

	m.cursor = min(max(m.cursor+delta, 0), len(m.view.Tasks)-1)
	m.selectedID = m.view.Tasks[m.cursor].Task.ID
	return m
}

func (m Model) selected() (dashboard.TaskView, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Tasks) {
		return dashboard.TaskView{}, false
	}
	return m.view.Tasks[m.cursor], true
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.view.Ready {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			labelStyle.Render("Loading stage catalog..."),
			m.renderStatus(),
		)
	}

	sections := []string{m.renderHeader(), m.renderTasks()}
	if t, ok := m.selected(); ok {
		sections = append(sections, m.renderTask(t))
	}
	if m.showGlobal {
		sections = append(sections, panelStyle.Render(renderFeed("Live progress", m.view.GlobalFeed)))
	}
	sections = append(sections, m.renderStatus(), m.help.View(keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("deployboard")
	info := labelStyle.Render(fmt.Sprintf("step %d/3 %s • filter %s • %d tasks",
		int(m.view.Step), m.view.Step, m.view.Filter, m.view.TaskCount))
	selection := labelStyle.Render("stages: " + strings.Join(m.view.Selection, ", "))

	return lipgloss.JoinVertical(lipgloss.Left, title+"  "+info, selection) + "\n"
}

func (m Model) renderTasks() string {
	if len(m.view.Tasks) == 0 {
		return labelStyle.Render("No tasks.")
	}

	lines := make([]string, 0, len(m.view.Tasks))
	for i, t := range m.view.Tasks {
		line := fmt.Sprintf("%-14s %-10s %s", t.Label, plainStatus(string(t.Task.Status)), t.Headline)
		switch {
		case t.AbortPending:
			line += "  (aborting...)"
		case t.DeletePending:
			line += "  (deleting...)"
		case t.Task.AbortRequested && t.Task.Status == model.TaskStatusRunning:
			line += "  (abort requested)"
		}

		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderTask(t dashboard.TaskView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(t.Label), statusIndicator(string(t.Task.Status)))
	if t.Progress.Total > 0 {
		fmt.Fprintf(&b, "%s %d/%d\n", m.progress.ViewAs(float64(t.Progress.Percent)/100), t.Progress.Completed, t.Progress.Total)
	}
	if t.Headline != "" {
		fmt.Fprintln(&b, t.Headline)
	}
	if t.Task.Error != "" {
		fmt.Fprintln(&b, failedStyle.Render(t.Task.Error))
	}

	b.WriteString("\n")
	for _, r := range t.Stages {
		label := r.Label
		if r.Extra {
			label += "*"
		}
		fmt.Fprintf(&b, "%s  %-24s %-10s %s  %s  %s\n",
			catalog.FormatOrder(r.Order),
			label,
			plainStatus(string(r.Status)),
			printer.FormatClock(r.StartedAt),
			printer.FormatClock(r.EndedAt),
			printer.FormatDuration(r.Duration, r.Running),
		)
	}

	if t.Task.Summary != nil {
		fmt.Fprintf(&b, "\nwarnings %d • errors %d", t.Issues.Warnings, t.Issues.Errors)
		if len(t.UnreachableHosts) > 0 {
			fmt.Fprintf(&b, " • unreachable %s", strings.Join(t.UnreachableHosts, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderFeed("", t.Feed))

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderFeed(title string, f feed.Feed) string {
	lines := []string{}
	switch {
	case f.ShowHeader:
		lines = append(lines, titleStyle.Render(f.Title))
	case title != "":
		lines = append(lines, titleStyle.Render(title))
	}

	if f.Empty() {
		return strings.Join(append(lines, labelStyle.Render(f.EmptyText)), "\n")
	}

	for _, e := range f.Entries {
		parts := []string{e.At.UTC().Format("15:04:05")}
		if e.TaskLabel != "" {
			parts = append(parts, e.TaskLabel)
		}
		if e.Stage != nil {
			parts = append(parts, "["+e.Stage.Label+"]")
		}
		parts = append(parts, e.Message)
		lines = append(lines, levelStyle(e.Level).Render(strings.Join(parts, " ")))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	var parts []string
	if m.view.Hint.Message != "" {
		parts = append(parts, levelStyle(m.view.Hint.Level).Render(m.view.Hint.Message))
	}
	if m.notice != nil {
		parts = append(parts, levelStyle(m.notice.Level).Render(m.notice.Message))
	}
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, dashboard.ErrTaskRunning) {
			msg = "Running tasks can't be deleted, abort them first."
		}
		parts = append(parts, failedStyle.Render("Error: "+msg))
	}

	return strings.Join(parts, "\n")
}

func plainStatus(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
