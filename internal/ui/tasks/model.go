package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// tasksLoadedMsg is sent when the task list has been fetched.
type tasksLoadedMsg struct {
	user  string
	tasks []model.Task
	err   error
}

// actionResultMsg reports the outcome of a task action.
type actionResultMsg struct {
	taskID string
	action model.TaskAction
	err    error
}

// Model is the follow-up task view. Open tasks are listed before
// completed ones.
type Model struct {
	env     *ui.Env
	list    list.Model
	pending map[string]bool

	loaded  bool
	loading bool
	err     error
	open    int
	done    int

	width  int
	height int
}

// New creates a new task view model.
func New(env *ui.Env, width, height int) Model {
	pending := make(map[string]bool)
	delegate := ItemDelegate{pending: pending, now: time.Now}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		env:     env,
		list:    l,
		pending: pending,
		width:   width,
		height:  height,
	}
}

// Init loads the task list.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Capturing reports whether the view is consuming text input.
func (m Model) Capturing() bool { return false }

// Update handles messages for the task view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.user != m.env.UserID() {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.loaded = true
		return m, m.setTasks(msg.tasks)

	case actionResultMsg:
		delete(m.pending, msg.taskID)
		if msg.err != nil {
			m.env.Logger.Warn("task action failed",
				zap.String("task_id", msg.taskID),
				zap.String("action", string(msg.action)),
				zap.Error(msg.err),
			)
			return m, ui.Flash(fmt.Sprintf("Could not %s task: %s", msg.action, api.UserMessage(msg.err)), true)
		}
		m.env.Invalidate(query.Tasks)
		m.env.Invalidate(query.Applications)
		return m, tea.Batch(m.load(), ui.ApplicationsChanged)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.env.Keys.Back):
			return m, ui.Back
		case key.Matches(msg, m.env.Keys.Refresh):
			m.env.Invalidate(query.Tasks)
			return m, m.load()
		case key.Matches(msg, m.env.Keys.Complete):
			return m.act(model.TaskComplete)
		case key.Matches(msg, m.env.Keys.Defer):
			return m.act(model.TaskDefer)
		case key.Matches(msg, m.env.Keys.Undo):
			return m.act(model.TaskUndo)
		}
	}

	// Delegate to the list for navigation keys
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// act applies action to the selected task. Completing a done task or
// reopening an open one is a no-op.
func (m Model) act(action model.TaskAction) (Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok || m.pending[item.Task.ID] {
		return m, nil
	}
	t := item.Task
	switch action {
	case model.TaskComplete, model.TaskDefer:
		if t.Done() {
			return m, nil
		}
	case model.TaskUndo:
		if !t.Done() {
			return m, nil
		}
	}

	m.pending[t.ID] = true
	env := m.env
	opts := env.Options()
	return m, func() tea.Msg {
		_, err := env.Client.ActOnTask(context.Background(), t.ID, action, opts)
		return actionResultMsg{taskID: t.ID, action: action, err: err}
	}
}

func (m *Model) setTasks(tasks []model.Task) tea.Cmd {
	open, done := model.SplitTasks(tasks)
	m.open, m.done = len(open), len(done)
	items := make([]list.Item, 0, len(tasks))
	for _, t := range open {
		items = append(items, TaskItem{Task: t})
	}
	for _, t := range done {
		items = append(items, TaskItem{Task: t})
	}
	m.list.Title = fmt.Sprintf("Tasks · %d open · %d done", m.open, m.done)
	return m.list.SetItems(items)
}

// View renders the task view.
func (m Model) View() string {
	if m.err != nil && !m.loaded {
		return m.centered(ui.ErrorText(m.err) + "\n\n" + theme.HelpStyle.Render("Press r to retry."))
	}
	if !m.loaded {
		return m.centered("Loading tasks...")
	}
	if len(m.list.Items()) == 0 {
		return m.centered("No follow-up tasks. Nice work.")
	}
	view := m.list.View()
	if m.err != nil {
		view = lipgloss.JoinVertical(lipgloss.Left, ui.ErrorText(m.err), view)
	}
	return view
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	user := opts.Identity
	return func() tea.Msg {
		tasks, err := query.Fetch(context.Background(), env.Cache, query.TasksKey(user),
			func(ctx context.Context) ([]model.Task, error) {
				return env.Client.ListTasks(ctx, opts)
			},
		)
		return tasksLoadedMsg{user: user, tasks: tasks, err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
