package tasks

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct {
	// pending holds task ids with an action in flight. Shared by reference
	// with the Model so updates are visible.
	pending map[string]bool
	now     func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderTask(ti.Task, index == m.Index()))
}

func (d ItemDelegate) renderTask(t model.Task, isSelected bool) string {
	prefix := "○"
	if t.Done() {
		prefix = "✓"
	}

	pri := t.Priority
	if pri == "" {
		pri = model.PriorityNormal
	}
	priBadge := theme.PriorityStyle(pri).Render(priorityLabel(pri))

	title := t.Title
	if t.ApplicationTitle != "" {
		title += theme.DimmedStyle.Render(" · " + t.ApplicationTitle)
	}

	due := ""
	if t.DueAt != nil {
		due = lipgloss.NewStyle().Foreground(theme.ColorOrange).Render(" " + t.DueAt.Format("Jan 02"))
		if !t.Done() && t.DueAt.Before(d.now()) {
			due += theme.ErrorStyle.Render(" OVERDUE")
		}
	}

	busy := ""
	if d.pending[t.ID] {
		busy = theme.NoticeStyle.Render(" ⟳")
	}

	line := fmt.Sprintf("%s %s %s%s%s", prefix, priBadge, title, due, busy)
	if t.Done() {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// priorityLabel returns a short text label for a priority.
func priorityLabel(p model.TaskPriority) string {
	switch p {
	case model.PriorityUrgent:
		return "!!!"
	case model.PriorityHigh:
		return "!! "
	case model.PriorityNormal:
		return "!  "
	default:
		return "   "
	}
}
