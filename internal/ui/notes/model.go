package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// maxTasksShown is how many application tasks the header lists.
const maxTasksShown = 3

// notesLoadedMsg carries the notes of one application.
type notesLoadedMsg struct {
	appID string
	notes []model.Note
	err   error
}

// noteAddedMsg reports the result of posting a note.
type noteAddedMsg struct {
	appID string
	err   error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	body       string
	attachment string
}

// Model is the application notes view.
type Model struct {
	env      *ui.Env
	app      *model.Application
	notes    []model.Note
	viewport viewport.Model

	form      *huh.Form
	fb        *formBindings
	formErr   error
	saving    bool
	loading   bool
	loadErr   error
	statusMsg string

	width  int
	height int
}

// New creates a new notes view model.
func New(env *ui.Env, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		env:      env,
		viewport: vp,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Open switches the view to app and loads its notes.
func (m *Model) Open(app model.Application) tea.Cmd {
	m.app = &app
	m.notes = nil
	m.form = nil
	m.formErr = nil
	m.loadErr = nil
	m.statusMsg = ""
	m.loading = true
	m.refreshContent()
	m.viewport.GotoTop()
	return m.load()
}

// Capturing reports whether keystrokes belong to the note form.
func (m Model) Capturing() bool {
	return m.form != nil
}

// Update handles messages for the notes view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notesLoadedMsg:
		if m.app == nil || msg.appID != m.app.ID {
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.err
		if msg.err == nil {
			m.notes = msg.notes
		}
		m.refreshContent()
		return m, nil

	case noteAddedMsg:
		m.saving = false
		if msg.err != nil {
			m.formErr = msg.err
			return m, nil
		}
		m.form = nil
		m.fb.body = ""
		m.fb.attachment = ""
		m.formErr = nil
		m.statusMsg = "Note added."
		m.env.Cache.Invalidate(query.ApplicationNotes, msg.appID)
		m.env.Invalidate(query.Applications)
		return m, tea.Batch(m.load(), ui.ApplicationsChanged)

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		switch {
		case key.Matches(msg, m.env.Keys.Back):
			return m, ui.Back
		case key.Matches(msg, m.env.Keys.AddNote):
			if m.app == nil {
				return m, nil
			}
			m.formErr = nil
			m.statusMsg = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		case key.Matches(msg, m.env.Keys.Refresh):
			if m.app != nil {
				m.env.Cache.Invalidate(query.ApplicationNotes, m.app.ID)
				m.loading = true
				return m, m.load()
			}
		}
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		in := model.NoteInput{Body: m.fb.body}
		if path := strings.TrimSpace(m.fb.attachment); path != "" {
			in.Attachment = &model.FileRef{Path: path}
		}
		if _, err := in.Normalize(); err != nil {
			m.formErr = err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.saving = true
		return m, m.addNote(in)
	case huh.StateAborted:
		m.form = nil
		m.formErr = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Note").
				Placeholder("What happened?").
				Value(&m.fb.body),
			huh.NewInput().
				Title("Attachment").
				Placeholder("path/to/file.pdf (optional)").
				Value(&m.fb.attachment),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height) / 2)
}

// View renders the notes view.
func (m Model) View() string {
	if m.app == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No application selected")
	}

	if m.form == nil {
		return m.viewport.View()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(theme.TitleStyle.Render("Add note"))
	b.WriteString("\n")
	b.WriteString(m.form.View())
	if m.saving {
		b.WriteString("\n" + theme.DimmedStyle.Render("Saving..."))
	}
	if m.formErr != nil {
		b.WriteString("\n" + ui.ErrorText(m.formErr))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (m *Model) refreshContent() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full notes content string for the viewport.
func (m Model) renderContent() string {
	if m.app == nil {
		return ""
	}

	sections := []string{m.renderHeader(), ""}
	sections = append(sections, theme.TitleStyle.Render("Notes"))

	switch {
	case m.loading && m.notes == nil:
		sections = append(sections, theme.DimmedStyle.Render("Loading notes..."))
	case m.loadErr != nil:
		sections = append(sections, ui.ErrorText(m.loadErr))
	case len(m.notes) == 0:
		sections = append(sections, theme.HelpStyle.Render("No notes yet. Press 'a' to add one."))
	default:
		for _, n := range m.notes {
			sections = append(sections, renderNote(n), "")
		}
	}

	if m.statusMsg != "" {
		sections = append(sections, theme.SuccessStyle.Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(0, 2).Width(m.width).Render(
		strings.Join(sections, "\n"),
	)
}

func (m Model) renderHeader() string {
	app := m.app
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	lines := []string{titleStyle.Render(app.Title)}

	meta := []string{theme.StageStyle(app.Stage).Render(app.Stage.Label())}
	if app.Company != "" {
		meta = append(meta, theme.ValueStyle.Render(app.Company))
	}
	lines = append(lines, strings.Join(meta, "  "))

	if app.URL != "" {
		lines = append(lines, fmt.Sprintf("%s %s", theme.LabelStyle.Render("Link:"), app.URL))
	}

	if len(app.Tasks) > 0 {
		lines = append(lines, theme.LabelStyle.Render("Tasks:"))
		for i, t := range app.Tasks {
			if i == maxTasksShown {
				lines = append(lines, theme.DimmedStyle.Render(
					fmt.Sprintf("  +%d more", len(app.Tasks)-maxTasksShown),
				))
				break
			}
			line := "  • " + t.Title
			if t.DueAt != nil {
				line += theme.DimmedStyle.Render(" (due " + t.DueAt.Format("Jan 02") + ")")
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderNote(n model.Note) string {
	body := n.Body
	if body == "" {
		body = theme.DimmedStyle.Render("Attachment")
	}
	lines := []string{body}

	meta := ui.RelativeTime(n.CreatedAt.Time)
	if n.HasAttachment() {
		name := n.AttachmentName
		if name == "" {
			name = "attachment"
		}
		meta += "  " + lipgloss.NewStyle().Foreground(theme.ColorBlue).Render(name+" "+n.AttachmentURL)
	}
	lines = append(lines, theme.DimmedStyle.Render(meta))
	return theme.BorderStyle.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetSize updates the notes view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refreshContent()
}

func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	appID := m.app.ID
	return func() tea.Msg {
		notes, err := query.Fetch(context.Background(), env.Cache, query.NotesKey(appID, opts.Identity),
			func(ctx context.Context) ([]model.Note, error) {
				return env.Client.ListNotes(ctx, appID, opts)
			},
		)
		return notesLoadedMsg{appID: appID, notes: notes, err: err}
	}
}

func (m Model) addNote(in model.NoteInput) tea.Cmd {
	env := m.env
	opts := env.Options()
	appID := m.app.ID
	return func() tea.Msg {
		_, err := env.Client.AddNote(context.Background(), appID, in, opts)
		return noteAddedMsg{appID: appID, err: err}
	}
}
