package searchprefs

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

type prefMode int

const (
	modeList prefMode = iota
	modeForm
	modeConfirmDelete
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	filters  string
	cron     string
	timezone string
	confirm  bool
}

func (fb *formBindings) reset() {
	*fb = formBindings{
		filters:  "{}",
		cron:     model.DefaultScheduleCron,
		timezone: model.DefaultTimezone,
	}
}

type prefsLoadedMsg struct {
	user  string
	prefs []model.SearchPref
	err   error
}

// mutatedMsg reports the result of a create, bump or delete.
type mutatedMsg struct {
	verb string
	name string
	err  error
}

// Model manages saved searches.
type Model struct {
	env         *ui.Env
	mode        prefMode
	prefs       []model.SearchPref
	selectedIdx int

	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings

	loaded    bool
	busy      bool
	err       error
	formErr   error
	statusMsg string

	width  int
	height int
}

// New creates a new saved search manager.
func New(env *ui.Env, width, height int) Model {
	fb := &formBindings{}
	fb.reset()
	return Model{
		env:    env,
		mode:   modeList,
		fb:     fb,
		width:  width,
		height: height,
	}
}

// Init loads the saved searches.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Capturing reports whether keystrokes belong to a form.
func (m Model) Capturing() bool {
	return m.mode != modeList
}

// Update handles messages for the saved search manager.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case prefsLoadedMsg:
		if msg.user != m.env.UserID() {
			return m, nil
		}
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.prefs = msg.prefs
			if m.selectedIdx >= len(m.prefs) {
				m.selectedIdx = max(0, len(m.prefs)-1)
			}
		}
		return m, nil

	case mutatedMsg:
		m.busy = false
		if msg.err != nil {
			if msg.verb == "created" {
				m.formErr = msg.err
				m.form = m.buildForm()
				return m, m.form.Init()
			}
			m.mode = modeList
			m.statusMsg = ""
			m.err = msg.err
			return m, nil
		}
		m.env.Logger.Info("saved search "+msg.verb, zap.String("name", msg.name))
		m.mode = modeList
		m.form = nil
		m.formErr = nil
		m.err = nil
		m.statusMsg = fmt.Sprintf("Saved search %q %s.", msg.name, msg.verb)
		m.env.Invalidate(query.SearchPrefs)
		return m, m.load()

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.handleListKeys(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.env.Keys
	switch {
	case key.Matches(msg, k.Back):
		return m, ui.Back
	case key.Matches(msg, k.Down):
		if m.selectedIdx < len(m.prefs)-1 {
			m.selectedIdx++
		}
	case key.Matches(msg, k.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
	case key.Matches(msg, k.Refresh):
		m.env.Invalidate(query.SearchPrefs)
		return m, m.load()
	case key.Matches(msg, k.New):
		m.fb.reset()
		m.formErr = nil
		m.statusMsg = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()
	case key.Matches(msg, k.Bump):
		if m.busy || m.selectedIdx >= len(m.prefs) {
			return m, nil
		}
		p := m.prefs[m.selectedIdx]
		if p.ScheduleCron == model.BumpedScheduleCron {
			m.statusMsg = fmt.Sprintf("%q already runs at 7:00 AM.", p.Name)
			return m, nil
		}
		m.busy = true
		return m, m.bump(p)
	case key.Matches(msg, k.Delete):
		if m.busy || m.selectedIdx >= len(m.prefs) {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Remote Go roles").
				Value(&m.fb.name),
			huh.NewText().
				Title("Filters").
				Description(`JSON object, e.g. {"location": "Remote"}`).
				Lines(4).
				Value(&m.fb.filters),
			huh.NewInput().
				Title("Schedule").
				Description("Cron expression").
				Value(&m.fb.cron),
			huh.NewInput().
				Title("Timezone").
				Value(&m.fb.timezone),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.prefs) {
		name = m.prefs[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete saved search %q?", name)).
				Description("Scheduled runs for this search stop immediately.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

// updateForm validates locally before anything is sent; invalid input
// reopens the form with the message and no request.
func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		in, err := model.NewSearchPrefInput(m.fb.name, m.fb.filters, m.fb.cron, m.fb.timezone)
		if err != nil {
			m.formErr = err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.busy = true
		return m, m.create(in)
	case huh.StateAborted:
		m.mode = modeList
		m.form = nil
		m.formErr = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil || m.busy {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		if m.fb.confirm && m.selectedIdx < len(m.prefs) {
			m.busy = true
			return m, m.remove(m.prefs[m.selectedIdx])
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the saved search manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		var b strings.Builder
		b.WriteString(theme.TitleStyle.Render("New saved search"))
		b.WriteString("\n")
		b.WriteString(m.form.View())
		if m.busy {
			b.WriteString("\n" + theme.DimmedStyle.Render("Saving..."))
		}
		if m.formErr != nil {
			b.WriteString("\n" + ui.ErrorText(m.formErr))
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	case modeConfirmDelete:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Saved searches"))
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(theme.DimmedStyle.Render("Loading..."))
	case len(m.prefs) == 0 && m.err == nil:
		b.WriteString(theme.HelpStyle.Render("No saved searches yet. Press 'n' to create one."))
	default:
		for i, p := range m.prefs {
			line := fmt.Sprintf("%s  %s", p.Name, theme.DimmedStyle.Render(scheduleLabel(p.ScheduleCron)+" "+p.Timezone))
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
		if m.selectedIdx < len(m.prefs) {
			b.WriteString("\n")
			b.WriteString(m.renderSelected(m.prefs[m.selectedIdx]))
		}
	}

	if m.err != nil {
		b.WriteString("\n" + ui.ErrorText(m.err))
	}
	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("n new | b bump to 7am | d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func (m Model) renderSelected(p model.SearchPref) string {
	lines := []string{
		theme.LabelStyle.Render("Schedule: ") + p.ScheduleCron + " (" + p.Timezone + ")",
	}
	if p.LastRunAt != nil {
		lines = append(lines, theme.LabelStyle.Render("Last run: ")+ui.RelativeTime(p.LastRunAt.Time))
	} else {
		lines = append(lines, theme.LabelStyle.Render("Last run: ")+theme.DimmedStyle.Render("never"))
	}
	lines = append(lines, theme.LabelStyle.Render("Filters:"), p.FiltersJSON())
	return theme.BorderStyle.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// scheduleLabel names the known daily schedules and falls back to the raw
// expression.
func scheduleLabel(cron string) string {
	for _, opt := range model.ScheduleOptions {
		if opt.Cron == cron {
			return opt.Label
		}
	}
	return cron
}

func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	user := opts.Identity
	return func() tea.Msg {
		prefs, err := query.Fetch(context.Background(), env.Cache, query.SearchPrefsKey(user),
			func(ctx context.Context) ([]model.SearchPref, error) {
				return env.Client.ListSearchPrefs(ctx, opts)
			},
		)
		return prefsLoadedMsg{user: user, prefs: prefs, err: err}
	}
}

func (m Model) create(in model.SearchPrefInput) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		_, err := env.Client.CreateSearchPref(context.Background(), in, opts)
		return mutatedMsg{verb: "created", name: in.Name, err: err}
	}
}

func (m Model) bump(p model.SearchPref) tea.Cmd {
	env := m.env
	opts := env.Options()
	cron := model.BumpedScheduleCron
	return func() tea.Msg {
		_, err := env.Client.UpdateSearchPref(context.Background(), p.ID,
			model.SearchPrefPatch{ScheduleCron: &cron}, opts)
		return mutatedMsg{verb: "moved to 7:00 AM", name: p.Name, err: err}
	}
}

func (m Model) remove(p model.SearchPref) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		err := env.Client.DeleteSearchPref(context.Background(), p.ID, opts)
		return mutatedMsg{verb: "deleted", name: p.Name, err: err}
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

