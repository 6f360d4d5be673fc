package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/theme"
)

// CommandMsg is emitted when the user executes a command. The leading
// colon, if typed, is stripped and the name lower-cased.
type CommandMsg string

// Commands lists every palette command with a short description, in
// display order.
var Commands = []struct {
	Name string
	Desc string
}{
	{"board", "application board"},
	{"feed", "ranked job feed"},
	{"tasks", "follow-up tasks"},
	{"notifications", "inbox"},
	{"digest", "latest daily digest"},
	{"profile", "edit your profile"},
	{"prefs", "saved searches"},
	{"resumes", "resume library"},
	{"onboarding", "set up your search"},
	{"new", "track an application by hand"},
	{"refresh", "refetch everything"},
	{"signout", "forget this session"},
	{"help", "keyboard shortcuts"},
	{"quit", "exit vanta"},
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}

	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		cmd := Normalize(m.input.Value())
		m.input.Reset()
		if cmd != "" {
			return m, func() tea.Msg {
				return CommandMsg(cmd)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Normalize trims the input, drops a leading colon and lower-cases it.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ":")
	return strings.ToLower(strings.TrimSpace(s))
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Command Palette")
	input := m.input.View()

	var rows []string
	typed := Normalize(m.input.Value())
	for _, c := range Commands {
		if typed != "" && !strings.HasPrefix(c.Name, typed) {
			continue
		}
		rows = append(rows, lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(16).Render(c.Name)+
			theme.DimmedStyle.Render(c.Desc))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, "", strings.Join(rows, "\n"))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
