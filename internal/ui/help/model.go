package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/keys"
	"github.com/nhle/vanta/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	baseURL string
	width   int
	height  int
}

// New creates a new help view model. baseURL is shown so the user can
// tell which server the client talks to.
func New(keys *keys.KeyMap, baseURL string, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:    keys,
		help:    h,
		baseURL: baseURL,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")
	helpText := m.help.View(m.keys)

	parts := []string{title, helpText}
	if m.baseURL != "" {
		parts = append(parts, "", theme.DimmedStyle.Render("Server: "+m.baseURL))
	}
	parts = append(parts, theme.HelpStyle.Render("Keys that edit text go to the form while one is open. Press esc to leave it."))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
