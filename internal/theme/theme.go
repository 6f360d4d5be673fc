package theme

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TitleStyle renders view titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// Inline feedback styles.
var (
	DimmedStyle  = lipgloss.NewStyle().Foreground(ColorGray)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	NoticeStyle  = lipgloss.NewStyle().Foreground(ColorYellow).Italic(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorWhite)
)

// Kanban styles.
var (
	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedColumnStyle = ColumnStyle.
				BorderForeground(ColorBlue)

	CardStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SelectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorBlue)

	HeldCardStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorYellow).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorYellow)
)

// UnreadDot marks unread notifications.
var UnreadDot = lipgloss.NewStyle().Foreground(ColorBlue).Render("●")

// StageStyle returns a color-coded style for a pipeline stage.
func StageStyle(stage model.Stage) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch stage {
	case model.StageProspect:
		return base.Foreground(ColorGray)
	case model.StageApplied:
		return base.Foreground(ColorBlue)
	case model.StageScreen, model.StageInterview:
		return base.Foreground(ColorYellow)
	case model.StageOffer:
		return base.Foreground(ColorMagenta)
	case model.StageAccepted:
		return base.Foreground(ColorGreen)
	case model.StageRejected:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for a task priority.
func PriorityStyle(p model.TaskPriority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityUrgent:
		return base.Foreground(ColorRed)
	case model.PriorityHigh:
		return base.Foreground(ColorOrange)
	case model.PriorityNormal:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// FitScoreStyle colors a 0..1 fit score.
func FitScoreStyle(score float64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch {
	case score >= 0.75:
		return base.Foreground(ColorGreen)
	case score >= 0.5:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// markdownStyle is the glamour style chosen by display.theme.
var markdownStyle = "auto"

// Use selects the markdown style: "dark", "light", "notty" or anything
// else for automatic detection.
func Use(name string) {
	switch name {
	case "dark", "light", "notty":
		markdownStyle = name
	default:
		markdownStyle = "auto"
	}
}

// RenderMarkdown renders md for the terminal at the given wrap width. The
// raw text is returned when rendering fails.
func RenderMarkdown(md string, width int) string {
	if width < 20 {
		width = 20
	}
	styleOpt := glamour.WithAutoStyle()
	if markdownStyle != "auto" {
		styleOpt = glamour.WithStandardStyle(markdownStyle)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
