// Package kanban is the application board: seven stage columns with
// keyboard drag and drop backed by the optimistic reconciler.
package kanban

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/board"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// OpenNotesMsg asks the root to show the notes of an application.
type OpenNotesMsg struct {
	App model.Application
}

// NewApplicationMsg asks the root to open the new application form.
type NewApplicationMsg struct{}

// appsLoadedMsg carries a fetched or stored application list.
type appsLoadedMsg struct {
	user     string
	apps     []model.Application
	snapshot bool
	err      error
}

// moveResultMsg reports the server's answer to one optimistic move.
type moveResultMsg struct {
	txnID uint64
	title string
	err   error
}

// Model is the kanban board view.
type Model struct {
	env *ui.Env
	rec *board.Reconciler

	col int
	row int

	// holding is set while a card is picked up. heldID names the card;
	// dropCol and dropRow are the slot it would land in.
	holding bool
	heldID  string
	dropCol int
	dropRow int

	loaded  bool
	stale   bool
	loading bool
	err     error

	width  int
	height int
}

// New creates an empty board view.
func New(env *ui.Env, width, height int) Model {
	return Model{
		env:    env,
		rec:    board.NewReconciler(nil),
		width:  width,
		height: height,
	}
}

// Init shows the offline snapshot and fetches the live board.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshot(), m.load())
}

// Reset drops all board state, e.g. after signing out.
func (m *Model) Reset() {
	m.rec = board.NewReconciler(nil)
	m.col, m.row = 0, 0
	m.holding = false
	m.loaded = false
	m.stale = false
	m.err = nil
}

// Refresh invalidates and refetches the applications list.
func (m *Model) Refresh() tea.Cmd {
	m.env.Invalidate(query.Applications)
	m.loading = true
	return m.load()
}

// ApplySync installs applications fetched by the background poller. The
// board is left alone while moves are in flight.
func (m *Model) ApplySync(user string, apps []model.Application) {
	if user != m.env.UserID() || m.rec.Pending() > 0 {
		return
	}
	m.env.Cache.Set(query.ApplicationsKey(user), apps)
	m.install(apps)
	m.loaded = true
	m.stale = false
}

// Pending returns the number of moves awaiting the server.
func (m Model) Pending() int {
	return m.rec.Pending()
}

// Holding reports whether a card is picked up.
func (m Model) Holding() bool {
	return m.holding
}

// Selected returns the card under the cursor.
func (m Model) Selected() (model.Application, bool) {
	return m.rec.Board().At(board.Position{Stage: m.stage(m.col), Index: m.row})
}

// Update handles messages for the board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsLoadedMsg:
		if msg.user != m.env.UserID() {
			return m, nil
		}
		if msg.snapshot {
			if m.loaded || msg.err != nil || len(msg.apps) == 0 {
				return m, nil
			}
			m.install(msg.apps)
			m.stale = true
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.install(msg.apps)
		m.loaded = true
		m.stale = false
		return m, nil

	case moveResultMsg:
		return m.handleMoveResult(msg)

	case ui.ApplicationsChangedMsg:
		return m, m.Refresh()

	case tea.KeyMsg:
		if m.holding {
			return m.handleHoldingKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.env.Keys
	switch {
	case key.Matches(msg, k.Left):
		if m.col > 0 {
			m.col--
			m.clampRow()
		}
	case key.Matches(msg, k.Right):
		if m.col < len(model.Stages())-1 {
			m.col++
			m.clampRow()
		}
	case key.Matches(msg, k.Down):
		if m.row < m.columnLen(m.col)-1 {
			m.row++
		}
	case key.Matches(msg, k.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, k.Pick):
		app, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.holding = true
		m.heldID = app.ID
		m.dropCol = m.col
		m.dropRow = m.row
	case key.Matches(msg, k.Select):
		if app, ok := m.Selected(); ok {
			return m, func() tea.Msg { return OpenNotesMsg{App: app} }
		}
	case key.Matches(msg, k.New):
		return m, func() tea.Msg { return NewApplicationMsg{} }
	case key.Matches(msg, k.Refresh):
		return m, m.Refresh()
	}
	return m, nil
}

func (m Model) handleHoldingKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.env.Keys
	switch {
	case key.Matches(msg, k.Back):
		m.holding = false
	case key.Matches(msg, k.Left):
		if m.dropCol > 0 {
			m.dropCol--
			m.dropRow = min(m.dropRow, m.maxDropRow())
		}
	case key.Matches(msg, k.Right):
		if m.dropCol < len(model.Stages())-1 {
			m.dropCol++
			m.dropRow = min(m.dropRow, m.maxDropRow())
		}
	case key.Matches(msg, k.Down):
		if m.dropRow < m.maxDropRow() {
			m.dropRow++
		}
	case key.Matches(msg, k.Up):
		if m.dropRow > 0 {
			m.dropRow--
		}
	case key.Matches(msg, k.Pick), key.Matches(msg, k.Select):
		return m.drop()
	}
	return m, nil
}

// maxDropRow is the last slot of the drop column. A card can land after
// the last card of another column, but not past its own.
func (m Model) maxDropRow() int {
	n := m.columnLen(m.dropCol)
	if from, ok := m.rec.Board().Find(m.heldID); ok && from.Stage == m.stage(m.dropCol) {
		return max(n-1, 0)
	}
	return n
}

// drop applies the held move optimistically and sends the stage update.
func (m Model) drop() (Model, tea.Cmd) {
	m.holding = false
	from, ok := m.rec.Board().Find(m.heldID)
	if !ok {
		return m, nil
	}
	mv := board.Move{
		From: from,
		To:   board.Position{Stage: m.stage(m.dropCol), Index: m.dropRow},
	}
	txn, err := m.rec.Begin(mv)
	if err != nil {
		m.env.Logger.Warn("rejected board move", zap.Error(err))
		return m, nil
	}
	if txn == nil {
		return m, nil
	}

	m.col = m.dropCol
	if pos, ok := m.rec.Board().Find(txn.App.ID); ok {
		m.row = pos.Index
	}

	env := m.env
	opts := env.Options()
	id, appID, stage, title := txn.ID, txn.App.ID, txn.App.Stage, txn.App.Title
	return m, func() tea.Msg {
		_, err := env.Client.UpdateApplicationStage(context.Background(), appID, stage, opts)
		return moveResultMsg{txnID: id, title: title, err: err}
	}
}

func (m Model) handleMoveResult(msg moveResultMsg) (Model, tea.Cmd) {
	if msg.err == nil {
		m.rec.Commit(msg.txnID)
		return m, m.Refresh()
	}

	outcome := m.rec.Revert(msg.txnID)
	m.env.Logger.Info("board move failed",
		zap.Uint64("txn", msg.txnID),
		zap.Stringer("outcome", outcome),
		zap.Error(msg.err),
	)
	m.clampRow()
	text := fmt.Sprintf("Could not move %q: %s", msg.title, api.UserMessage(msg.err))
	return m, ui.Flash(text, true)
}

func (m *Model) install(apps []model.Application) {
	for _, app := range apps {
		if !app.Stage.Valid() {
			m.env.Logger.Warn("dropping application with unknown stage",
				zap.String("id", app.ID), zap.String("stage", string(app.Stage)))
		}
	}
	m.rec.Replace(apps)
	if m.holding {
		if _, ok := m.rec.Board().Find(m.heldID); !ok {
			m.holding = false
		}
	}
	m.clampRow()
}

func (m *Model) clampRow() {
	n := m.columnLen(m.col)
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) stage(col int) model.Stage {
	stages := model.Stages()
	if col < 0 || col >= len(stages) {
		return ""
	}
	return stages[col]
}

func (m Model) columnLen(col int) int {
	return len(m.rec.Board()[m.stage(col)])
}

// View renders the board.
func (m Model) View() string {
	if m.err != nil && !m.loaded && m.rec.Board().Len() == 0 {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			ui.ErrorText(m.err) + "\n\n" + theme.HelpStyle.Render("r retry"),
		)
	}

	stages := model.Stages()
	colWidth := max(m.width/len(stages)-2, 12)
	cardsShown := max((m.height-6)/2, 1)

	cols := make([]string, len(stages))
	for i, st := range stages {
		cols[i] = m.renderColumn(i, st, colWidth, cardsShown)
	}
	content := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	var status []string
	if m.stale {
		status = append(status, theme.NoticeStyle.Render("offline snapshot, refreshing..."))
	} else if m.loading && !m.loaded {
		status = append(status, theme.DimmedStyle.Render("Loading applications..."))
	}
	if n := m.rec.Pending(); n > 0 {
		status = append(status, theme.DimmedStyle.Render(fmt.Sprintf("%d move(s) saving", n)))
	}
	if m.err != nil && m.loaded {
		status = append(status, ui.ErrorText(m.err))
	}
	if m.loaded && m.rec.Board().Len() == 0 {
		status = append(status, theme.HelpStyle.Render("No applications yet. Track jobs from the feed or press 'n'."))
	}
	if len(status) > 0 {
		content = lipgloss.JoinVertical(lipgloss.Left, content, strings.Join(status, "  "))
	}
	return content
}

func (m Model) renderColumn(col int, st model.Stage, width, shown int) string {
	apps := m.rec.Board()[st]
	focused := col == m.col && !m.holding
	dropping := m.holding && col == m.dropCol

	header := theme.StageStyle(st).Render(fmt.Sprintf("%s (%d)", st.Label(), len(apps)))

	lines := []string{header}
	offset := 0
	if col == m.col && m.row >= shown {
		offset = m.row - shown + 1
	}
	end := min(len(apps), offset+shown)
	for i := offset; i < end; i++ {
		if dropping && i == m.dropRow {
			lines = append(lines, dropSlot(width))
		}
		lines = append(lines, m.renderCard(apps[i], focused && i == m.row, width)...)
	}
	if dropping && m.dropRow >= end {
		lines = append(lines, dropSlot(width))
	}
	if len(apps) > end {
		lines = append(lines, theme.DimmedStyle.Render(fmt.Sprintf("+%d more", len(apps)-end)))
	}

	style := theme.ColumnStyle
	if focused || dropping {
		style = theme.FocusedColumnStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderCard(app model.Application, selected bool, width int) []string {
	title := app.Title
	if m.rec.IsPending(app.ID) {
		title = "⟳ " + title
	}
	title = ui.Truncate(title, width)
	company := theme.DimmedStyle.Render(ui.Truncate(app.Company, width))

	switch {
	case m.holding && app.ID == m.heldID:
		return []string{theme.HeldCardStyle.Render(ui.Truncate(title, width-1)), company}
	case selected:
		return []string{theme.SelectedCardStyle.Render(title), company}
	default:
		return []string{theme.CardStyle.Render(title), company}
	}
}

func dropSlot(width int) string {
	return theme.NoticeStyle.Render(ui.Truncate("▸ drop here", width))
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	user := opts.Identity
	return func() tea.Msg {
		ctx := context.Background()
		apps, err := query.Fetch(ctx, env.Cache, query.ApplicationsKey(user),
			func(ctx context.Context) ([]model.Application, error) {
				return env.Client.ListApplications(ctx, opts)
			},
		)
		if err == nil && env.Store != nil {
			if serr := env.Store.ReplaceApplications(ctx, user, apps); serr != nil {
				env.Logger.Warn("saving board snapshot", zap.Error(serr))
			}
		}
		return appsLoadedMsg{user: user, apps: apps, err: err}
	}
}

func (m Model) loadSnapshot() tea.Cmd {
	env := m.env
	user := env.UserID()
	if env.Store == nil || user == "" {
		return nil
	}
	return func() tea.Msg {
		apps, err := env.Store.GetApplications(context.Background(), user)
		return appsLoadedMsg{user: user, apps: apps, snapshot: true, err: err}
	}
}
