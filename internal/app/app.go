package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	appsync "github.com/nhle/vanta/internal/sync"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
	"github.com/nhle/vanta/internal/ui/appform"
	"github.com/nhle/vanta/internal/ui/command"
	"github.com/nhle/vanta/internal/ui/digest"
	"github.com/nhle/vanta/internal/ui/feed"
	helpview "github.com/nhle/vanta/internal/ui/help"
	"github.com/nhle/vanta/internal/ui/kanban"
	"github.com/nhle/vanta/internal/ui/notes"
	"github.com/nhle/vanta/internal/ui/notifications"
	"github.com/nhle/vanta/internal/ui/profile"
	"github.com/nhle/vanta/internal/ui/resumes"
	"github.com/nhle/vanta/internal/ui/searchprefs"
	"github.com/nhle/vanta/internal/ui/signin"
	"github.com/nhle/vanta/internal/ui/tasks"
	"github.com/nhle/vanta/internal/ui/wizard"
)

// flashDuration is how long a status bar message stays visible.
const flashDuration = 4 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewSignIn ViewState = iota
	ViewBoard
	ViewFeed
	ViewTasks
	ViewNotifications
	ViewDigest
	ViewProfile
	ViewSearchPrefs
	ViewResumes
	ViewOnboarding
	ViewNotes
	ViewNewApplication
	ViewHelp
	ViewCommand
)

// tabNames label the views reachable with the number keys, in key order
// starting at ViewBoard.
var tabNames = []string{
	"Board", "Feed", "Tasks", "Inbox", "Digest",
	"Profile", "Searches", "Resumes", "Onboarding",
}

// dataViews receive background results even when they are not on screen.
var dataViews = []ViewState{
	ViewBoard, ViewFeed, ViewTasks, ViewNotifications, ViewDigest,
	ViewProfile, ViewSearchPrefs, ViewResumes, ViewOnboarding,
	ViewNotes, ViewNewApplication,
}

// flashClearMsg hides the flash message unless a newer one replaced it.
type flashClearMsg struct {
	seq int
}

// purgedMsg reports the end of the offline snapshot purge at sign-out.
type purgedMsg struct {
	err error
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the background poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	env          *ui.Env
	poller       *appsync.Poller
	baseURL      string

	signIn        signin.Model
	board         kanban.Model
	notes         notes.Model
	appForm       appform.Model
	feed          feed.Model
	tasks         tasks.Model
	notifications notifications.Model
	digest        digest.Model
	profile       profile.Model
	searchPrefs   searchprefs.Model
	resumes       resumes.Model
	onboarding    wizard.Model
	helpView      helpview.Model
	commandView   command.Model

	// visited records views whose Init has run for the current session.
	visited map[ViewState]bool

	// startCmd is the first command of the initial view.
	startCmd tea.Cmd

	ready            bool
	unreadCount      int
	authErrorMessage string

	flash      string
	flashIsErr bool
	flashSeq   int
}

// New creates the root model. The poller is started by Init and stopped
// when the program quits.
func New(env *ui.Env, p *appsync.Poller) Model {
	m := Model{
		env:     env,
		poller:  p,
		baseURL: env.Client.BaseURL(),
	}
	m.resetViews(80, 24)
	if env.Session.SignedIn() {
		m.currentView = ViewBoard
		m.visited[ViewBoard] = true
		m.startCmd = m.board.Init()
	} else {
		m.currentView = ViewSignIn
		m.startCmd = m.signIn.Start("")
	}
	m.previousView = m.currentView
	return m
}

// resetViews rebuilds every per-user view so nothing from a previous
// session survives.
func (m *Model) resetViews(width, height int) {
	env := m.env
	m.signIn = signin.New(env, width, height)
	m.board = kanban.New(env, width, height)
	m.notes = notes.New(env, width, height)
	m.appForm = appform.New(env, width, height)
	m.feed = feed.New(env, width, height)
	m.tasks = tasks.New(env, width, height)
	m.notifications = notifications.New(env, width, height)
	m.digest = digest.New(env, width, height)
	m.profile = profile.New(env, width, height)
	m.searchPrefs = searchprefs.New(env, width, height)
	m.resumes = resumes.New(env, width, height)
	m.onboarding = wizard.New(env, width, height)
	m.helpView = helpview.New(env.Keys, m.baseURL, width, height)
	m.commandView = command.New(width, height)
	m.visited = make(map[ViewState]bool)
}

// Init starts the poller and either the board or the sign-in form.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poller.Start(), m.startCmd)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.setSizes(m.layout.ContentWidth(), m.layout.ContentHeight())
		// Forward to active view so huh forms can calculate their layout.
		return m.updateView(m.currentView, msg)

	case signin.SignedInMsg:
		m.env.Logger.Info("session started", zap.String("user_id", msg.Session.UserID))
		m.authErrorMessage = ""
		m.currentView = ViewBoard
		m.previousView = ViewBoard
		m.visited[ViewBoard] = true
		m.poller.RefreshAll()
		return m, tea.Batch(
			m.board.Init(),
			ui.Flash("Signed in as "+msg.Session.Email, false),
		)

	case appsync.SyncResultMsg:
		return m.handleSync(msg)

	case ui.UnreadCountMsg:
		m.unreadCount = msg.Count
		return m, nil

	case ui.FlashMsg:
		m.flashSeq++
		m.flash = msg.Text
		m.flashIsErr = msg.Error
		seq := m.flashSeq
		return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
			return flashClearMsg{seq: seq}
		})

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case purgedMsg:
		if msg.err != nil {
			m.env.Logger.Warn("purging offline snapshot failed", zap.Error(msg.err))
		}
		return m, nil

	case ui.BackMsg:
		return m.switchTo(ViewBoard)

	case kanban.OpenNotesMsg:
		m.previousView = m.currentView
		m.currentView = ViewNotes
		return m, m.notes.Open(msg.App)

	case kanban.NewApplicationMsg:
		m.previousView = m.currentView
		m.currentView = ViewNewApplication
		return m, m.appForm.Start()

	case command.CommandMsg:
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
		}
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.broadcast(msg)
}

// handleSync applies a background poll result and keeps listening.
func (m Model) handleSync(msg appsync.SyncResultMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.poller.WaitForNextResult()}
	if msg.UserID != m.env.UserID() {
		return m, tea.Batch(cmds...)
	}

	if msg.AuthError != nil {
		m.authErrorMessage = msg.AuthError.Message
	} else if msg.Error == nil {
		m.authErrorMessage = ""
	}
	if msg.Error != nil {
		return m, tea.Batch(cmds...)
	}

	switch msg.Resource {
	case appsync.ResourceApplications:
		m.board.ApplySync(msg.UserID, msg.Applications)
	case appsync.ResourceNotifications:
		m.notifications.ApplySync(msg.UserID, msg.Notifications)
		m.unreadCount = msg.Unread
		if n := len(msg.NewNotifications); n > 0 {
			text := fmt.Sprintf("%d new notifications", n)
			if n == 1 {
				text = "New: " + msg.NewNotifications[0].Title()
			}
			cmds = append(cmds, ui.Flash(text, false))
		}
	}
	return m, tea.Batch(cmds...)
}

// handleKey processes global keys unless the active view is editing text.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.env.Keys

	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return m, tea.Quit
	}

	switch m.currentView {
	case ViewCommand:
		if msg.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateView(m.currentView, msg)
	case ViewHelp:
		if key.Matches(msg, k.Help) || key.Matches(msg, k.Back) || key.Matches(msg, k.Quit) {
			m.currentView = m.previousView
		}
		return m, nil
	}

	if m.capturing(m.currentView) || m.currentView == ViewSignIn {
		return m.updateView(m.currentView, msg)
	}

	switch {
	case key.Matches(msg, k.Quit):
		m.poller.Stop()
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, k.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus()

	case key.Matches(msg, k.SignOut):
		return m.signOut("Signed out.")

	case key.Matches(msg, k.GoBoard):
		return m.switchTo(ViewBoard)
	case key.Matches(msg, k.GoFeed):
		return m.switchTo(ViewFeed)
	case key.Matches(msg, k.GoTasks):
		return m.switchTo(ViewTasks)
	case key.Matches(msg, k.GoNotifications):
		return m.switchTo(ViewNotifications)
	case key.Matches(msg, k.GoDigest):
		return m.switchTo(ViewDigest)
	case key.Matches(msg, k.GoProfile):
		return m.switchTo(ViewProfile)
	case key.Matches(msg, k.GoSearchPrefs):
		return m.switchTo(ViewSearchPrefs)
	case key.Matches(msg, k.GoResumes):
		return m.switchTo(ViewResumes)
	case key.Matches(msg, k.GoOnboarding):
		return m.switchTo(ViewOnboarding)
	}

	return m.updateView(m.currentView, msg)
}

// switchTo makes v the active view and refreshes it. Cached reads make
// revisits cheap; the wizard keeps its progress after the first visit.
func (m Model) switchTo(v ViewState) (tea.Model, tea.Cmd) {
	if !m.env.Session.SignedIn() {
		m.currentView = ViewSignIn
		return m, m.signIn.Start("Sign in to continue.")
	}
	m.previousView = m.currentView
	m.currentView = v

	first := !m.visited[v]
	m.visited[v] = true
	switch v {
	case ViewBoard:
		if first {
			return m, m.board.Init()
		}
		return m, nil
	case ViewFeed:
		return m, m.feed.Init()
	case ViewTasks:
		return m, m.tasks.Init()
	case ViewNotifications:
		return m, m.notifications.Init()
	case ViewDigest:
		return m, m.digest.Init()
	case ViewProfile:
		return m, m.profile.Init()
	case ViewSearchPrefs:
		return m, m.searchPrefs.Init()
	case ViewResumes:
		return m, m.resumes.Init()
	case ViewOnboarding:
		if first {
			return m, m.onboarding.Init()
		}
	}
	return m, nil
}

// signOut forgets the session and every per-user cache, then shows the
// sign-in form.
func (m Model) signOut(notice string) (tea.Model, tea.Cmd) {
	user := m.env.UserID()
	if err := m.env.Session.SignOut(); err != nil {
		m.env.Logger.Warn("sign out failed", zap.Error(err))
	}
	m.env.Cache.Clear()

	m.resetViews(m.layout.ContentWidth(), m.layout.ContentHeight())
	m.unreadCount = 0
	m.authErrorMessage = ""
	m.currentView = ViewSignIn
	m.previousView = ViewSignIn

	s := m.env.Store
	purge := func() tea.Msg {
		if user == "" {
			return purgedMsg{}
		}
		return purgedMsg{err: s.Purge(context.Background(), user)}
	}
	return m, tea.Batch(purge, m.signIn.Start(notice))
}

// broadcast delivers a non-key message to the active view and to every
// data view without an open form, so results of requests started before
// a view switch still land. Forms only see messages while on screen.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	next, cmd := m.updateView(m.currentView, msg)
	m = next.(Model)
	cmds = append(cmds, cmd)

	for _, v := range dataViews {
		if v == m.currentView || m.capturing(v) {
			continue
		}
		next, cmd := m.updateView(v, msg)
		m = next.(Model)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// capturing reports whether view v is editing text and must receive raw
// keys.
func (m Model) capturing(v ViewState) bool {
	switch v {
	case ViewSignIn, ViewNewApplication, ViewCommand:
		return true
	case ViewNotes:
		return m.notes.Capturing()
	case ViewFeed:
		return m.feed.Capturing()
	case ViewProfile:
		return m.profile.Capturing()
	case ViewSearchPrefs:
		return m.searchPrefs.Capturing()
	case ViewOnboarding:
		return m.onboarding.Capturing()
	}
	return false
}

// updateView dispatches the message to one view.
func (m Model) updateView(v ViewState, msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch v {
	case ViewSignIn:
		m.signIn, cmd = m.signIn.Update(msg)
	case ViewBoard:
		m.board, cmd = m.board.Update(msg)
	case ViewNotes:
		m.notes, cmd = m.notes.Update(msg)
	case ViewNewApplication:
		m.appForm, cmd = m.appForm.Update(msg)
	case ViewFeed:
		m.feed, cmd = m.feed.Update(msg)
	case ViewTasks:
		m.tasks, cmd = m.tasks.Update(msg)
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewDigest:
		m.digest, cmd = m.digest.Update(msg)
	case ViewProfile:
		m.profile, cmd = m.profile.Update(msg)
	case ViewSearchPrefs:
		m.searchPrefs, cmd = m.searchPrefs.Update(msg)
	case ViewResumes:
		m.resumes, cmd = m.resumes.Update(msg)
	case ViewOnboarding:
		m.onboarding, cmd = m.onboarding.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

func (m *Model) setSizes(width, height int) {
	m.signIn.SetSize(width, height)
	m.board.SetSize(width, height)
	m.notes.SetSize(width, height)
	m.appForm.SetSize(width, height)
	m.feed.SetSize(width, height)
	m.tasks.SetSize(width, height)
	m.notifications.SetSize(width, height)
	m.digest.SetSize(width, height)
	m.profile.SetSize(width, height)
	m.searchPrefs.SetSize(width, height)
	m.resumes.SetSize(width, height)
	m.onboarding.SetSize(width, height)
	m.helpView.SetSize(width, height)
	m.commandView.SetSize(width, height)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	tabs := m.layout.RenderTabs(tabNames, m.activeTab())
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, tabs, m.renderContent(), statusBar)
}

func (m Model) headerTitle() string {
	title := "Vanta"
	if sess := m.env.Session.Current(); sess.Valid() && sess.Email != "" {
		title += " · " + sess.Email
	}
	if m.unreadCount > 0 {
		title += fmt.Sprintf(" [%d new]", m.unreadCount)
	}
	return title
}

// activeTab returns the highlighted tab, or -1 when the active view is
// not a tab.
func (m Model) activeTab() int {
	v := m.currentView
	if v == ViewHelp || v == ViewCommand {
		v = m.previousView
	}
	switch v {
	case ViewNotes, ViewNewApplication:
		return 0
	case ViewSignIn:
		return -1
	}
	if v >= ViewBoard && v <= ViewOnboarding {
		return int(v - ViewBoard)
	}
	return -1
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewSignIn:
		return m.signIn.View()
	case ViewBoard:
		return m.board.View()
	case ViewNotes:
		return m.notes.View()
	case ViewNewApplication:
		return m.appForm.View()
	case ViewFeed:
		return m.feed.View()
	case ViewTasks:
		return m.tasks.View()
	case ViewNotifications:
		return m.notifications.View()
	case ViewDigest:
		return m.digest.View()
	case ViewProfile:
		return m.profile.View()
	case ViewSearchPrefs:
		return m.searchPrefs.View()
	case ViewResumes:
		return m.resumes.View()
	case ViewOnboarding:
		return m.onboarding.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined sync state.
func (m Model) syncStatus() string {
	if !m.env.Session.SignedIn() {
		return "signed out"
	}
	running := 0
	var failed []string
	var last time.Time
	for _, s := range m.poller.GetStatuses() {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failed = append(failed, string(s.Resource))
		}
		if s.LastSync.After(last) {
			last = s.LastSync
		}
	}

	switch {
	case m.board.Pending() > 0:
		return fmt.Sprintf("saving (%d)", m.board.Pending())
	case running > 0:
		return fmt.Sprintf("syncing (%d)", running)
	case len(failed) > 0:
		return "⚠ unreachable: " + strings.Join(failed, ", ")
	case !last.IsZero():
		return "synced " + ui.RelativeTime(last)
	}
	return "idle"
}

// statusLine shows a flash message, then an auth problem, then key hints.
func (m Model) statusLine() string {
	if m.flash != "" {
		if m.flashIsErr {
			return theme.ErrorStyle.Render(m.flash)
		}
		return m.flash
	}
	if m.authErrorMessage != "" {
		return m.authErrorMessage
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewSignIn:
		return "enter sign in | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewNotes:
		if m.notes.Capturing() {
			return "tab next field | enter save | esc cancel"
		}
		return "a add note | j/k scroll | r refresh | esc back"
	case ViewNewApplication:
		return "enter submit | esc cancel"
	case ViewFeed:
		if m.feed.Capturing() {
			return "enter apply | esc cancel"
		}
		return "t track | x hide | f filter | n/p page | r refresh"
	case ViewTasks:
		return "c complete | d defer | u undo | r refresh"
	case ViewNotifications:
		return "m mark read | M mark all read | r refresh"
	case ViewDigest:
		return "j/k scroll | r refresh"
	case ViewProfile:
		if m.profile.Capturing() {
			return "enter save | esc cancel"
		}
		return "e edit | r refresh"
	case ViewSearchPrefs:
		if m.searchPrefs.Capturing() {
			return "enter submit | esc cancel"
		}
		return "n new | b bump to 7am | d delete | r refresh"
	case ViewResumes:
		return "enter open | t tailor | o optimize | r refresh"
	case ViewOnboarding:
		if m.onboarding.Capturing() {
			return "enter next | esc back"
		}
		return "enter submit | esc back"
	default:
		if m.board.Holding() {
			return "h/l column | j/k position | space drop | esc cancel"
		}
		return "q quit | ? help | : command | space pick up | enter notes | n new | 1-9 views"
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "board":
		return m.switchTo(ViewBoard)
	case "feed":
		return m.switchTo(ViewFeed)
	case "tasks":
		return m.switchTo(ViewTasks)
	case "notifications", "inbox":
		return m.switchTo(ViewNotifications)
	case "digest":
		return m.switchTo(ViewDigest)
	case "profile":
		return m.switchTo(ViewProfile)
	case "prefs", "searches", "search-preferences":
		return m.switchTo(ViewSearchPrefs)
	case "resumes":
		return m.switchTo(ViewResumes)
	case "onboarding", "setup":
		return m.switchTo(ViewOnboarding)
	case "new":
		if !m.env.Session.SignedIn() {
			return m.switchTo(ViewBoard)
		}
		m.previousView = ViewBoard
		m.currentView = ViewNewApplication
		return m, m.appForm.Start()
	case "refresh", "sync":
		m.env.Cache.Clear()
		m.poller.RefreshAll()
		refresh := m.board.Refresh()
		next, cmd := m.switchTo(m.currentView)
		return next, tea.Batch(cmd, refresh)
	case "signout", "logout":
		return m.signOut("Signed out.")
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "quit", "q":
		m.poller.Stop()
		return m, tea.Quit
	default:
		return m, ui.Flash(fmt.Sprintf("Unknown command %q", cmd), true)
	}
}
