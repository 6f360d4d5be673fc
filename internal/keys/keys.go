package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Views
	GoBoard         key.Binding
	GoFeed          key.Binding
	GoTasks         key.Binding
	GoNotifications key.Binding
	GoDigest        key.Binding
	GoProfile       key.Binding
	GoSearchPrefs   key.Binding
	GoResumes       key.Binding
	GoOnboarding    key.Binding
	SignOut         key.Binding

	// Board
	Pick key.Binding
	New  key.Binding

	// Notes
	AddNote key.Binding

	// Feed
	Track    key.Binding
	Hide     key.Binding
	Filter   key.Binding
	NextPage key.Binding
	PrevPage key.Binding

	// Tasks
	Complete key.Binding
	Defer    key.Binding
	Undo     key.Binding

	// Notifications
	MarkRead    key.Binding
	MarkAllRead key.Binding

	// Search preferences
	Bump   key.Binding
	Delete key.Binding

	// Resumes
	Tailor   key.Binding
	Optimize key.Binding

	// Profile
	Edit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "right"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		GoBoard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "board"),
		),
		GoFeed: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "feed"),
		),
		GoTasks: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "tasks"),
		),
		GoNotifications: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "notifications"),
		),
		GoDigest: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "digest"),
		),
		GoProfile: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "profile"),
		),
		GoSearchPrefs: key.NewBinding(
			key.WithKeys("7"),
			key.WithHelp("7", "saved searches"),
		),
		GoResumes: key.NewBinding(
			key.WithKeys("8"),
			key.WithHelp("8", "resumes"),
		),
		GoOnboarding: key.NewBinding(
			key.WithKeys("9"),
			key.WithHelp("9", "onboarding"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign out"),
		),
		Pick: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pick up / drop"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		AddNote: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add note"),
		),
		Track: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "track"),
		),
		Hide: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "hide"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous page"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
		Defer: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "defer"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Bump: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bump to 7am"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Tailor: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tailor"),
		),
		Optimize: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "optimize"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Command,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back, k.Quit},
		{k.Command, k.Help, k.Refresh, k.SignOut},
		{k.GoBoard, k.GoFeed, k.GoTasks, k.GoNotifications, k.GoDigest},
		{k.GoProfile, k.GoSearchPrefs, k.GoResumes, k.GoOnboarding},
		{k.Pick, k.New, k.AddNote},
		{k.Track, k.Hide, k.Filter, k.NextPage, k.PrevPage},
		{k.Complete, k.Defer, k.Undo, k.MarkRead, k.MarkAllRead},
		{k.Bump, k.Delete, k.Tailor, k.Optimize, k.Edit},
	}
}
