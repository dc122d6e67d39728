package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings shared by all screens.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Back     key.Binding
	Quit     key.Binding
	Login    key.Binding
	Refresh  key.Binding
	Messages key.Binding
	Profile  key.Binding
	NewPost  key.Binding
	Save     key.Binding
	Logout   key.Binding

	// Feed filters.
	CycleSport    key.Binding
	CycleWindow   key.Binding
	FavoritesOnly key.Binding

	// Chat screen.
	Action key.Binding // propose or confirm, whichever the state allows
	Cancel key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
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
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
	Login: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "sign in"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Messages: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "messages"),
	),
	Profile: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "profile"),
	),
	NewPost: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new post"),
	),
	Save: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "save"),
	),
	Logout: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "sign out"),
	),
	CycleSport: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sport"),
	),
	CycleWindow: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "time"),
	),
	FavoritesOnly: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "favorites"),
	),
	Action: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "propose/confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "cancel match"),
	),
}
