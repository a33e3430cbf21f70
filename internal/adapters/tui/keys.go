package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the timer key bindings.
type KeyMap struct {
	Toggle      key.Binding
	Skip        key.Binding
	Reset       key.Binding
	Distraction key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the built-in bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space/s", "start/pause"),
		),
		Skip: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "skip"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Distraction: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "log distraction"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Skip, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Skip, k.Reset},
		{k.Distraction, k.Help, k.Quit},
	}
}
