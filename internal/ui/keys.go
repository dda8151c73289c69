package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keyboard bindings of the dashboard.
type KeyMap struct {
	Snooze key.Binding
	Bell   key.Binding
	Redraw key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default keyboard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Snooze: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "snooze"),
		),
		Bell: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "test bell"),
		),
		Redraw: key.NewBinding(
			key.WithKeys("r", "ctrl+l"),
			key.WithHelp("r", "redraw"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Snooze, k.Bell, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Snooze, k.Bell},
		{k.Redraw, k.Help, k.Quit},
	}
}
