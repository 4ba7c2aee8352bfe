package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the onboarding TUI.
type KeyMap struct {
	NextField  key.Binding
	PrevField  key.Binding
	SwitchForm key.Binding // Region choice: new region or join.
	Submit     key.Binding
	Retry      key.Binding // Failed and ready screens only.
	Quit       key.Binding // Outside forms only, q is text inside them.
	ForceQuit  key.Binding
}

var DefaultKeyMap = KeyMap{
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-tab", "previous field"),
	),
	SwitchForm: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("C-t", "create / join"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Retry: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}
