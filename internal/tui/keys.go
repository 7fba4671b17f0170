package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Quit      key.Binding
	Find      key.Binding
	Next      key.Binding
	Prev      key.Binding
	OpenMedia key.Binding
	Copy      key.Binding
	PreviewUp key.Binding
	PreviewDn key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("up/C-k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("dn/C-j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
	Find: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("C-f", "find in thread"),
	),
	Next: key.NewBinding(
		key.WithKeys("enter", "ctrl+n"),
		key.WithHelp("enter/C-n", "next hit"),
	),
	Prev: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("C-p", "previous hit"),
	),
	OpenMedia: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("C-o", "open media"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("C-y", "copy message"),
	),
	PreviewUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "thread up"),
	),
	PreviewDn: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-d", "thread down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "thread pgup"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "thread pgdn"),
	),
}
