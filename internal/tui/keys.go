package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the converter screen.
type KeyMap struct {
	OpenFile      key.Binding
	ImportPalette key.Binding
	Submit        key.Binding
	Cancel        key.Binding
	Next          key.Binding
	Prev          key.Binding
	Increase      key.Binding
	Decrease      key.Binding
	Refresh       key.Binding
	Download      key.Binding
	Dismiss       key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		OpenFile: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open image"),
		),
		ImportPalette: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import palette"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter", "convert"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("esc", "cancel"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down", "j"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up", "k"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Increase: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next value"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "prev value"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload palettes"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "save result"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss error"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.OpenFile, k.ImportPalette, k.Submit, k.Cancel, k.Next, k.Increase, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.OpenFile, k.ImportPalette, k.Refresh},
		{k.Submit, k.Cancel, k.Download, k.Dismiss},
		{k.Next, k.Prev, k.Increase, k.Decrease},
		{k.Quit},
	}
}
