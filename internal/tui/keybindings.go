package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the board's key bindings.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Grab    key.Binding
	Drop    key.Binding
	Cancel  key.Binding
	Done    key.Binding
	Retry   key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.Drop, k.Done, k.Retry, k.Dismiss, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Grab, k.Drop, k.Cancel, k.Done},
		{k.Retry, k.Dismiss, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev bucket")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next bucket")),
		Grab:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "grab/drop task")),
		Drop:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop into bucket")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		Done:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete task")),
		Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry failed")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss failed")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
