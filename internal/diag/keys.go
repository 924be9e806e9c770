package diag

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the manual-vitals screen.
type KeyMap struct {
	BPMUp   key.Binding
	BPMDown key.Binding
	CryUp   key.Binding
	CryDown key.Binding
	Reset   key.Binding // Full controller reset, clears the panic latch.
	Restart key.Binding // Re-exec the whole process.
	Quit    key.Binding
}

var DefaultKeyMap = KeyMap{
	BPMUp: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "bpm +10"),
	),
	BPMDown: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "bpm -10"),
	),
	CryUp: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "cry +10"),
	),
	CryDown: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "cry -10"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset controller"),
	),
	Restart: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "restart process"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
