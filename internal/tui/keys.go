package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	// Navigation
	Up       Key
	Down     Key
	PageUp   Key
	PageDown Key
	Home     Key
	End      Key

	// Actions
	Select Key
	Back   Key
	Quit   Key
	Search Key
	Filter Key
	Sort   Key

	// Function keys for module navigation
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F5  Key
	F10 Key

	// Forms
	Tab Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

func bind(help string, keys ...string) Key {
	return Key{Keys: keys, Help: help, Enabled: true}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       bind("up", "up", "k"),
		Down:     bind("down", "down", "j"),
		PageUp:   bind("page up", "pgup", "ctrl+u"),
		PageDown: bind("page down", "pgdown", "ctrl+d"),
		Home:     bind("home", "home", "g"),
		End:      bind("end", "end", "G"),

		Select: bind("select", "enter"),
		Back:   bind("back", "esc"),
		Quit:   bind("quit", "q", "ctrl+c"),
		Search: bind("search", "/"),
		Filter: bind("filter", "f"),
		Sort:   bind("sort", "s"),

		F1:  bind("Help", "f1"),
		F2:  bind("Dashboard", "f2"),
		F3:  bind("Immune", "f3"),
		F4:  bind("Nutrition", "f4"),
		F5:  bind("Import", "f5"),
		F10: bind("Quit", "f10"),

		Tab: bind("next field", "tab", "shift+tab"),
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg) || km.F10.Matches(msg)
}

// IsFunctionKey checks if the key message is a function key.
func (km KeyMap) IsFunctionKey(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.F1, km.F2, km.F3, km.F4, km.F5, km.F10)
}

// FunctionKeyModule returns the module a function key opens, or "" for
// keys that are not module keys. F10 maps to "quit".
func (km KeyMap) FunctionKeyModule(msg tea.KeyMsg) Module {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp
	case km.F2.Matches(msg):
		return ModuleDashboard
	case km.F3.Matches(msg):
		return ModuleImmune
	case km.F4.Matches(msg):
		return ModuleNutrition
	case km.F5.Matches(msg):
		return ModuleImport
	case km.F10.Matches(msg):
		return "quit"
	default:
		return ""
	}
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp(width int) string {
	if width < int(BreakpointNarrow) {
		return "F1 F2 F3 F4 F5 F10"
	}
	return "[F1]Help [F2]Dashboard [F3]Immune [F4]Nutrition [F5]Import [F10]Quit"
}
