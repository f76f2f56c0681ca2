package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

// knobKeys turns one knob down and up and pushes its mode button
type knobKeys struct {
	Down, Up, Push key.Binding
}

type keyMap struct {
	Knobs [3]knobKeys

	Shift  key.Binding
	Play   key.Binding
	Enter  key.Binding
	Tie    key.Binding
	Load   key.Binding
	Save   key.Binding
	Cancel key.Binding
	Stop   key.Binding
	Clock  key.Binding
	Pads   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// pianoKeys are two rows of a computer keyboard laid out like one octave
var pianoKeys = map[string]int{
	"a": 1, "w": 2, "s": 3, "e": 4, "d": 5, "f": 6,
	"t": 7, "g": 8, "y": 9, "h": 10, "u": 11, "j": 12,
}

var keys = keyMap{
	Knobs: [3]knobKeys{
		{Down: Key("knob 1 down", "["), Up: Key("knob 1 up", "]"), Push: Key("knob 1 mode", "z")},
		{Down: Key("knob 2 down", ";"), Up: Key("knob 2 up", "'"), Push: Key("knob 2 mode", "x")},
		{Down: Key("knob 3 down", ","), Up: Key("knob 3 up", "."), Push: Key("knob 3 mode", "c")},
	},
	Shift:  Key("shift", "tab"),
	Play:   Key("play/pause", " "),
	Enter:  Key("rest/confirm", "enter"),
	Tie:    Key("tie", "-"),
	Load:   Key("load", "L"),
	Save:   Key("save", "S"),
	Cancel: Key("cancel", "esc"),
	Stop:   Key("stop", "0"),
	Clock:  Key("clock in", "k"),
	Pads:   Key("pads", "p"),
	Help:   Key("help", "?"),
	Quit:   Key("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Shift, k.Enter, k.Load, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	var knobs []key.Binding
	for _, kk := range k.Knobs {
		knobs = append(knobs, kk.Down, kk.Up, kk.Push)
	}
	return [][]key.Binding{
		knobs,
		{k.Shift, k.Play, k.Enter, k.Tie, k.Stop},
		{k.Load, k.Save, k.Cancel},
		{k.Clock, k.Pads, k.Help, k.Quit},
	}
}
