package midi

import (
	"tweakseq/panel"
	"tweakseq/sequencer"
)

// Launchpad layout of the front panel, row 0 at the bottom:
//
//	row 8 (top)  knob 1 -/+, knob 2 -/+, knob 3 -/+, stop, cancel
//	rows 6-7     piano, white keys on row 6, black keys above them
//	row 5        clock, gate, clock out, gate out indicators
//	row 4        shift, play, enter, tie, load, save
//	row 3        knob mode pads, three per knob
//	rows 0-1     step lights 0-7 and 8-15

const (
	rowSteps   = 0
	rowModes   = 3
	rowButtons = 4
	rowStatus  = 5
	rowWhite   = 6
	rowBlack   = 7
	rowTop     = 8
)

var (
	colorStep    = [3]uint8{0, 255, 0}
	colorMode    = [3]uint8{0, 100, 255}
	colorShift   = [3]uint8{255, 100, 0}
	colorPlay    = [3]uint8{0, 255, 0}
	colorEnter   = [3]uint8{255, 200, 0}
	colorClock   = [3]uint8{255, 200, 0}
	colorGate    = [3]uint8{255, 0, 0}
	colorKey     = [3]uint8{30, 30, 30}
	colorBlack   = [3]uint8{40, 60, 120}
	colorButton  = [3]uint8{30, 30, 30}
	colorControl = [3]uint8{150, 0, 200}
)

// whiteKeys and blackKeys map pad columns to pitch classes
var (
	whiteKeys = map[int]int{0: 1, 1: 3, 2: 5, 3: 6, 4: 8, 5: 10, 6: 12}
	blackKeys = map[int]int{1: 2, 2: 4, 4: 7, 5: 9, 6: 11}
)

var buttonCols = [...]panel.Button{
	panel.ButtonShift, panel.ButtonPlay, panel.ButtonEnter,
	panel.ButtonTie, panel.ButtonLoad, panel.ButtonSave,
}

// buttonLeds is the LED shown on each button pad, -1 for none
var buttonLeds = [...]int{
	sequencer.LedShift, sequencer.LedPlay, sequencer.LedEnter, -1, -1, -1,
}

var statusLeds = [...]int{
	sequencer.LedClock, sequencer.LedGate, sequencer.LedOutClock, sequencer.LedOutGate,
}

// ActionKind is what a pad press does to the panel
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionButton
	ActionTurn
	ActionMode
	ActionPiano
	ActionStop
	ActionCancel
)

// Action is a pad press translated to a front panel gesture
type Action struct {
	Kind       ActionKind
	Button     panel.Button
	Knob       int
	Delta      int
	Mode       int
	PitchClass int
}

// PadAction maps a Launchpad pad press to a panel action
func PadAction(ev PadEvent) Action {
	switch ev.Row {
	case rowTop:
		switch {
		case ev.Col < 6:
			delta := 1
			if ev.Col%2 == 0 {
				delta = -1
			}
			return Action{Kind: ActionTurn, Knob: ev.Col / 2, Delta: delta}
		case ev.Col == 6:
			return Action{Kind: ActionStop}
		case ev.Col == 7:
			return Action{Kind: ActionCancel}
		}
	case rowWhite:
		if pc, ok := whiteKeys[ev.Col]; ok {
			return Action{Kind: ActionPiano, PitchClass: pc}
		}
	case rowBlack:
		if pc, ok := blackKeys[ev.Col]; ok {
			return Action{Kind: ActionPiano, PitchClass: pc}
		}
	case rowModes:
		if ev.Col < 3*panel.ModesPerKnob {
			return Action{Kind: ActionMode, Knob: ev.Col / panel.ModesPerKnob, Mode: ev.Col % panel.ModesPerKnob}
		}
	case rowButtons:
		if ev.Col < len(buttonCols) {
			return Action{Kind: ActionButton, Button: buttonCols[ev.Col]}
		}
	}
	return Action{}
}

// Apply performs the action. Call it on the sequencer loop.
func (a Action) Apply(p *panel.Panel) {
	switch a.Kind {
	case ActionButton:
		p.Press(a.Button)
	case ActionTurn:
		p.Turn(a.Knob, a.Delta)
	case ActionMode:
		p.SelectMode(a.Knob, a.Mode)
	case ActionPiano:
		p.PianoKey(a.PitchClass)
	case ActionStop:
		p.Stop()
	case ActionCancel:
		p.Cancel()
	}
}

type padKey struct{ row, col int }

// Mirror renders the panel LEDs onto a Launchpad, sending only what changed
type Mirror struct {
	leds       *panel.Leds
	last       map[padKey]LEDUpdate
	version    uint64
	primed     bool
	brightness int
}

// NewMirror creates a mirror of leds
func NewMirror(leds *panel.Leds) *Mirror {
	return &Mirror{leds: leds, last: make(map[padKey]LEDUpdate)}
}

// Reset forgets what was sent, e.g. after a reconnect
func (m *Mirror) Reset() {
	m.last = make(map[padKey]LEDUpdate)
	m.primed = false
	m.brightness = 0
}

// Updates returns the pad changes since the last call
func (m *Mirror) Updates() []LEDUpdate {
	v := m.leds.Version()
	if m.primed && v == m.version {
		return nil
	}
	m.version = v
	m.primed = true

	var out []LEDUpdate
	for _, u := range m.Frame() {
		k := padKey{u.Row, u.Col}
		if prev, ok := m.last[k]; ok && prev == u {
			continue
		}
		m.last[k] = u
		out = append(out, u)
	}
	return out
}

// Brightness returns the Launchpad brightness (0-127) when it changed
// since the last call
func (m *Mirror) Brightness() (uint8, bool) {
	b := m.leds.Brightness()
	if b == m.brightness {
		return 0, false
	}
	m.brightness = b
	return uint8(b * 127 / panel.MaxBrightness), true
}

// Frame renders every pad of the layout
func (m *Mirror) Frame() []LEDUpdate {
	states := m.leds.States()
	var out []LEDUpdate

	led := func(row, col, index int, color [3]uint8) {
		u := LEDUpdate{Row: row, Col: col}
		switch states[index] {
		case sequencer.LedOn:
			u.Color = color
		case sequencer.LedFlash:
			u.Color = color
			u.Channel = ChannelFlash
		}
		out = append(out, u)
	}

	for i := 0; i < sequencer.StepCapacity; i++ {
		led(rowSteps+i/8, i%8, i, colorStep)
	}
	for i := 0; i < 3*panel.ModesPerKnob; i++ {
		led(rowModes, i, sequencer.LedKnobModes+i, colorMode)
	}
	for col, index := range buttonLeds {
		if index < 0 {
			out = append(out, LEDUpdate{Row: rowButtons, Col: col, Color: colorButton})
			continue
		}
		color := colorPlay
		switch index {
		case sequencer.LedShift:
			color = colorShift
		case sequencer.LedEnter:
			color = colorEnter
		}
		led(rowButtons, col, index, color)
	}
	for col, index := range statusLeds {
		color := colorClock
		if index == sequencer.LedGate || index == sequencer.LedOutGate {
			color = colorGate
		}
		led(rowStatus, col, index, color)
	}
	for col := range whiteKeys {
		out = append(out, LEDUpdate{Row: rowWhite, Col: col, Color: colorKey})
	}
	for col := range blackKeys {
		out = append(out, LEDUpdate{Row: rowBlack, Col: col, Color: colorBlack})
	}
	for col := 0; col < 8; col++ {
		out = append(out, LEDUpdate{Row: rowTop, Col: col, Color: colorControl})
	}
	return out
}
