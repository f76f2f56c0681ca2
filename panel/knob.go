package panel

import "tweakseq/sequencer"

// Function is what a knob mode controls. The value doubles as the index
// of the mode's LED.
type Function int

const (
	Tempo Function = sequencer.LedKnobModes + iota
	StepSelect
	GateTime
	PlayMode
	GlideTime
	Pitch
	NumSteps
	GlideShape
	Octave
)

var functionNames = [...]string{
	"Tempo", "Step", "Gate", "Mode", "Glide", "Pitch", "Length", "Curve", "Octave",
}

func (f Function) String() string {
	i := int(f - Tempo)
	if i < 0 || i >= len(functionNames) {
		return "?"
	}
	return functionNames[i]
}

// ModesPerKnob is the number of modes cycled by a knob's push button
const ModesPerKnob = 3

type knobState struct {
	pos, min, max int
}

// Knob is a detented rotary encoder with three modes. Each mode has its own
// range and position, and a second set of both on the shift layer.
type Knob struct {
	index   int
	modes   [ModesPerKnob]Function
	mode    int
	shift   bool
	state   [2][ModesPerKnob]knobState
	lastDir int
	changed bool
}

// NewKnob creates a knob with modes assigned to its three positions
func NewKnob(index int, modes [ModesPerKnob]Function) *Knob {
	k := &Knob{index: index, modes: modes}
	for l := range k.state {
		for m := range k.state[l] {
			k.state[l][m] = knobState{min: 0, max: 20}
		}
	}
	return k
}

func layer(shift bool) int {
	if shift {
		return 1
	}
	return 0
}

func (k *Knob) current() *knobState {
	return &k.state[layer(k.shift)][k.mode]
}

// SetRange sets the range of one mode on one layer, pulling its position
// inside
func (k *Knob) SetRange(shift bool, mode, min, max int) {
	if mode < 0 || mode >= ModesPerKnob {
		return
	}
	st := &k.state[layer(shift)][mode]
	st.min, st.max = min, max
	st.pos = clampInt(st.pos, min, max)
}

// SetValue moves the active position without reporting a change
func (k *Knob) SetValue(v int) {
	st := k.current()
	st.pos = clampInt(v, st.min, st.max)
}

// SetValueFor moves the position of a mode on both layers
func (k *Knob) SetValueFor(mode, v int) {
	if mode < 0 || mode >= ModesPerKnob {
		return
	}
	for l := range k.state {
		st := &k.state[l][mode]
		st.pos = clampInt(v, st.min, st.max)
	}
}

func (k *Knob) Value() int { return k.current().pos }
func (k *Knob) Min() int   { return k.current().min }
func (k *Knob) Max() int   { return k.current().max }
func (k *Knob) Index() int { return k.index }
func (k *Knob) Mode() int  { return k.mode }

// Function returns what the active mode controls
func (k *Knob) Function() Function { return k.modes[k.mode] }

// Modes returns the three functions in mode order
func (k *Knob) Modes() [ModesPerKnob]Function { return k.modes }

// SetMode selects a mode by position
func (k *Knob) SetMode(mode int) {
	if mode < 0 {
		mode = 0
	}
	k.mode = mode % ModesPerKnob
}

// SetFunction selects the mode that controls f. Unknown functions are
// ignored.
func (k *Knob) SetFunction(f Function) {
	for i, m := range k.modes {
		if m == f {
			k.mode = i
			return
		}
	}
}

// NextMode cycles to the following mode
func (k *Knob) NextMode() {
	k.SetMode(k.mode + 1)
}

// SetShift switches between the normal and shift layer
func (k *Knob) SetShift(on bool) { k.shift = on }

// Turn moves the knob by delta detents. The position clamps to the range,
// but the direction is still reported at the ends so relative controls
// keep working.
func (k *Knob) Turn(delta int) {
	if delta == 0 {
		return
	}
	st := k.current()
	st.pos = clampInt(st.pos+delta, st.min, st.max)
	k.lastDir = 1
	if delta < 0 {
		k.lastDir = -1
	}
	k.changed = true
}

// Direction of the last turn, -1 or 1
func (k *Knob) Direction() int { return k.lastDir }

// DidChange reports a turn since the last call
func (k *Knob) DidChange() bool {
	c := k.changed
	k.changed = false
	return c
}

// ShowMode lights the active mode's LED and darkens the other two
func (k *Knob) ShowMode(leds sequencer.LedMatrix) {
	for i, f := range k.modes {
		state := sequencer.LedOff
		if i == k.mode {
			state = sequencer.LedOn
		}
		leds.SetLed(int(f), state)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
