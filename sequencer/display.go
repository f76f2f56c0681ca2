package sequencer

// LedState is the state of one front panel LED
type LedState uint8

const (
	LedOff LedState = iota
	LedOn
	LedFlash
)

func (s LedState) String() string {
	switch s {
	case LedOn:
		return "on"
	case LedFlash:
		return "flash"
	}
	return "off"
}

// Front panel LED indices. 0..15 are the step lights.
const (
	LedKnobModes = 16 // 16..24, three per knob
	LedShift     = 25
	LedClock     = 26
	LedGate      = 27
	LedEnter     = 28
	LedOutClock  = 29
	LedOutGate   = 30
	LedPlay      = 31
	NumLeds      = 32
)

// DialogTimeout is how long a timed value picker stays up
const DialogTimeout = 1000

// LedMatrix receives display updates from the sequencer
type LedMatrix interface {
	SetLed(index int, state LedState)
	ClearSequenceLights()
	ShowValuePicker(value, low, high int, timed bool, timeoutMs uint32)
}

// GateListener is told when the gate opens and closes. Optional.
type GateListener interface {
	GateOpened(n Note)
	GateClosed(n Note)
}

type nopLeds struct{}

func (nopLeds) SetLed(int, LedState)                         {}
func (nopLeds) ClearSequenceLights()                         {}
func (nopLeds) ShowValuePicker(int, int, int, bool, uint32) {}
