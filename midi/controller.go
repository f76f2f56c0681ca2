package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKeyboard
)

func (t ControllerType) String() string {
	switch t {
	case ControllerLaunchpad:
		return "launchpad"
	case ControllerKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// PadEvent is sent when a pad/button is pressed on a grid controller
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// NoteEvent is sent when a note is played on a keyboard
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// TransportEvent is a MIDI real-time start, continue or stop
type TransportEvent int

const (
	TransportStart TransportEvent = iota
	TransportContinue
	TransportStop
)

func (e TransportEvent) String() string {
	return [...]string{"start", "continue", "stop"}[e]
}

// LEDUpdate is one pad colour change
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8 // ChannelStatic, ChannelFlash or ChannelPulse
}

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() ControllerType

	// Input events from the controller
	PadEvents() <-chan PadEvent   // For grid controllers (Launchpad)
	NoteEvents() <-chan NoteEvent // For keyboards

	// Output to the controller
	SetLEDBatch(updates []LEDUpdate) error

	// Lifecycle
	Close() error
}

// Launchpad X color palette (velocity values 0-127)
const (
	ColorOff         uint8 = 0
	ColorRed         uint8 = 5
	ColorGreen       uint8 = 21
	ColorYellow      uint8 = 13
	ColorOrange      uint8 = 9
	ColorBlue        uint8 = 45
	ColorWhite       uint8 = 3
	ColorBrightWhite uint8 = 119

	// Channel modes for SetLED (use as 'channel' parameter)
	ChannelStatic uint8 = 0 // solid color
	ChannelFlash  uint8 = 1 // flashing A/B alternating
	ChannelPulse  uint8 = 2 // pulsing (fades)
)
