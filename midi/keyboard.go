package midi

import (
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"tweakseq/debug"
)

// KeyboardController handles a standard MIDI keyboard. Notes become piano
// keys, timing clock drives the external clock input and start/stop
// messages drive the transport.
type KeyboardController struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	divider *ClockDivider
	onClock func()

	padChan       chan PadEvent
	noteChan      chan NoteEvent
	transportChan chan TransportEvent
}

// NewKeyboardController creates a keyboard controller (input only). onClock
// runs on the MIDI listener goroutine once per divided clock step and may
// be nil.
func NewKeyboardController(id string, inPort drivers.In, divider *ClockDivider, onClock func()) (*KeyboardController, error) {
	if divider == nil {
		divider = NewClockDivider(PPQ / 4)
	}
	kb := &KeyboardController{
		id:            id,
		inPort:        inPort,
		divider:       divider,
		onClock:       onClock,
		padChan:       make(chan PadEvent, 32),
		noteChan:      make(chan NoteEvent, 32),
		transportChan: make(chan TransportEvent, 8),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, kb.handle, gomidi.UseTimeCode())
		if err != nil {
			return nil, errors.Wrapf(err, "listen to %s", id)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

func (kb *KeyboardController) handle(msg gomidi.Message, timestampms int32) {
	switch realtime(msg) {
	case TimingClock:
		if kb.divider.Tick() && kb.onClock != nil {
			kb.onClock()
		}
		return
	case Start:
		kb.divider.Reset()
		kb.transport(TransportStart)
		return
	case Continue:
		kb.transport(TransportContinue)
		return
	case Stop:
		kb.transport(TransportStop)
		return
	}

	var channel, note, velocity uint8
	if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
		select {
		case kb.noteChan <- NoteEvent{Note: note, Velocity: velocity, Channel: channel}:
		default:
			debug.Log("midi", "%s: note %d dropped", kb.id, note)
		}
	}
}

func (kb *KeyboardController) transport(ev TransportEvent) {
	debug.Log("midi", "%s: %s", kb.id, ev)
	select {
	case kb.transportChan <- ev:
	default:
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) PadEvents() <-chan PadEvent {
	return kb.padChan // Keyboards don't have pads
}

func (kb *KeyboardController) NoteEvents() <-chan NoteEvent {
	return kb.noteChan
}

// TransportEvents delivers start, continue and stop messages
func (kb *KeyboardController) TransportEvents() <-chan TransportEvent {
	return kb.transportChan
}

// SetLEDBatch is a no-op for keyboards
func (kb *KeyboardController) SetLEDBatch(updates []LEDUpdate) error {
	return nil
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.padChan)
	close(kb.noteChan)
	close(kb.transportChan)
	return nil
}
