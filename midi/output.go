package midi

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"tweakseq/debug"
	"tweakseq/sequencer"
)

// DefaultBendRange is the synth's pitch bend range in semitones
const DefaultBendRange = 2

const (
	bendMin = -8192
	bendMax = 8191
)

// Output drives a synth in place of the DAC and gate jack. The gate becomes
// note on/off and the pitch CV becomes pitch bend relative to the sounding
// note, so glides and transposition follow the CV exactly.
type Output struct {
	mu   sync.Mutex
	send func(gomidi.Message) error

	channel   uint8
	bendRange int
	increment int
	velocity  uint8

	sounding int // MIDI note, -1 when silent
	baseCode int // CV code of the sounding note
	lastCode int
	haveCode bool
	lastBend int
}

// NewOutput opens port for sequencer output on channel (0-15)
func NewOutput(port drivers.Out, channel uint8, bendRange int, cal sequencer.Calibration) (*Output, error) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, errors.Wrapf(err, "open output %s", port)
	}
	debug.Log("midi", "output on %s channel %d", port, channel+1)
	return newOutput(send, channel, bendRange, cal), nil
}

func newOutput(send func(gomidi.Message) error, channel uint8, bendRange int, cal sequencer.Calibration) *Output {
	if bendRange <= 0 {
		bendRange = DefaultBendRange
	}
	if cal.Increment <= 0 {
		cal = sequencer.DefaultCalibration()
	}
	return &Output{
		send:      send,
		channel:   channel & 0x0F,
		bendRange: bendRange,
		increment: cal.Increment,
		velocity:  100,
		sounding:  -1,
	}
}

// GateOpened sounds the note
func (o *Output) GateOpened(n sequencer.Note) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.noteOff()
	if n.IsRest {
		return
	}
	o.sounding = int(n.MIDINote)
	o.baseCode = n.Voltage
	o.emit(gomidi.NoteOn(o.channel, n.MIDINote, o.velocity))
	if o.haveCode {
		o.bend(o.lastCode)
	}
}

// GateClosed releases the note
func (o *Output) GateClosed(n sequencer.Note) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.noteOff()
}

// WriteCV follows the pitch CV with pitch bend
func (o *Output) WriteCV(code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastCode = code
	o.haveCode = true
	if o.sounding >= 0 {
		o.bend(code)
	}
}

// Panic silences the channel
func (o *Output) Panic() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.noteOff()
	o.emit(gomidi.ControlChange(o.channel, 123, 0)) // all notes off
	o.lastBend = 0
	o.emit(gomidi.Pitchbend(o.channel, 0))
}

func (o *Output) noteOff() {
	if o.sounding < 0 {
		return
	}
	o.emit(gomidi.NoteOff(o.channel, uint8(o.sounding)))
	o.sounding = -1
}

func (o *Output) bend(code int) {
	v := bendValue(code-o.baseCode, o.increment, o.bendRange)
	if v == o.lastBend {
		return
	}
	o.lastBend = v
	o.emit(gomidi.Pitchbend(o.channel, int16(v)))
}

func (o *Output) emit(msg gomidi.Message) {
	if err := o.send(msg); err != nil {
		debug.Log("midi", "send %v: %v", msg, err)
	}
}

// bendValue converts a CV offset in codes to a 14 bit signed bend
func bendValue(codes, increment, bendRange int) int {
	semis := float64(codes) / float64(increment)
	v := int(math.Round(semis / float64(bendRange) * 8192))
	if v < bendMin {
		return bendMin
	}
	if v > bendMax {
		return bendMax
	}
	return v
}
