package midi

// MIDI status bytes
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0

	TimingClock uint8 = 0xF8
	Start       uint8 = 0xFA
	Continue    uint8 = 0xFB
	Stop        uint8 = 0xFC
)

// realtime returns the status of a single byte real-time message, or 0
func realtime(msg []byte) uint8 {
	if len(msg) != 1 || msg[0] < TimingClock {
		return 0
	}
	return msg[0]
}

// pitchOffset places MIDI note 60 on octave 4, C
const pitchOffset = 24

// NoteToPitch splits a MIDI note into the front panel's octave (1..8) and
// pitch class (1 = C .. 12 = B). ok is false when the octave is off the
// panel's range; the pitch class is valid either way.
func NoteToPitch(note uint8) (octave, pitchClass int, ok bool) {
	pitchClass = int(note)%12 + 1
	n := int(note) - pitchOffset
	if n < 0 {
		return 0, pitchClass, false
	}
	octave = n/12 + 1
	return octave, pitchClass, octave <= 8
}
