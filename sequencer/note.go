package sequencer

// Calibration maps pitches onto DAC codes
type Calibration struct {
	Increment int `json:"increment"` // codes per semitone
	MaxCode   int `json:"maxCode"`
}

// DefaultCalibration is 40 codes per semitone on a 12-bit DAC
func DefaultCalibration() Calibration {
	return Calibration{Increment: 40, MaxCode: 3840}
}

// PitchToVoltage converts octave and pitch class (1..12) to a CV code
func (c Calibration) PitchToVoltage(octave, pitchClass int) int {
	v := c.Increment*(12*(octave-1)+1) + (pitchClass-1)*c.Increment
	return clampInt(v, 0, c.MaxCode)
}

// midiOffset puts step code 36 (octave 4, C) on MIDI note 60
const midiOffset = 24

// Note is a resolved step, ready to drive the outputs
type Note struct {
	StepIndex  int
	Octave     int
	PitchClass int
	Voltage    int
	MIDINote   uint8
	IsRest     bool
	IsTie      bool
}

// MIDINote is the MIDI note number of a panel octave and pitch class
func MIDINote(octave, pitchClass int) uint8 {
	n := (octave-1)*12 + pitchClass - 1 + midiOffset
	return uint8(clampInt(n, 0, 127))
}

// noteFor builds a sounding note
func (c Calibration) noteFor(step, octave, pitchClass int) Note {
	return Note{
		StepIndex:  step,
		Octave:     octave,
		PitchClass: pitchClass,
		Voltage:    c.PitchToVoltage(octave, pitchClass),
		MIDINote:   MIDINote(octave, pitchClass),
	}
}

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Name renders the note as e.g. "C#4", "rest" or "tie"
func (n Note) Name() string {
	switch {
	case n.IsRest:
		return "rest"
	case n.IsTie:
		return "tie"
	case n.PitchClass < 1 || n.PitchClass > 12:
		return "--"
	}
	return pitchNames[n.PitchClass-1] + string(rune('0'+n.Octave))
}

// StepName renders a pattern step the same way as Note.Name
func StepName(st Step) string {
	return Note{Octave: st.Octave, PitchClass: st.PitchClass, IsRest: st.Rest, IsTie: st.Tie}.Name()
}
