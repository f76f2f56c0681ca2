package sequencer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	StepCapacity   = 16
	PatternSize    = 22 // serialized bytes per pattern
	DefaultShuffle = 50 // straight time

	legacyPatternSize = 20
	restCode          = 100
	tieCode           = 101

	MinOctave = 1
	MaxOctave = 8
)

var (
	ErrStepRange   = errors.New("step index out of range")
	ErrPatternSize = errors.New("pattern data has wrong size")
)

// Step is the decoded content of one pattern slot
type Step struct {
	Octave     int
	PitchClass int // 1..12, C = 1
	Rest       bool
	Tie        bool
}

// Pattern is the fixed-capacity step data of one sequence. It is a plain
// value: copying a Pattern copies all of its steps.
type Pattern struct {
	notes   [StepCapacity]uint8
	tie     uint16
	rest    uint16
	length  uint8
	shuffle uint8
}

// NewPattern returns a full-length pattern of C1 notes with no shuffle
func NewPattern() *Pattern {
	return &Pattern{length: StepCapacity, shuffle: DefaultShuffle}
}

func encodeStep(octave, pitchClass int) uint8 {
	octave = clampInt(octave, MinOctave, MaxOctave)
	pitchClass = clampInt(pitchClass, 1, 12)
	return uint8((octave-1)*12 + pitchClass - 1)
}

func decodeStep(b uint8) (octave, pitchClass int) {
	return int(b)/12 + 1, int(b)%12 + 1
}

// Step returns the step at index i
func (p *Pattern) Step(i int) (Step, error) {
	if i < 0 || i >= StepCapacity {
		return Step{}, errors.Wrapf(ErrStepRange, "get step %d", i)
	}
	b := p.notes[i]
	st := Step{
		Rest: p.rest&(1<<i) != 0 || b == restCode,
		Tie:  p.tie&(1<<i) != 0 || b == tieCode,
	}
	if st.Rest {
		st.Tie = false
	}
	if b != restCode && b != tieCode {
		st.Octave, st.PitchClass = decodeStep(b)
		st.Octave = clampInt(st.Octave, MinOctave, MaxOctave)
	}
	return st, nil
}

// SetStep writes step i. A rest clears the tie flag and a tie clears the
// rest flag; if both are set the rest wins. The stored pitch is only
// replaced for sounding notes.
func (p *Pattern) SetStep(i int, st Step) error {
	if i < 0 || i >= StepCapacity {
		return errors.Wrapf(ErrStepRange, "set step %d", i)
	}
	bit := uint16(1) << i
	p.rest &^= bit
	p.tie &^= bit
	switch {
	case st.Rest:
		p.rest |= bit
	case st.Tie:
		p.tie |= bit
	default:
		p.notes[i] = encodeStep(st.Octave, st.PitchClass)
	}
	// legacy markers would shadow the flags
	if p.notes[i] == restCode || p.notes[i] == tieCode {
		p.notes[i] = 0
	}
	return nil
}

// IsRest reports whether step i is a rest; out of range steps are not
func (p *Pattern) IsRest(i int) bool {
	st, err := p.Step(i)
	return err == nil && st.Rest
}

// IsTie reports whether step i is a tie; out of range steps are not
func (p *Pattern) IsTie(i int) bool {
	st, err := p.Step(i)
	return err == nil && st.Tie
}

// ToggleRest flips the rest flag of step i, clearing any tie
func (p *Pattern) ToggleRest(i int) error {
	st, err := p.Step(i)
	if err != nil {
		return err
	}
	st.Rest = !st.Rest
	st.Tie = false
	return p.setFlags(i, st)
}

// ToggleTie flips the tie flag of step i, clearing any rest
func (p *Pattern) ToggleTie(i int) error {
	st, err := p.Step(i)
	if err != nil {
		return err
	}
	st.Tie = !st.Tie
	st.Rest = false
	return p.setFlags(i, st)
}

// setFlags updates only the rest/tie bits so the stored pitch survives
// toggling a flag off again.
func (p *Pattern) setFlags(i int, st Step) error {
	bit := uint16(1) << i
	p.rest &^= bit
	p.tie &^= bit
	if st.Rest {
		p.rest |= bit
	}
	if st.Tie {
		p.tie |= bit
	}
	if p.notes[i] == restCode || p.notes[i] == tieCode {
		p.notes[i] = 0
	}
	return nil
}

func (p *Pattern) Length() int  { return int(p.length) }
func (p *Pattern) Shuffle() int { return int(p.shuffle) }

// SetLength clamps n to 1..StepCapacity
func (p *Pattern) SetLength(n int) {
	p.length = uint8(clampInt(n, 1, StepCapacity))
}

// SetShuffle clamps n to 0..100
func (p *Pattern) SetShuffle(n int) {
	p.shuffle = uint8(clampInt(n, 0, 100))
}

// MarshalBinary encodes the pattern in its storage layout:
//
//	0..15  step bytes, (octave-1)*12 + pitchClass-1
//	16..17 tie bits, little endian, bit i = step i
//	18..19 rest bits, little endian
//	20     length
//	21     shuffle
func (p *Pattern) MarshalBinary() ([]byte, error) {
	buf := make([]byte, PatternSize)
	copy(buf, p.notes[:])
	binary.LittleEndian.PutUint16(buf[16:], p.tie)
	binary.LittleEndian.PutUint16(buf[18:], p.rest)
	buf[20] = p.length
	buf[21] = p.shuffle
	return buf, nil
}

// UnmarshalBinary decodes a stored pattern. The 20-byte layout written by
// older firmware has no length or shuffle and loads as 16 straight steps.
// Out of range length and shuffle bytes, as found in erased storage, are
// clamped.
func (p *Pattern) UnmarshalBinary(data []byte) error {
	if len(data) != PatternSize && len(data) != legacyPatternSize {
		return errors.Wrapf(ErrPatternSize, "got %d bytes, want %d", len(data), PatternSize)
	}
	copy(p.notes[:], data[:StepCapacity])
	p.tie = binary.LittleEndian.Uint16(data[16:])
	p.rest = binary.LittleEndian.Uint16(data[18:])
	if len(data) == legacyPatternSize {
		p.length = StepCapacity
		p.shuffle = DefaultShuffle
		return nil
	}
	p.SetLength(int(data[20]))
	p.SetShuffle(int(data[21]))
	return nil
}

// Serialize is MarshalBinary without the error
func (p *Pattern) Serialize() []byte {
	buf, _ := p.MarshalBinary()
	return buf
}

// Deserialize decodes a pattern from its storage layout
func Deserialize(data []byte) (*Pattern, error) {
	p := &Pattern{}
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
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
