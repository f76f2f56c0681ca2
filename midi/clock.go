package midi

import "sync/atomic"

// PPQ is the MIDI clock resolution in pulses per quarter note
const PPQ = 24

// ClockDivider turns 24 PPQ timing clock into sequencer steps. With the
// default division of 6 every sixteenth note is a step.
type ClockDivider struct {
	division int32
	count    atomic.Int32
}

// NewClockDivider creates a divider firing every division pulses
func NewClockDivider(division int) *ClockDivider {
	if division < 1 {
		division = 1
	}
	if division > PPQ*4 {
		division = PPQ * 4
	}
	return &ClockDivider{division: int32(division)}
}

// Division returns pulses per step
func (d *ClockDivider) Division() int { return int(d.division) }

// Tick counts one pulse and reports whether it starts a step. The first
// pulse after Reset always does.
func (d *ClockDivider) Tick() bool {
	n := d.count.Add(1) - 1
	if n >= d.division {
		n = 0
		d.count.Store(1)
	}
	return n == 0
}

// Reset lines the next pulse up with a step
func (d *ClockDivider) Reset() {
	d.count.Store(0)
}
