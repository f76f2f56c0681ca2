package panel

import (
	"math"
	"sync"

	"tweakseq/clock"
	"tweakseq/sequencer"
)

// FlashPeriod is the blink half period of flashing LEDs in milliseconds
const FlashPeriod = 200

// Brightness range of the LED driver
const (
	MinBrightness     = 1
	MaxBrightness     = 50
	DefaultBrightness = 4
)

// Leds is the hosted front panel LED matrix. The sequencer and the panel
// write into it; the TUI and the Launchpad mirror read it.
type Leds struct {
	mu    sync.RWMutex
	clock clock.Clock

	states [sequencer.NumLeds]sequencer.LedState

	// value picker overlay on the step lights
	picker      bool
	pickerTimed bool
	pickerOn    uint16
	pickerFlash uint16
	pickerTimer *clock.Timer

	brightness int
	version    uint64
}

// NewLeds creates a dark LED matrix
func NewLeds(c clock.Clock) *Leds {
	return &Leds{
		clock:       c,
		pickerTimer: clock.NewTimer(c),
		brightness:  DefaultBrightness,
	}
}

// SetLed sets a single LED
func (l *Leds) SetLed(index int, state sequencer.LedState) {
	if index < 0 || index >= sequencer.NumLeds {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[index] != state {
		l.states[index] = state
		l.version++
	}
}

// ClearSequenceLights turns off the 16 step lights
func (l *Leds) ClearSequenceLights() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearSteps()
}

func (l *Leds) clearSteps() {
	for i := 0; i < sequencer.StepCapacity; i++ {
		l.states[i] = sequencer.LedOff
	}
	l.version++
}

// ShowValuePicker shows value within [low, high] across the step lights.
// A timed picker hides itself timeoutMs after it was shown.
func (l *Leds) ShowValuePicker(value, low, high int, timed bool, timeoutMs uint32) {
	on, flash := pickerBits(value, low, high)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearSteps()
	l.pickerOn = on
	l.pickerFlash = flash
	l.picker = true
	l.pickerTimed = timed
	if timed {
		if timeoutMs == 0 {
			timeoutMs = sequencer.DialogTimeout
		}
		l.pickerTimer.Start(timeoutMs)
	} else {
		l.pickerTimer.Stop()
	}
}

// HidePicker removes the value picker and clears the step lights
func (l *Leds) HidePicker() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hidePicker()
}

func (l *Leds) hidePicker() {
	l.picker = false
	l.pickerTimer.Stop()
	l.clearSteps()
}

// Update hides an expired timed picker. Call once per loop iteration.
func (l *Leds) Update() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.picker && l.pickerTimed && l.pickerTimer.Done(false) {
		l.hidePicker()
	}
}

// PickerVisible reports whether the value picker covers the step lights
func (l *Leds) PickerVisible() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.picker
}

// State returns the displayed state of one LED, picker overlay included
func (l *Leds) State(index int) sequencer.LedState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stateLocked(index)
}

func (l *Leds) stateLocked(index int) sequencer.LedState {
	if index < 0 || index >= sequencer.NumLeds {
		return sequencer.LedOff
	}
	if l.picker && index < sequencer.StepCapacity {
		bit := uint16(1) << uint(index)
		switch {
		case l.pickerFlash&bit != 0:
			return sequencer.LedFlash
		case l.pickerOn&bit != 0:
			return sequencer.LedOn
		}
		return sequencer.LedOff
	}
	return l.states[index]
}

// States returns every displayed LED state
func (l *Leds) States() [sequencer.NumLeds]sequencer.LedState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out [sequencer.NumLeds]sequencer.LedState
	for i := range out {
		out[i] = l.stateLocked(i)
	}
	return out
}

// Lit reports whether an LED is physically on right now, following the
// blink phase for flashing LEDs
func (l *Leds) Lit(index int) bool {
	switch l.State(index) {
	case sequencer.LedOn:
		return true
	case sequencer.LedFlash:
		return l.FlashOn()
	}
	return false
}

// FlashOn reports whether flashing LEDs are in their on phase
func (l *Leds) FlashOn() bool {
	return FlashPhase(l.clock.Millis())
}

// FlashPhase is the shared blink phase of flashing LEDs at time now
func FlashPhase(now uint32) bool {
	return (now/FlashPeriod)%2 == 0
}

// Version increases whenever a stored LED state changes
func (l *Leds) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

func (l *Leds) Brightness() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.brightness
}

// SetBrightness clamps to MinBrightness..MaxBrightness
func (l *Leds) SetBrightness(b int) {
	if b < MinBrightness {
		b = MinBrightness
	}
	if b > MaxBrightness {
		b = MaxBrightness
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.brightness != b {
		l.brightness = b
		l.version++
	}
}

// pickerBits lays value out over the 16 step lights. Ranges other than 16
// wide get lit borders that flash when the value sits on that end; the
// value itself is a bar, or a single dot for ranges below zero.
func pickerBits(value, low, high int) (on, flash uint16) {
	steps := high - low + 1

	var amount int
	if steps <= 10 || steps == 16 {
		amount = value
		if low == 0 {
			amount = value + 1
		}
	} else {
		amount = int(math.Ceil(float64(value-low) / float64(steps) * 10))
		if amount > 10 {
			amount = 10
		}
		if amount < 1 {
			amount = 1
		}
	}

	offset := 3
	if steps == 16 {
		offset = 0
	} else {
		on |= 0x0003 | 0xC000
		centered := low < 0 && value == 0
		if value == low || centered {
			flash |= 0x0003
		}
		if value == high || centered {
			flash |= 0xC000
		}
	}

	set := func(i int) {
		if i >= 0 && i < sequencer.StepCapacity {
			on |= 1 << uint(i)
		}
	}
	if low < 0 {
		set(amount - 1 + offset)
	} else {
		for i := 0; i < amount; i++ {
			set(i + offset)
		}
	}
	return on, flash
}
