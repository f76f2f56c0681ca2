package sequencer

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"tweakseq/clock"
	"tweakseq/debug"
)

// PlayMode decides how the step pointer moves on each beat
type PlayMode int

const (
	PlayForward PlayMode = iota + 1
	PlayReverse
	PlayPingPong
	PlayChaos
	PlayChaosCurves // chaos, plus a random glide curve per step
)

const (
	MinPlayMode = PlayForward
	MaxPlayMode = PlayChaosCurves
)

var playModeNames = []string{"Forward", "Reverse", "PingPong", "Chaos", "Chaos+Curves"}

func (m PlayMode) String() string {
	if m < MinPlayMode || m > MaxPlayMode {
		return "?"
	}
	return playModeNames[m-1]
}

// ClockSource is whichever clock currently drives the beat
type ClockSource int

const (
	ClockInternal ClockSource = iota
	ClockExternal
)

func (c ClockSource) String() string {
	if c == ClockExternal {
		return "ext"
	}
	return "int"
}

// TransportState is the derived transport state
type TransportState int

const (
	Stopped TransportState = iota
	Playing
	Paused
	Recording
)

var transportNames = []string{"STOP", "PLAY", "PAUSE", "REC"}

func (t TransportState) String() string {
	if t < Stopped || int(t) >= len(transportNames) {
		return "?"
	}
	return transportNames[t]
}

// Tempo and timing limits
const (
	MinBPM            = 20
	MaxBPM            = 300
	MinTempoPeriod    = 4
	MaxTempoPeriod    = 60000 / MinBPM
	MinTranspose      = -24
	MaxTranspose      = 24
	gateMarginMs      = 2
	clockPulseMs      = 20
	defaultDebounce   = 20
	defaultExtTimeout = 2000
)

// Options configures a Sequencer
type Options struct {
	BPM                int
	GateLength         int     // percent of the beat
	GlideTime          float64 // fraction of the beat spent gliding
	Curve              CurveShape
	PlayMode           PlayMode
	Octave             int
	ShuffleDepth       float64 // beat stretch at full shuffle
	ExternalTimeoutMs  uint32
	ExternalDebounceMs uint32
	Calibration        Calibration
	Rand               *rand.Rand
}

// DefaultOptions mirrors the front panel power-on state
func DefaultOptions() Options {
	return Options{
		BPM:                120,
		GateLength:         40,
		GlideTime:          0.2,
		Curve:              CurveB,
		PlayMode:           PlayForward,
		Octave:             3,
		ShuffleDepth:       1.0 / 3,
		ExternalTimeoutMs:  defaultExtTimeout,
		ExternalDebounceMs: defaultDebounce,
		Calibration:        DefaultCalibration(),
	}
}

// Sequencer turns the active pattern into pitch, gate and clock events.
// Every method except ExternalClockTrigger must be called from the loop
// goroutine.
type Sequencer struct {
	clock clock.Clock
	leds  LedMatrix
	gate  GateListener
	rng   *rand.Rand

	cal          Calibration
	shuffleDepth float64
	extTimeout   uint32
	extDebounce  uint32

	pattern *Pattern
	glide   *Glide

	currentStep int // -1 until the first beat
	direction   int
	playMode    PlayMode
	clockSource ClockSource
	paused      bool
	recording   bool

	tempoPeriod uint32
	beatPeriod  uint32 // tempoPeriod after shuffle, for the current beat
	longBeat    bool   // shuffle parity of the next beat
	gateLength  int
	glideTime   float64
	octave      int
	transpose   int

	current  Note // last resolved note
	sounding Note // note that opened the gate
	gateOpen bool

	bpmClock      *clock.Timer
	gateTimer     *clock.Timer
	clockLedTimer *clock.Timer

	// written by ExternalClockTrigger from any goroutine
	extPending atomic.Uint32
	extStamp   atomic.Uint32

	lastExternal uint32
	hasExternal  bool
	beats        uint64
}

// New creates a paused sequencer with an empty pattern. leds may be nil.
func New(c clock.Clock, leds LedMatrix, opts Options) *Sequencer {
	if leds == nil {
		leds = nopLeds{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Calibration.Increment == 0 {
		opts.Calibration = DefaultCalibration()
	}
	if opts.ExternalTimeoutMs == 0 {
		opts.ExternalTimeoutMs = defaultExtTimeout
	}
	if opts.ExternalDebounceMs == 0 {
		opts.ExternalDebounceMs = defaultDebounce
	}
	if opts.ShuffleDepth < 0 || opts.ShuffleDepth >= 1 {
		opts.ShuffleDepth = 1.0 / 3
	}

	s := &Sequencer{
		clock:         c,
		leds:          leds,
		rng:           opts.Rand,
		cal:           opts.Calibration,
		shuffleDepth:  opts.ShuffleDepth,
		extTimeout:    opts.ExternalTimeoutMs,
		extDebounce:   opts.ExternalDebounceMs,
		pattern:       NewPattern(),
		glide:         NewGlide(opts.Curve),
		currentStep:   -1,
		direction:     1,
		paused:        true,
		bpmClock:      clock.NewTimer(c),
		gateTimer:     clock.NewTimer(c),
		clockLedTimer: clock.NewTimer(c),
		longBeat:      true,
	}
	s.SetPlayMode(opts.PlayMode)
	s.SetGateLength(opts.GateLength)
	s.SetGlideTime(opts.GlideTime)
	s.SetOctave(opts.Octave)
	s.SetBPM(opts.BPM)
	s.beatPeriod = s.tempoPeriod
	s.bpmClock.Start(s.tempoPeriod)
	return s
}

// SetGateListener registers the receiver of gate events
func (s *Sequencer) SetGateListener(l GateListener) {
	s.gate = l
}

// Pattern returns the live pattern. Edits to it take effect on the next beat.
func (s *Sequencer) Pattern() *Pattern { return s.pattern }

func (s *Sequencer) Calibration() Calibration { return s.cal }
func (s *Sequencer) CurrentStep() int         { return s.currentStep }
func (s *Sequencer) PlayMode() PlayMode       { return s.playMode }
func (s *Sequencer) ClockSource() ClockSource { return s.clockSource }
func (s *Sequencer) IsPaused() bool           { return s.paused }
func (s *Sequencer) IsRecording() bool        { return s.recording }
func (s *Sequencer) GateOpen() bool           { return s.gateOpen }
func (s *Sequencer) TempoPeriod() uint32      { return s.tempoPeriod }
func (s *Sequencer) BeatPeriod() uint32       { return s.beatPeriod }
func (s *Sequencer) GateLength() int          { return s.gateLength }
func (s *Sequencer) GlideTime() float64       { return s.glideTime }
func (s *Sequencer) Curve() CurveShape        { return s.glide.Curve() }
func (s *Sequencer) Octave() int              { return s.octave }
func (s *Sequencer) Transpose() int           { return s.transpose }
func (s *Sequencer) CurrentNote() Note        { return s.current }
func (s *Sequencer) Beats() uint64            { return s.beats }

// BPM derives beats per minute from the tempo period
func (s *Sequencer) BPM() int {
	return int(math.Round(60000 / float64(s.tempoPeriod)))
}

// State derives the transport state
func (s *Sequencer) State() TransportState {
	switch {
	case s.recording:
		return Recording
	case !s.paused:
		return Playing
	case s.currentStep < 0:
		return Stopped
	}
	return Paused
}

// PitchCV is the glide output plus transpose, clamped to the DAC range
func (s *Sequencer) PitchCV() int {
	v := int(math.Round(s.glide.Value(s.clock.Millis())))
	v += s.transpose * s.cal.Increment
	return clampInt(v, 0, s.cal.MaxCode)
}

// Update advances every timer. Call it once per loop iteration.
func (s *Sequencer) Update() {
	if s.bpmClock.Done(true) {
		s.BPMClockTick()
	}
	if n := s.extPending.Swap(0); n > 0 {
		if n > 1 {
			debug.Log("clock", "coalesced %d external triggers", n)
		}
		s.handleExternal(s.extStamp.Load())
	}
	if s.gateTimer.Done(false) {
		s.closeGate()
	}
	if s.clockLedTimer.Done(false) {
		s.leds.SetLed(LedClock, LedOff)
		s.leds.SetLed(LedOutClock, LedOff)
	}
}
