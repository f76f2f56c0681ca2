package sequencer

import (
	"math/rand"
	"testing"

	"tweakseq/clock"
)

type ledRecorder struct {
	leds    [NumLeds]LedState
	cleared int
	picker  [3]int
}

func (r *ledRecorder) SetLed(i int, s LedState) {
	if i >= 0 && i < NumLeds {
		r.leds[i] = s
	}
}

func (r *ledRecorder) ClearSequenceLights() {
	r.cleared++
	for i := 0; i < StepCapacity; i++ {
		r.leds[i] = LedOff
	}
}

func (r *ledRecorder) ShowValuePicker(value, low, high int, timed bool, timeoutMs uint32) {
	r.picker = [3]int{value, low, high}
}

type gateRecorder struct {
	opened []Note
	closed []Note
}

func (g *gateRecorder) GateOpened(n Note) { g.opened = append(g.opened, n) }
func (g *gateRecorder) GateClosed(n Note) { g.closed = append(g.closed, n) }

func newTestSequencer(t *testing.T) (*Sequencer, *clock.Manual, *ledRecorder) {
	t.Helper()
	c := clock.NewManual(0)
	leds := &ledRecorder{}
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(1))
	opts.GlideTime = 0
	return New(c, leds, opts), c, leds
}

// runUntil polls the sequencer once per millisecond up to the given time
// and calls onBeat after every beat
func runUntil(s *Sequencer, c *clock.Manual, until uint32, onBeat func()) {
	for c.Millis() < until {
		c.Advance(1)
		before := s.Beats()
		s.Update()
		if onBeat != nil && s.Beats() != before {
			onBeat()
		}
	}
}

func TestNextStepCyclesForwardAndReverse(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	for _, mode := range []PlayMode{PlayForward, PlayReverse} {
		for length := 2; length <= StepCapacity; length++ {
			s.SetPlayMode(mode)
			s.SetPatternLength(length)
			seen := make(map[int]bool)
			x := 0
			for i := 0; i < length; i++ {
				x = s.nextStep(x)
				if seen[x] {
					t.Fatalf("%s length %d: step %d repeated before full cycle", mode, length, x)
				}
				seen[x] = true
			}
			if len(seen) != length || x != 0 {
				t.Errorf("%s length %d: visited %d steps, ended at %d", mode, length, len(seen), x)
			}
		}
	}
}

func TestNextStepSingleStep(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	s.SetPatternLength(1)
	for mode := MinPlayMode; mode <= MaxPlayMode; mode++ {
		s.SetPlayMode(mode)
		for _, x := range []int{-1, 0, 5} {
			if got := s.nextStep(x); got != 0 {
				t.Errorf("%s nextStep(%d) with length 1 = %d, want 0", mode, x, got)
			}
		}
	}
}

func TestNextStepPingPong(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	s.SetPlayMode(PlayPingPong)
	s.SetPatternLength(5)

	want := []int{0, 1, 2, 3, 4, 3, 2, 1, 0, 1, 2}
	x := -1
	for i, w := range want {
		x = s.nextStep(x)
		if x != w {
			t.Fatalf("step %d = %d, want %d", i, x, w)
		}
	}
}

func TestNextStepChaosStaysInRange(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	s.SetPlayMode(PlayChaos)
	s.SetPatternLength(6)
	for i := 0; i < 500; i++ {
		if x := s.nextStep(i % 6); x < 0 || x >= 6 {
			t.Fatalf("chaos step %d out of range", x)
		}
	}
}

func TestRestAndTieScenario(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	p := s.Pattern()
	p.SetStep(0, Step{Octave: 4, PitchClass: 1})
	p.SetStep(1, Step{Rest: true})
	p.SetStep(2, Step{Octave: 4, PitchClass: 3})
	p.SetStep(3, Step{Tie: true})
	s.SetPatternLength(4)

	cal := s.Calibration()
	c4 := cal.PitchToVoltage(4, 1)
	d4 := cal.PitchToVoltage(4, 3)

	type beat struct {
		step int
		cv   int
		gate bool
	}
	var got []beat
	s.Play()
	runUntil(s, c, 2000, func() {
		got = append(got, beat{s.CurrentStep(), s.PitchCV(), s.GateOpen()})
	})

	want := []beat{{0, c4, true}, {1, c4, false}, {2, d4, true}, {3, d4, true}}
	if len(got) != len(want) {
		t.Fatalf("got %d beats, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("beat %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// the tie keeps the gate from step 2 open, then it closes on schedule
	runUntil(s, c, 2150, nil)
	if !s.GateOpen() {
		t.Errorf("gate closed during tie step")
	}
	runUntil(s, c, 2250, nil)
	if s.GateOpen() {
		t.Errorf("gate still open after the tie step's gate time")
	}
}

func TestGateHeldAcrossTieBoundary(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	p := s.Pattern()
	p.SetStep(0, Step{Octave: 3, PitchClass: 1})
	p.SetStep(1, Step{Tie: true})
	s.SetPatternLength(2)
	g := &gateRecorder{}
	s.SetGateListener(g)

	s.Play()
	runUntil(s, c, 950, nil) // beat at 500, next at 1000
	if !s.GateOpen() {
		t.Fatalf("gate closed before the tied step")
	}
	if len(g.opened) != 1 {
		t.Fatalf("gate opened %d times, want 1", len(g.opened))
	}
	runUntil(s, c, 1001, nil)
	if len(g.opened) != 1 {
		t.Errorf("tie retriggered the gate")
	}
	runUntil(s, c, 1300, nil)
	if s.GateOpen() || len(g.closed) != 1 {
		t.Errorf("gate open=%v closed=%d after tie, want closed once", s.GateOpen(), len(g.closed))
	}
}

func TestResolveNote(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	p := s.Pattern()
	p.SetStep(0, Step{Octave: 2, PitchClass: 5})
	p.SetStep(1, Step{Octave: 7, PitchClass: 11})
	p.SetStep(1, Step{Tie: true}) // stored pitch stays G#7-ish, must be ignored
	p.SetStep(2, Step{Rest: true})

	s.currentStep = 0
	s.playNote()
	prev := s.CurrentNote()

	tie := s.ResolveNote(1)
	if !tie.IsTie || tie.Voltage != prev.Voltage || tie.PitchClass != prev.PitchClass ||
		tie.Octave != prev.Octave || tie.MIDINote != prev.MIDINote {
		t.Errorf("tie = %+v, want carry of %+v", tie, prev)
	}

	rest := s.ResolveNote(2)
	if !rest.IsRest || rest.Voltage != 0 {
		t.Errorf("rest = %+v, want zero voltage marker", rest)
	}
	if rest.PitchClass != prev.PitchClass || rest.Octave != prev.Octave {
		t.Errorf("rest pitch %d/%d, want carried %d/%d", rest.Octave, rest.PitchClass, prev.Octave, prev.PitchClass)
	}
	if s.CurrentNote() != prev {
		t.Errorf("ResolveNote changed the current note")
	}
}

func TestGateDuration(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	s.SetTempoPeriod(500)
	s.beatPeriod = 500

	tests := []struct {
		pct  int
		want uint32
	}{
		{25, 125},
		{50, 250},
		{0, 2},
		{100, 498},
		{150, 498},
	}
	for _, tt := range tests {
		s.SetGateLength(tt.pct)
		if got := s.GateDuration(); got != tt.want {
			t.Errorf("gate %d%% of 500ms = %d, want %d", tt.pct, got, tt.want)
		}
	}
}

func TestPitchToVoltage(t *testing.T) {
	cal := DefaultCalibration()
	tests := []struct {
		octave, pc, want int
	}{
		{1, 1, 40},
		{1, 12, 480},
		{4, 1, 1480},
		{8, 12, 3840},
		{9, 12, 3840},
	}
	for _, tt := range tests {
		if got := cal.PitchToVoltage(tt.octave, tt.pc); got != tt.want {
			t.Errorf("PitchToVoltage(%d, %d) = %d, want %d", tt.octave, tt.pc, got, tt.want)
		}
	}
	if n := MIDINote(4, 1); n != 60 {
		t.Errorf("C4 MIDI note = %d, want 60", n)
	}
}

func TestExternalClockArbitration(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	s.Play()

	runUntil(s, c, 100, nil)
	s.ExternalClockTrigger()
	s.Update()
	if s.ClockSource() != ClockExternal || s.Beats() != 1 {
		t.Fatalf("after first pulse: source=%v beats=%d", s.ClockSource(), s.Beats())
	}

	// internal tick at 500 is ignored while external is active
	runUntil(s, c, 599, nil)
	if s.Beats() != 1 {
		t.Fatalf("internal tick beat while external active: beats=%d", s.Beats())
	}

	c.Set(600)
	s.ExternalClockTrigger()
	s.Update()
	if s.Beats() != 2 || s.TempoPeriod() != 500 {
		t.Fatalf("second pulse: beats=%d period=%d, want 2/500", s.Beats(), s.TempoPeriod())
	}

	c.Set(610)
	s.ExternalClockTrigger()
	s.Update()
	if s.Beats() != 2 {
		t.Errorf("pulse inside debounce window was counted")
	}

	runUntil(s, c, 2600, nil)
	if s.ClockSource() != ClockExternal || s.Beats() != 2 {
		t.Fatalf("fell back early: source=%v beats=%d", s.ClockSource(), s.Beats())
	}
	runUntil(s, c, 3700, nil)
	if s.ClockSource() != ClockInternal {
		t.Errorf("no fallback to internal after timeout")
	}
	if s.Beats() <= 2 {
		t.Errorf("internal clock did not resume beating")
	}
}

func TestExternalClockFollowsPulseRate(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	for _, at := range []uint32{1000, 1250, 1500} {
		c.Set(at)
		s.ExternalClockTrigger()
		s.Update()
	}
	if s.TempoPeriod() != 250 || s.BPM() != 240 {
		t.Errorf("period=%d bpm=%d, want 250/240", s.TempoPeriod(), s.BPM())
	}
}

func TestShuffleAlternatesBeats(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	s.ChangeShuffle(50) // full swing
	s.Play()

	var times []uint32
	runUntil(s, c, 2200, func() { times = append(times, c.Millis()) })

	want := []uint32{500, 1167, 1500, 2167}
	if len(times) != len(want) {
		t.Fatalf("beat times %v, want %v", times, want)
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("beat %d at %d, want %d", i, times[i], want[i])
		}
	}
}

func TestPauseClosesGate(t *testing.T) {
	s, c, leds := newTestSequencer(t)
	s.SetGateLength(90)
	s.Play()
	runUntil(s, c, 501, nil)
	if !s.GateOpen() {
		t.Fatalf("gate not open after first beat")
	}
	s.Pause()
	if s.GateOpen() || leds.leds[LedGate] != LedOff {
		t.Errorf("pause left the gate open")
	}
	if s.State() != Paused {
		t.Errorf("state = %v, want PAUSE", s.State())
	}
	s.Stop()
	if s.State() != Stopped || s.CurrentStep() != -1 {
		t.Errorf("after Stop state=%v step=%d", s.State(), s.CurrentStep())
	}
}

func TestRecording(t *testing.T) {
	s, _, leds := newTestSequencer(t)
	s.SetOctave(3)
	s.SetRecording(true)
	if s.State() != Recording || s.CurrentStep() != 0 || !s.IsPaused() {
		t.Fatalf("enter recording: state=%v step=%d", s.State(), s.CurrentStep())
	}
	if leds.leds[LedPlay] != LedFlash || leds.leds[0] != LedOn {
		t.Errorf("recording LEDs: play=%v step0=%v", leds.leds[LedPlay], leds.leds[0])
	}

	s.PianoKeyPressed(3)
	if st, _ := s.Pattern().Step(0); st.Octave != 3 || st.PitchClass != 3 {
		t.Errorf("recorded step 0 = %+v, want D3", st)
	}
	if !s.GateOpen() {
		t.Errorf("key press did not audition")
	}
	if s.CurrentStep() != 1 {
		t.Fatalf("cursor = %d after key, want 1", s.CurrentStep())
	}

	s.PatternInsertRest()
	s.PatternInsertTie()
	if !s.Pattern().IsRest(1) || !s.Pattern().IsTie(2) || s.CurrentStep() != 3 {
		t.Errorf("rest/tie entry: rest1=%v tie2=%v step=%d",
			s.Pattern().IsRest(1), s.Pattern().IsTie(2), s.CurrentStep())
	}

	s.SetRecording(false)
	if s.State() != Paused || s.GateOpen() {
		t.Errorf("leave recording: state=%v gate=%v", s.State(), s.GateOpen())
	}
}

func TestKeyPressOutsideRecordingOnlyAuditions(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	before := *s.Pattern()
	s.PianoKeyPressed(7)
	if *s.Pattern() != before {
		t.Errorf("audition changed the pattern")
	}
	if s.PitchCV() != s.Calibration().PitchToVoltage(s.Octave(), 7) {
		t.Errorf("audition CV = %d", s.PitchCV())
	}
}

func TestSelectStepWraps(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	s.SetPatternLength(4)
	if got := s.SelectStep(1); got != 0 {
		t.Errorf("SelectStep(+1) from start = %d, want 0", got)
	}
	if got := s.SelectStep(-1); got != 3 {
		t.Errorf("SelectStep(-1) from 0 = %d, want 3", got)
	}
	if got := s.SelectStep(1); got != 0 {
		t.Errorf("SelectStep(+1) from 3 = %d, want 0", got)
	}
	if got := s.SelectStep(0); got != 0 {
		t.Errorf("SelectStep(0) moved to %d", got)
	}
}

func TestSettersClamp(t *testing.T) {
	s, _, _ := newTestSequencer(t)

	s.SetTranspose(30)
	if s.Transpose() != MaxTranspose {
		t.Errorf("transpose = %d, want %d", s.Transpose(), MaxTranspose)
	}
	s.SetTranspose(-100)
	if s.Transpose() != MinTranspose {
		t.Errorf("transpose = %d, want %d", s.Transpose(), MinTranspose)
	}

	s.SetBPM(5000)
	if s.BPM() != MaxBPM {
		t.Errorf("bpm = %d, want %d", s.BPM(), MaxBPM)
	}
	s.SetOctave(0)
	if s.Octave() != MinOctave {
		t.Errorf("octave = %d", s.Octave())
	}
	s.SetPlayMode(PlayMode(42))
	if s.PlayMode() != MaxPlayMode {
		t.Errorf("play mode = %v", s.PlayMode())
	}
	s.SetGlideTime(3)
	if s.GlideTime() != 1 {
		t.Errorf("glide = %v", s.GlideTime())
	}
	s.ChangeShuffle(-500)
	if s.Pattern().Shuffle() != 0 {
		t.Errorf("shuffle = %d", s.Pattern().Shuffle())
	}

	s.currentStep = 10
	s.SetPatternLength(4)
	if s.CurrentStep() != 2 {
		t.Errorf("step after shrinking = %d, want 2", s.CurrentStep())
	}
}

func TestPitchCVTransposeClamped(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	s.SetOctave(8)
	s.PianoKeyPressed(12)
	s.SetTranspose(24)
	if got := s.PitchCV(); got != s.Calibration().MaxCode {
		t.Errorf("PitchCV = %d, want clamp at %d", got, s.Calibration().MaxCode)
	}
	s.SetTranspose(-48)
	want := s.Calibration().PitchToVoltage(8, 12) - 24*s.Calibration().Increment
	if got := s.PitchCV(); got != want {
		t.Errorf("PitchCV = %d, want %d", got, want)
	}
}

func TestChaosCurvesRandomizesCurve(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	s.SetPlayMode(PlayChaosCurves)
	seen := make(map[CurveShape]bool)
	s.Play()
	runUntil(s, c, 40000, func() { seen[s.Curve()] = true })
	if len(seen) < 2 {
		t.Errorf("curve never changed in chaos-curves mode: %v", seen)
	}
}

func TestGateListenerHearsTransposedNote(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	g := &gateRecorder{}
	s.SetGateListener(g)
	s.SetOctave(4)
	s.SetTranspose(3)
	s.PianoKeyPressed(1)

	if len(g.opened) != 1 {
		t.Fatalf("gate opened %d times", len(g.opened))
	}
	n := g.opened[0]
	if n.MIDINote != 63 || n.Voltage != s.Calibration().PitchToVoltage(4, 4) {
		t.Errorf("sounding note = %+v, want MIDI 63 at the D# voltage", n)
	}
	if s.CurrentNote().MIDINote != 60 {
		t.Errorf("resolved note was transposed: %+v", s.CurrentNote())
	}
}

func TestPausedAuditionBeforeTieCloses(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	p := s.Pattern()
	p.SetStep(0, Step{Octave: 4, PitchClass: 1})
	p.SetStep(1, Step{Tie: true})

	s.SetRecording(true)
	s.SelectStep(-1)
	if s.SelectStep(1) != 0 || !s.GateOpen() {
		t.Fatalf("audition of step 0 did not open the gate")
	}
	runUntil(s, c, 10000, nil)
	if s.GateOpen() {
		t.Errorf("paused audition before a tie left the gate open")
	}
}

func TestEnterRecordingClosesHeldGate(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	p := s.Pattern()
	p.SetStep(0, Step{Octave: 4, PitchClass: 1})
	p.SetStep(1, Step{Tie: true})

	s.Play()
	runUntil(s, c, 501, nil)
	if !s.GateOpen() {
		t.Fatalf("gate not open on step 0")
	}
	s.SetRecording(true)
	if s.GateOpen() {
		t.Errorf("entering recording kept the held gate open")
	}
}

func TestRestClosesHeldGateAfterModeChange(t *testing.T) {
	s, c, _ := newTestSequencer(t)
	p := s.Pattern()
	p.SetStep(0, Step{Octave: 4, PitchClass: 1})
	p.SetStep(1, Step{Tie: true})
	p.SetStep(2, Step{Octave: 4, PitchClass: 3})
	p.SetStep(3, Step{Rest: true})
	s.SetPatternLength(4)

	s.Play()
	runUntil(s, c, 501, nil)
	if s.CurrentStep() != 0 || !s.GateOpen() {
		t.Fatalf("step %d gate %v, want step 0 held", s.CurrentStep(), s.GateOpen())
	}

	s.SetPlayMode(PlayReverse)
	runUntil(s, c, 1001, nil)
	if s.CurrentStep() != 3 {
		t.Fatalf("step = %d, want 3", s.CurrentStep())
	}
	if s.GateOpen() {
		t.Errorf("gate open on a rest")
	}
	runUntil(s, c, 1350, nil)
	if s.GateOpen() {
		t.Errorf("gate reopened during the rest")
	}
}

func TestTransportStateString(t *testing.T) {
	if Recording.String() != "REC" {
		t.Errorf("Recording = %q", Recording.String())
	}
	if got := TransportState(9).String(); got != "?" {
		t.Errorf("out of range state = %q", got)
	}
	if got := TransportState(-1).String(); got != "?" {
		t.Errorf("negative state = %q", got)
	}
}
