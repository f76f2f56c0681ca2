package sequencer

import (
	"tweakseq/debug"
)

// Play starts or resumes playback. Recording ends.
func (s *Sequencer) Play() {
	if !s.paused && !s.recording {
		return
	}
	s.recording = false
	s.paused = false
	s.leds.SetLed(LedPlay, LedOn)
	debug.Log("seq", "play from step %d", s.currentStep)
}

// Pause halts advancement and cuts the sounding note
func (s *Sequencer) Pause() {
	s.paused = true
	s.closeGate()
	s.leds.SetLed(LedPlay, LedOff)
	debug.Log("seq", "pause at step %d", s.currentStep)
}

// Stop pauses and rewinds so the next Play starts from the first step
func (s *Sequencer) Stop() {
	s.recording = false
	s.Pause()
	s.currentStep = -1
	s.direction = 1
	s.longBeat = true
	s.leds.ClearSequenceLights()
}

// TogglePlay flips between playing and paused
func (s *Sequencer) TogglePlay() {
	if s.paused {
		s.Play()
	} else {
		s.Pause()
	}
}

// SetRecording enters or leaves step recording. Entering pauses on the
// first step; leaving pauses where the cursor is.
func (s *Sequencer) SetRecording(on bool) {
	if !on {
		s.recording = false
		s.Pause()
		return
	}
	s.recording = true
	s.paused = true
	s.closeGate()
	s.currentStep = 0
	s.leds.SetLed(LedPlay, LedFlash)
	s.leds.SetLed(LedShift, LedOff)
	s.leds.ClearSequenceLights()
	s.leds.SetLed(0, LedOn)
	debug.Log("seq", "recording")
}

// BPMClockTick is the internal clock's beat
func (s *Sequencer) BPMClockTick() {
	if s.hasExternal && s.clock.Millis()-s.lastExternal > s.extTimeout && s.clockSource == ClockExternal {
		s.clockSource = ClockInternal
		debug.Log("clock", "external clock lost, back to internal at %d ms", s.tempoPeriod)
	}
	s.beatFrom(ClockInternal)
}

// ExternalClockTrigger records a pulse from the clock input. It only
// touches atomics and may be called from any goroutine; Update does the work.
func (s *Sequencer) ExternalClockTrigger() {
	s.extStamp.Store(s.clock.Millis())
	s.extPending.Add(1)
}

func (s *Sequencer) handleExternal(at uint32) {
	elapsed := at - s.lastExternal
	if s.hasExternal && elapsed < s.extDebounce {
		debug.LogEvery(50, "clock", "debounced external trigger after %d ms", elapsed)
		return
	}
	first := !s.hasExternal
	s.hasExternal = true
	s.lastExternal = at
	if s.clockSource != ClockExternal {
		debug.Log("clock", "external clock detected")
	}
	s.clockSource = ClockExternal
	if !first && elapsed <= s.extTimeout {
		s.SetTempoPeriod(elapsed)
	}
	s.beatFrom(ClockExternal)
}

func (s *Sequencer) beatFrom(src ClockSource) {
	if src != s.clockSource {
		return
	}
	s.clockLedTimer.Start(clockPulseMs)
	s.leds.SetLed(LedClock, LedOn)
	s.leds.SetLed(LedOutClock, LedOn)

	s.beatPeriod = s.shuffledPeriod(s.longBeat)
	s.longBeat = !s.longBeat
	if src == ClockInternal {
		s.bpmClock.ChangeDuration(s.beatPeriod)
	}
	s.beats++
	s.beat()
}

// shuffledPeriod returns the length of a long or short beat
func (s *Sequencer) shuffledPeriod(long bool) uint32 {
	o := float64(s.pattern.Shuffle()-DefaultShuffle) / DefaultShuffle * s.shuffleDepth
	if !long {
		o = -o
	}
	p := float64(s.tempoPeriod) * (1 + o)
	if p < MinTempoPeriod {
		p = MinTempoPeriod
	}
	return uint32(p + 0.5)
}

func (s *Sequencer) beat() {
	if s.paused {
		return
	}
	s.currentStep = s.nextStep(s.currentStep)
	s.playNote()
	s.displayStep()
}

// SetBPM sets the internal tempo, clamped to MinBPM..MaxBPM
func (s *Sequencer) SetBPM(bpm int) {
	bpm = clampInt(bpm, MinBPM, MaxBPM)
	s.SetTempoPeriod(uint32(60000 / bpm))
}

// SetTempoPeriod sets the beat period directly
func (s *Sequencer) SetTempoPeriod(ms uint32) {
	if ms < MinTempoPeriod {
		ms = MinTempoPeriod
	}
	if ms > MaxTempoPeriod {
		ms = MaxTempoPeriod
	}
	s.tempoPeriod = ms
	s.bpmClock.ChangeDuration(s.shuffledPeriod(!s.longBeat))
}

// SetGateLength sets the gate as a percentage of the beat
func (s *Sequencer) SetGateLength(pct int) {
	s.gateLength = clampInt(pct, 0, 100)
}

// SetGlideTime sets the fraction of the beat spent gliding
func (s *Sequencer) SetGlideTime(f float64) {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	s.glideTime = f
}

// SetPatternLength changes the number of played steps and keeps the
// cursor inside them
func (s *Sequencer) SetPatternLength(n int) {
	s.pattern.SetLength(n)
	s.clampStep()
}

func (s *Sequencer) clampStep() {
	if s.currentStep >= 0 {
		s.currentStep %= s.pattern.Length()
	}
}

func (s *Sequencer) SetCurveShape(shape CurveShape) {
	s.glide.SetCurve(shape)
}

// CycleCurve selects the next glide curve
func (s *Sequencer) CycleCurve() {
	s.glide.SetCurve(s.glide.Curve().Next())
}

// SetOctave sets the octave used for keyboard notes
func (s *Sequencer) SetOctave(o int) {
	s.octave = clampInt(o, MinOctave, MaxOctave)
}

// SetTranspose moves the output pitch by delta semitones
func (s *Sequencer) SetTranspose(delta int) {
	if delta == 0 {
		return
	}
	s.transpose = clampInt(s.transpose+delta, MinTranspose, MaxTranspose)
}

// ChangeShuffle nudges the pattern's shuffle amount
func (s *Sequencer) ChangeShuffle(delta int) {
	s.pattern.SetShuffle(s.pattern.Shuffle() + delta)
}

func (s *Sequencer) SetPlayMode(m PlayMode) {
	if m < MinPlayMode {
		m = MinPlayMode
	}
	if m > MaxPlayMode {
		m = MaxPlayMode
	}
	s.playMode = m
}
