package sequencer

import "tweakseq/debug"

// ResolveNote works out what step i would sound like after the current
// note. A tie carries the previous note unchanged. A rest carries its
// pitch but has zero voltage. It changes nothing.
func (s *Sequencer) ResolveNote(i int) Note {
	st, err := s.pattern.Step(i)
	if err != nil {
		return Note{StepIndex: i, IsRest: true}
	}
	prev := s.current
	switch {
	case st.Rest:
		return Note{
			StepIndex:  i,
			Octave:     prev.Octave,
			PitchClass: prev.PitchClass,
			MIDINote:   prev.MIDINote,
			IsRest:     true,
		}
	case st.Tie:
		n := prev
		n.StepIndex = i
		n.IsTie = true
		n.IsRest = false
		return n
	}
	return s.cal.noteFor(i, st.Octave, st.PitchClass)
}

// playNote sounds the step under the cursor
func (s *Sequencer) playNote() {
	if s.currentStep < 0 {
		return
	}
	if s.playMode == PlayChaosCurves {
		s.glide.SetCurve(CurveShape(s.rng.Intn(int(NumCurveShapes))))
	}

	prev := s.current
	note := s.ResolveNote(s.currentStep)
	switch {
	case note.IsRest:
		// the output holds where it was
		note.Voltage = prev.Voltage
		s.current = note
		if s.gateOpen && !s.gateTimer.Running() {
			s.closeGate()
		}
	case note.IsTie:
		s.current = note
		s.continueTie()
	default:
		s.current = note
		s.openGate(note, s.holdsGate())
		s.glide.Begin(s.clock.Millis(), s.beatPeriod, s.glideTime, float64(prev.Voltage), float64(note.Voltage))
	}
	debug.LogEvery(16, "seq", "step %d %s cv=%d gate=%v", s.currentStep, note.Name(), s.current.Voltage, s.gateOpen)
}

// tiedInto reports whether the step after x is a tie, so the gate opened
// at x must stay open across the beat boundary.
func (s *Sequencer) tiedInto(x int) bool {
	next, ok := s.stepAfter(x)
	return ok && next != x && s.pattern.IsTie(next)
}

// holdsGate reports whether a gate opened now may stay open into the next
// beat. Only a running transport has a next beat to close it.
func (s *Sequencer) holdsGate() bool {
	return !s.paused && s.tiedInto(s.currentStep)
}

// continueTie keeps a sounding gate open through a tie step. Without a
// known following tie the gate closes after this beat's gate time.
func (s *Sequencer) continueTie() {
	if !s.gateOpen {
		return
	}
	if s.holdsGate() {
		s.gateTimer.Stop()
		return
	}
	s.gateTimer.Start(s.GateDuration())
}

// GateDuration is the gate time for the current beat, kept at least
// gateMarginMs away from both ends of the beat
func (s *Sequencer) GateDuration() uint32 {
	period := s.beatPeriod
	ms := uint32(float64(s.gateLength) / 100 * float64(period))
	lo := uint32(gateMarginMs)
	hi := lo
	if period > 2*gateMarginMs {
		hi = period - gateMarginMs
	}
	if ms < lo {
		ms = lo
	}
	if ms > hi {
		ms = hi
	}
	return ms
}

// openGate starts a note. hold leaves the gate open until a later beat
// closes it. The listener hears the note with transpose applied.
func (s *Sequencer) openGate(n Note, hold bool) {
	if s.gateOpen {
		s.closeGate()
	}
	s.gateOpen = true
	s.sounding = s.transposed(n)
	if hold {
		s.gateTimer.Stop()
	} else {
		s.gateTimer.Start(s.GateDuration())
	}
	s.leds.SetLed(LedOutGate, LedOn)
	s.leds.SetLed(LedGate, LedOn)
	if s.gate != nil {
		s.gate.GateOpened(s.sounding)
	}
}

func (s *Sequencer) transposed(n Note) Note {
	if s.transpose == 0 {
		return n
	}
	n.MIDINote = uint8(clampInt(int(n.MIDINote)+s.transpose, 0, 127))
	n.Voltage = clampInt(n.Voltage+s.transpose*s.cal.Increment, 0, s.cal.MaxCode)
	return n
}

func (s *Sequencer) closeGate() {
	wasOpen := s.gateOpen
	s.gateOpen = false
	s.gateTimer.Stop()
	s.leds.SetLed(LedOutGate, LedOff)
	s.leds.SetLed(LedGate, LedOff)
	if wasOpen && s.gate != nil {
		s.gate.GateClosed(s.sounding)
	}
}
