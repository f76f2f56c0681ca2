package sequencer

import "tweakseq/debug"

// PianoKeyPressed auditions a key in the current octave. While recording
// the note is also written at the cursor, which then advances.
func (s *Sequencer) PianoKeyPressed(pitchClass int) {
	pitchClass = clampInt(pitchClass, 1, 12)
	prev := s.current
	step := s.currentStep
	if step < 0 {
		step = 0
	}
	note := s.cal.noteFor(step, s.octave, pitchClass)
	s.current = note
	s.openGate(note, false)
	s.glide.Begin(s.clock.Millis(), s.beatPeriod, s.glideTime, float64(prev.Voltage), float64(note.Voltage))

	if !s.recording {
		return
	}
	if err := s.pattern.SetStep(step, Step{Octave: note.Octave, PitchClass: note.PitchClass}); err != nil {
		debug.Log("seq", "record note: %v", err)
		return
	}
	debug.Log("seq", "recorded %s at step %d", note.Name(), step)
	s.currentStep = s.nextStep(step)
	s.displayStep()
}

// PatternInsertRest toggles the rest flag at the cursor and advances
func (s *Sequencer) PatternInsertRest() {
	s.insertFlag(s.pattern.ToggleRest, "rest")
}

// PatternInsertTie toggles the tie flag at the cursor and advances
func (s *Sequencer) PatternInsertTie() {
	s.insertFlag(s.pattern.ToggleTie, "tie")
}

func (s *Sequencer) insertFlag(toggle func(int) error, what string) {
	step := s.currentStep
	if step < 0 {
		step = 0
	}
	if err := toggle(step); err != nil {
		debug.Log("seq", "insert %s: %v", what, err)
		return
	}
	debug.Log("seq", "toggled %s at step %d", what, step)
	s.currentStep = s.nextStep(step)
	s.displayStep()
}
