package sequencer

// nextStep moves from x according to the play mode. PingPong keeps its
// direction between calls.
func (s *Sequencer) nextStep(x int) int {
	n := s.pattern.Length()
	if n <= 1 {
		return 0
	}
	switch s.playMode {
	case PlayReverse:
		if x > 0 {
			return x - 1
		}
		return n - 1
	case PlayPingPong:
		next, dir := pingPong(x, s.direction, n)
		s.direction = dir
		return next
	case PlayChaos, PlayChaosCurves:
		return s.rng.Intn(n)
	}
	if x+1 < n {
		return x + 1
	}
	return 0
}

// pingPong steps x by dir, bouncing off both ends of 0..n-1
func pingPong(x, dir, n int) (int, int) {
	test := x + dir
	if test > n-1 {
		dir = -1
	}
	if test < 0 {
		dir = 1
	}
	next := x + dir
	if next < 0 || next > n-1 {
		next = clampInt(next, 0, n-1)
	}
	return next, dir
}

// stepAfter predicts the step following x without moving anything. It
// reports false in the chaos modes where the next step is random.
func (s *Sequencer) stepAfter(x int) (int, bool) {
	n := s.pattern.Length()
	if n <= 1 {
		return 0, true
	}
	switch s.playMode {
	case PlayReverse:
		if x > 0 {
			return x - 1, true
		}
		return n - 1, true
	case PlayPingPong:
		next, _ := pingPong(x, s.direction, n)
		return next, true
	case PlayChaos, PlayChaosCurves:
		return 0, false
	}
	if x+1 < n {
		return x + 1, true
	}
	return 0, true
}

// SelectStep moves the cursor one step in direction, wrapping within the
// pattern length, and auditions the step it lands on.
func (s *Sequencer) SelectStep(direction int) int {
	if direction == 0 {
		return s.currentStep
	}
	n := s.pattern.Length()
	x := s.currentStep
	if direction > 0 {
		if x+1 < n {
			x++
		} else {
			x = 0
		}
	} else {
		if x > 0 {
			x--
		} else {
			x = n - 1
		}
	}
	s.currentStep = x
	s.playNote()
	s.displayStep()
	return s.currentStep
}

func (s *Sequencer) displayStep() {
	if s.currentStep < 0 {
		return
	}
	s.leds.ClearSequenceLights()
	s.leds.SetLed(s.currentStep%StepCapacity, LedOn)
}
