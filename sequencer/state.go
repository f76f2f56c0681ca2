package sequencer

// Snapshot is a copy of everything the front panel shows
type Snapshot struct {
	State       TransportState
	Step        int
	Length      int
	Shuffle     int
	PlayMode    PlayMode
	ClockSource ClockSource
	BPM         int
	TempoPeriod uint32
	GateLength  int
	GateOpen    bool
	GlideTime   float64
	Curve       CurveShape
	Octave      int
	Transpose   int
	PitchCV     int
	Note        Note
	Steps       [StepCapacity]Step
	Beats       uint64
}

// Snapshot captures the current state
func (s *Sequencer) Snapshot() Snapshot {
	snap := Snapshot{
		State:       s.State(),
		Step:        s.currentStep,
		Length:      s.pattern.Length(),
		Shuffle:     s.pattern.Shuffle(),
		PlayMode:    s.playMode,
		ClockSource: s.clockSource,
		BPM:         s.BPM(),
		TempoPeriod: s.tempoPeriod,
		GateLength:  s.gateLength,
		GateOpen:    s.gateOpen,
		GlideTime:   s.glideTime,
		Curve:       s.glide.Curve(),
		Octave:      s.octave,
		Transpose:   s.transpose,
		PitchCV:     s.PitchCV(),
		Note:        s.current,
		Beats:       s.beats,
	}
	for i := range snap.Steps {
		snap.Steps[i], _ = s.pattern.Step(i)
	}
	return snap
}
