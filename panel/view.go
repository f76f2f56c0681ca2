package panel

// KnobView is a copy of one knob's display state
type KnobView struct {
	Function Function
	Mode     int
	Modes    [ModesPerKnob]Function
	Value    int
	Min      int
	Max      int
}

// View is a copy of the panel state for readers outside the sequencer loop
type View struct {
	State  UIState
	Shift  bool
	Bank   int
	Slot   int
	Status string
	Err    error
	Knobs  [3]KnobView
}

func (p *Panel) capture() View {
	v := View{
		State:  p.ui,
		Shift:  p.shift,
		Bank:   p.bank,
		Slot:   p.slot,
		Status: p.status,
		Err:    p.err,
	}
	for i, k := range p.knobs {
		v.Knobs[i] = KnobView{
			Function: k.Function(),
			Mode:     k.Mode(),
			Modes:    k.Modes(),
			Value:    k.Value(),
			Min:      k.Min(),
			Max:      k.Max(),
		}
	}
	return v
}

// Published returns the view captured by the last Update. Safe from any
// goroutine.
func (p *Panel) Published() View {
	p.viewMu.RLock()
	defer p.viewMu.RUnlock()
	return p.view
}
