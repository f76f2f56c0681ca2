package panel

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"tweakseq/debug"
	"tweakseq/sequencer"
)

// UIState is the mode of the front panel
type UIState int

const (
	UISequencer UIState = iota
	UILoadBank
	UILoadSlot
	UISaveBank
	UISaveSlot
)

func (s UIState) String() string {
	return [...]string{"SEQ", "LOAD BANK", "LOAD SLOT", "SAVE BANK", "SAVE SLOT"}[s]
}

// Button is a front panel push button
type Button int

const (
	ButtonShift Button = iota
	ButtonPlay
	ButtonEnter
	ButtonTie
	ButtonLoad
	ButtonSave
	ButtonKnob0
	ButtonKnob1
	ButtonKnob2
)

// Knob ranges. The tempo knob moves in 5 BPM detents.
const (
	tempoDetent    = 5
	gateDetent     = 4
	glideDetents   = 24
	shuffleDetent  = 5
	completeMillis = 500
)

// ErrNoStorage is reported when load or save is used without a pattern store
var ErrNoStorage = errors.New("no pattern storage")

// Panel maps knobs and buttons onto the sequencer and runs the pattern
// load and save dialogs. All methods run on the sequencer loop.
type Panel struct {
	seq   *sequencer.Sequencer
	leds  *Leds
	store *sequencer.PatternStore
	knobs [3]*Knob

	shift bool
	ui    UIState
	bank  int
	slot  int

	status string
	err    error

	viewMu sync.RWMutex
	view   View

	// OnPatternIO is told about every completed load or save
	OnPatternIO func(op string, bank, slot int, err error)
}

// New builds the panel and syncs the knobs to the sequencer's settings.
// store may be nil, in which case load and save report an error.
func New(seq *sequencer.Sequencer, leds *Leds, store *sequencer.PatternStore) *Panel {
	p := &Panel{seq: seq, leds: leds, store: store}

	left := NewKnob(0, [ModesPerKnob]Function{Tempo, StepSelect, GateTime})
	for _, shift := range []bool{false, true} {
		left.SetRange(shift, 0, sequencer.MinBPM/tempoDetent, sequencer.MaxBPM/tempoDetent)
		left.SetRange(shift, 2, 1, 100/gateDetent)
	}
	left.SetRange(false, 1, 0, sequencer.StepCapacity-1)
	left.SetRange(true, 1, MinBrightness, MaxBrightness)

	middle := NewKnob(1, [ModesPerKnob]Function{PlayMode, GlideTime, Pitch})
	for _, shift := range []bool{false, true} {
		middle.SetRange(shift, 0, int(sequencer.MinPlayMode), int(sequencer.MaxPlayMode))
		middle.SetRange(shift, 1, 0, glideDetents)
	}
	middle.SetRange(false, 2, sequencer.MinTranspose, sequencer.MaxTranspose)
	middle.SetRange(true, 2, 0, 100/shuffleDetent)

	right := NewKnob(2, [ModesPerKnob]Function{NumSteps, GlideShape, Octave})
	for _, shift := range []bool{false, true} {
		right.SetRange(shift, 0, 1, sequencer.StepCapacity)
		right.SetRange(shift, 1, 0, int(sequencer.NumCurveShapes)-1)
		right.SetRange(shift, 2, sequencer.MinOctave, sequencer.MaxOctave)
	}

	p.knobs = [3]*Knob{left, middle, right}
	p.SyncKnobs()
	p.refreshKnobLeds()
	p.view = p.capture()
	return p
}

// SyncKnobs moves every knob position to the sequencer's current values
func (p *Panel) SyncKnobs() {
	s := p.seq
	left, middle, right := p.knobs[0], p.knobs[1], p.knobs[2]

	left.SetValueFor(0, s.BPM()/tempoDetent)
	left.state[0][1].pos = clampInt(s.CurrentStep(), 0, sequencer.StepCapacity-1)
	left.state[1][1].pos = clampInt(p.leds.Brightness(), MinBrightness, MaxBrightness)
	left.SetValueFor(2, s.GateLength()/gateDetent)

	middle.SetValueFor(0, int(s.PlayMode()))
	middle.SetValueFor(1, int(s.GlideTime()*glideDetents+0.5))
	middle.state[0][2].pos = s.Transpose()
	middle.state[1][2].pos = s.Pattern().Shuffle() / shuffleDetent

	right.SetValueFor(0, s.Pattern().Length())
	right.SetValueFor(1, int(s.Curve()))
	right.SetValueFor(2, s.Octave())
}

func (p *Panel) Knob(i int) *Knob { return p.knobs[i] }
func (p *Panel) Leds() *Leds      { return p.leds }
func (p *Panel) Shift() bool      { return p.shift }
func (p *Panel) State() UIState   { return p.ui }
func (p *Panel) Bank() int        { return p.bank }
func (p *Panel) Slot() int        { return p.slot }
func (p *Panel) Status() string   { return p.status }
func (p *Panel) Err() error       { return p.err }
func (p *Panel) InDialog() bool   { return p.ui != UISequencer }

// SetSlot preselects the bank and slot offered by the next dialog
func (p *Panel) SetSlot(bank, slot int) { p.bank, p.slot = bank, slot }

// Update runs once per loop iteration
func (p *Panel) Update() {
	p.leds.Update()
	v := p.capture()
	p.viewMu.Lock()
	p.view = v
	p.viewMu.Unlock()
}

func (p *Panel) setStatus(format string, args ...interface{}) {
	p.status = fmt.Sprintf(format, args...)
	debug.Log("panel", "%s", p.status)
}

// Press handles a button press
func (p *Panel) Press(b Button) {
	switch b {
	case ButtonShift:
		p.toggleShift()
	case ButtonKnob0, ButtonKnob1, ButtonKnob2:
		if p.ui != UISequencer {
			return
		}
		k := p.knobs[b-ButtonKnob0]
		k.NextMode()
		k.ShowMode(p.leds)
		p.setStatus("knob %d: %s", k.Index()+1, k.Function())
	case ButtonPlay:
		if p.ui == UISequencer {
			p.play()
		}
	case ButtonEnter:
		p.enter()
	case ButtonTie:
		if p.ui == UISequencer && p.seq.IsRecording() {
			p.seq.PatternInsertTie()
		}
	case ButtonLoad:
		p.openDialog(UILoadBank)
	case ButtonSave:
		p.openDialog(UISaveBank)
	}
}

// SelectMode puts knob i directly on one of its modes
func (p *Panel) SelectMode(i, mode int) {
	if p.ui != UISequencer || i < 0 || i >= len(p.knobs) {
		return
	}
	k := p.knobs[i]
	k.SetMode(mode)
	k.ShowMode(p.leds)
	p.setStatus("knob %d: %s", k.Index()+1, k.Function())
}

func (p *Panel) toggleShift() {
	p.shift = !p.shift
	state := sequencer.LedOff
	if p.shift {
		state = sequencer.LedOn
	}
	p.leds.SetLed(sequencer.LedShift, state)
	for _, k := range p.knobs {
		k.SetShift(p.shift)
	}
}

func (p *Panel) play() {
	if !p.shift {
		p.seq.TogglePlay()
		p.setStatus("%s", p.seq.State())
		return
	}
	rec := !p.seq.IsRecording()
	p.seq.SetRecording(rec)
	if rec {
		p.knobs[0].SetFunction(StepSelect)
		p.knobs[1].SetFunction(PlayMode)
		p.knobs[2].SetFunction(Octave)
		p.refreshKnobLeds()
		p.setStatus("step edit")
	} else {
		p.setStatus("step edit off")
	}
}

// Stop halts playback and rewinds to the first step
func (p *Panel) Stop() {
	if p.ui != UISequencer {
		return
	}
	p.seq.Stop()
	p.setStatus("%s", p.seq.State())
}

func (p *Panel) enter() {
	switch p.ui {
	case UISequencer:
		if p.seq.IsRecording() {
			p.seq.PatternInsertRest()
		}
	case UILoadBank:
		p.selectSlot(UILoadSlot)
	case UISaveBank:
		p.selectSlot(UISaveSlot)
	case UILoadSlot:
		p.finish("load", func() error { return p.seq.LoadPattern(p.store, p.bank, p.slot) })
	case UISaveSlot:
		p.finish("save", func() error { return p.seq.SavePattern(p.store, p.bank, p.slot) })
	}
}

// Cancel leaves a load or save dialog without touching the pattern
func (p *Panel) Cancel() {
	if p.ui == UISequencer {
		return
	}
	p.closeDialog()
	p.setStatus("cancelled")
}

func (p *Panel) openDialog(state UIState) {
	if p.ui != UISequencer {
		return
	}
	if p.store == nil {
		p.err = ErrNoStorage
		p.setStatus("%v", p.err)
		return
	}
	p.ui = state
	p.bank = clampInt(p.bank, 0, p.store.Banks()-1)
	p.slot = clampInt(p.slot, 0, p.store.SlotsPerBank()-1)

	p.leds.SetLed(sequencer.LedEnter, sequencer.LedFlash)
	for i := sequencer.LedKnobModes; i < sequencer.LedShift; i++ {
		led := sequencer.LedOff
		if i >= int(NumSteps) {
			led = sequencer.LedFlash
		}
		p.leds.SetLed(i, led)
	}
	p.leds.SetLed(int(Tempo), sequencer.LedOn)
	p.leds.ShowValuePicker(p.bank, 0, p.store.Banks()-1, false, 0)
	p.setStatus("%s %d", p.ui, p.bank+1)
}

func (p *Panel) selectSlot(state UIState) {
	p.ui = state
	p.leds.SetLed(int(PlayMode), sequencer.LedOn)
	p.leds.ShowValuePicker(p.slot, 0, p.store.SlotsPerBank()-1, false, 0)
	p.setStatus("%s %d", p.ui, p.slot+1)
}

func (p *Panel) finish(op string, run func() error) {
	err := run()
	p.err = err
	p.closeDialog()
	if err != nil {
		p.setStatus("%s failed: %v", op, err)
	} else {
		p.leds.ShowValuePicker(9, 0, 9, true, completeMillis)
		p.setStatus("%s bank %d slot %d", op, p.bank+1, p.slot+1)
	}
	if p.OnPatternIO != nil {
		p.OnPatternIO(op, p.bank, p.slot, err)
	}
}

func (p *Panel) closeDialog() {
	p.ui = UISequencer
	p.leds.SetLed(sequencer.LedEnter, sequencer.LedOff)
	p.leds.HidePicker()
	p.SyncKnobs()
	p.refreshKnobLeds()
}

func (p *Panel) refreshKnobLeds() {
	for _, k := range p.knobs {
		k.ShowMode(p.leds)
	}
}

// Turn moves knob i by delta detents
func (p *Panel) Turn(i, delta int) {
	if i < 0 || i >= len(p.knobs) || delta == 0 {
		return
	}
	k := p.knobs[i]

	if p.ui != UISequencer {
		// the right knob picks bank and slot
		if i != 2 {
			return
		}
		k.Turn(delta)
		if k.DidChange() {
			p.dialogTurn(delta)
		}
		return
	}

	k.Turn(delta)
	if !k.DidChange() {
		return
	}
	switch i {
	case 0:
		p.leftKnob(k)
	case 1:
		p.middleKnob(k)
	case 2:
		p.rightKnob(k)
	}
}

func (p *Panel) dialogTurn(delta int) {
	switch p.ui {
	case UILoadBank, UISaveBank:
		p.bank = clampInt(p.bank+delta, 0, p.store.Banks()-1)
		p.leds.ShowValuePicker(p.bank, 0, p.store.Banks()-1, false, 0)
		p.setStatus("%s %d", p.ui, p.bank+1)
	case UILoadSlot, UISaveSlot:
		p.slot = clampInt(p.slot+delta, 0, p.store.SlotsPerBank()-1)
		p.leds.ShowValuePicker(p.slot, 0, p.store.SlotsPerBank()-1, false, 0)
		p.setStatus("%s %d", p.ui, p.slot+1)
	}
}

func (p *Panel) picker(k *Knob, value int) {
	p.leds.ShowValuePicker(value, k.Min(), k.Max(), true, sequencer.DialogTimeout)
}

func (p *Panel) leftKnob(k *Knob) {
	v := k.Value()
	switch k.Function() {
	case Tempo:
		p.seq.SetBPM(v * tempoDetent)
		p.picker(k, v)
		p.setStatus("tempo %d", p.seq.BPM())
	case StepSelect:
		if p.shift {
			p.leds.SetBrightness(v)
			p.picker(k, v)
			p.setStatus("brightness %d", v)
			return
		}
		step := p.seq.SelectStep(k.Direction())
		k.SetValue(step)
		p.setStatus("step %d", step+1)
	case GateTime:
		p.seq.SetGateLength(v * gateDetent)
		p.picker(k, v)
		p.setStatus("gate %d%%", p.seq.GateLength())
	}
}

func (p *Panel) middleKnob(k *Knob) {
	v := k.Value()
	switch k.Function() {
	case PlayMode:
		p.seq.SetPlayMode(sequencer.PlayMode(v))
		p.picker(k, v)
		p.setStatus("mode %s", p.seq.PlayMode())
	case GlideTime:
		p.seq.SetGlideTime(float64(v) / glideDetents)
		p.picker(k, v)
		p.setStatus("glide %d%%", int(p.seq.GlideTime()*100+0.5))
	case Pitch:
		if p.shift {
			p.seq.ChangeShuffle(k.Direction() * shuffleDetent)
			shuffle := p.seq.Pattern().Shuffle()
			k.SetValue(shuffle / shuffleDetent)
			p.picker(k, shuffle/shuffleDetent)
			p.setStatus("shuffle %d", shuffle)
			return
		}
		p.seq.SetTranspose(k.Direction())
		p.picker(k, p.seq.Transpose())
		p.setStatus("transpose %+d", p.seq.Transpose())
	}
}

func (p *Panel) rightKnob(k *Knob) {
	v := k.Value()
	switch k.Function() {
	case NumSteps:
		p.seq.SetPatternLength(v)
		p.picker(k, v)
		p.setStatus("length %d", p.seq.Pattern().Length())
	case GlideShape:
		p.seq.SetCurveShape(sequencer.CurveShape(v))
		p.picker(k, v)
		p.setStatus("curve %s", p.seq.Curve())
	case Octave:
		p.seq.SetOctave(v)
		p.picker(k, v)
		p.setStatus("octave %d", p.seq.Octave())
	}
}

// PianoKey forwards a piano key, 1 (C) to 12 (B)
func (p *Panel) PianoKey(pitchClass int) {
	if p.ui != UISequencer {
		return
	}
	p.seq.PianoKeyPressed(pitchClass)
	p.setStatus("key %s", p.seq.CurrentNote().Name())
}
