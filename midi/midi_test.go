package midi

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"tweakseq/sequencer"
)

func TestClockDivider(t *testing.T) {
	d := NewClockDivider(6)
	var fired []int
	for pulse := 0; pulse < 24; pulse++ {
		if d.Tick() {
			fired = append(fired, pulse)
		}
	}
	want := []int{0, 6, 12, 18}
	if len(fired) != len(want) {
		t.Fatalf("fired on %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired on %v, want %v", fired, want)
		}
	}

	d.Tick()
	d.Tick()
	d.Reset()
	if !d.Tick() {
		t.Errorf("first pulse after Reset did not fire")
	}

	if NewClockDivider(0).Division() != 1 {
		t.Errorf("division not clamped to 1")
	}
}

func TestNoteToPitch(t *testing.T) {
	tests := []struct {
		note       uint8
		octave, pc int
		ok         bool
	}{
		{60, 4, 1, true},
		{61, 4, 2, true},
		{24, 1, 1, true},
		{119, 8, 12, true},
		{120, 9, 1, false},
		{23, 0, 12, false},
	}
	for _, tt := range tests {
		octave, pc, ok := NoteToPitch(tt.note)
		if octave != tt.octave || pc != tt.pc || ok != tt.ok {
			t.Errorf("NoteToPitch(%d) = %d, %d, %v; want %d, %d, %v",
				tt.note, octave, pc, ok, tt.octave, tt.pc, tt.ok)
		}
	}
}

func TestRealtime(t *testing.T) {
	if realtime([]byte{0xF8}) != TimingClock {
		t.Errorf("timing clock not recognised")
	}
	if realtime([]byte{0x90, 60, 100}) != 0 {
		t.Errorf("note on taken for real-time")
	}
	if realtime([]byte{0xF2}) != 0 {
		t.Errorf("song position taken for real-time")
	}
}

func TestKeyboardHandle(t *testing.T) {
	var clocks int
	kb, err := NewKeyboardController("kb", nil, NewClockDivider(2), func() { clocks++ })
	if err != nil {
		t.Fatalf("NewKeyboardController: %v", err)
	}
	defer kb.Close()

	for i := 0; i < 5; i++ {
		kb.handle(gomidi.Message{0xF8}, 0)
	}
	if clocks != 3 {
		t.Errorf("clock callbacks = %d, want 3", clocks)
	}

	kb.handle(gomidi.Message{0xFA}, 0)
	if ev := <-kb.TransportEvents(); ev != TransportStart {
		t.Errorf("transport = %v, want start", ev)
	}
	kb.handle(gomidi.Message{0xF8}, 0)
	if clocks != 4 {
		t.Errorf("start did not realign the divider: %d clocks", clocks)
	}

	kb.handle(gomidi.NoteOn(0, 64, 90), 0)
	kb.handle(gomidi.NoteOn(0, 65, 0), 0)
	select {
	case ev := <-kb.NoteEvents():
		if ev.Note != 64 || ev.Velocity != 90 {
			t.Errorf("note event = %+v", ev)
		}
	default:
		t.Fatalf("no note event")
	}
	select {
	case ev := <-kb.NoteEvents():
		t.Errorf("zero velocity note on delivered: %+v", ev)
	default:
	}
}

func TestLaunchpadMapping(t *testing.T) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 9; col++ {
			r, c := noteToRowCol(rowColToNote(row, col))
			if r != row || c != col {
				t.Fatalf("round trip %d,%d -> %d,%d", row, col, r, c)
			}
		}
	}
	if r, c := ccToRowCol(95); r != 8 || c != 4 {
		t.Errorf("cc 95 -> %d,%d", r, c)
	}
	if r, _ := noteToRowCol(5); r != -1 {
		t.Errorf("note 5 mapped to a pad")
	}
	if mapRGBToLaunchpad([3]uint8{250, 5, 5}) != 5 {
		t.Errorf("red not mapped to palette red")
	}
	if mapRGBToLaunchpad([3]uint8{0, 0, 0}) != ColorOff {
		t.Errorf("black not mapped to off")
	}
}

func TestLaunchpadPadEvents(t *testing.T) {
	lp, err := NewLaunchpadController("lp", nil, nil)
	if err != nil {
		t.Fatalf("NewLaunchpadController: %v", err)
	}
	defer lp.Close()

	lp.handle(gomidi.NoteOn(0, 23, 127), 0)
	lp.handle(gomidi.ControlChange(0, 91, 127), 0)
	lp.handle(gomidi.ControlChange(0, 91, 0), 0)

	got := []PadEvent{<-lp.PadEvents(), <-lp.PadEvents()}
	if got[0].Row != 1 || got[0].Col != 2 {
		t.Errorf("note pad = %+v, want 1,2", got[0])
	}
	if got[1].Row != 8 || got[1].Col != 0 {
		t.Errorf("cc pad = %+v, want 8,0", got[1])
	}
	select {
	case ev := <-lp.PadEvents():
		t.Errorf("release delivered as press: %+v", ev)
	default:
	}
}

func TestControllerTypeString(t *testing.T) {
	if ControllerKeyboard.String() != "keyboard" || ControllerType(9).String() != "unknown" {
		t.Errorf("controller type names wrong")
	}
}

func TestClassify(t *testing.T) {
	dm := NewDeviceManager(DeviceOptions{
		Keyboards: []string{"keystep"},
		Ignore:    []string{"synth"},
	})
	tests := []struct {
		name string
		want ControllerType
	}{
		{"Launchpad X LPX MIDI", ControllerLaunchpad},
		{"Launchpad X LPX DAW", ControllerUnknown},
		{"Arturia KeyStep 32", ControllerKeyboard},
		{"Midi Through Port-0", ControllerUnknown},
		{"Some Synth In", ControllerUnknown},
		{"Other Device", ControllerUnknown},
	}
	for _, tt := range tests {
		if got := dm.classify(tt.name); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	all := NewDeviceManager(DeviceOptions{Keyboards: []string{"*"}})
	if all.classify("Other Device") != ControllerKeyboard {
		t.Errorf("wildcard did not accept a plain input")
	}
	if all.classify("Midi Through Port-0") != ControllerUnknown {
		t.Errorf("wildcard accepted the through port")
	}
}

type sent struct {
	msgs []gomidi.Message
}

func (s *sent) send(msg gomidi.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

func bendOf(t *testing.T, msg gomidi.Message) int {
	t.Helper()
	if len(msg) != 3 || msg[0]&0xF0 != 0xE0 {
		t.Fatalf("message % X is not a pitch bend", []byte(msg))
	}
	return int(msg[1]) | int(msg[2])<<7 - 8192
}

func TestBendValue(t *testing.T) {
	tests := []struct {
		codes, bend int
	}{
		{0, 0},
		{40, 4096},
		{-80, -8192},
		{80, 8191},
		{400, 8191},
		{20, 2048},
	}
	for _, tt := range tests {
		if got := bendValue(tt.codes, 40, 2); got != tt.bend {
			t.Errorf("bendValue(%d) = %d, want %d", tt.codes, got, tt.bend)
		}
	}
}

func TestOutputGateAndBend(t *testing.T) {
	s := &sent{}
	cal := sequencer.DefaultCalibration()
	o := newOutput(s.send, 2, 2, cal)

	c4 := sequencer.Note{Octave: 4, PitchClass: 1, Voltage: cal.PitchToVoltage(4, 1), MIDINote: 60}
	o.WriteCV(c4.Voltage - 40)
	o.GateOpened(c4)
	if len(s.msgs) != 2 {
		t.Fatalf("messages = %d, want note on and bend", len(s.msgs))
	}
	if m := s.msgs[0]; m[0] != 0x92 || m[1] != 60 {
		t.Errorf("note on = % X", []byte(m))
	}
	if b := bendOf(t, s.msgs[1]); b != -4096 {
		t.Errorf("glide start bend = %d, want -4096", b)
	}

	o.WriteCV(c4.Voltage)
	if b := bendOf(t, s.msgs[2]); b != 0 {
		t.Errorf("settled bend = %d, want 0", b)
	}
	o.WriteCV(c4.Voltage)
	if len(s.msgs) != 3 {
		t.Errorf("repeated CV sent another bend")
	}

	o.GateClosed(c4)
	if m := s.msgs[len(s.msgs)-1]; m[0] != 0x82 || m[1] != 60 {
		t.Errorf("note off = % X", []byte(m))
	}
	n := len(s.msgs)
	o.GateClosed(c4)
	o.GateOpened(sequencer.Note{IsRest: true})
	if len(s.msgs) != n {
		t.Errorf("closed gate or rest produced messages")
	}
}
