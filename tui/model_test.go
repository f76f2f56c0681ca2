package tui

import (
	"math/rand"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tweakseq/clock"
	"tweakseq/midi"
	"tweakseq/panel"
	"tweakseq/sequencer"
	"tweakseq/theme"
)

func newTestModel(t *testing.T) (Model, *sequencer.Manager, *sequencer.Sequencer) {
	t.Helper()
	c := clock.NewManual(0)
	leds := panel.NewLeds(c)
	opts := sequencer.DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(1))
	seq := sequencer.New(c, leds, opts)
	mgr := sequencer.NewManager(seq)
	p := panel.New(seq, leds, nil)
	mgr.OnFrame(p.Update)
	return NewModel(mgr, p, nil, theme.New(nil)), mgr, seq
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysDriveThePanel(t *testing.T) {
	m, mgr, seq := newTestModel(t)

	m.Update(runes("]"))
	m.Update(runes("]"))
	mgr.Step()
	if seq.BPM() != 130 {
		t.Errorf("bpm = %d, want 130", seq.BPM())
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	mgr.Step()
	if seq.State() != sequencer.Playing {
		t.Errorf("state = %v, want PLAY", seq.State())
	}

	m.Update(runes("0"))
	mgr.Step()
	if seq.State() != sequencer.Stopped {
		t.Errorf("state = %v, want STOP", seq.State())
	}
}

func TestPianoKeysRecordSteps(t *testing.T) {
	m, mgr, seq := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	mgr.Step()
	if !seq.IsRecording() {
		t.Fatalf("shift+play did not start recording")
	}

	m.Update(runes("e"))
	mgr.Step()
	if st, _ := seq.Pattern().Step(0); st.PitchClass != 4 {
		t.Errorf("step 0 = %+v, want D#", st)
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, cmd := m.Update(runes("q"))
	if cmd == nil || next.(Model).View() != "" {
		t.Errorf("q did not quit")
	}
}

func TestViewShowsPanel(t *testing.T) {
	m, mgr, _ := newTestModel(t)
	mgr.Step()
	out := m.View()
	for _, want := range []string{"tweakseq", "Tempo", "midi: off", "120bpm"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPadGridFlash(t *testing.T) {
	frame := []midi.LEDUpdate{
		{Row: 0, Col: 1, Color: [3]uint8{1, 2, 3}},
		{Row: 8, Col: 7, Color: [3]uint8{4, 5, 6}},
		{Row: 1, Col: 0, Color: [3]uint8{7, 8, 9}, Channel: midi.ChannelFlash},
	}
	grid, top := padGrid(frame, false)
	if grid[0][1] != [3]uint8{1, 2, 3} || top[7] != [3]uint8{4, 5, 6} {
		t.Errorf("grid not placed")
	}
	if grid[1][0] != ([3]uint8{}) {
		t.Errorf("flashing pad lit in off phase")
	}
	grid, _ = padGrid(frame, true)
	if grid[1][0] != [3]uint8{7, 8, 9} {
		t.Errorf("flashing pad dark in on phase")
	}
}
