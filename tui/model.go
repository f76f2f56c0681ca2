package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tweakseq/midi"
	"tweakseq/panel"
	"tweakseq/sequencer"
	"tweakseq/theme"
	"tweakseq/widgets"
)

type Model struct {
	Manager   *sequencer.Manager
	Panel     *panel.Panel
	DeviceMgr *midi.DeviceManager // may be nil when MIDI is unavailable
	Theme     *theme.Theme

	// OnDevice routes controller connects and disconnects. Optional.
	OnDevice func(midi.DeviceEvent)

	help     help.Model
	pads     *midi.Mirror
	showPads bool
	devices  map[string]midi.ControllerType
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, p *panel.Panel, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	return Model{
		Manager:   manager,
		Panel:     p,
		DeviceMgr: deviceMgr,
		Theme:     th,
		help:      help.New(),
		pads:      midi.NewMirror(p.Leds()),
		devices:   make(map[string]midi.ControllerType),
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event := <-deviceMgr.Events()
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

// submit runs fn against the panel on the sequencer loop
func (m Model) submit(fn func(p *panel.Panel)) {
	p := m.Panel
	m.Manager.Submit(func() { fn(p) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.devices[event.ID] = event.Controller.Type()
		case midi.DeviceDisconnected:
			delete(m.devices, event.ID)
		}
		if m.OnDevice != nil {
			m.OnDevice(event)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if pc, ok := pianoKeys[msg.String()]; ok {
		m.submit(func(p *panel.Panel) { p.PianoKey(pc) })
		return m, nil
	}

	for i, kk := range keys.Knobs {
		knob := i
		switch {
		case key.Matches(msg, kk.Down):
			m.submit(func(p *panel.Panel) { p.Turn(knob, -1) })
			return m, nil
		case key.Matches(msg, kk.Up):
			m.submit(func(p *panel.Panel) { p.Turn(knob, 1) })
			return m, nil
		case key.Matches(msg, kk.Push):
			m.submit(func(p *panel.Panel) { p.Press(panel.ButtonKnob0 + panel.Button(knob)) })
			return m, nil
		}
	}

	press := func(b panel.Button) {
		m.submit(func(p *panel.Panel) { p.Press(b) })
	}

	switch {
	case key.Matches(msg, keys.Shift):
		press(panel.ButtonShift)
	case key.Matches(msg, keys.Play):
		press(panel.ButtonPlay)
	case key.Matches(msg, keys.Enter):
		press(panel.ButtonEnter)
	case key.Matches(msg, keys.Tie):
		press(panel.ButtonTie)
	case key.Matches(msg, keys.Load):
		press(panel.ButtonLoad)
	case key.Matches(msg, keys.Save):
		press(panel.ButtonSave)
	case key.Matches(msg, keys.Cancel):
		m.submit((*panel.Panel).Cancel)
	case key.Matches(msg, keys.Stop):
		m.submit((*panel.Panel).Stop)
	case key.Matches(msg, keys.Clock):
		m.Manager.ExternalClock()
	case key.Matches(msg, keys.Pads):
		m.showPads = !m.showPads
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	snap := m.Manager.Snapshot()
	view := m.Panel.Published()
	leds := m.Panel.Leds()

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(th.FG())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	header := headerStyle.Render(fmt.Sprintf("tweakseq  %-5s %3dbpm  %s  step %02d/%02d  %s  %s",
		snap.State, snap.BPM, snap.ClockSource, snap.Step+1, snap.Length, snap.PlayMode, snap.Curve))

	var stepLit []bool
	for i := 0; i < sequencer.StepCapacity; i++ {
		stepLit = append(stepLit, leds.Lit(i))
	}
	lights := widgets.RenderLedRow(th, stepLit, th.Active(), 4)
	steps := widgets.RenderSteps(th, snap.Steps[:], snap.Length, snap.Step)

	note := fgStyle.Render(fmt.Sprintf("note %-4s cv %4d  oct %d  tr %+d  gate %d%%  glide %.2f  shuffle %d",
		snap.Note.Name(), snap.PitchCV, snap.Octave, snap.Transpose, snap.GateLength, snap.GlideTime, snap.Shuffle))

	status := m.renderStatusLeds(leds)

	var knobs []string
	for i, kv := range view.Knobs {
		var modeLit []bool
		for _, f := range kv.Modes {
			modeLit = append(modeLit, leds.Lit(int(f)))
		}
		knobs = append(knobs, fmt.Sprintf("%s %s  %s",
			string(th.Symbols.Knob),
			widgets.RenderGauge(th, kv.Function.String(), kv.Value, kv.Min, kv.Max, 16, view.State == panel.UISequencer || i == 2),
			widgets.RenderLedRow(th, modeLit, th.Accent(), 0)))
	}

	mode := view.State.String()
	if view.Shift {
		mode += " +SHIFT"
	}
	if view.State != panel.UISequencer {
		mode += fmt.Sprintf("  bank %d slot %d", view.Bank, view.Slot)
	}
	line := dimStyle.Render(mode)
	if view.Status != "" {
		style := fgStyle
		if view.Err != nil {
			style = warnStyle
		}
		line += "  " + style.Render(view.Status)
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(lights)
	out.WriteString("\n")
	out.WriteString(steps)
	out.WriteString("\n\n")
	out.WriteString(note)
	out.WriteString("\n")
	out.WriteString(status)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(knobs, "\n"))
	out.WriteString("\n\n")
	out.WriteString(line)
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.deviceLine()))

	if m.showPads {
		grid, top := padGrid(m.pads.Frame(), leds.FlashOn())
		out.WriteString("\n\n")
		out.WriteString(widgets.RenderPadGrid(grid, &top))
	}

	out.WriteString("\n\n")
	out.WriteString(m.help.View(keys))

	return out.String()
}

func (m Model) renderStatusLeds(leds *panel.Leds) string {
	th := m.Theme
	items := []struct {
		label string
		index int
		color lipgloss.Color
	}{
		{"shift", sequencer.LedShift, th.Warning()},
		{"play", sequencer.LedPlay, th.Success()},
		{"enter", sequencer.LedEnter, th.Cursor()},
		{"clk", sequencer.LedClock, th.Accent()},
		{"gate", sequencer.LedGate, th.Active()},
		{"clk out", sequencer.LedOutClock, th.Accent()},
		{"gate out", sequencer.LedOutGate, th.Active()},
	}
	label := lipgloss.NewStyle().Foreground(th.Muted())
	var parts []string
	for _, it := range items {
		parts = append(parts, widgets.RenderLed(th, leds.Lit(it.index), it.color)+" "+label.Render(it.label))
	}
	return strings.Join(parts, "  ")
}

func (m Model) deviceLine() string {
	if m.DeviceMgr == nil {
		return "midi: off"
	}
	if len(m.devices) == 0 {
		return "midi: no controllers"
	}
	var names []string
	for id, kind := range m.devices {
		names = append(names, fmt.Sprintf("%s (%s)", id, kind))
	}
	sort.Strings(names)
	return "midi: " + strings.Join(names, ", ")
}

// padGrid lays a mirror frame out as the Launchpad grid plus its top row.
// Flashing pads are drawn dark in the off phase.
func padGrid(frame []midi.LEDUpdate, flashOn bool) (grid [8][8][3]uint8, top [8][3]uint8) {
	for _, u := range frame {
		if u.Channel == midi.ChannelFlash && !flashOn {
			continue
		}
		if u.Col < 0 || u.Col >= 8 {
			continue
		}
		switch {
		case u.Row == 8:
			top[u.Col] = u.Color
		case u.Row >= 0 && u.Row < 8:
			grid[u.Row][u.Col] = u.Color
		}
	}
	return grid, top
}
