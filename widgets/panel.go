package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tweakseq/sequencer"
	"tweakseq/theme"
)

// RenderLed renders one LED
func RenderLed(th *theme.Theme, lit bool, color lipgloss.Color) string {
	if !lit {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.LedOff))
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(th.Symbols.LedOn))
}

// RenderLedRow renders LEDs side by side, with a gap every group LEDs
func RenderLedRow(th *theme.Theme, lit []bool, color lipgloss.Color, group int) string {
	var out strings.Builder
	for i, on := range lit {
		if i > 0 {
			out.WriteString(" ")
			if group > 0 && i%group == 0 {
				out.WriteString(" ")
			}
		}
		out.WriteString(RenderLed(th, on, color))
	}
	return out.String()
}

// stepCellWidth fits "C#4" plus the playhead marker
const stepCellWidth = 4

// RenderSteps renders the pattern as a row of note cells with the playhead
// marked. Steps past length are dimmed.
func RenderSteps(th *theme.Theme, steps []sequencer.Step, length, playhead int) string {
	normal := lipgloss.NewStyle().Foreground(th.FG()).Width(stepCellWidth)
	beyond := lipgloss.NewStyle().Foreground(th.Muted()).Width(stepCellWidth)
	head := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true).Width(stepCellWidth)
	flag := lipgloss.NewStyle().Foreground(th.Accent()).Width(stepCellWidth)

	var cells []string
	for i, st := range steps {
		text := StepLabel(th, st)
		if i == playhead {
			text = string(th.Symbols.StepPlayhead) + text
		}
		switch {
		case i >= length:
			cells = append(cells, beyond.Render(string(th.Symbols.StepBeyond)))
		case i == playhead:
			cells = append(cells, head.Render(text))
		case st.Rest || st.Tie:
			cells = append(cells, flag.Render(text))
		default:
			cells = append(cells, normal.Render(text))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// StepLabel is the short text of one step
func StepLabel(th *theme.Theme, st sequencer.Step) string {
	switch {
	case st.Rest:
		return string(th.Symbols.StepRest)
	case st.Tie:
		return string(th.Symbols.StepTie)
	}
	return sequencer.StepName(st)
}

// RenderGauge renders "label [#####-----] value" for a value within min..max
func RenderGauge(th *theme.Theme, label string, value, min, max, width int, active bool) string {
	filled := 0
	if max > min {
		filled = (value - min) * width / (max - min)
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	labelStyle := lipgloss.NewStyle().Foreground(th.Muted()).Width(7)
	barStyle := lipgloss.NewStyle().Foreground(th.Muted())
	if active {
		labelStyle = labelStyle.Foreground(th.Accent())
		barStyle = barStyle.Foreground(th.Active())
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s %4d", labelStyle.Render(label), barStyle.Render(bar), value)
}
