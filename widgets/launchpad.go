package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPad renders a single colored pad. Dark pads draw as an outline.
func RenderPad(color [3]uint8) string {
	if color == ([3]uint8{}) {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#303030")).Render("□")
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// RenderPadRow renders a row of colored pads with spacing
func RenderPadRow(colors [][3]uint8) string {
	var out strings.Builder
	for i, c := range colors {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderPad(c))
	}
	return out.String()
}

// RenderPadGrid renders an 8x8 grid of pads (row 0 at bottom, row 7 at top)
// Optional top adds the control button row above the grid
func RenderPadGrid(grid [8][8][3]uint8, top *[8][3]uint8) string {
	var lines []string
	if top != nil {
		lines = append(lines, RenderPadRow(top[:]))
	}
	for row := 7; row >= 0; row-- {
		lines = append(lines, RenderPadRow(grid[row][:]))
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
