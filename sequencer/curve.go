package sequencer

import "strings"

// CurveShape selects one of the fixed glide curves
type CurveShape uint8

const (
	CurveA CurveShape = iota // slow start, fast finish
	CurveB                   // fast start, slow finish
	CurveC                   // balanced
	CurveS                   // eased at both ends
	NumCurveShapes
)

type knot struct {
	x, y float64
}

// Knot tables are ordered by x and span (0,0)..(1,1).
var curveKnots = [NumCurveShapes][]knot{
	CurveA: {{0, 0}, {0.8, 0.2}, {1, 1}},
	CurveB: {{0, 0}, {0.2, 0.8}, {1, 1}},
	CurveC: {{0, 0}, {0.5, 0.5}, {1, 1}},
	CurveS: {{0, 0}, {0.25, 0.08}, {0.5, 0.5}, {0.75, 0.92}, {1, 1}},
}

var curveNames = [NumCurveShapes]string{"A", "B", "C", "S"}

// Evaluate maps x in [0,1] onto the curve. Inputs outside the range clamp
// to the end points.
func (c CurveShape) Evaluate(x float64) float64 {
	if c >= NumCurveShapes {
		c = CurveA
	}
	knots := curveKnots[c]
	first, last := knots[0], knots[len(knots)-1]
	if x <= first.x {
		return first.y
	}
	if x >= last.x {
		return last.y
	}

	for i := 0; i < len(knots)-1; i++ {
		a, b := knots[i], knots[i+1]
		if x > b.x {
			continue
		}
		t := (x - a.x) / (b.x - a.x)
		t = t * t * (3 - 2*t)
		return a.y + (b.y-a.y)*t
	}
	return last.y
}

// Next returns the following shape, wrapping around
func (c CurveShape) Next() CurveShape {
	return (c + 1) % NumCurveShapes
}

func (c CurveShape) String() string {
	if c >= NumCurveShapes {
		return "?"
	}
	return curveNames[c]
}

// ParseCurveShape accepts "A", "curve-b", "s" and similar
func ParseCurveShape(name string) (CurveShape, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "CURVE")
	name = strings.TrimLeft(name, "-_ ")
	for i, n := range curveNames {
		if n == name {
			return CurveShape(i), true
		}
	}
	return CurveA, false
}
