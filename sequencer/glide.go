package sequencer

// Glide interpolates between two CV codes over part of a note's duration.
// Only Begin changes its state, so Value can be polled freely.
type Glide struct {
	curve    CurveShape
	start    uint32
	duration float64
	from, to float64
}

// NewGlide creates a glide that rests at zero
func NewGlide(shape CurveShape) *Glide {
	return &Glide{curve: shape}
}

// SetCurve selects the curve used by subsequent Value calls
func (g *Glide) SetCurve(shape CurveShape) {
	if shape >= NumCurveShapes {
		shape = CurveA
	}
	g.curve = shape
}

func (g *Glide) Curve() CurveShape { return g.curve }

// Begin starts a glide at now. The glide itself lasts total*fraction
// milliseconds; the rest of the note holds the target.
func (g *Glide) Begin(now, total uint32, fraction, from, to float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	g.start = now
	g.duration = float64(total) * fraction
	g.from = from
	g.to = to
}

// Value returns the interpolated value at now
func (g *Glide) Value(now uint32) float64 {
	if g.duration == 0 || g.from == g.to {
		return g.to
	}
	elapsed := float64(now - g.start)
	if elapsed > g.duration {
		return g.to
	}
	return g.from + g.curve.Evaluate(elapsed/g.duration)*(g.to-g.from)
}

// Target is the value the glide settles on
func (g *Glide) Target() float64 { return g.to }

// Gliding reports whether the value is still moving at now
func (g *Glide) Gliding(now uint32) bool {
	if g.duration == 0 || g.from == g.to {
		return false
	}
	return float64(now-g.start) <= g.duration
}
