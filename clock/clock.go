package clock

import (
	"sync/atomic"
	"time"
)

// Clock reports a monotonic millisecond counter. The counter is 32 bits wide
// and wraps like a microcontroller millis() register, so callers compare
// timestamps by subtraction only.
type Clock interface {
	Millis() uint32
}

// System is a Clock backed by the process monotonic clock
type System struct {
	start time.Time
}

// NewSystem creates a clock that starts counting from zero now
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Millis returns milliseconds since the clock was created
func (s *System) Millis() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

// Manual is a Clock that only moves when told to. Safe for use from
// several goroutines so tests can drive an interrupt-style producer.
type Manual struct {
	now atomic.Uint32
}

// NewManual creates a manual clock at the given time
func NewManual(at uint32) *Manual {
	m := &Manual{}
	m.now.Store(at)
	return m
}

func (m *Manual) Millis() uint32 {
	return m.now.Load()
}

// Set jumps to an absolute time
func (m *Manual) Set(ms uint32) {
	m.now.Store(ms)
}

// Advance moves the clock forward
func (m *Manual) Advance(ms uint32) uint32 {
	return m.now.Add(ms)
}

// Since returns milliseconds elapsed from then to now, wrap-safe
func Since(c Clock, then uint32) uint32 {
	return c.Millis() - then
}
