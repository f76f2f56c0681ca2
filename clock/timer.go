package clock

// Timer is a polled millisecond timer. Nothing fires on its own: the owner
// calls Done from its loop and acts when it reports true.
type Timer struct {
	clock   Clock
	last    uint32
	timeout uint32
	running bool
}

// NewTimer creates a stopped timer on the given clock
func NewTimer(c Clock) *Timer {
	return &Timer{clock: c}
}

// Start (re)starts the timer with a new duration
func (t *Timer) Start(ms uint32) {
	t.last = t.clock.Millis()
	t.timeout = ms
	t.running = true
}

// Restart starts another period with the current duration
func (t *Timer) Restart() {
	t.Start(t.timeout)
}

// Stop halts the timer; Done reports false until the next Start
func (t *Timer) Stop() {
	t.running = false
}

// ChangeDuration updates the duration without moving the start point,
// so a running timer expires relative to when it was started.
func (t *Timer) ChangeDuration(ms uint32) {
	t.timeout = ms
}

// Done reports whether the duration has elapsed. When it has, the timer
// either restarts from now (autoRestart) or stops.
func (t *Timer) Done(autoRestart bool) bool {
	if !t.running {
		return false
	}
	if t.clock.Millis()-t.last < t.timeout {
		return false
	}
	if autoRestart {
		t.Restart()
	} else {
		t.Stop()
	}
	return true
}

func (t *Timer) Running() bool   { return t.running }
func (t *Timer) Duration() uint32 { return t.timeout }

// Elapsed returns milliseconds since the last start
func (t *Timer) Elapsed() uint32 {
	return t.clock.Millis() - t.last
}
