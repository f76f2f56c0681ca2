package clock

import "testing"

func TestTimerDoneOnce(t *testing.T) {
	c := NewManual(1000)
	tm := NewTimer(c)
	tm.Start(100)

	c.Advance(99)
	if tm.Done(false) {
		t.Fatalf("timer fired early at %d ms", tm.Elapsed())
	}
	c.Advance(1)
	if !tm.Done(false) {
		t.Fatalf("timer did not fire at its duration")
	}
	if tm.Running() {
		t.Errorf("one-shot timer still running")
	}
	c.Advance(500)
	if tm.Done(false) {
		t.Errorf("stopped timer fired")
	}
}

func TestTimerAutoRestart(t *testing.T) {
	c := NewManual(0)
	tm := NewTimer(c)
	tm.Start(50)

	fired := 0
	for i := 0; i < 200; i++ {
		c.Advance(1)
		if tm.Done(true) {
			fired++
		}
	}
	if fired != 4 {
		t.Errorf("looping timer fired %d times in 200ms, want 4", fired)
	}
}

func TestTimerChangeDurationWhileRunning(t *testing.T) {
	c := NewManual(0)
	tm := NewTimer(c)
	tm.Start(500)
	c.Advance(100)
	tm.ChangeDuration(120)

	c.Advance(19)
	if tm.Done(true) {
		t.Fatalf("fired before the shortened duration")
	}
	c.Advance(1)
	if !tm.Done(true) {
		t.Fatalf("did not fire at the shortened duration")
	}
	if tm.Duration() != 120 {
		t.Errorf("duration = %d, want 120", tm.Duration())
	}
}

func TestTimerSurvivesCounterWrap(t *testing.T) {
	c := NewManual(^uint32(0) - 10)
	tm := NewTimer(c)
	tm.Start(20)
	c.Advance(15) // wraps past zero
	if tm.Done(false) {
		t.Fatalf("fired early across wrap")
	}
	c.Advance(5)
	if !tm.Done(false) {
		t.Fatalf("did not fire across wrap")
	}
}
