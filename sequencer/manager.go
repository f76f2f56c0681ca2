package sequencer

import (
	"context"
	"sync"
	"time"

	"tweakseq/debug"
)

// CVOutput receives the pitch CV code whenever it changes
type CVOutput interface {
	WriteCV(code int)
}

// UI refresh rate
const uiFPS = 30

// Manager owns the polling loop around a Sequencer. Other goroutines never
// touch the Sequencer directly: they Submit closures that run inside the
// loop and read published Snapshots.
type Manager struct {
	seq    *Sequencer
	out    CVOutput
	inputs chan func()
	frames []func()

	mu       sync.RWMutex
	snapshot Snapshot

	lastCV    int
	cvWritten bool
	iter      uint64
	tick      time.Duration

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager for seq
func NewManager(seq *Sequencer) *Manager {
	m := &Manager{
		seq:        seq,
		inputs:     make(chan func(), 64),
		tick:       time.Millisecond,
		UpdateChan: make(chan struct{}, 1),
	}
	m.snapshot = seq.Snapshot()
	return m
}

// SetOutput sets the CV sink
func (m *Manager) SetOutput(out CVOutput) {
	m.out = out
	m.cvWritten = false
}

// OnFrame adds a hook run at the end of every loop iteration
func (m *Manager) OnFrame(fn func()) {
	m.frames = append(m.frames, fn)
}

// Sequencer returns the managed sequencer. Only use it inside submitted
// closures or frame hooks.
func (m *Manager) Sequencer() *Sequencer { return m.seq }

// Submit queues fn to run on the loop goroutine. It reports false if the
// queue is full and fn was dropped.
func (m *Manager) Submit(fn func()) bool {
	select {
	case m.inputs <- fn:
		return true
	default:
		debug.Log("seq", "input queue full, dropping")
		return false
	}
}

// ExternalClock forwards a clock pulse. Safe from any goroutine.
func (m *Manager) ExternalClock() {
	m.seq.ExternalClockTrigger()
}

// Run polls until ctx is cancelled
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	debug.Log("seq", "loop started")
	for {
		select {
		case <-ctx.Done():
			m.seq.Pause()
			m.publish(true)
			debug.Log("seq", "loop stopped after %d iterations", m.iter)
			return
		case <-ticker.C:
			m.Step()
		}
	}
}

// Step runs one loop iteration: timers, then inputs, then outputs
func (m *Manager) Step() {
	m.iter++
	m.seq.Update()

	handled := false
drain:
	for {
		select {
		case fn := <-m.inputs:
			fn()
			handled = true
		default:
			break drain
		}
	}

	cv := m.seq.PitchCV()
	if m.out != nil && (!m.cvWritten || cv != m.lastCV) {
		m.out.WriteCV(cv)
		m.lastCV = cv
		m.cvWritten = true
	}

	for _, fn := range m.frames {
		fn()
	}

	m.publish(handled || m.iter%(1000/uiFPS) == 0)
}

func (m *Manager) publish(notify bool) {
	snap := m.seq.Snapshot()
	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()
	if !notify {
		return
	}
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Snapshot returns the last published state
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
