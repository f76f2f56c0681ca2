package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"tweakseq/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceOptions configures which ports become controllers
type DeviceOptions struct {
	// Keyboards lists input port name fragments opened as keyboards.
	// "*" accepts every input that is not a Launchpad or ignored.
	Keyboards []string
	// Ignore lists port name fragments never opened, e.g. the synth output
	Ignore []string

	ClockDivision int
	OnClock       func() // divided external clock, runs on the MIDI goroutine

	PollRate time.Duration
}

// DeviceManager handles hot-plug detection of MIDI controllers
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	opts        DeviceOptions
	divider     *ClockDivider
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(opts DeviceOptions) *DeviceManager {
	if opts.PollRate <= 0 {
		opts.PollRate = time.Second
	}
	if opts.ClockDivision <= 0 {
		opts.ClockDivision = PPQ / 4
	}
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		opts:        opts,
		divider:     NewClockDivider(opts.ClockDivision),
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// GetLaunchpad returns the first connected Launchpad (or nil)
func (dm *DeviceManager) GetLaunchpad() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		if c.Type() == ControllerLaunchpad {
			return c
		}
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.opts.PollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	// Port listing can hang on a wedged MIDI service
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var inPorts []drivers.In
	var outPorts []drivers.Out
	select {
	case result := <-ch:
		inPorts = result.inPorts
		outPorts = result.outPorts
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return
	}

	seenIDs := make(map[string]bool)
	for i, inPort := range inPorts {
		id := inPort.String()
		kind := dm.classify(id)
		if kind == ControllerUnknown {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(kind, id, inPorts[i], outPorts)
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		debug.Log("midi", "connected %s %s", kind, id)
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}
	}

	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
		debug.Log("midi", "disconnected %s", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) open(kind ControllerType, id string, in drivers.In, outPorts []drivers.Out) (Controller, error) {
	if kind == ControllerKeyboard {
		return NewKeyboardController(id, in, dm.divider, dm.opts.OnClock)
	}
	// Launchpad output port carries the same name as its input
	name := strings.ToLower(id)
	var out drivers.Out
	for j, op := range outPorts {
		if strings.ToLower(op.String()) == name {
			out = outPorts[j]
			break
		}
	}
	return NewLaunchpadController(id, in, out)
}

// classify decides what an input port named name is used as
func (dm *DeviceManager) classify(name string) ControllerType {
	lower := strings.ToLower(name)
	for _, frag := range dm.opts.Ignore {
		if frag != "" && strings.Contains(lower, strings.ToLower(frag)) {
			return ControllerUnknown
		}
	}
	if isLaunchpad(lower) {
		return ControllerLaunchpad
	}
	if strings.Contains(lower, "launchpad") || strings.Contains(lower, "through") {
		return ControllerUnknown
	}
	for _, frag := range dm.opts.Keyboards {
		if frag == "*" || (frag != "" && strings.Contains(lower, strings.ToLower(frag))) {
			return ControllerKeyboard
		}
	}
	return ControllerUnknown
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}
