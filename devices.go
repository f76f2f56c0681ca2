package main

import (
	"context"
	"sync"
	"time"

	"tweakseq/debug"
	"tweakseq/midi"
	"tweakseq/panel"
	"tweakseq/sequencer"
)

// mirrorRate is how often the Launchpad LEDs are refreshed
const mirrorRate = time.Second / 60

// router connects hot-plugged controllers to the panel
type router struct {
	ctx          context.Context
	manager      *sequencer.Manager
	panel        *panel.Panel
	followOctave bool

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newRouter(ctx context.Context, manager *sequencer.Manager, p *panel.Panel, followOctave bool) *router {
	return &router{
		ctx:          ctx,
		manager:      manager,
		panel:        p,
		followOctave: followOctave,
		cancels:      make(map[string]context.CancelFunc),
	}
}

// handle starts or stops the goroutines serving one controller
func (r *router) handle(event midi.DeviceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cancel, ok := r.cancels[event.ID]; ok {
		cancel()
		delete(r.cancels, event.ID)
	}
	if event.Type != midi.DeviceConnected {
		debug.Log("route", "%s gone", event.ID)
		return
	}

	ctx, cancel := context.WithCancel(r.ctx)
	r.cancels[event.ID] = cancel

	switch c := event.Controller.(type) {
	case *midi.LaunchpadController:
		go r.launchpad(ctx, c)
	case *midi.KeyboardController:
		go r.keyboard(ctx, c)
	default:
		debug.Log("route", "%s: no route for %s", event.ID, event.Controller.Type())
	}
}

func (r *router) launchpad(ctx context.Context, lp *midi.LaunchpadController) {
	mirror := midi.NewMirror(r.panel.Leds())
	ticker := time.NewTicker(mirrorRate)
	defer ticker.Stop()

	debug.Log("route", "%s: mirroring panel", lp.ID())
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-lp.PadEvents():
			if !ok {
				return
			}
			action := midi.PadAction(ev)
			if action.Kind == midi.ActionNone {
				continue
			}
			p := r.panel
			r.manager.Submit(func() { action.Apply(p) })

		case <-ticker.C:
			if level, changed := mirror.Brightness(); changed {
				if err := lp.SetBrightness(level); err != nil {
					debug.Log("route", "%s: brightness: %v", lp.ID(), err)
				}
			}
			if updates := mirror.Updates(); len(updates) > 0 {
				if err := lp.SetLEDBatch(updates); err != nil {
					debug.Log("route", "%s: leds: %v", lp.ID(), err)
					mirror.Reset()
				}
			}
		}
	}
}

func (r *router) keyboard(ctx context.Context, kb *midi.KeyboardController) {
	p := r.panel
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-kb.NoteEvents():
			if !ok {
				return
			}
			octave, pitchClass, inRange := midi.NoteToPitch(ev.Note)
			follow := r.followOctave && inRange
			r.manager.Submit(func() {
				if follow && !p.InDialog() {
					r.manager.Sequencer().SetOctave(octave)
					p.SyncKnobs()
				}
				p.PianoKey(pitchClass)
			})

		case ev, ok := <-kb.TransportEvents():
			if !ok {
				return
			}
			seq := r.manager.Sequencer()
			r.manager.Submit(func() {
				switch ev {
				case midi.TransportStart:
					seq.Stop()
					seq.Play()
				case midi.TransportContinue:
					seq.Play()
				case midi.TransportStop:
					seq.Pause()
				}
			})
		}
	}
}

// stop cancels every controller goroutine
func (r *router) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cancel := range r.cancels {
		cancel()
		delete(r.cancels, id)
	}
}
