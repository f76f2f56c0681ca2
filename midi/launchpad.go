package midi

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"tweakseq/debug"
)

var ledSendCount uint64

// LaunchpadController handles a Novation Launchpad X in Programmer mode
type LaunchpadController struct {
	id       string
	outPort  drivers.Out
	inPort   drivers.In
	sendMu   sync.Mutex
	send     func(msg gomidi.Message) error
	stopFunc func()

	padChan  chan PadEvent
	noteChan chan NoteEvent
}

// NewLaunchpadController creates and configures a Launchpad
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:       id,
		inPort:   inPort,
		outPort:  outPort,
		padChan:  make(chan PadEvent, 32),
		noteChan: make(chan NoteEvent, 32),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, errors.Wrapf(err, "open output %s", id)
		}
		lp.send = send

		// Programmer mode: F0 00 20 29 02 0C 00 7F F7
		lp.sysex(0x00, 0x7F)
		lp.SetBrightness(0x7F)
		// External LED feedback: F0 00 20 29 02 0C 0A 01 01 F7
		lp.sysex(0x0A, 0x01, 0x01)
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, lp.handle)
		if err != nil {
			return nil, errors.Wrapf(err, "listen to %s", id)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

func (lp *LaunchpadController) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	var cc, value uint8

	// 8x8 grid + side column
	if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
		if row, col := noteToRowCol(note); row >= 0 {
			lp.pad(PadEvent{Row: row, Col: col, Velocity: velocity})
		}
	}

	// top row buttons, CC 91-98
	if msg.GetControlChange(&channel, &cc, &value) && value > 0 {
		if row, col := ccToRowCol(cc); row >= 0 {
			lp.pad(PadEvent{Row: row, Col: col, Velocity: value})
		}
	}
}

func (lp *LaunchpadController) pad(ev PadEvent) {
	select {
	case lp.padChan <- ev:
	default:
		debug.Log("midi", "%s: pad %d,%d dropped", lp.id, ev.Row, ev.Col)
	}
}

// sysex sends a Launchpad X command: F0 00 20 29 02 0C <data> F7
func (lp *LaunchpadController) sysex(data ...byte) error {
	if lp.send == nil {
		return nil
	}
	msg := append([]byte{0x00, 0x20, 0x29, 0x02, 0x0C}, data...)
	lp.sendMu.Lock()
	defer lp.sendMu.Unlock()
	return lp.send(gomidi.SysEx(msg))
}

// SetBrightness sets the global LED brightness, 0-127
func (lp *LaunchpadController) SetBrightness(level uint8) error {
	if level > 0x7F {
		level = 0x7F
	}
	return lp.sysex(0x08, level)
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

func (lp *LaunchpadController) NoteEvents() <-chan NoteEvent {
	return lp.noteChan // Launchpad doesn't send note events in the keyboard sense
}

// SetLEDBatch sends LED updates as individual NoteOn/CC messages
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	lp.sendMu.Lock()
	defer lp.sendMu.Unlock()
	for _, u := range updates {
		color := mapRGBToLaunchpad(u.Color)
		var msg gomidi.Message
		if u.Row == 8 {
			msg = gomidi.ControlChange(u.Channel, rowColToNote(u.Row, u.Col), color)
		} else {
			msg = gomidi.NoteOn(u.Channel, rowColToNote(u.Row, u.Col), color)
		}
		if err := lp.send(msg); err != nil {
			return errors.Wrapf(err, "%s: led %d,%d", lp.id, u.Row, u.Col)
		}
	}

	count := atomic.AddUint64(&ledSendCount, uint64(len(updates)))
	if count%100 < uint64(len(updates)) {
		debug.Log("led", "batch count=%d (this batch=%d)", count, len(updates))
	}
	return nil
}

// mapRGBToLaunchpad finds the nearest Launchpad X palette color for an RGB value
func mapRGBToLaunchpad(rgb [3]uint8) uint8 {
	// {velocity, R, G, B}
	palette := [][4]uint8{
		{0, 0, 0, 0},         // off
		{1, 30, 30, 30},      // dim grey
		{5, 255, 0, 0},       // red
		{7, 180, 60, 60},     // dim red
		{9, 255, 100, 0},     // orange
		{13, 255, 200, 0},    // yellow
		{19, 0, 100, 0},      // dim green
		{21, 0, 255, 0},      // bright green
		{37, 0, 200, 200},    // cyan
		{43, 40, 60, 120},    // dim blue
		{45, 0, 100, 255},    // blue
		{49, 150, 0, 200},    // purple
		{53, 255, 80, 180},   // pink
		{119, 255, 255, 255}, // white
	}

	bestMatch := uint8(0)
	bestDist := 1 << 30

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range palette {
		pr, pg, pb := int(p[1]), int(p[2]), int(p[3])
		dist := (r-pr)*(r-pr) + (g-pg)*(g-pg) + (b-pb)*(b-pb)
		if dist < bestDist {
			bestDist = dist
			bestMatch = p[0]
		}
	}
	return bestMatch
}

// Close darkens the surface and stops listening
func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		var updates []LEDUpdate
		for row := 0; row < 9; row++ {
			for col := 0; col < 9; col++ {
				if row == 8 && col == 8 {
					continue // no LED at 8,8
				}
				updates = append(updates, LEDUpdate{Row: row, Col: col})
			}
		}
		lp.SetLEDBatch(updates)
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	close(lp.padChan)
	close(lp.noteChan)
	return nil
}

// Launchpad X note mapping
// 8x8 Grid:  Row 0 (bottom) = notes 11-18, Row 7 = notes 81-88
// Side col:  Col 8 (right side scene buttons) = notes 19, 29, ..., 89
// Top row:   Row 8 = CC 91-98

func rowColToNote(row, col int) uint8 {
	if row == 8 {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return 8, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row > 7 || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

// ccToRowCol converts CC messages to row/col (for top row buttons)
func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return 8, int(cc - 91)
	}
	return -1, -1
}
