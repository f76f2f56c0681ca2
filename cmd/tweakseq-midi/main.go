package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"tweakseq/midi"
	"tweakseq/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "clock":
		err = watchClock(arg(2))
	case "notes":
		err = watchNotes(arg(2))
	case "scale":
		err = playScale(arg(2))
	case "poll":
		pollDevices()
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func usage() {
	fmt.Println("tweakseq MIDI checks")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI ports")
	fmt.Println("  clock <port>  - Show the tempo of incoming MIDI clock")
	fmt.Println("  notes <port>  - Show incoming notes as panel keys")
	fmt.Println("  scale <port>  - Play a C major scale with glides")
	fmt.Println("  poll          - Poll for device changes")
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		return nil
	case <-time.After(3 * time.Second):
		return errors.New("timed out listing ports")
	}
}

func openKeyboard(name string, division int, onClock func()) (*midi.KeyboardController, error) {
	in, err := gomidi.FindInPort(name)
	if err != nil {
		return nil, err
	}
	return midi.NewKeyboardController(in.String(), in, midi.NewClockDivider(division), onClock)
}

func watchClock(name string) error {
	var last time.Time
	kb, err := openKeyboard(name, midi.PPQ, func() {
		now := time.Now()
		if !last.IsZero() {
			fmt.Printf("\r%6.1f bpm ", 60/now.Sub(last).Seconds())
		}
		last = now
	})
	if err != nil {
		return err
	}
	defer kb.Close()

	fmt.Println("Listening for clock. Ctrl+C to exit.")
	for ev := range kb.TransportEvents() {
		fmt.Printf("\n%s\n", ev)
	}
	return nil
}

func watchNotes(name string) error {
	kb, err := openKeyboard(name, midi.PPQ, nil)
	if err != nil {
		return err
	}
	defer kb.Close()

	fmt.Println("Play some notes. Ctrl+C to exit.")
	for ev := range kb.NoteEvents() {
		octave, pc, ok := midi.NoteToPitch(ev.Note)
		note := sequencer.StepName(sequencer.Step{Octave: octave, PitchClass: pc})
		if !ok {
			note += " (off panel)"
		}
		fmt.Printf("note %3d vel %3d -> %s\n", ev.Note, ev.Velocity, note)
	}
	return nil
}

func playScale(name string) error {
	port, err := gomidi.FindOutPort(name)
	if err != nil {
		return err
	}
	cal := sequencer.DefaultCalibration()
	out, err := midi.NewOutput(port, 0, midi.DefaultBendRange, cal)
	if err != nil {
		return err
	}
	defer out.Panic()

	scale := []int{1, 3, 5, 6, 8, 10, 12}
	for i, pc := range append(scale, 1) {
		octave := 4
		if i == len(scale) {
			octave = 5
		}
		n := sequencer.Note{
			Octave:     octave,
			PitchClass: pc,
			Voltage:    cal.PitchToVoltage(octave, pc),
			MIDINote:   sequencer.MIDINote(octave, pc),
		}
		fmt.Printf("%s\n", n.Name())
		out.GateOpened(n)
		out.WriteCV(n.Voltage)
		time.Sleep(250 * time.Millisecond)

		// half-step glide up and back on the held note
		out.WriteCV(n.Voltage + cal.Increment)
		time.Sleep(100 * time.Millisecond)
		out.WriteCV(n.Voltage)
		time.Sleep(100 * time.Millisecond)
		out.GateClosed(n)
	}
	return nil
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		var inNames, outNames []string
		for _, p := range gomidi.GetInPorts() {
			inNames = append(inNames, p.String())
		}
		for _, p := range gomidi.GetOutPorts() {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			for _, name := range inNames {
				if strings.Contains(strings.ToLower(name), "launchpad") {
					fmt.Println("  -> Launchpad detected")
				}
			}

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
