package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"tweakseq/clock"
	"tweakseq/config"
	"tweakseq/debug"
	"tweakseq/midi"
	"tweakseq/panel"
	"tweakseq/sequencer"
	"tweakseq/storage"
	"tweakseq/theme"
	"tweakseq/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		if err := storageCommand(cfg, os.Args[1:]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.Debug.Enabled {
		path := cfg.Debug.Path
		if path == "" {
			path = debug.DefaultPath()
		}
		if err := debug.Enable(path); err != nil {
			return err
		}
		defer debug.Disable()
	}

	image, err := openImage(cfg)
	if err != nil {
		return err
	}
	defer image.Close()
	store := sequencer.NewPatternStore(image, cfg.Storage.Banks, cfg.Storage.SlotsPerBank)

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Log("main", "palette: %v", err)
	}
	th := theme.New(palette)

	opts := cfg.Options()
	if cfg.UI.LastTempo > 0 {
		opts.BPM = cfg.UI.LastTempo
	}

	clk := clock.NewSystem()
	leds := panel.NewLeds(clk)
	if cfg.UI.Brightness > 0 {
		leds.SetBrightness(cfg.UI.Brightness)
	}
	seq := sequencer.New(clk, leds, opts)
	manager := sequencer.NewManager(seq)

	p := panel.New(seq, leds, store)
	p.SetSlot(cfg.UI.LastBank, cfg.UI.LastSlot)
	p.OnPatternIO = func(op string, bank, slot int, err error) {
		if err == nil {
			cfg.UI.LastBank, cfg.UI.LastSlot = bank, slot
		}
	}
	manager.OnFrame(p.Update)

	if out := openOutput(cfg, seq.Calibration()); out != nil {
		manager.SetOutput(out)
		seq.SetGateListener(out)
		defer out.Panic()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ignore []string
	if cfg.MIDI.OutputPort != "" {
		ignore = append(ignore, cfg.MIDI.OutputPort)
	}
	deviceMgr := midi.NewDeviceManager(midi.DeviceOptions{
		Keyboards:     cfg.KeyboardPorts(),
		Ignore:        ignore,
		ClockDivision: cfg.MIDI.ClockDivision,
		OnClock:       manager.ExternalClock,
	})
	go deviceMgr.Run(ctx)
	go manager.Run(ctx)

	routes := newRouter(ctx, manager, p, cfg.MIDI.FollowOctave)
	defer routes.stop()

	m := tui.NewModel(manager, p, deviceMgr, th)
	m.OnDevice = routes.handle
	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return errors.Wrap(err, "tui")
	}

	cfg.UI.LastTempo = manager.Snapshot().BPM
	cfg.UI.Brightness = leds.Brightness()
	return cfg.Save()
}

func openImage(cfg *config.Config) (*storage.File, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	return storage.OpenFile(path, cfg.Storage.Capacity)
}

// openOutput finds the configured synth port. MIDI output is optional.
func openOutput(cfg *config.Config, cal sequencer.Calibration) *midi.Output {
	if cfg.MIDI.OutputPort == "" {
		return nil
	}
	port, err := gomidi.FindOutPort(cfg.MIDI.OutputPort)
	if err != nil {
		debug.Log("main", "output %q: %v", cfg.MIDI.OutputPort, err)
		return nil
	}
	out, err := midi.NewOutput(port, uint8(cfg.MIDI.Channel-1), cfg.MIDI.BendRange, cal)
	if err != nil {
		debug.Log("main", "%v", err)
		return nil
	}
	return out
}

// storageCommand handles backup, backups and restore
func storageCommand(cfg *config.Config, args []string) error {
	dir, err := cfg.BackupDir()
	if err != nil {
		return err
	}

	switch args[0] {
	case "backups":
		backups, err := storage.ListBackups(dir)
		if err != nil {
			return err
		}
		for _, b := range backups {
			fmt.Printf("  %s  %s\n", b.Filename, b.Timestamp.Format("Jan 02 15:04:05"))
		}
		return nil

	case "backup", "restore":
		image, err := openImage(cfg)
		if err != nil {
			return err
		}
		defer image.Close()

		if args[0] == "backup" {
			name, err := image.Backup(dir)
			if err != nil {
				return err
			}
			fmt.Printf("saved %s\n", name)
			return nil
		}

		var name string
		if len(args) > 1 {
			name = args[1]
		}
		if err := image.Restore(dir, name); err != nil {
			return err
		}
		fmt.Println("restored")
		return nil
	}

	fmt.Println("Usage: tweakseq [backup | backups | restore [file]]")
	return nil
}
