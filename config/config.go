package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"tweakseq/sequencer"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX ControllerType = "launchpad-x"
	ControllerKeyboard   ControllerType = "keyboard"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string         `json:"portName"`
	Type        ControllerType `json:"type"`
	AutoConnect bool           `json:"autoConnect"`
}

// SequencerConfig holds the power-on sequencer settings
type SequencerConfig struct {
	BPM                int     `json:"bpm"`
	GateLength         int     `json:"gateLength"`
	GlideTime          float64 `json:"glideTime"`
	Curve              string  `json:"curve"`
	PlayMode           int     `json:"playMode"`
	Octave             int     `json:"octave"`
	ShuffleDepth       float64 `json:"shuffleDepth"`
	ExternalTimeoutMs  uint32  `json:"externalTimeoutMs"`
	ExternalDebounceMs uint32  `json:"externalDebounceMs"`
}

// StorageConfig locates the pattern memory image
type StorageConfig struct {
	Path         string `json:"path,omitempty"` // default: <config dir>/patterns.bin
	Capacity     int    `json:"capacity"`
	Banks        int    `json:"banks"`
	SlotsPerBank int    `json:"slotsPerBank"`
	BackupDir    string `json:"backupDir,omitempty"` // default: <config dir>/backups
}

// MIDIConfig defines the synth output and the external clock input
type MIDIConfig struct {
	OutputPort    string `json:"outputPort,omitempty"`
	Channel       int    `json:"channel"` // 1-16
	BendRange     int    `json:"bendRange"`
	ClockDivision int    `json:"clockDivision"` // 24 PPQ pulses per step
	FollowOctave  bool   `json:"followOctave"`  // keyboard notes also set the octave
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette    string `json:"palette,omitempty"` // GPL file, empty for the built-in one
	Brightness int    `json:"brightness,omitempty"`
	LastBank   int    `json:"lastBank"`
	LastSlot   int    `json:"lastSlot"`
	LastTempo  int    `json:"lastTempo,omitempty"`
}

// DebugConfig controls the debug log
type DebugConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Sequencer   SequencerConfig       `json:"sequencer"`
	Calibration sequencer.Calibration `json:"calibration"`
	Storage     StorageConfig         `json:"storage"`
	MIDI        MIDIConfig            `json:"midi"`
	Controllers []ControllerConfig    `json:"controllers,omitempty"`
	UI          UIConfig              `json:"ui"`
	Debug       DebugConfig           `json:"debug"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	opts := sequencer.DefaultOptions()
	return &Config{
		Sequencer: SequencerConfig{
			BPM:                opts.BPM,
			GateLength:         opts.GateLength,
			GlideTime:          opts.GlideTime,
			Curve:              opts.Curve.String(),
			PlayMode:           int(opts.PlayMode),
			Octave:             opts.Octave,
			ShuffleDepth:       opts.ShuffleDepth,
			ExternalTimeoutMs:  opts.ExternalTimeoutMs,
			ExternalDebounceMs: opts.ExternalDebounceMs,
		},
		Calibration: sequencer.DefaultCalibration(),
		Storage: StorageConfig{
			Capacity:     1024,
			Banks:        sequencer.DefaultBanks,
			SlotsPerBank: sequencer.DefaultSlotsPerBank,
		},
		MIDI: MIDIConfig{
			Channel:       1,
			BendRange:     2,
			ClockDivision: 6,
		},
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
		UI: UIConfig{
			LastTempo: opts.BPM,
		},
	}
}

// Options converts the sequencer section, falling back to defaults for
// anything missing or unknown
func (c *Config) Options() sequencer.Options {
	opts := sequencer.DefaultOptions()
	s := c.Sequencer
	if s.BPM > 0 {
		opts.BPM = s.BPM
	}
	if s.GateLength > 0 {
		opts.GateLength = s.GateLength
	}
	if s.GlideTime >= 0 {
		opts.GlideTime = s.GlideTime
	}
	if shape, ok := sequencer.ParseCurveShape(s.Curve); ok {
		opts.Curve = shape
	}
	if s.PlayMode > 0 {
		opts.PlayMode = sequencer.PlayMode(s.PlayMode)
	}
	if s.Octave > 0 {
		opts.Octave = s.Octave
	}
	if s.ShuffleDepth > 0 {
		opts.ShuffleDepth = s.ShuffleDepth
	}
	if s.ExternalTimeoutMs > 0 {
		opts.ExternalTimeoutMs = s.ExternalTimeoutMs
	}
	if s.ExternalDebounceMs > 0 {
		opts.ExternalDebounceMs = s.ExternalDebounceMs
	}
	if c.Calibration.Increment > 0 && c.Calibration.MaxCode > 0 {
		opts.Calibration = c.Calibration
	}
	return opts
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tweakseq"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// StoragePath returns the pattern image path, defaulting into the config dir
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "patterns.bin"), nil
}

// BackupDir returns where image backups go
func (c *Config) BackupDir() (string, error) {
	if c.Storage.BackupDir != "" {
		return c.Storage.BackupDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing fields keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	return errors.Wrapf(os.WriteFile(path, data, 0644), "write config %s", path)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}

// KeyboardPorts returns the auto-connect keyboard port names
func (c *Config) KeyboardPorts() []string {
	var names []string
	for _, ctrl := range c.AutoConnectControllers() {
		if ctrl.Type == ControllerKeyboard {
			names = append(names, ctrl.PortName)
		}
	}
	return names
}
