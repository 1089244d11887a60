package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go-tracker/song"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// KeyboardConfig defines a saved keyboard input
type KeyboardConfig struct {
	PortName     string `json:"portName"` // substring match, case-insensitive
	AutoConnect  bool   `json:"autoConnect"`
	InputChannel int    `json:"inputChannel,omitempty"` // 1-16, 0 = any
}

// OutputConfig defines the default MIDI output
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel,omitempty"` // 0-15, used for keyboard thru
}

// TransportConfig holds playback defaults for new songs
type TransportConfig struct {
	BPM          int    `json:"bpm,omitempty"`
	LinesPerBeat int    `json:"linesPerBeat,omitempty"`
	Loop         bool   `json:"loop,omitempty"`
	SendClock    bool   `json:"sendClock,omitempty"`
	ClockPort    string `json:"clockPort,omitempty"` // empty = output port
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette     string `json:"palette,omitempty"` // GIMP .gpl file; empty = built-in
	LastProject string `json:"lastProject,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output      OutputConfig     `json:"output,omitempty"`
	Keyboards   []KeyboardConfig `json:"keyboards,omitempty"`
	Transport   TransportConfig  `json:"transport,omitempty"`
	Limits      song.Limits      `json:"limits,omitempty"`
	ProjectsDir string           `json:"projectsDir,omitempty"`
	UI          UIConfig         `json:"ui,omitempty"`
	Debug       bool             `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			BPM:          song.DefaultBPM,
			LinesPerBeat: song.DefaultLinesPerBeat,
		},
		Limits: song.DefaultLimits(),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("home directory"))
	}
	return filepath.Join(home, ".config", "go-tracker"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if
// there is none
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
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", "The config file "+path+" is not valid JSON."),
			ftag.With(ftag.InvalidArgument))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fault.Wrap(err, fmsg.With(path))
	}
	return cfg, nil
}

// Save writes the config to the default path
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
		return fault.Wrap(err, fmsg.With("create config directory"))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("write config"))
	}
	return nil
}

// Validate rejects settings the song model cannot hold
func (c *Config) Validate() error {
	switch {
	case c.Transport.BPM <= 0:
		return invalid("transport.bpm must be positive")
	case c.Transport.LinesPerBeat <= 0:
		return invalid("transport.linesPerBeat must be positive")
	case c.Limits.MinLines < 1:
		return invalid("limits.minLines must be at least 1")
	case c.Limits.MaxLines < c.Limits.MinLines:
		return invalid("limits.maxLines is below limits.minLines")
	case c.Limits.MaxSongLength < 1:
		return invalid("limits.maxSongLength must be at least 1")
	case c.Output.Channel < 0 || c.Output.Channel > 15:
		return invalid("output.channel must be 0-15")
	}
	for _, k := range c.Keyboards {
		if k.InputChannel < 0 || k.InputChannel > 16 {
			return invalid("keyboard " + k.PortName + ": inputChannel must be 0-16")
		}
	}
	return nil
}

func invalid(msg string) error {
	return fault.New(msg, ftag.With(ftag.InvalidArgument))
}

// ProjectsPath returns the configured projects directory, defaulting to
// projects/ under the config dir
func (c *Config) ProjectsPath() (string, error) {
	if c.ProjectsDir != "" {
		return c.ProjectsDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "projects"), nil
}

// FindKeyboard finds a keyboard config by port name
func (c *Config) FindKeyboard(portName string) *KeyboardConfig {
	for i := range c.Keyboards {
		if c.Keyboards[i].PortName == portName {
			return &c.Keyboards[i]
		}
	}
	return nil
}

// AddKeyboard adds or updates a keyboard config
func (c *Config) AddKeyboard(k KeyboardConfig) {
	for i := range c.Keyboards {
		if c.Keyboards[i].PortName == k.PortName {
			c.Keyboards[i] = k
			return
		}
	}
	c.Keyboards = append(c.Keyboards, k)
}

// AutoConnectPatterns returns the port patterns of keyboards with
// autoConnect enabled
func (c *Config) AutoConnectPatterns() []string {
	var result []string
	for _, k := range c.Keyboards {
		if k.AutoConnect {
			result = append(result, k.PortName)
		}
	}
	return result
}
