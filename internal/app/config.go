// Package app provides configuration management for the audio player.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonesapu/internal/apu"
	"gonesapu/internal/sink"
)

// Config holds all application configuration
type Config struct {
	Audio     AudioConfig     `json:"audio"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// AudioConfig contains audio output configuration
type AudioConfig struct {
	Backend    string  `json:"backend"` // "headless", "wav", "oto", "ebitengine"
	SampleRate int     `json:"sample_rate"`
	FrameRate  int     `json:"frame_rate"`
	Volume     float32 `json:"volume"`
	LatencyMS  int     `json:"latency_ms"` // Target device latency
	Filter     bool    `json:"filter"`     // Console output filter chain
	Stems      bool    `json:"stems"`      // Per-channel WAV files

	// StemChannels limits the stems to these channel names; empty writes
	// all five.
	StemChannels []string `json:"stem_channels,omitempty"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	Region   string `json:"region"`    // "NTSC", "PAL"
	Frames   int    `json:"frames"`    // 0 plays the whole trace
	DMAStall int    `json:"dma_stall"` // CPU cycles charged per DMC fetch
	Loop     bool   `json:"loop"`      // Restart the trace when it ends
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EnableLogging bool   `json:"enable_logging"`
	LogLevel      string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	LogIRQ        bool   `json:"log_irq"`
	TraceWrites   bool   `json:"trace_writes"`
}

// PathsConfig contains file paths
type PathsConfig struct {
	ROM       string `json:"rom"`
	Trace     string `json:"trace"`
	Sample    string `json:"sample"`
	WAVOutput string `json:"wav_output"`
}

var logLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			Backend:    string(sink.BackendHeadless),
			SampleRate: 44100,
			FrameRate:  60,
			Volume:     0.8,
			LatencyMS:  100,
			Filter:     true,
		},
		Emulation: EmulationConfig{
			Region:   apu.NTSC.String(),
			DMAStall: 4,
		},
		Debug: DebugConfig{
			LogLevel: "INFO",
		},
		Paths: PathsConfig{
			WAVOutput: "gonesapu.wav",
		},
	}
}

// LoadConfig reads path, writing a default file first if none exists.
func LoadConfig(path string) (*Config, error) {
	c := NewConfig()
	if err := c.LoadFromFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile loads configuration from a JSON file
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	// Missing file: save defaults and use them
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// Validate repairs out-of-range values with defaults. Settings that cannot
// be repaired without changing what is heard are rejected.
func (c *Config) Validate() error {
	defaults := NewConfig()

	// Audio
	if c.Audio.Backend == "" {
		c.Audio.Backend = defaults.Audio.Backend
	}
	c.Audio.Backend = strings.ToLower(c.Audio.Backend)
	known := false
	for _, bt := range sink.BackendTypes() {
		if string(bt) == c.Audio.Backend {
			known = true
		}
	}
	if !known {
		return &ConfigError{Field: "audio.backend", Value: c.Audio.Backend, Err: fmt.Errorf("unknown backend")}
	}

	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if c.Audio.FrameRate <= 0 {
		c.Audio.FrameRate = defaults.Audio.FrameRate
	}
	if c.Audio.SampleRate%c.Audio.FrameRate != 0 {
		return &ConfigError{
			Field: "audio.sample_rate",
			Value: c.Audio.SampleRate,
			Err:   fmt.Errorf("%w: %d fps", apu.ErrSampleRate, c.Audio.FrameRate),
		}
	}

	if c.Audio.Volume < 0.0 || c.Audio.Volume > 1.0 {
		c.Audio.Volume = defaults.Audio.Volume
	}
	if c.Audio.LatencyMS <= 0 {
		c.Audio.LatencyMS = defaults.Audio.LatencyMS
	}
	for i, name := range c.Audio.StemChannels {
		ch, ok := apu.ParseChannel(strings.TrimSpace(name))
		if !ok {
			return &ConfigError{Field: "audio.stem_channels", Value: name, Err: fmt.Errorf("unknown channel")}
		}
		c.Audio.StemChannels[i] = ch.String()
	}

	// Emulation
	if c.Emulation.Region == "" {
		c.Emulation.Region = defaults.Emulation.Region
	}
	region, err := apu.ParseRegion(c.Emulation.Region)
	if err != nil {
		return &ConfigError{Field: "emulation.region", Value: c.Emulation.Region, Err: err}
	}
	c.Emulation.Region = region.String()

	if c.Emulation.Frames < 0 {
		c.Emulation.Frames = 0
	}
	if c.Emulation.DMAStall < 0 {
		c.Emulation.DMAStall = defaults.Emulation.DMAStall
	}

	// Debug
	c.Debug.LogLevel = strings.ToUpper(c.Debug.LogLevel)
	validLevel := false
	for _, l := range logLevels {
		if l == c.Debug.LogLevel {
			validLevel = true
		}
	}
	if !validLevel {
		c.Debug.LogLevel = defaults.Debug.LogLevel
	}

	if c.Audio.Backend == string(sink.BackendWAV) && c.Paths.WAVOutput == "" {
		c.Paths.WAVOutput = defaults.Paths.WAVOutput
	}

	return nil
}

// RegionValue returns the parsed emulation region.
func (c *Config) RegionValue() apu.Region {
	r, err := apu.ParseRegion(c.Emulation.Region)
	if err != nil {
		return apu.NTSC
	}
	return r
}

// APUConfig returns the core's construction parameters.
func (c *Config) APUConfig() apu.Config {
	return apu.Config{
		Region:      c.RegionValue(),
		SampleRate:  c.Audio.SampleRate,
		FrameRate:   c.Audio.FrameRate,
		TraceWrites: c.Debug.TraceWrites,
	}
}

// SinkConfig returns the output backend parameters.
func (c *Config) SinkConfig() sink.Config {
	return sink.Config{
		SampleRate: c.Audio.SampleRate,
		FrameRate:  c.Audio.FrameRate,
		Volume:     c.Audio.Volume,
		LatencyMS:  c.Audio.LatencyMS,
		Filter:     c.Audio.Filter,
		OutputPath: c.Paths.WAVOutput,
		Stems:      c.Audio.Stems,
		StemFilter: c.stemFilter(),
	}
}

// stemFilter maps the configured stem names to channels. Names were checked
// by Validate; any left unknown are skipped.
func (c *Config) stemFilter() []apu.Channel {
	var chans []apu.Channel
	for _, name := range c.Audio.StemChannels {
		if ch, ok := apu.ParseChannel(strings.TrimSpace(name)); ok {
			chans = append(chans, ch)
		}
	}
	return chans
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.Audio.StemChannels = append([]string(nil), c.Audio.StemChannels...)
	return &clone
}

// GetDefaultConfigPath returns the default configuration file path,
// $XDG_CONFIG_HOME/gonesapu/config.json or the OS equivalent.
func GetDefaultConfigPath() string {
	return filepath.Join(GetDefaultConfigDir(), "config.json")
}

// GetDefaultConfigDir returns the default configuration directory
func GetDefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./config"
	}
	return filepath.Join(dir, "gonesapu")
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
