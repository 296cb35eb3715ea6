package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonesapu/internal/apu"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	spf, err := c.APUConfig().SamplesPerFrame()
	if err != nil || spf != 735 {
		t.Errorf("Expected 735 samples per frame, got %d (%v)", spf, err)
	}
	if c.Audio.Backend != "headless" {
		t.Errorf("Expected headless backend by default, got %s", c.Audio.Backend)
	}
}

func TestConfig_ValidateRepairs(t *testing.T) {
	c := NewConfig()
	c.Audio.Volume = 3
	c.Audio.LatencyMS = -5
	c.Audio.SampleRate = 0
	c.Audio.Backend = "WAV"
	c.Paths.WAVOutput = ""
	c.Emulation.Region = "pal"
	c.Emulation.Frames = -1
	c.Debug.LogLevel = "verbose"

	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.Audio.Volume != 0.8 {
		t.Errorf("Expected volume reset to 0.8, got %f", c.Audio.Volume)
	}
	if c.Audio.LatencyMS != 100 || c.Audio.SampleRate != 44100 {
		t.Errorf("Expected defaults, got latency %d rate %d", c.Audio.LatencyMS, c.Audio.SampleRate)
	}
	if c.Audio.Backend != "wav" || c.Paths.WAVOutput == "" {
		t.Errorf("Expected wav backend with default output, got %s %q", c.Audio.Backend, c.Paths.WAVOutput)
	}
	if c.Emulation.Region != "PAL" || c.RegionValue() != apu.PAL {
		t.Errorf("Expected PAL, got %s", c.Emulation.Region)
	}
	if c.Emulation.Frames != 0 {
		t.Errorf("Expected frames clamped to 0, got %d", c.Emulation.Frames)
	}
	if c.Debug.LogLevel != "INFO" {
		t.Errorf("Expected log level INFO, got %s", c.Debug.LogLevel)
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 44000 }, "audio.sample_rate"},
		{"region", func(c *Config) { c.Emulation.Region = "Dendy" }, "emulation.region"},
		{"backend", func(c *Config) { c.Audio.Backend = "alsa" }, "audio.backend"},
		{"stem channel", func(c *Config) { c.Audio.StemChannels = []string{"pulse1", "vrc6"} }, "audio.stem_channels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.modify(c)
			err := c.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}

	c := NewConfig()
	c.Audio.SampleRate = 44000
	if err := c.Validate(); !errors.Is(err, apu.ErrSampleRate) {
		t.Errorf("Expected ErrSampleRate in chain, got %v", err)
	}
}

func TestConfig_PALRates(t *testing.T) {
	c := NewConfig()
	c.Emulation.Region = "PAL"
	c.Audio.FrameRate = 50
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	spf, _ := c.APUConfig().SamplesPerFrame()
	if spf != 882 {
		t.Errorf("Expected 882 samples per frame, got %d", spf)
	}
}

func TestConfig_LoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	// Missing file writes defaults
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.IsLoaded() {
		t.Error("Defaults written for a missing file should not count as loaded")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected default config to be written: %v", err)
	}

	c.Audio.Volume = 0.5
	c.Emulation.Region = "PAL"
	c.Audio.FrameRate = 50
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !loaded.IsLoaded() || loaded.GetConfigPath() != path {
		t.Error("Expected config to be marked loaded from path")
	}
	if loaded.Audio.Volume != 0.5 || loaded.Emulation.Region != "PAL" {
		t.Errorf("Expected saved values, got volume %f region %s", loaded.Audio.Volume, loaded.Emulation.Region)
	}
}

func TestConfig_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadConfig(bad); err == nil {
		t.Error("Expected parse error")
	}

	invalid := filepath.Join(dir, "invalid.json")
	data, _ := json.Marshal(map[string]any{"audio": map[string]any{"sample_rate": 44000, "frame_rate": 60}})
	os.WriteFile(invalid, data, 0644)
	if _, err := LoadConfig(invalid); !errors.Is(err, apu.ErrSampleRate) {
		t.Errorf("Expected ErrSampleRate, got %v", err)
	}

	if err := NewConfig().Save(); err == nil {
		t.Error("Expected error saving without a path")
	}
}

func TestConfig_Conversions(t *testing.T) {
	c := NewConfig()
	c.Debug.TraceWrites = true
	c.Audio.Stems = true
	c.Paths.WAVOutput = "x.wav"

	a := c.APUConfig()
	if a.Region != apu.NTSC || a.SampleRate != 44100 || a.FrameRate != 60 || !a.TraceWrites {
		t.Errorf("Unexpected APU config %+v", a)
	}
	s := c.SinkConfig()
	if s.OutputPath != "x.wav" || !s.Stems || !s.Filter || s.Volume != 0.8 {
		t.Errorf("Unexpected sink config %+v", s)
	}
	if s.SampleRate != 44100 || s.FrameRate != 60 {
		t.Errorf("Expected 44100 Hz at 60 fps, got %d Hz at %d fps", s.SampleRate, s.FrameRate)
	}
	c.Audio.FrameRate = 50
	if fps := c.SinkConfig().FrameRate; fps != 50 {
		t.Errorf("Expected PAL frame rate 50 to reach the sink, got %d", fps)
	}

	if f := s.StemFilter; len(f) != 0 {
		t.Errorf("Expected no stem filter by default, got %v", f)
	}
	c.Audio.StemChannels = []string{" Triangle", "DMC"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got := c.Audio.StemChannels; got[0] != "triangle" || got[1] != "dmc" {
		t.Errorf("Expected normalised stem names, got %v", got)
	}
	f := c.SinkConfig().StemFilter
	if len(f) != 2 || f[0] != apu.ChannelTriangle || f[1] != apu.ChannelDMC {
		t.Errorf("Expected [triangle dmc] stem filter, got %v", f)
	}

	clone := c.Clone()
	clone.Audio.Volume = 0.1
	clone.Audio.StemChannels[0] = "noise"
	if c.Audio.Volume == 0.1 || c.Audio.StemChannels[0] != "triangle" {
		t.Error("Clone should not alias the original")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	got := GetDefaultConfigPath()
	if filepath.Base(got) != "config.json" || filepath.Base(filepath.Dir(got)) != "gonesapu" {
		t.Errorf("Unexpected default config path %s", got)
	}
}
