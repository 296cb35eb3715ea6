package sink

import "testing"

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name     BackendType
		expected string
	}{
		{"", "Headless"},
		{BackendHeadless, "Headless"},
		{"WAV", "WAV"},
		{BackendWAV, "WAV"},
	}

	for _, tt := range tests {
		b, err := CreateBackend(tt.name)
		if err != nil {
			t.Errorf("CreateBackend(%q) failed: %v", tt.name, err)
			continue
		}
		if b.GetName() != tt.expected {
			t.Errorf("CreateBackend(%q): expected %s, got %s", tt.name, tt.expected, b.GetName())
		}
	}

	for _, bt := range BackendTypes() {
		if _, err := CreateBackend(bt); err != nil {
			t.Errorf("CreateBackend(%q) failed: %v", bt, err)
		}
	}

	if _, err := CreateBackend("alsa"); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		v, volume, expected float32
	}{
		{0.5, 1, 0.5},
		{0.5, 0.5, 0.25},
		{0.9, 2, 1},
		{-0.9, 2, -1},
		{0.3, 0, 0},
	}
	for _, tt := range tests {
		if got := scale(tt.v, tt.volume); got != tt.expected {
			t.Errorf("scale(%f, %f): expected %f, got %f", tt.v, tt.volume, tt.expected, got)
		}
	}
}

func TestAppendPCM16(t *testing.T) {
	got := appendPCM16(nil, []float32{1, -1}, 2)
	want := []byte{0xFF, 0x7F, 0xFF, 0x7F, 0x01, 0x80, 0x01, 0x80}
	if string(got) != string(want) {
		t.Errorf("Expected % X, got % X", want, got)
	}
}

func TestConfig_RingCapacity(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		frameSamples int
		capacity     int
	}{
		{"NTSC default latency", Config{SampleRate: 44100, FrameRate: 60}, 735, 4410 * 4},
		{"PAL frames", Config{SampleRate: 44100, FrameRate: 50, LatencyMS: 100}, 882, 4410 * 4},
		{"unset frame rate is 60", Config{SampleRate: 48000, LatencyMS: 100}, 800, 4800 * 4},
		// 10 ms is below two frames, so the floor applies
		{"NTSC floor", Config{SampleRate: 44100, FrameRate: 60, LatencyMS: 10}, 735, 2 * 735 * 4},
		{"PAL floor", Config{SampleRate: 44100, FrameRate: 50, LatencyMS: 10}, 882, 2 * 882 * 4},
	}
	for _, tt := range tests {
		if got := tt.cfg.frameSamples(); got != tt.frameSamples {
			t.Errorf("%s: expected %d samples per frame, got %d", tt.name, tt.frameSamples, got)
		}
		if got := tt.cfg.ringCapacity(); got != tt.capacity {
			t.Errorf("%s: expected ring of %d bytes, got %d", tt.name, tt.capacity, got)
		}
	}
}
