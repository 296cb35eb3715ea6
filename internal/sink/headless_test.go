package sink

import (
	"errors"
	"testing"

	"gonesapu/internal/apu"
)

func TestHeadlessBackend(t *testing.T) {
	b := NewHeadlessBackend().(*HeadlessBackend)
	a := newToneAPU(t)

	if err := b.Queue(a.RunFrame()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := b.Initialize(testConfig()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := b.Initialize(testConfig()); err == nil {
		t.Error("Expected error on double Initialize")
	}

	for i := 0; i < 3; i++ {
		if err := b.Queue(a.RunFrame()); err != nil {
			t.Fatalf("Queue failed: %v", err)
		}
	}
	if b.FrameCount() != 3 {
		t.Errorf("Expected 3 frames, got %d", b.FrameCount())
	}
	if b.SampleCount() != 3*735 {
		t.Errorf("Expected %d samples, got %d", 3*735, b.SampleCount())
	}
	if b.IsRealtime() {
		t.Error("Headless backend should not be realtime")
	}

	lvl := b.Meter().Channel(apu.ChannelPulse1)
	if lvl.Peak != 1 {
		t.Errorf("Expected pulse1 peak 1, got %f", lvl.Peak)
	}
	if lvl.RMS < 0.6 || lvl.RMS > 0.8 {
		t.Errorf("Expected pulse1 RMS near 0.71 for a 50%% duty square, got %f", lvl.RMS)
	}
	if peak := b.Meter().Channel(apu.ChannelTriangle).Peak; peak != 0 {
		t.Errorf("Expected silent triangle, got peak %f", peak)
	}
	if err := b.Cleanup(); err != nil {
		t.Errorf("Cleanup failed: %v", err)
	}
}

func TestMeter_OutOfRange(t *testing.T) {
	var m Meter
	if (m.Channel(apu.NumChannels) != Level{}) || (m.Channel(-1) != Level{}) {
		t.Error("Expected zero level for out-of-range channel")
	}
}
