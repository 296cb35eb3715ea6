package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"gonesapu/internal/apu"
	"gonesapu/internal/sink"
)

// drainingBackend is a realtime backend whose queue empties by a fixed
// amount every time it is polled.
type drainingBackend struct {
	queued int
	drain  int
	polls  int
}

func (b *drainingBackend) Initialize(sink.Config) error     { return nil }
func (b *drainingBackend) Queue(*apu.SampleBuffer) error { return nil }
func (b *drainingBackend) Cleanup() error                 { return nil }
func (b *drainingBackend) IsRealtime() bool               { return true }
func (b *drainingBackend) GetName() string                { return "Draining" }

func (b *drainingBackend) Buffered() int {
	b.polls++
	n := b.queued
	b.queued = max(0, b.queued-b.drain)
	return n
}

func TestPacer_NonRealtimeNeverWaits(t *testing.T) {
	p := newPacer(sink.NewHeadlessBackend(), time.Hour, 44100, 100)
	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := p.wait(context.Background()); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	if time.Since(start) > time.Second {
		t.Error("Expected non-realtime pacer not to sleep")
	}
}

func TestPacer_HoldsBufferedBackend(t *testing.T) {
	b := &drainingBackend{queued: 4000, drain: 1000}
	p := newPacer(b, 4*time.Millisecond, 44100, 100)
	if p.maxQueued != 2205 {
		t.Fatalf("Expected hold level 2205, got %d", p.maxQueued)
	}
	if err := p.wait(context.Background()); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	// 4000 and 3000 are above the hold level, 2000 is not
	if b.polls != 3 {
		t.Errorf("Expected 3 polls, got %d", b.polls)
	}
}

func TestPacer_Cancel(t *testing.T) {
	b := &drainingBackend{queued: 1 << 30}
	p := newPacer(b, time.Second, 44100, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
