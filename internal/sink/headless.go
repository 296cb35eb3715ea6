package sink

import (
	"fmt"

	"gonesapu/internal/apu"
)

// HeadlessBackend discards audio while keeping counts and levels, for
// benchmarks and tests.
type HeadlessBackend struct {
	initialized bool
	config      Config
	frames      int
	samples     int
	meter       Meter
}

// NewHeadlessBackend creates a new headless audio backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	b.frames = 0
	b.samples = 0
	return nil
}

// Queue records the frame
func (b *HeadlessBackend) Queue(buf *apu.SampleBuffer) error {
	if !b.initialized {
		return ErrNotInitialized
	}
	b.frames++
	b.samples += buf.Len()
	b.meter.Update(buf)
	return nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	if b.initialized {
		b.config.logger().Printf("[SINK] headless: %d frames, %d samples", b.frames, b.samples)
	}
	b.initialized = false
	return nil
}

// IsRealtime returns false (frames are consumed immediately)
func (b *HeadlessBackend) IsRealtime() bool {
	return false
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// FrameCount returns the number of frames queued
func (b *HeadlessBackend) FrameCount() int {
	return b.frames
}

// SampleCount returns the number of samples queued
func (b *HeadlessBackend) SampleCount() int {
	return b.samples
}

// Meter returns the levels of the last queued frame
func (b *HeadlessBackend) Meter() *Meter {
	return &b.meter
}
