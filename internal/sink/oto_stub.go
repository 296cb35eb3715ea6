//go:build headless

package sink

import "gonesapu/internal/apu"

// Headless builds carry no audio device code.
const liveAudio = false

// OtoBackend stub for headless builds
type OtoBackend struct{}

// NewOtoBackend creates a stub backend for headless builds
func NewOtoBackend() Backend {
	return &OtoBackend{}
}

func (b *OtoBackend) Initialize(config Config) error     { return ErrUnavailable }
func (b *OtoBackend) Queue(buf *apu.SampleBuffer) error { return ErrUnavailable }
func (b *OtoBackend) Cleanup() error                    { return nil }
func (b *OtoBackend) IsRealtime() bool                  { return true }
func (b *OtoBackend) GetName() string                   { return "Oto-Stub" }
