//go:build headless

package sink

import "gonesapu/internal/apu"

// EbitengineBackend stub for headless builds
type EbitengineBackend struct{}

// NewEbitengineBackend creates a stub backend for headless builds
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

func (b *EbitengineBackend) Initialize(config Config) error     { return ErrUnavailable }
func (b *EbitengineBackend) Queue(buf *apu.SampleBuffer) error { return ErrUnavailable }
func (b *EbitengineBackend) Cleanup() error                    { return nil }
func (b *EbitengineBackend) IsRealtime() bool                  { return true }
func (b *EbitengineBackend) GetName() string                   { return "Ebitengine-Stub" }
