//go:build !headless

package sink

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"gonesapu/internal/apu"
)

// EbitengineBackend plays audio through Ebitengine's audio context, which
// expects 16-bit little-endian stereo.
type EbitengineBackend struct {
	initialized bool
	config      Config
	conv        *converter
	player      *audio.Player
	ring        *RingBuffer
	pcm         []byte
}

// NewEbitengineBackend creates a new Ebitengine audio backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize creates (or reuses) the audio context and starts a player
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(config.SampleRate)
	} else if ctx.SampleRate() != config.SampleRate {
		return fmt.Errorf("sink: Ebitengine audio context already running at %d Hz", ctx.SampleRate())
	}

	frameSamples := config.frameSamples()
	b.ring = NewRingBuffer(config.ringCapacity())
	player, err := ctx.NewPlayer(b.ring)
	if err != nil {
		return fmt.Errorf("sink: Ebitengine player: %w", err)
	}
	latency := config.LatencyMS
	if latency <= 0 {
		latency = defaultLatencyMS
	}
	player.SetBufferSize(time.Duration(latency) * time.Millisecond / 2)
	player.Play()

	b.player = player
	b.config = config
	b.conv = newConverter(config)
	b.pcm = make([]byte, 0, frameSamples*liveBytesPerFrame)
	b.initialized = true
	config.logger().Printf("[SINK] Ebitengine audio at %d Hz", config.SampleRate)
	return nil
}

// Queue hands one frame to the player
func (b *EbitengineBackend) Queue(buf *apu.SampleBuffer) error {
	if !b.initialized {
		return ErrNotInitialized
	}
	b.pcm = appendPCM16(b.pcm[:0], b.conv.samples(buf), liveChannels)
	_, err := b.ring.Write(b.pcm)
	return err
}

// Buffered returns the samples waiting in the ring
func (b *EbitengineBackend) Buffered() int {
	if !b.initialized {
		return 0
	}
	return b.ring.Buffered() / liveBytesPerFrame
}

// Cleanup stops playback
func (b *EbitengineBackend) Cleanup() error {
	if !b.initialized {
		return nil
	}
	b.initialized = false
	b.ring.Close()
	return b.player.Close()
}

// IsRealtime returns true (the device consumes at wall-clock speed)
func (b *EbitengineBackend) IsRealtime() bool {
	return true
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}
