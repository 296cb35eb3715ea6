//go:build !headless

package sink

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"gonesapu/internal/apu"
)

const liveAudio = true

// oto allows a single context per process
var (
	otoCtx      *oto.Context
	otoCtxRate  int
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: liveChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-ready
		otoCtxRate = sampleRate
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoCtxRate != sampleRate {
		return nil, fmt.Errorf("sink: oto context already running at %d Hz", otoCtxRate)
	}
	return otoCtx, nil
}

// OtoBackend plays audio on the default device through oto. Frames are
// written to a ring buffer that the oto player pulls from.
type OtoBackend struct {
	initialized bool
	config      Config
	conv        *converter
	player      *oto.Player
	ring        *RingBuffer
	pcm         []byte
}

// NewOtoBackend creates a new oto audio backend
func NewOtoBackend() Backend {
	return &OtoBackend{}
}

// Initialize opens the device
func (b *OtoBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("oto backend already initialized")
	}
	ctx, err := ensureOtoContext(config.SampleRate)
	if err != nil {
		return fmt.Errorf("oto audio not available: %w", err)
	}

	frameSamples := config.frameSamples()
	b.ring = NewRingBuffer(config.ringCapacity())
	b.player = ctx.NewPlayer(b.ring)
	b.player.SetBufferSize(frameSamples * liveBytesPerFrame * 2)
	b.player.SetVolume(1)
	b.player.Play()

	b.config = config
	b.conv = newConverter(config)
	b.pcm = make([]byte, 0, frameSamples*liveBytesPerFrame)
	b.initialized = true
	config.logger().Printf("[SINK] oto playing at %d Hz, ring %d bytes", config.SampleRate, b.ring.Cap())
	return nil
}

// Queue hands one frame to the device
func (b *OtoBackend) Queue(buf *apu.SampleBuffer) error {
	if !b.initialized {
		return ErrNotInitialized
	}
	b.pcm = appendPCM16(b.pcm[:0], b.conv.samples(buf), liveChannels)
	_, err := b.ring.Write(b.pcm)
	return err
}

// Buffered returns the samples waiting in the ring. The player's own
// buffer is not counted: its lock is held while it blocks reading the ring.
func (b *OtoBackend) Buffered() int {
	if !b.initialized {
		return 0
	}
	return b.ring.Buffered() / liveBytesPerFrame
}

// Cleanup stops playback
func (b *OtoBackend) Cleanup() error {
	if !b.initialized {
		return nil
	}
	b.initialized = false
	b.ring.Close()
	if dropped := b.ring.Dropped(); dropped > 0 {
		b.config.logger().Printf("[SINK] oto dropped %d samples on overflow", dropped/liveBytesPerFrame)
	}
	return b.player.Close()
}

// IsRealtime returns true (the device consumes at wall-clock speed)
func (b *OtoBackend) IsRealtime() bool {
	return true
}

// GetName returns the backend name
func (b *OtoBackend) GetName() string {
	return "Oto"
}
