// Package sink provides an abstraction layer for the places generated audio
// frames can go: files, live audio devices, or nowhere.
package sink

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"gonesapu/internal/apu"
)

var (
	// ErrNotInitialized is returned by Queue before Initialize succeeds.
	ErrNotInitialized = errors.New("sink: backend not initialized")
	// ErrUnavailable is returned by backends compiled out of this build.
	ErrUnavailable = errors.New("sink: backend not available in this build")
)

// Backend represents an audio output backend (WAV file, oto, Ebitengine, etc.)
type Backend interface {
	// Initialize prepares the backend for the given stream format
	Initialize(config Config) error

	// Queue consumes one frame of samples. The buffer is only valid for
	// the duration of the call.
	Queue(buf *apu.SampleBuffer) error

	// Cleanup flushes and releases all resources
	Cleanup() error

	// IsRealtime returns true if the backend plays at wall-clock speed
	IsRealtime() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Buffered is implemented by realtime backends that can report how much
// audio is waiting to be played, in samples.
type Buffered interface {
	Buffered() int
}

// Config contains configuration for audio backends
type Config struct {
	SampleRate int
	FrameRate  int     // video frames per second; 0 means 60
	Volume     float32 // 0.0 - 1.0
	LatencyMS  int     // target device buffer
	Filter     bool    // apply the console output filter chain

	// File backends
	OutputPath string
	Stems      bool          // also write one file per channel
	StemFilter []apu.Channel // channels given a stem; empty means all

	Logger *log.Logger
}

// Both live backends play 16-bit stereo.
const (
	liveChannels      = 2
	liveBytesPerFrame = liveChannels * 2
	defaultLatencyMS  = 100
	defaultFrameRate  = 60
)

// frameSamples returns the number of samples in one video frame.
func (c Config) frameSamples() int {
	fps := c.FrameRate
	if fps <= 0 {
		fps = defaultFrameRate
	}
	return c.SampleRate / fps
}

// ringCapacity returns the ring size in bytes for the configured latency,
// never less than two frames of audio.
func (c Config) ringCapacity() int {
	latencyMS := c.LatencyMS
	if latencyMS <= 0 {
		latencyMS = defaultLatencyMS
	}
	bytes := c.SampleRate * latencyMS / 1000 * liveBytesPerFrame
	if floor := 2 * c.frameSamples() * liveBytesPerFrame; bytes < floor {
		bytes = floor
	}
	return bytes
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Logger
}

// BackendType represents different audio backend types
type BackendType string

const (
	BackendHeadless   BackendType = "headless"
	BackendWAV        BackendType = "wav"
	BackendOto        BackendType = "oto"
	BackendEbitengine BackendType = "ebitengine"
)

// BackendTypes lists every backend name CreateBackend accepts.
func BackendTypes() []BackendType {
	return []BackendType{BackendHeadless, BackendWAV, BackendOto, BackendEbitengine}
}

// LiveAudio reports whether the oto and ebitengine backends can open a
// device. It is false in builds tagged headless.
func LiveAudio() bool {
	return liveAudio
}

// CreateBackend creates an audio backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch BackendType(strings.ToLower(string(backendType))) {
	case BackendHeadless, "":
		return NewHeadlessBackend(), nil
	case BackendWAV:
		return NewWAVBackend(), nil
	case BackendOto:
		return NewOtoBackend(), nil
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	default:
		return nil, fmt.Errorf("sink: unknown backend %q", backendType)
	}
}

// scale applies the output volume to a sample and clamps it to [-1, 1].
func scale(v, volume float32) float32 {
	v *= volume
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// toInt16 converts a sample in [-1, 1] to 16-bit PCM.
func toInt16(v float32) int16 {
	return int16(v * 32767)
}
