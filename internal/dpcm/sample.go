package dpcm

import (
	"fmt"
	"io"
	"log"
	"time"

	"gonesapu/internal/apu"
	"gonesapu/internal/cartridge"
	"gonesapu/internal/trace"
)

// SampleAddress is where ROM places the sample data.
const SampleAddress uint16 = 0xC000

// Options controls conversion.
type Options struct {
	Region    apu.Region
	Rate      uint8 // $4010 rate index, 0-15
	Normalize bool
	Logger    *log.Logger
}

// Sample is delta-encoded data ready for the DMC.
type Sample struct {
	Name   string
	Region apu.Region
	Rate   uint8
	Data   []byte
	// Truncated reports that the source was longer than MaxLength bytes
	// could hold.
	Truncated bool
}

// Convert resamples p to the DMC bit rate and delta-encodes it.
func Convert(name string, p PCM, opts Options) (*Sample, error) {
	if opts.Rate > 0x0F {
		return nil, fmt.Errorf("dpcm: rate index %d out of range", opts.Rate)
	}
	if len(p.Data) == 0 {
		return nil, fmt.Errorf("dpcm: %s has no audio", name)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	bitRate := opts.Region.DMCRate(opts.Rate)
	bits := Resample(p, bitRate)
	if opts.Normalize {
		Normalize(bits)
	}

	s := &Sample{
		Name:      name,
		Region:    opts.Region,
		Rate:      opts.Rate,
		Data:      Encode(bits, InitialLevel),
		Truncated: len(bits) > MaxLength*8,
	}
	logger.Printf("[DPCM] %s: %d Hz, %v -> %d bytes at %.0f bits/s",
		name, p.SampleRate, p.Duration().Round(time.Millisecond), len(s.Data), bitRate)
	if s.Truncated {
		logger.Printf("[DPCM] %s: truncated to %v", name, s.Duration().Round(time.Millisecond))
	}
	return s, nil
}

// Duration returns the playback time of the encoded data.
func (s *Sample) Duration() time.Duration {
	rate := s.Region.DMCRate(s.Rate)
	return time.Duration(float64(len(s.Data)*8) / rate * float64(time.Second))
}

// Frames returns how many frames of fps a single playback lasts, rounded up.
func (s *Sample) Frames(fps int) int {
	d := s.Duration()
	frame := time.Second / time.Duration(fps)
	return int((d + frame - 1) / frame)
}

// ROM returns an NROM image holding the sample at SampleAddress.
func (s *Sample) ROM() ([]byte, error) {
	return cartridge.NewROMBuilder().
		WithData(int(SampleAddress-0xC000), s.Data).
		WithDescription(fmt.Sprintf("DMC sample %s", s.Name)).
		Build()
}

// Trace returns a register trace that plays the sample for frames frames.
func (s *Sample) Trace(loop bool, frames int) (*trace.Trace, error) {
	return trace.DMCSample(s.Region, s.Name, s.Rate, SampleAddress, len(s.Data), loop, frames)
}
