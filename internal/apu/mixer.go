package apu

import "fmt"

// pulseTable holds 95.88 / (8128/n + 100) for the summed pulse outputs.
var pulseTable [31]float32

func init() {
	for n := 1; n < len(pulseTable); n++ {
		pulseTable[n] = float32(95.88 / (8128.0/float64(n) + 100.0))
	}
}

// Mix combines the five raw channel outputs with the console's non-linear
// DAC formula. The result lies in [0, 1).
func Mix(pulse1, pulse2, triangle, noise, dmc uint8) float32 {
	pulseOut := pulseTable[(pulse1+pulse2)%uint8(len(pulseTable))]

	var tndOut float64
	tnd := float64(triangle)/8227.0 + float64(noise)/12241.0 + float64(dmc)/22638.0
	if tnd != 0 {
		tndOut = 159.79 / (1.0/tnd + 100.0)
	}
	return pulseOut + float32(tndOut)
}

// SampleBuffer holds one video frame of output: a row of raw samples per
// channel plus the mixed row. The engine overwrites it every frame.
type SampleBuffer struct {
	channels [NumChannels][]uint8
	mixed    []float32
	n        int
}

func newSampleBuffer(size int) *SampleBuffer {
	b := &SampleBuffer{mixed: make([]float32, size)}
	for i := range b.channels {
		b.channels[i] = make([]uint8, size)
	}
	return b
}

func (b *SampleBuffer) reset() {
	b.n = 0
}

func (b *SampleBuffer) put(raw [NumChannels]uint8) {
	if b.n >= len(b.mixed) {
		panic(fmt.Sprintf("apu: sample column %d exceeds frame size %d", b.n, len(b.mixed)))
	}
	for i, v := range raw {
		b.channels[i][b.n] = v
	}
	b.mixed[b.n] = Mix(raw[0], raw[1], raw[2], raw[3], raw[4])
	b.n++
}

// Len returns the number of samples written this frame.
func (b *SampleBuffer) Len() int {
	return b.n
}

// Cap returns the samples-per-frame size of every row.
func (b *SampleBuffer) Cap() int {
	return len(b.mixed)
}

// Channel returns the raw output row of one channel.
func (b *SampleBuffer) Channel(c Channel) []uint8 {
	if c < 0 || c >= NumChannels {
		return nil
	}
	return b.channels[c][:b.n]
}

// Mixed returns the mixed output row.
func (b *SampleBuffer) Mixed() []float32 {
	return b.mixed[:b.n]
}
