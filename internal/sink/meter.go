package sink

import (
	"math"

	"gonesapu/internal/apu"
)

// channelFullScale is the largest raw DAC value each channel can emit.
var channelFullScale = [apu.NumChannels]float32{15, 15, 15, 15, 127}

// Level is a normalized peak and RMS reading in [0, 1].
type Level struct {
	Peak float32
	RMS  float32
}

// Meter tracks per-channel and mixed levels of the most recent frame.
type Meter struct {
	channels [apu.NumChannels]Level
	mixed    Level
}

// Update measures one frame.
func (m *Meter) Update(buf *apu.SampleBuffer) {
	n := buf.Len()
	if n == 0 {
		*m = Meter{}
		return
	}
	for ch := apu.Channel(0); ch < apu.NumChannels; ch++ {
		var peak, sum float64
		full := float64(channelFullScale[ch])
		for _, raw := range buf.Channel(ch) {
			v := float64(raw) / full
			peak = math.Max(peak, v)
			sum += v * v
		}
		m.channels[ch] = Level{Peak: float32(peak), RMS: float32(math.Sqrt(sum / float64(n)))}
	}

	var peak, sum float64
	for _, v := range buf.Mixed() {
		f := float64(v)
		peak = math.Max(peak, f)
		sum += f * f
	}
	m.mixed = Level{Peak: float32(peak), RMS: float32(math.Sqrt(sum / float64(n)))}
}

// Channel returns the level of one channel.
func (m *Meter) Channel(ch apu.Channel) Level {
	if ch < 0 || ch >= apu.NumChannels {
		return Level{}
	}
	return m.channels[ch]
}

// Mixed returns the level of the mixed output.
func (m *Meter) Mixed() Level {
	return m.mixed
}
