package sink

import "math"

// Corner frequencies of the console's analog output stage.
const (
	highPass1Hz = 90.0
	highPass2Hz = 440.0
	lowPassHz   = 14000.0
)

// onePole is a first-order RC section. Derived from:
// low-pass alpha = dt / (RC + dt), high-pass alpha = RC / (RC + dt),
// where RC = 1/(2*pi*fc).
type onePole struct {
	alpha    float64
	highPass bool
	prevIn   float64
	prevOut  float64
}

func newLowPass(sampleRate int, cutoff float64) onePole {
	rc := 1 / (2 * math.Pi * cutoff)
	dt := 1 / float64(sampleRate)
	return onePole{alpha: dt / (rc + dt)}
}

func newHighPass(sampleRate int, cutoff float64) onePole {
	rc := 1 / (2 * math.Pi * cutoff)
	dt := 1 / float64(sampleRate)
	return onePole{alpha: rc / (rc + dt), highPass: true}
}

func (f *onePole) step(x float64) float64 {
	if f.highPass {
		f.prevOut = f.alpha * (f.prevOut + x - f.prevIn)
		f.prevIn = x
		return f.prevOut
	}
	f.prevOut += f.alpha * (x - f.prevOut)
	return f.prevOut
}

// FilterChain reproduces the two high-pass and one low-pass stages between
// the mixer and the console's audio jack. State persists across frames.
type FilterChain struct {
	stages [3]onePole
}

// NewFilterChain creates a filter chain for the given output rate.
func NewFilterChain(sampleRate int) *FilterChain {
	return &FilterChain{stages: [3]onePole{
		newHighPass(sampleRate, highPass1Hz),
		newHighPass(sampleRate, highPass2Hz),
		newLowPass(sampleRate, lowPassHz),
	}}
}

// Step filters one sample.
func (c *FilterChain) Step(x float32) float32 {
	v := float64(x)
	for i := range c.stages {
		v = c.stages[i].step(v)
	}
	return float32(v)
}

// Process filters src into dst, which must be at least as long as src.
func (c *FilterChain) Process(dst, src []float32) {
	for i, x := range src {
		dst[i] = c.Step(x)
	}
}

// Reset clears the filter history.
func (c *FilterChain) Reset() {
	for i := range c.stages {
		c.stages[i].prevIn = 0
		c.stages[i].prevOut = 0
	}
}
