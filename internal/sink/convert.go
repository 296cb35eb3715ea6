package sink

import "gonesapu/internal/apu"

// converter turns the mixer's float row into output-ready samples,
// optionally running it through the console filter chain first.
type converter struct {
	volume  float32
	filter  *FilterChain
	scratch []float32
}

func newConverter(cfg Config) *converter {
	c := &converter{volume: cfg.Volume}
	if cfg.Filter {
		c.filter = NewFilterChain(cfg.SampleRate)
	}
	return c
}

// samples returns the scaled samples of buf. The returned slice is reused
// by the next call.
func (c *converter) samples(buf *apu.SampleBuffer) []float32 {
	mixed := buf.Mixed()
	if cap(c.scratch) < len(mixed) {
		c.scratch = make([]float32, len(mixed))
	}
	out := c.scratch[:len(mixed)]
	if c.filter != nil {
		c.filter.Process(out, mixed)
	} else {
		copy(out, mixed)
	}
	for i, v := range out {
		out[i] = scale(v, c.volume)
	}
	return out
}

// appendPCM16 appends s as little-endian 16-bit PCM, repeated once per
// output channel.
func appendPCM16(dst []byte, s []float32, channels int) []byte {
	for _, v := range s {
		pcm := toInt16(v)
		for range channels {
			dst = append(dst, byte(pcm), byte(pcm>>8))
		}
	}
	return dst
}
