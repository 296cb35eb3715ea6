package dpcm

import "math"

const (
	// MaxLength is the longest sample $4013 can describe: 255*16+1 bytes.
	MaxLength = 0xFF<<4 | 1

	// InitialLevel is the output level the player loads before playback.
	InitialLevel = 0x40

	maxLevel = 127
	padByte  = 0xAA // alternating down/up steps hold the level
)

// Resample converts p to rate Hz by linear interpolation.
func Resample(p PCM, rate float64) []float32 {
	if len(p.Data) == 0 || p.SampleRate <= 0 || rate <= 0 {
		return nil
	}
	step := float64(p.SampleRate) / rate
	n := int(float64(len(p.Data)) / step)
	out := make([]float32, n)
	last := len(p.Data) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = p.Data[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = p.Data[j] + (p.Data[j+1]-p.Data[j])*frac
	}
	return out
}

// Normalize scales s in place so its largest magnitude is 1.
func Normalize(s []float32) {
	var peak float64
	for _, v := range s {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak == 0 {
		return
	}
	g := float32(1 / peak)
	for i := range s {
		s[i] *= g
	}
}

// Encode delta-modulates samples in [-1, 1] starting from level. Each bit
// moves the 7-bit output level by 2 towards the target, LSB first within a
// byte, matching how the DMC consumes its shift register. The result is
// padded to a playable length of 16*L+1 bytes and capped at MaxLength.
func Encode(samples []float32, level uint8) []byte {
	bits := len(samples)
	if bits > MaxLength*8 {
		bits = MaxLength * 8
	}
	out := make([]byte, (bits+7)/8)

	cur := int(level)
	for i := 0; i < bits; i++ {
		target := int(math.Round(float64(samples[i]+1) * maxLevel / 2))
		if target > cur {
			out[i/8] |= 1 << (i % 8)
			if cur <= maxLevel-2 {
				cur += 2
			}
		} else if cur >= 2 {
			cur -= 2
		}
	}

	// Bits left over in the final byte step alternately down and up.
	if r := bits % 8; r != 0 {
		out[len(out)-1] |= padByte &^ (1<<r - 1)
	}
	return pad(out)
}

// Decode replays delta-encoded data from level and returns every output
// level, one per bit.
func Decode(data []byte, level uint8) []uint8 {
	out := make([]uint8, 0, len(data)*8)
	cur := level
	for _, b := range data {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				if cur <= maxLevel-2 {
					cur += 2
				}
			} else if cur >= 2 {
				cur -= 2
			}
			out = append(out, cur)
		}
	}
	return out
}

// pad extends data to the next 16*L+1 length.
func pad(data []byte) []byte {
	n := len(data)
	if n == 0 {
		return []byte{padByte}
	}
	want := ((n-1+15)/16)*16 + 1
	if want > MaxLength {
		want = MaxLength
		return data[:want]
	}
	for len(data) < want {
		data = append(data, padByte)
	}
	return data
}
