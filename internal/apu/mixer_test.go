package apu

import (
	"math"
	"testing"
)

func TestMix(t *testing.T) {
	tests := []struct {
		name                string
		p1, p2, tri, ns, dm uint8
		expected            float64
	}{
		{"silence", 0, 0, 0, 0, 0, 0},
		{"both pulses full", 15, 15, 0, 0, 0, 0.258483},
		{"one pulse full", 15, 0, 0, 0, 0, 0.149377},
		{"triangle full", 0, 0, 15, 0, 0, 0.246412},
		{"dmc full", 0, 0, 0, 0, 127, 0.574264},
		{"everything full", 15, 15, 15, 15, 127, 0.999999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(Mix(tt.p1, tt.p2, tt.tri, tt.ns, tt.dm))
			if math.Abs(got-tt.expected) > 1e-4 {
				t.Errorf("Mix = %f, expected %f", got, tt.expected)
			}
		})
	}
}

func TestMix_PulseSymmetric(t *testing.T) {
	for a := uint8(0); a <= 15; a++ {
		for b := uint8(0); b <= 15; b++ {
			if Mix(a, b, 0, 0, 0) != Mix(b, a, 0, 0, 0) {
				t.Fatalf("pulse mix not symmetric for %d,%d", a, b)
			}
		}
	}
}

func TestMix_Monotonic(t *testing.T) {
	prev := Mix(0, 0, 0, 0, 0)
	for d := uint8(1); d <= 127; d++ {
		cur := Mix(0, 0, 0, 0, d)
		if cur <= prev {
			t.Fatalf("mix not increasing at dmc level %d", d)
		}
		prev = cur
	}
}

func TestSampleBuffer(t *testing.T) {
	b := newSampleBuffer(4)
	b.put([NumChannels]uint8{15, 0, 0, 0, 0})
	b.put([NumChannels]uint8{0, 0, 7, 0, 64})

	if b.Len() != 2 || b.Cap() != 4 {
		t.Errorf("Expected len 2 cap 4, got %d/%d", b.Len(), b.Cap())
	}
	if got := b.Channel(ChannelTriangle); len(got) != 2 || got[1] != 7 {
		t.Errorf("triangle row = %v", got)
	}
	if got := b.Channel(ChannelDMC)[1]; got != 64 {
		t.Errorf("dmc row[1] = %d", got)
	}
	if b.Mixed()[0] != Mix(15, 0, 0, 0, 0) {
		t.Error("mixed row does not match Mix")
	}
	if b.Channel(Channel(9)) != nil {
		t.Error("invalid channel should return nil")
	}

	b.reset()
	if b.Len() != 0 || len(b.Mixed()) != 0 {
		t.Error("reset should empty the buffer")
	}
}

func TestSampleBuffer_OverflowPanics(t *testing.T) {
	b := newSampleBuffer(1)
	b.put([NumChannels]uint8{})
	defer func() {
		if recover() == nil {
			t.Error("Expected panic when writing past the frame size")
		}
	}()
	b.put([NumChannels]uint8{})
}
