package trace

import (
	"bytes"
	"testing"

	"gonesapu/internal/apu"
	"gonesapu/internal/bus"
	"gonesapu/internal/cartridge"
)

// play runs a trace on a fresh bus and returns the buffers' raw rows for ch.
func play(t *testing.T, tr *Trace, rom []byte, ch apu.Channel) [][]uint8 {
	t.Helper()
	cfg := apu.DefaultConfig()
	cfg.Region = tr.RegionValue()
	cfg.FrameRate = 60
	if cfg.Region == apu.PAL {
		cfg.FrameRate = 50
	}
	b, err := bus.New(cfg)
	if err != nil {
		t.Fatalf("bus.New failed: %v", err)
	}
	if rom != nil {
		cart, err := cartridge.LoadFromReader(bytes.NewReader(rom))
		if err != nil {
			t.Fatalf("load ROM failed: %v", err)
		}
		b.LoadCartridge(cart)
	}

	var rows [][]uint8
	for f := 0; f < tr.Frames; f++ {
		tr.Apply(f, b)
		buf := b.RunFrame()
		rows = append(rows, append([]uint8(nil), buf.Channel(ch)...))
	}
	return rows
}

func nonzero(row []uint8) int {
	n := 0
	for _, v := range row {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestTone(t *testing.T) {
	tr, err := Tone(apu.NTSC, apu.ChannelPulse1, 440, 2, 4)
	if err != nil {
		t.Fatalf("Tone failed: %v", err)
	}
	if tr.Frames != 5 {
		t.Errorf("Expected 5 frames, got %d", tr.Frames)
	}
	rows := play(t, tr, nil, apu.ChannelPulse1)
	for f := 0; f < 4; f++ {
		if n := nonzero(rows[f]); n < 250 || n > 480 {
			t.Errorf("frame %d: %d high samples for 50%% duty", f, n)
		}
	}
	if nonzero(rows[4]) != 0 {
		t.Error("tone should be silenced in the final frame")
	}

	if _, err := Tone(apu.NTSC, apu.ChannelNoise, 440, 2, 4); err == nil {
		t.Error("Expected error for a non-pulse channel")
	}
}

func TestSweep_BendsPitch(t *testing.T) {
	tr, err := Sweep(apu.NTSC, 220, 4, true, 20)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	cfg := apu.DefaultConfig()
	b, err := bus.New(cfg)
	if err != nil {
		t.Fatalf("bus.New failed: %v", err)
	}
	tr.Apply(0, b)
	start := b.APU.Pulse1().Period()
	for f := 0; f < 5; f++ {
		b.RunFrame()
		tr.Apply(f+1, b)
	}
	if b.APU.Pulse1().Period() >= start {
		t.Errorf("negated sweep should shorten the period: %d -> %d", start, b.APU.Pulse1().Period())
	}
}

func TestTriangleBass(t *testing.T) {
	tr, err := TriangleBass(apu.NTSC, []float64{55, 110}, 2)
	if err != nil {
		t.Fatalf("TriangleBass failed: %v", err)
	}
	rows := play(t, tr, nil, apu.ChannelTriangle)
	if nonzero(rows[0]) == 0 || nonzero(rows[3]) == 0 {
		t.Error("triangle should sound while notes play")
	}
	if _, err := TriangleBass(apu.NTSC, nil, 2); err == nil {
		t.Error("Expected error for no notes")
	}
}

func TestNoiseHit(t *testing.T) {
	tr, err := NoiseHit(apu.NTSC, 6, false, 15, 30)
	if err != nil {
		t.Fatalf("NoiseHit failed: %v", err)
	}
	if len(tr.EventsFor(15)) != 1 {
		t.Errorf("Expected a hit at frame 15, got %v", tr.EventsFor(15))
	}
	rows := play(t, tr, nil, apu.ChannelNoise)
	if nonzero(rows[0]) == 0 {
		t.Error("noise should sound on the first hit")
	}
}

func TestDMCRamp(t *testing.T) {
	rom, err := DMCRampROM()
	if err != nil {
		t.Fatalf("DMCRampROM failed: %v", err)
	}
	tr, err := DMCRamp(apu.NTSC, 15, 3)
	if err != nil {
		t.Fatalf("DMCRamp failed: %v", err)
	}
	rows := play(t, tr, rom, apu.ChannelDMC)

	var peak uint8
	for _, v := range rows[0] {
		if v > peak {
			peak = v
		}
	}
	if peak < 100 {
		t.Errorf("ramp should climb near full scale, peak %d", peak)
	}
}

func TestDMCSample_Address(t *testing.T) {
	for _, addr := range []uint16{0x8000, 0xC001, 0xC020} {
		if _, err := DMCSample(apu.NTSC, "x", 0, addr, 17, false, 1); err == nil {
			t.Errorf("Expected error for address $%04X", addr)
		}
	}
	tr, err := DMCSample(apu.NTSC, "x", 0, 0xC040, 17, false, 1)
	if err != nil {
		t.Fatalf("DMCSample failed: %v", err)
	}
	if tr.Events[2].Value != 1 {
		t.Errorf("Expected $4012 value 1, got %d", tr.Events[2].Value)
	}
}

func TestBuiltin(t *testing.T) {
	names := Names()
	if len(names) != 5 {
		t.Errorf("Expected 5 demos, got %v", names)
	}
	for _, name := range names {
		d, err := Builtin(name)
		if err != nil {
			t.Fatalf("Builtin(%s) failed: %v", name, err)
		}
		tr, err := d.Build(apu.NTSC, 60)
		if err != nil {
			t.Errorf("%s: build failed: %v", name, err)
			continue
		}
		if tr.Frames < 60 {
			t.Errorf("%s: expected at least 60 frames, got %d", name, tr.Frames)
		}
	}
	if _, err := Builtin("nope"); err == nil {
		t.Error("Expected error for unknown demo")
	}
}
