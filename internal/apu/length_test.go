package apu

import "testing"

func TestLengthTable(t *testing.T) {
	expected := [32]uint8{
		10, 254, 20, 2, 40, 4, 80, 6,
		160, 8, 60, 10, 14, 12, 26, 14,
		12, 16, 24, 18, 48, 20, 96, 22,
		192, 24, 72, 26, 16, 28, 32, 30,
	}
	if LengthTable != expected {
		t.Errorf("length table mismatch:\n got %v\nwant %v", LengthTable, expected)
	}

	tests := []struct {
		code uint8
		want uint8
	}{
		{0, 10},
		{1, 254},
		{31, 30},
	}
	for _, tt := range tests {
		var l LengthCounter
		l.SetEnabled(true)
		l.Load(tt.code)
		if l.Value() != tt.want {
			t.Errorf("code %d: expected %d, got %d", tt.code, tt.want, l.Value())
		}
	}
}

func TestLengthCounter_LoadIgnoredWhileDisabled(t *testing.T) {
	var l LengthCounter
	l.Load(1)
	if l.Value() != 0 || !l.Silenced() {
		t.Errorf("load on disabled channel should be a no-op, got %d", l.Value())
	}
}

func TestLengthCounter_ClockAndHalt(t *testing.T) {
	var l LengthCounter
	l.SetEnabled(true)
	l.Load(3) // 2
	l.SetHalt(true)
	l.Clock()
	if l.Value() != 2 {
		t.Errorf("halted counter should not decrement, got %d", l.Value())
	}
	l.SetHalt(false)
	l.Clock()
	l.Clock()
	l.Clock()
	if l.Value() != 0 || !l.Silenced() {
		t.Errorf("Expected counter to stop at 0, got %d", l.Value())
	}
}

func TestLengthCounter_DisableClearsAllChannels(t *testing.T) {
	a, _, _ := newTestAPU(t)
	a.WriteRegister(AddrStatus, 0x0F)

	halt := EnvelopeControl{Halt: true}.Encode()
	a.WriteRegister(AddrPulse1Control, halt)
	a.WriteRegister(AddrPulse2Control, halt)
	a.WriteRegister(AddrTriangleLinear, TriangleControl{Control: true, Reload: 10}.Encode())
	a.WriteRegister(AddrNoiseControl, halt)

	a.WriteRegister(AddrPulse1Length, TimerLength{LengthCode: 1}.EncodeHigh())
	a.WriteRegister(AddrPulse2Length, TimerLength{LengthCode: 1}.EncodeHigh())
	a.WriteRegister(AddrTriangleLength, TimerLength{LengthCode: 1}.EncodeHigh())
	a.WriteRegister(AddrNoiseLength, LengthLoad(1))

	if got := a.PeekStatus() & 0x0F; got != 0x0F {
		t.Fatalf("Expected all four length counters active, status $%02X", got)
	}

	a.WriteRegister(AddrStatus, 0x00)
	for i, g := range a.gated {
		if !g.lengthCounter().Silenced() {
			t.Errorf("channel %v not silenced after disable", Channel(i))
		}
	}
	if got := a.PeekStatus() & 0x0F; got != 0 {
		t.Errorf("Expected status length bits clear, got $%02X", got)
	}

	// Re-enabling does not reload.
	a.WriteRegister(AddrStatus, 0x0F)
	if got := a.PeekStatus() & 0x0F; got != 0 {
		t.Errorf("enabling must not reload length counters, status $%02X", got)
	}
}

func TestLinearCounter(t *testing.T) {
	var c LinearCounter
	c.Configure(TriangleControl{Control: false, Reload: 3})
	c.SetReload()
	c.Clock()
	if c.Value() != 3 {
		t.Fatalf("Expected reload to 3, got %d", c.Value())
	}
	if c.reload {
		t.Error("reload flag should clear when control is clear")
	}
	c.Clock()
	c.Clock()
	c.Clock()
	c.Clock()
	if c.Value() != 0 || !c.Silenced() {
		t.Errorf("Expected counter at 0, got %d", c.Value())
	}
}

func TestLinearCounter_ControlHoldsReload(t *testing.T) {
	var c LinearCounter
	c.Configure(TriangleControl{Control: true, Reload: 5})
	c.SetReload()
	for i := 0; i < 10; i++ {
		c.Clock()
		if c.Value() != 5 {
			t.Fatalf("control flag should keep reloading, got %d", c.Value())
		}
	}
}
