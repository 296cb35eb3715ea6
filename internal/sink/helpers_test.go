package sink

import (
	"testing"

	"gonesapu/internal/apu"
)

// newToneAPU returns an APU playing a full-volume 440 Hz square on pulse 1.
func newToneAPU(t *testing.T) *apu.APU {
	t.Helper()
	a, err := apu.New(apu.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("apu.New failed: %v", err)
	}
	tl := apu.TimerLength{Period: apu.NTSC.PulsePeriod(440), LengthCode: 1}
	a.WriteRegister(apu.AddrStatus, apu.EnableMask(apu.ChannelPulse1))
	a.WriteRegister(apu.AddrPulse1Control, apu.PulseControl{
		Duty:            2,
		EnvelopeControl: apu.EnvelopeControl{Halt: true, ConstantVolume: true, Volume: 15},
	}.Encode())
	a.WriteRegister(apu.AddrPulse1Sweep, 0)
	a.WriteRegister(apu.AddrPulse1TimerLo, tl.EncodeLow())
	a.WriteRegister(apu.AddrPulse1Length, tl.EncodeHigh())
	return a
}

func testConfig() Config {
	return Config{SampleRate: 44100, Volume: 1}
}
