package apu

// The types in this file give names to the bit-packed register values. Each
// has an Encode method producing the byte a program would store and a
// matching decode function used by the write path, so both directions share
// the field layout constants in registers.go.

// EnvelopeControl is the low six bits of $4000/$4004/$400C.
type EnvelopeControl struct {
	Halt           bool  // length counter halt, also envelope loop
	ConstantVolume bool  // output Volume directly instead of the decay level
	Volume         uint8 // constant volume, or envelope divider period
}

// Encode packs the control into a register value.
func (c EnvelopeControl) Encode() uint8 {
	var v uint8
	v = setFlag(v, haltBit, c.Halt)
	v = setFlag(v, constantBit, c.ConstantVolume)
	return setField(v, volumeShift, volumeWidth, c.Volume)
}

func decodeEnvelopeControl(v uint8) EnvelopeControl {
	return EnvelopeControl{
		Halt:           flag(v, haltBit),
		ConstantVolume: flag(v, constantBit),
		Volume:         field(v, volumeShift, volumeWidth),
	}
}

// PulseControl is $4000/$4004.
type PulseControl struct {
	Duty uint8 // 0=12.5% 1=25% 2=50% 3=75%
	EnvelopeControl
}

// Encode packs the control into a register value.
func (c PulseControl) Encode() uint8 {
	return setField(c.EnvelopeControl.Encode(), dutyShift, dutyWidth, c.Duty)
}

func decodePulseControl(v uint8) PulseControl {
	return PulseControl{
		Duty:            field(v, dutyShift, dutyWidth),
		EnvelopeControl: decodeEnvelopeControl(v),
	}
}

// SweepControl is $4001/$4005.
type SweepControl struct {
	Enabled bool
	Period  uint8 // divider period, in half frames minus one
	Negate  bool
	Shift   uint8
}

// Encode packs the control into a register value.
func (c SweepControl) Encode() uint8 {
	var v uint8
	v = setFlag(v, sweepEnableBit, c.Enabled)
	v = setField(v, sweepPeriodShift, sweepPeriodWidth, c.Period)
	v = setFlag(v, sweepNegateBit, c.Negate)
	return setField(v, sweepShiftShift, sweepShiftWidth, c.Shift)
}

func decodeSweepControl(v uint8) SweepControl {
	return SweepControl{
		Enabled: flag(v, sweepEnableBit),
		Period:  field(v, sweepPeriodShift, sweepPeriodWidth),
		Negate:  flag(v, sweepNegateBit),
		Shift:   field(v, sweepShiftShift, sweepShiftWidth),
	}
}

// TimerLength is the 11-bit timer period together with the length counter
// load code, split across the third and fourth register of a tone channel.
type TimerLength struct {
	Period     uint16
	LengthCode uint8
}

// EncodeLow returns the value for $4002/$4006/$400A.
func (t TimerLength) EncodeLow() uint8 {
	return uint8(t.Period)
}

// EncodeHigh returns the value for $4003/$4007/$400B.
func (t TimerLength) EncodeHigh() uint8 {
	v := setField(0, timerHighShift, timerHighWidth, uint8(t.Period>>8))
	return setField(v, lengthShift, lengthWidth, t.LengthCode)
}

// LengthLoad returns the value for $400F, which has no timer bits.
func LengthLoad(code uint8) uint8 {
	return setField(0, lengthShift, lengthWidth, code)
}

// TriangleControl is $4008.
type TriangleControl struct {
	Control bool  // length counter halt, also linear counter control
	Reload  uint8 // linear counter reload value
}

// Encode packs the control into a register value.
func (c TriangleControl) Encode() uint8 {
	v := setFlag(0, linearControlBit, c.Control)
	return setField(v, linearReloadShift, linearReloadWidth, c.Reload)
}

func decodeTriangleControl(v uint8) TriangleControl {
	return TriangleControl{
		Control: flag(v, linearControlBit),
		Reload:  field(v, linearReloadShift, linearReloadWidth),
	}
}

// NoisePeriod is $400E.
type NoisePeriod struct {
	Loop  bool // short-sequence mode, feedback from bit 6
	Index uint8
}

// Encode packs the control into a register value.
func (c NoisePeriod) Encode() uint8 {
	v := setFlag(0, noiseModeBit, c.Loop)
	return setField(v, noisePeriodShift, noisePeriodWidth, c.Index)
}

func decodeNoisePeriod(v uint8) NoisePeriod {
	return NoisePeriod{
		Loop:  flag(v, noiseModeBit),
		Index: field(v, noisePeriodShift, noisePeriodWidth),
	}
}

// DMCControl is $4010.
type DMCControl struct {
	IRQEnable bool
	Loop      bool
	Rate      uint8
}

// Encode packs the control into a register value.
func (c DMCControl) Encode() uint8 {
	var v uint8
	v = setFlag(v, dmcIRQBit, c.IRQEnable)
	v = setFlag(v, dmcLoopBit, c.Loop)
	return setField(v, dmcRateShift, dmcRateWidth, c.Rate)
}

func decodeDMCControl(v uint8) DMCControl {
	return DMCControl{
		IRQEnable: flag(v, dmcIRQBit),
		Loop:      flag(v, dmcLoopBit),
		Rate:      field(v, dmcRateShift, dmcRateWidth),
	}
}

// DMCSampleAddress returns the $4012 value that selects address. Sample
// data starts at $C000 and is aligned to 64 bytes.
func DMCSampleAddress(address uint16) uint8 {
	return uint8((address - dmcAddressBase) >> 6)
}

// DMCSampleLength returns the $4013 value for a sample of n bytes. Lengths
// are 16*L+1, so n is rounded down to the nearest encodable length.
func DMCSampleLength(n int) uint8 {
	if n < 1 {
		return 0
	}
	l := (n - 1) >> 4
	if l > 0xFF {
		l = 0xFF
	}
	return uint8(l)
}

// EnableMask returns the $4015 value enabling the given channels.
func EnableMask(channels ...Channel) uint8 {
	var v uint8
	for _, ch := range channels {
		if ch >= 0 && ch < NumChannels {
			v |= 1 << uint(ch)
		}
	}
	return v
}

// FrameCounterControl is $4017.
type FrameCounterControl struct {
	FiveStep   bool
	InhibitIRQ bool
}

// Encode packs the control into a register value.
func (c FrameCounterControl) Encode() uint8 {
	v := setFlag(0, frameModeBit, c.FiveStep)
	return setFlag(v, frameInhibitBit, c.InhibitIRQ)
}

func decodeFrameCounterControl(v uint8) FrameCounterControl {
	return FrameCounterControl{
		FiveStep:   flag(v, frameModeBit),
		InhibitIRQ: flag(v, frameInhibitBit),
	}
}
