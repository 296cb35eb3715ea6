package apu

// Register window. The APU occupies 24 consecutive byte ports starting at
// $4000; $4014 and $4016 fall inside the window but belong to other devices.
const (
	RegisterBase uint16 = 0x4000
	RegisterEnd  uint16 = 0x4017
	windowSize          = int(RegisterEnd-RegisterBase) + 1
)

// Port addresses
const (
	AddrPulse1Control  uint16 = 0x4000
	AddrPulse1Sweep    uint16 = 0x4001
	AddrPulse1TimerLo  uint16 = 0x4002
	AddrPulse1Length   uint16 = 0x4003
	AddrPulse2Control  uint16 = 0x4004
	AddrPulse2Sweep    uint16 = 0x4005
	AddrPulse2TimerLo  uint16 = 0x4006
	AddrPulse2Length   uint16 = 0x4007
	AddrTriangleLinear uint16 = 0x4008
	AddrTriangleTimer  uint16 = 0x400A
	AddrTriangleLength uint16 = 0x400B
	AddrNoiseControl   uint16 = 0x400C
	AddrNoisePeriod    uint16 = 0x400E
	AddrNoiseLength    uint16 = 0x400F
	AddrDMCControl     uint16 = 0x4010
	AddrDMCLoad        uint16 = 0x4011
	AddrDMCAddress     uint16 = 0x4012
	AddrDMCLength      uint16 = 0x4013
	AddrStatus         uint16 = 0x4015
	AddrFrameCounter   uint16 = 0x4017
)

// Bit layout of every register field, as {shift, width} or bit index.
const (
	// $4000/$4004, $400C: DDLC VVVV
	dutyShift, dutyWidth     = 6, 2
	haltBit                  = 5
	constantBit              = 4
	volumeShift, volumeWidth = 0, 4

	// $4001/$4005: EPPP NSSS
	sweepEnableBit                     = 7
	sweepPeriodShift, sweepPeriodWidth = 4, 3
	sweepNegateBit                     = 3
	sweepShiftShift, sweepShiftWidth   = 0, 3

	// $4003/$4007/$400B/$400F: LLLL LHHH
	timerHighShift, timerHighWidth = 0, 3
	lengthShift, lengthWidth       = 3, 5

	// $4008: CRRR RRRR
	linearControlBit                     = 7
	linearReloadShift, linearReloadWidth = 0, 7

	// $400E: M--- PPPP
	noiseModeBit                       = 7
	noisePeriodShift, noisePeriodWidth = 0, 4

	// $4010: IL-- RRRR
	dmcIRQBit                  = 7
	dmcLoopBit                 = 6
	dmcRateShift, dmcRateWidth = 0, 4

	// $4011: -DDD DDDD
	dmcLevelShift, dmcLevelWidth = 0, 7

	// $4015 read: IF-D NT21, write: ---D NT21
	statusOpenBusBit  = 5
	statusFrameIRQBit = 6
	statusDMCIRQBit   = 7

	// $4017: MI-- ----
	frameModeBit    = 7
	frameInhibitBit = 6
)

// field extracts width bits of v starting at shift.
func field(v uint8, shift, width uint) uint8 {
	return (v >> shift) & (1<<width - 1)
}

// flag reports whether bit is set in v.
func flag(v uint8, bit uint) bool {
	return v&(1<<bit) != 0
}

// setField returns v with width bits at shift replaced by x.
func setField(v uint8, shift, width uint, x uint8) uint8 {
	mask := uint8(1<<width-1) << shift
	return v&^mask | (x<<shift)&mask
}

// setFlag returns v with bit set or cleared.
func setFlag(v uint8, bit uint, on bool) uint8 {
	if on {
		return v | 1<<bit
	}
	return v &^ (1 << bit)
}

// inWindow reports whether address is one of the APU ports.
func inWindow(address uint16) bool {
	return address >= RegisterBase && address <= RegisterEnd
}

// decode splits an in-window address into the owning channel and the
// register index (0-3) within that channel's block.
func decode(address uint16) (Channel, uint8, bool) {
	offset := address - RegisterBase
	if offset >= 0x14 {
		return 0, 0, false
	}
	return Channel(offset >> 2), uint8(offset & 0x03), true
}
