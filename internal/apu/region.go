package apu

import (
	"fmt"
	"strings"
)

// Region selects the console timing model.
type Region uint8

const (
	NTSC Region = iota
	PAL
)

func (r Region) String() string {
	switch r {
	case NTSC:
		return "NTSC"
	case PAL:
		return "PAL"
	default:
		return fmt.Sprintf("Region(%d)", uint8(r))
	}
}

// ParseRegion converts a config string into a Region.
func ParseRegion(s string) (Region, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NTSC":
		return NTSC, nil
	case "PAL":
		return PAL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrRegion, s)
	}
}

type frameEvent uint8

const (
	eventQuarter frameEvent = 1 << iota
	eventHalf
	eventIRQ
)

type sequenceStep struct {
	cycle int
	event frameEvent
}

// sequence is one frame sequencer mode: the CPU cycles at which events fire
// and the cycle at which the count wraps to zero.
type sequence struct {
	steps  []sequenceStep
	period int
}

// timing is the per-region constant set.
type timing struct {
	cpuClock     int // Hz
	fourStep     sequence
	fiveStep     sequence
	noisePeriods [16]uint16 // CPU cycles
	dmcRates     [16]uint16 // CPU cycles
}

var ntscTiming = timing{
	cpuClock: 1789773,
	fourStep: sequence{
		steps: []sequenceStep{
			{7457, eventQuarter},
			{14913, eventQuarter | eventHalf},
			{22371, eventQuarter},
			{29828, eventIRQ},
			{29829, eventQuarter | eventHalf | eventIRQ},
			{29830, eventIRQ},
		},
		period: 29830,
	},
	fiveStep: sequence{
		steps: []sequenceStep{
			{7457, eventQuarter},
			{14913, eventQuarter | eventHalf},
			{22371, eventQuarter},
			{29829, eventQuarter},
			{37281, eventQuarter | eventHalf},
		},
		period: 37282,
	},
	noisePeriods: [16]uint16{
		4, 8, 16, 32, 64, 96, 128, 160,
		202, 254, 380, 508, 762, 1016, 2034, 4068,
	},
	dmcRates: [16]uint16{
		428, 380, 340, 320, 286, 254, 226, 214,
		190, 160, 142, 128, 106, 84, 72, 54,
	},
}

var palTiming = timing{
	cpuClock: 1662607,
	fourStep: sequence{
		steps: []sequenceStep{
			{8313, eventQuarter},
			{16627, eventQuarter | eventHalf},
			{24939, eventQuarter},
			{33252, eventIRQ},
			{33253, eventQuarter | eventHalf | eventIRQ},
			{33254, eventIRQ},
		},
		period: 33254,
	},
	fiveStep: sequence{
		steps: []sequenceStep{
			{8313, eventQuarter},
			{16627, eventQuarter | eventHalf},
			{24939, eventQuarter},
			{33253, eventQuarter},
			{41565, eventQuarter | eventHalf},
		},
		period: 41566,
	},
	noisePeriods: [16]uint16{
		4, 8, 14, 30, 60, 88, 118, 148,
		188, 236, 354, 472, 708, 944, 1890, 3778,
	},
	dmcRates: [16]uint16{
		398, 354, 316, 298, 276, 236, 210, 198,
		176, 148, 132, 118, 98, 78, 66, 50,
	},
}

func timingFor(r Region) (*timing, error) {
	switch r {
	case NTSC:
		return &ntscTiming, nil
	case PAL:
		return &palTiming, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrRegion, r)
	}
}

// CPUClock returns the region's CPU clock in Hz.
func (r Region) CPUClock() int {
	t, err := timingFor(r)
	if err != nil {
		return ntscTiming.cpuClock
	}
	return t.cpuClock
}

// DMCRate returns the DMC output bit rate in Hz for a $4010 rate index.
func (r Region) DMCRate(index uint8) float64 {
	t, err := timingFor(r)
	if err != nil {
		t = &ntscTiming
	}
	return float64(t.cpuClock) / float64(t.dmcRates[index&0x0F])
}

// PulsePeriod returns the timer period that plays hz on a pulse channel.
func (r Region) PulsePeriod(hz float64) uint16 {
	return periodFor(r, hz, 16)
}

// TrianglePeriod returns the timer period that plays hz on the triangle.
func (r Region) TrianglePeriod(hz float64) uint16 {
	return periodFor(r, hz, 32)
}

func periodFor(r Region, hz float64, steps float64) uint16 {
	if hz <= 0 {
		return maxPeriod
	}
	p := float64(r.CPUClock())/(steps*hz) - 1 + 0.5
	if p < 0 {
		return 0
	}
	if p > maxPeriod {
		return maxPeriod
	}
	return uint16(p)
}
