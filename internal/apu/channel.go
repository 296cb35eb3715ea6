package apu

import "strings"

// Channel identifies one of the five sound generators. The numbering matches
// the bit order of $4015 and the register block order from $4000.
type Channel int

const (
	ChannelPulse1 Channel = iota
	ChannelPulse2
	ChannelTriangle
	ChannelNoise
	ChannelDMC

	NumChannels = 5
)

var channelNames = [NumChannels]string{"pulse1", "pulse2", "triangle", "noise", "dmc"}

func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return "unknown"
	}
	return channelNames[c]
}

// ParseChannel returns the channel with the given name.
func ParseChannel(name string) (Channel, bool) {
	for i, n := range channelNames {
		if strings.EqualFold(n, name) {
			return Channel(i), true
		}
	}
	return 0, false
}

// The frame sequencer and the status register reach the shared gating units
// through these interfaces rather than through each concrete channel type.

type lengthGated interface {
	lengthCounter() *LengthCounter
}

type enveloped interface {
	envelope() *Envelope
}

type swept interface {
	clockSweep()
}

// IRQSource is a bit set of the APU's interrupt sources.
type IRQSource uint8

const (
	IRQFrame IRQSource = 1 << iota
	IRQDMC

	numIRQSources = 2
)

var irqSourceNames = [numIRQSources]string{"frame", "dmc"}

func (s IRQSource) String() string {
	var names []string
	for i := 0; i < numIRQSources; i++ {
		if s&(1<<uint(i)) != 0 {
			names = append(names, irqSourceNames[i])
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// IRQLine is the CPU's maskable interrupt input. SetIRQ is called whenever a
// source changes level.
type IRQLine interface {
	SetIRQ(source IRQSource, asserted bool)
}

// MemoryReader is the CPU bus as seen by the DMC's DMA unit. A read error
// is treated as a fetched byte of zero so playback timing is preserved.
type MemoryReader interface {
	DMARead(address uint16) (uint8, error)
}
