package trace

import (
	"fmt"
	"sort"

	"gonesapu/internal/apu"
	"gonesapu/internal/cartridge"
)

// builder appends writes at a current frame.
type builder struct {
	t     *Trace
	frame int
}

func newBuilder(name string, region apu.Region) *builder {
	return &builder{t: &Trace{Name: name, Region: region.String()}}
}

func (b *builder) at(frame int) *builder {
	b.frame = frame
	return b
}

func (b *builder) write(address uint16, value uint8) *builder {
	b.t.Events = append(b.t.Events, Event{Frame: b.frame, Address: Address(address), Value: value})
	return b
}

func (b *builder) done(frames int) (*Trace, error) {
	b.t.Frames = frames
	if err := b.t.Validate(); err != nil {
		return nil, err
	}
	return b.t, nil
}

func pulseBase(ch apu.Channel) (uint16, error) {
	switch ch {
	case apu.ChannelPulse1:
		return apu.AddrPulse1Control, nil
	case apu.ChannelPulse2:
		return apu.AddrPulse2Control, nil
	default:
		return 0, fmt.Errorf("trace: %v is not a pulse channel", ch)
	}
}

// Tone plays a constant-volume square wave on a pulse channel for frames
// frames, then silences it. Tones below about 110 Hz have a period the
// sweep unit mutes.
func Tone(region apu.Region, ch apu.Channel, hz float64, duty uint8, frames int) (*Trace, error) {
	base, err := pulseBase(ch)
	if err != nil {
		return nil, err
	}
	tl := apu.TimerLength{Period: region.PulsePeriod(hz)}

	b := newBuilder(fmt.Sprintf("tone-%v-%.0fhz", ch, hz), region)
	b.at(0).
		write(apu.AddrStatus, apu.EnableMask(ch)).
		write(base, apu.PulseControl{
			Duty:            duty,
			EnvelopeControl: apu.EnvelopeControl{Halt: true, ConstantVolume: true, Volume: 15},
		}.Encode()).
		write(base+1, apu.SweepControl{}.Encode()).
		write(base+2, tl.EncodeLow()).
		write(base+3, tl.EncodeHigh())
	b.at(frames).write(apu.AddrStatus, 0)
	return b.done(frames + 1)
}

// Sweep starts pulse 1 at hz and lets the sweep unit bend the pitch every
// half frame until it mutes or frames run out.
func Sweep(region apu.Region, hz float64, shift uint8, negate bool, frames int) (*Trace, error) {
	tl := apu.TimerLength{Period: region.PulsePeriod(hz)}

	b := newBuilder(fmt.Sprintf("sweep-%.0fhz-s%d", hz, shift), region)
	b.at(0).
		write(apu.AddrStatus, apu.EnableMask(apu.ChannelPulse1)).
		write(apu.AddrPulse1Control, apu.PulseControl{
			Duty:            1,
			EnvelopeControl: apu.EnvelopeControl{Halt: true, ConstantVolume: true, Volume: 12},
		}.Encode()).
		write(apu.AddrPulse1Sweep, apu.SweepControl{Enabled: true, Period: 3, Negate: negate, Shift: shift}.Encode()).
		write(apu.AddrPulse1TimerLo, tl.EncodeLow()).
		write(apu.AddrPulse1Length, tl.EncodeHigh())
	b.at(frames).write(apu.AddrStatus, 0)
	return b.done(frames + 1)
}

// TriangleBass plays one note per framesPerNote frames on the triangle.
func TriangleBass(region apu.Region, notes []float64, framesPerNote int) (*Trace, error) {
	if framesPerNote <= 0 || len(notes) == 0 {
		return nil, fmt.Errorf("trace: need at least one note of one frame")
	}

	b := newBuilder("triangle-bass", region)
	b.at(0).
		write(apu.AddrStatus, apu.EnableMask(apu.ChannelTriangle)).
		write(apu.AddrTriangleLinear, apu.TriangleControl{Control: true, Reload: 0x7F}.Encode())
	for i, hz := range notes {
		tl := apu.TimerLength{Period: region.TrianglePeriod(hz)}
		b.at(i*framesPerNote).
			write(apu.AddrTriangleTimer, tl.EncodeLow()).
			write(apu.AddrTriangleLength, tl.EncodeHigh())
	}
	end := len(notes) * framesPerNote
	b.at(end).write(apu.AddrStatus, 0)
	return b.done(end + 1)
}

// NoiseHit strikes the noise channel every interval frames with a decaying
// envelope.
func NoiseHit(region apu.Region, index uint8, loop bool, interval, frames int) (*Trace, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("trace: hit interval must be positive")
	}

	b := newBuilder(fmt.Sprintf("noise-%d", index), region)
	b.at(0).
		write(apu.AddrStatus, apu.EnableMask(apu.ChannelNoise)).
		write(apu.AddrNoiseControl, apu.EnvelopeControl{Volume: 2}.Encode()).
		write(apu.AddrNoisePeriod, apu.NoisePeriod{Loop: loop, Index: index}.Encode())
	for f := 0; f < frames; f += interval {
		b.at(f).write(apu.AddrNoiseLength, apu.LengthLoad(4))
	}
	b.at(frames).write(apu.AddrStatus, 0)
	return b.done(frames + 1)
}

// dmcRampSample rises for 64 bits, falls for 64 and ends on a neutral byte,
// so a looping playback draws a triangle.
var dmcRampSample = []uint8{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xAA,
}

// DMCRampAddress is where DMCRampROM places the ramp sample.
const DMCRampAddress uint16 = 0xC000

// DMCRampROM returns a 16KB NROM image holding the ramp sample at $C000.
func DMCRampROM() ([]byte, error) {
	return cartridge.NewROMBuilder().
		WithData(int(DMCRampAddress-0xC000), dmcRampSample).
		WithDescription("DMC ramp sample").
		Build()
}

// DMCRamp loops the ramp sample from DMCRampROM at the given rate index.
func DMCRamp(region apu.Region, rate uint8, frames int) (*Trace, error) {
	return DMCSample(region, "dmc-ramp", rate, DMCRampAddress, len(dmcRampSample), true, frames)
}

// DMCSample plays length bytes of delta-encoded sample data from address,
// starting the output level at the midpoint.
func DMCSample(region apu.Region, name string, rate uint8, address uint16, length int, loop bool, frames int) (*Trace, error) {
	if address < 0xC000 || address&0x3F != 0 {
		return nil, fmt.Errorf("trace: DMC sample address $%04X is not a 64-byte boundary at or above $C000", address)
	}
	b := newBuilder(name, region)
	b.at(0).
		write(apu.AddrDMCControl, apu.DMCControl{Loop: loop, Rate: rate}.Encode()).
		write(apu.AddrDMCLoad, 0x40).
		write(apu.AddrDMCAddress, apu.DMCSampleAddress(address)).
		write(apu.AddrDMCLength, apu.DMCSampleLength(length)).
		write(apu.AddrStatus, apu.EnableMask(apu.ChannelDMC))
	b.at(frames).write(apu.AddrStatus, 0)
	return b.done(frames + 1)
}

// Demo is a named builtin trace.
type Demo struct {
	Name        string
	Description string
	Build       func(apu.Region, int) (*Trace, error)
	// ROM returns the cartridge image the trace expects, or nil.
	ROM func() ([]byte, error)
}

var demos = map[string]Demo{
	"tone": {
		Name:        "tone",
		Description: "440 Hz square wave on pulse 1",
		Build: func(r apu.Region, frames int) (*Trace, error) {
			return Tone(r, apu.ChannelPulse1, 440, 2, frames)
		},
	},
	"sweep": {
		Name:        "sweep",
		Description: "pulse 1 pitch bend driven by the sweep unit",
		Build: func(r apu.Region, frames int) (*Trace, error) {
			return Sweep(r, 220, 4, true, frames)
		},
	},
	"bass": {
		Name:        "bass",
		Description: "triangle bass line",
		Build: func(r apu.Region, frames int) (*Trace, error) {
			notes := []float64{55, 55, 82.41, 73.42}
			per := frames / len(notes)
			if per == 0 {
				per = 1
			}
			return TriangleBass(r, notes, per)
		},
	},
	"noise": {
		Name:        "noise",
		Description: "decaying noise hits four times a second",
		Build: func(r apu.Region, frames int) (*Trace, error) {
			return NoiseHit(r, 6, false, 15, frames)
		},
	},
	"dmc": {
		Name:        "dmc",
		Description: "looping DMC ramp sample",
		Build: func(r apu.Region, frames int) (*Trace, error) {
			return DMCRamp(r, 15, frames)
		},
		ROM: DMCRampROM,
	},
}

// Builtin looks up a demo by name.
func Builtin(name string) (Demo, error) {
	d, ok := demos[name]
	if !ok {
		return Demo{}, fmt.Errorf("trace: unknown demo %q (have %v)", name, Names())
	}
	return d, nil
}

// Names lists the builtin demos.
func Names() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
