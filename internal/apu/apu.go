// Package apu implements the Audio Processing Unit for the NES.
package apu

import (
	"errors"
	"fmt"
	"io"
	"log"
)

var (
	// ErrSampleRate is returned when the sample rate is not an integer
	// multiple of the frame rate.
	ErrSampleRate = errors.New("apu: sample rate must be a positive multiple of the frame rate")
	// ErrRegion is returned for an unknown timing region.
	ErrRegion = errors.New("apu: unknown region")
)

// Config contains construction parameters for the APU.
type Config struct {
	Region     Region
	SampleRate int // output samples per second
	FrameRate  int // video frames per second

	// Logger receives register write traces when TraceWrites is set.
	Logger      *log.Logger
	TraceWrites bool
}

// DefaultConfig returns NTSC timing at 44100 Hz and 60 frames per second,
// giving 735 samples per frame.
func DefaultConfig() Config {
	return Config{
		Region:     NTSC,
		SampleRate: 44100,
		FrameRate:  60,
	}
}

// SamplesPerFrame returns SampleRate / FrameRate, or an error if the ratio
// is not a whole number.
func (c Config) SamplesPerFrame() (int, error) {
	if c.SampleRate <= 0 || c.FrameRate <= 0 || c.SampleRate%c.FrameRate != 0 {
		return 0, fmt.Errorf("%w: %d Hz / %d fps", ErrSampleRate, c.SampleRate, c.FrameRate)
	}
	return c.SampleRate / c.FrameRate, nil
}

// APU represents the NES Audio Processing Unit
type APU struct {
	cfg    Config
	timing *timing
	log    *log.Logger

	// APU channels
	pulse1   Pulse
	pulse2   Pulse
	triangle Triangle
	noise    Noise
	dmc      DMC

	frame FrameSequencer

	gated  [4]lengthGated
	envs   [3]enveloped
	sweeps [2]swept

	mem      MemoryReader
	irq      IRQLine
	irqLevel IRQSource

	// Register file: last written values and the open bus latch
	regs    [windowSize]uint8
	openBus uint8

	cycles uint64

	// Audio generation
	samplesPerFrame int
	sampleAcc       int
	buffers         [2]*SampleBuffer
	back            int
}

// New creates an APU. mem serves DMC sample fetches and irq receives
// interrupt level changes; either may be nil.
func New(cfg Config, mem MemoryReader, irq IRQLine) (*APU, error) {
	spf, err := cfg.SamplesPerFrame()
	if err != nil {
		return nil, err
	}
	t, err := timingFor(cfg.Region)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	a := &APU{
		cfg:             cfg,
		timing:          t,
		log:             logger,
		mem:             mem,
		irq:             irq,
		samplesPerFrame: spf,
		buffers:         [2]*SampleBuffer{newSampleBuffer(spf), newSampleBuffer(spf)},
	}
	a.Reset()

	a.log.Printf("[APU] %v timing, %d Hz, %d samples per frame", cfg.Region, cfg.SampleRate, spf)
	return a, nil
}

// Reset puts every unit into its power-on state: all channels silent, length
// counters cleared, noise LFSR seeded to 1, DMC idle.
func (a *APU) Reset() {
	a.pulse1 = newPulse(ChannelPulse1)
	a.pulse2 = newPulse(ChannelPulse2)
	a.triangle = Triangle{}
	a.noise = newNoise(a.timing)
	a.dmc = newDMC(a.timing, a.mem)
	a.frame = newFrameSequencer(a.timing)

	a.gated = [4]lengthGated{&a.pulse1, &a.pulse2, &a.triangle, &a.noise}
	a.envs = [3]enveloped{&a.pulse1, &a.pulse2, &a.noise}
	a.sweeps = [2]swept{&a.pulse1, &a.pulse2}

	a.regs = [windowSize]uint8{}
	a.openBus = 0
	a.cycles = 0
	a.sampleAcc = 0
	a.back = 0
	for _, b := range a.buffers {
		b.reset()
	}
	a.updateIRQ()
}

// Clock advances the APU by one CPU cycle.
func (a *APU) Clock() {
	a.dispatch(a.frame.Step())

	a.triangle.clockTimer()
	if a.cycles&1 == 0 {
		a.pulse1.clockTimer()
		a.pulse2.clockTimer()
	}
	a.noise.clockTimer()
	a.dmc.clockTimer()

	a.cycles++
	a.updateIRQ()
}

// dispatch delivers frame sequencer events to the gating units.
func (a *APU) dispatch(ev frameEvent) {
	if ev&eventQuarter != 0 {
		for _, e := range a.envs {
			e.envelope().Clock()
		}
		a.triangle.clockLinear()
	}
	if ev&eventHalf != 0 {
		for _, g := range a.gated {
			g.lengthCounter().Clock()
		}
		for _, s := range a.sweeps {
			s.clockSweep()
		}
	}
}

// RunFrame advances the APU by one video frame and returns the filled sample
// buffer. Two buffers alternate, so the returned buffer stays valid until
// the frame after next.
func (a *APU) RunFrame() *SampleBuffer {
	buf := a.buffers[a.back]
	buf.reset()

	clock := a.timing.cpuClock
	for i := 0; i < a.samplesPerFrame; i++ {
		a.sampleAcc += clock
		for a.sampleAcc >= a.cfg.SampleRate {
			a.Clock()
			a.sampleAcc -= a.cfg.SampleRate
		}
		buf.put(a.outputs())
	}

	a.back ^= 1
	return buf
}

func (a *APU) outputs() [NumChannels]uint8 {
	return [NumChannels]uint8{
		a.pulse1.Output(),
		a.pulse2.Output(),
		a.triangle.Output(),
		a.noise.Output(),
		a.dmc.Output(),
	}
}

// Output returns the current raw sample of one channel.
func (a *APU) Output(c Channel) uint8 {
	if c < 0 || c >= NumChannels {
		return 0
	}
	return a.outputs()[c]
}

// ReadRegister reads an APU port. Only $4015 is readable; every other
// address returns the open bus value.
func (a *APU) ReadRegister(address uint16) uint8 {
	if address != AddrStatus {
		return a.openBus
	}
	value := a.status()
	a.frame.ClearIRQ()
	a.updateIRQ()
	a.openBus = value
	return value
}

// status composes the $4015 read value without side effects.
func (a *APU) status() uint8 {
	var v uint8
	for i, g := range a.gated {
		v = setFlag(v, uint(i), !g.lengthCounter().Silenced())
	}
	v = setFlag(v, uint(ChannelDMC), a.dmc.Active())
	v = setFlag(v, statusOpenBusBit, flag(a.openBus, statusOpenBusBit))
	v = setFlag(v, statusFrameIRQBit, a.frame.IRQ())
	v = setFlag(v, statusDMCIRQBit, a.dmc.irqFlag)
	return v
}

// PeekStatus returns what a $4015 read would return without clearing the
// frame interrupt.
func (a *APU) PeekStatus() uint8 {
	return a.status()
}

// WriteRegister writes to an APU register. Addresses outside the window
// and ports owned by other devices are ignored.
func (a *APU) WriteRegister(address uint16, value uint8) {
	if !inWindow(address) {
		return
	}
	a.regs[address-RegisterBase] = value
	a.openBus = value

	if a.cfg.TraceWrites {
		a.log.Printf("[APU] cycle %d: write $%04X = $%02X", a.cycles, address, value)
	}

	switch address {
	case AddrStatus:
		a.writeStatus(value)
	case AddrFrameCounter:
		a.dispatch(a.frame.Write(value, a.cycles&1 == 1))
	default:
		ch, reg, ok := decode(address)
		if !ok {
			return
		}
		switch ch {
		case ChannelPulse1:
			a.pulse1.write(reg, value)
		case ChannelPulse2:
			a.pulse2.write(reg, value)
		case ChannelTriangle:
			a.triangle.write(reg, value)
		case ChannelNoise:
			a.noise.write(reg, value)
		case ChannelDMC:
			a.dmc.write(reg, value)
		}
	}
	a.updateIRQ()
}

// writeStatus handles $4015: per-channel enables, and acknowledges the DMC
// interrupt.
func (a *APU) writeStatus(value uint8) {
	for i, g := range a.gated {
		g.lengthCounter().SetEnabled(flag(value, uint(i)))
	}
	a.dmc.irqFlag = false
	a.dmc.setEnabled(flag(value, uint(ChannelDMC)))
}

// LastWrite returns the value most recently written to an APU port.
func (a *APU) LastWrite(address uint16) uint8 {
	if !inWindow(address) {
		return 0
	}
	return a.regs[address-RegisterBase]
}

// updateIRQ reports interrupt level changes to the IRQ line.
func (a *APU) updateIRQ() {
	var level IRQSource
	if a.frame.IRQ() {
		level |= IRQFrame
	}
	if a.dmc.irqFlag {
		level |= IRQDMC
	}
	changed := level ^ a.irqLevel
	a.irqLevel = level
	if changed == 0 || a.irq == nil {
		return
	}
	for _, src := range []IRQSource{IRQFrame, IRQDMC} {
		if changed&src != 0 {
			a.irq.SetIRQ(src, level&src != 0)
		}
	}
}

// IRQ reports whether any APU interrupt source is asserted.
func (a *APU) IRQ() bool {
	return a.irqLevel != 0
}

// IRQSources returns the asserted interrupt sources.
func (a *APU) IRQSources() IRQSource {
	return a.irqLevel
}

// SamplesPerFrame returns the number of columns written by RunFrame.
func (a *APU) SamplesPerFrame() int {
	return a.samplesPerFrame
}

// SampleRate returns the configured output sample rate.
func (a *APU) SampleRate() int {
	return a.cfg.SampleRate
}

// Region returns the timing region.
func (a *APU) Region() Region {
	return a.cfg.Region
}

// Cycles returns the number of CPU cycles elapsed since reset.
func (a *APU) Cycles() uint64 {
	return a.cycles
}

// DMAFetches returns the number of DMC sample fetches issued since reset.
func (a *APU) DMAFetches() uint64 {
	return a.dmc.fetches
}

// Pulse1 returns the first pulse channel for inspection.
func (a *APU) Pulse1() *Pulse { return &a.pulse1 }

// Pulse2 returns the second pulse channel for inspection.
func (a *APU) Pulse2() *Pulse { return &a.pulse2 }

// DMC returns the DMC for inspection.
func (a *APU) DMC() *DMC { return &a.dmc }
