// Package bus implements the host machine the APU is plugged into: the CPU
// address map, the DMA path for DMC sample fetches and the IRQ line.
package bus

import (
	"io"
	"log"

	"gonesapu/internal/apu"
	"gonesapu/internal/cartridge"
	"gonesapu/internal/memory"
)

// DefaultDMAStall is the number of CPU cycles a DMC sample fetch steals.
const DefaultDMAStall = 4

// Bus connects the APU to memory and the interrupt line
type Bus struct {
	// Core components
	APU    *apu.APU
	Memory *memory.Memory

	cart memory.CartridgeInterface
	log  *log.Logger

	// System state
	frameCount uint64

	// DMA accounting
	dmaStall     uint64
	dmaRequests  uint64
	dmaErrors    uint64
	stolenCycles uint64

	// IRQ line state
	irqLines   apu.IRQSource
	irqLogging bool
}

// New creates a new bus with an APU built from cfg and no cartridge.
func New(cfg apu.Config) (*Bus, error) {
	b := &Bus{
		dmaStall: DefaultDMAStall,
		log:      cfg.Logger,
	}
	if b.log == nil {
		b.log = log.New(io.Discard, "", 0)
	}

	// Memory needs the APU and the APU needs the bus for DMA
	b.Memory = memory.New(nil, nil)
	a, err := apu.New(cfg, b, b)
	if err != nil {
		return nil, err
	}
	b.APU = a
	b.Memory.SetAPU(a)

	return b, nil
}

// Reset resets all components to their initial state
func (b *Bus) Reset() {
	b.APU.Reset()
	if cart, ok := b.cart.(*cartridge.Cartridge); ok {
		cart.Reset()
	}

	b.frameCount = 0
	b.dmaRequests = 0
	b.dmaErrors = 0
	b.stolenCycles = 0
	b.irqLines = 0
}

// LoadCartridge loads a cartridge into the system
func (b *Bus) LoadCartridge(cart memory.CartridgeInterface) {
	b.cart = cart
	b.Memory.SetCartridge(cart)
	if c, ok := cart.(*cartridge.Cartridge); ok {
		chr, ram := c.CHRSize()
		b.log.Printf("[BUS] cartridge loaded: mapper %d, %d KB PRG, %d KB CHR (ram=%v)", c.MapperID(), c.PRGSize()/1024, chr/1024, ram)
	}
}

// SetDMAStall sets the CPU cycles charged per DMC sample fetch.
func (b *Bus) SetDMAStall(cycles uint64) {
	b.dmaStall = cycles
}

// EnableIRQLogging logs every IRQ line transition.
func (b *Bus) EnableIRQLogging(enable bool) {
	b.irqLogging = enable
}

// Write performs a CPU write.
func (b *Bus) Write(address uint16, value uint8) {
	b.Memory.Write(address, value)
}

// Read performs a CPU read.
func (b *Bus) Read(address uint16) uint8 {
	return b.Memory.Read(address)
}

// DMARead serves a DMC sample fetch and charges the stall it costs the CPU.
func (b *Bus) DMARead(address uint16) (uint8, error) {
	b.dmaRequests++
	b.stolenCycles += b.dmaStall
	value, err := b.Memory.DMARead(address)
	if err != nil {
		b.dmaErrors++
	}
	return value, err
}

// SetIRQ records a level change on one IRQ source.
func (b *Bus) SetIRQ(source apu.IRQSource, asserted bool) {
	if asserted {
		b.irqLines |= source
	} else {
		b.irqLines &^= source
	}
	if b.irqLogging {
		b.log.Printf("[BUS] cycle %d: IRQ %v asserted=%t", b.APU.Cycles(), source, asserted)
	}
}

// IRQPending reports whether any source holds the IRQ line low.
func (b *Bus) IRQPending() bool {
	return b.irqLines != 0
}

// IRQLines returns the asserted sources.
func (b *Bus) IRQLines() apu.IRQSource {
	return b.irqLines
}

// RunFrame runs the APU for one video frame
func (b *Bus) RunFrame() *apu.SampleBuffer {
	buf := b.APU.RunFrame()
	b.frameCount++
	return buf
}

// StolenCycles returns the DMA stall cycles not yet consumed by a CPU.
func (b *Bus) StolenCycles() uint64 {
	return b.stolenCycles
}

// ConsumeStolenCycles returns and clears the pending stall cycles.
func (b *Bus) ConsumeStolenCycles() uint64 {
	n := b.stolenCycles
	b.stolenCycles = 0
	return n
}

// DMARequests returns the number of DMC fetches served.
func (b *Bus) DMARequests() uint64 {
	return b.dmaRequests
}

// DMAErrors returns the number of DMC fetches that hit unmapped memory.
func (b *Bus) DMAErrors() uint64 {
	return b.dmaErrors
}

// FrameCount returns the number of frames run since reset.
func (b *Bus) FrameCount() uint64 {
	return b.frameCount
}

// GetCycleCount returns the CPU cycles elapsed since reset.
func (b *Bus) GetCycleCount() uint64 {
	return b.APU.Cycles()
}
