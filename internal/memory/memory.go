// Package memory implements the host CPU address map the APU is attached to.
package memory

import (
	"errors"
	"fmt"
)

// ErrUnmapped is returned by DMARead when nothing drives the bus at the
// requested address.
var ErrUnmapped = errors.New("memory: unmapped address")

// Memory represents the NES CPU memory map as seen by the sound hardware
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	// APU registers ($4000-$4017)
	apuRegisters APUInterface

	// Cartridge
	cartridge CartridgeInterface

	// Open bus - last value read from bus (for unmapped areas)
	openBusValue uint8
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// CartridgeInterface defines the interface for cartridge access
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
}

// New creates a new Memory instance. Either collaborator may be nil.
func New(apu APUInterface, cart CartridgeInterface) *Memory {
	mem := &Memory{
		apuRegisters: apu,
		cartridge:    cart,
	}
	mem.initializePowerUpRAM()
	return mem
}

// SetAPU attaches the APU register window.
func (m *Memory) SetAPU(apu APUInterface) {
	m.apuRegisters = apu
}

// SetCartridge swaps the cartridge in the $6000-$FFFF range.
func (m *Memory) SetCartridge(cart CartridgeInterface) {
	m.cartridge = cart
}

// initializePowerUpRAM fills RAM with the $00/$FF pattern real consoles
// tend to show at power-up.
func (m *Memory) initializePowerUpRAM() {
	for i := range m.ram {
		if i&0x04 == 0 {
			m.ram[i] = 0x00
		} else {
			m.ram[i] = 0xFF
		}
	}
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		// Internal RAM (mirrored)
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		// PPU registers are not modelled
		value = m.openBusValue

	case address <= 0x4017:
		if m.apuRegisters != nil && address != 0x4014 && address != 0x4016 {
			value = m.apuRegisters.ReadRegister(address)
		} else {
			value = m.openBusValue
		}

	case address < 0x6000:
		// Test mode registers and cartridge expansion area
		value = m.openBusValue

	default:
		// PRG RAM ($6000-$7FFF) and PRG ROM ($8000-$FFFF)
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBusValue
		}
	}

	// The last value on the bus lingers
	m.openBusValue = value
	return value
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		// PPU registers are not modelled

	case address <= 0x4017:
		// $4014 (OAM DMA) and $4016 (controller strobe) belong to other devices
		if m.apuRegisters != nil && address != 0x4014 && address != 0x4016 {
			m.apuRegisters.WriteRegister(address, value)
		}

	case address < 0x6000:
		// Test mode registers and expansion area, ignored

	default:
		// PRG RAM, or mapper registers in the ROM range
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
	m.openBusValue = value
}

// DMARead serves a DMC sample fetch. Unlike Read it never touches the APU
// window and reports unmapped addresses instead of returning open bus.
func (m *Memory) DMARead(address uint16) (uint8, error) {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF], nil
	case address >= 0x6000 && m.cartridge != nil:
		value := m.cartridge.ReadPRG(address)
		m.openBusValue = value
		return value, nil
	default:
		return m.openBusValue, fmt.Errorf("%w: $%04X", ErrUnmapped, address)
	}
}
