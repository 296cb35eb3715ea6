// Package cartridge implements ROM loading and parsing for NES cartridges.
package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrInvalidROM is returned for data that is not a well-formed iNES image.
	ErrInvalidROM = errors.New("cartridge: invalid iNES image")
	// ErrUnsupportedMapper is returned for mapper ids outside the supported set.
	ErrUnsupportedMapper = errors.New("cartridge: unsupported mapper")
)

const (
	prgBankSize = 0x4000 // 16KB iNES PRG unit
	chrBankSize = 0x2000 // 8KB iNES CHR unit
	trainerSize = 512
)

// Cartridge represents a NES cartridge
type Cartridge struct {
	// ROM data. CHR is only sized: nothing in the audio path reads pattern
	// tables.
	prgROM  []uint8
	chrSize int

	// Mapper information
	mapperID uint8
	mapper   Mapper

	// Mirroring mode, as wired on the board or selected by the mapper
	mirror MirrorMode

	// Battery-backed RAM
	hasBattery bool
	sram       [0x2000]uint8

	// CHR memory type
	hasCHRRAM bool
}

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreen0:
		return "single-screen 0"
	case MirrorSingleScreen1:
		return "single-screen 1"
	case MirrorFourScreen:
		return "four-screen"
	default:
		return fmt.Sprintf("MirrorMode(%d)", uint8(m))
	}
}

// iNES header structure
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cart, err := LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return cart, nil
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidROM, err)
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidROM, header.Magic[:])
	}
	if header.PRGROMSize == 0 {
		return nil, fmt.Errorf("%w: PRG ROM size cannot be zero", ErrInvalidROM)
	}

	mirror := MirrorHorizontal
	if header.Flags6&0x08 != 0 {
		mirror = MirrorFourScreen
	} else if header.Flags6&0x01 != 0 {
		mirror = MirrorVertical
	}

	// Skip trainer if present
	if header.Flags6&0x04 != 0 {
		if _, err := io.CopyN(io.Discard, r, trainerSize); err != nil {
			return nil, fmt.Errorf("%w: trainer: %v", ErrInvalidROM, err)
		}
	}

	prg := make([]uint8, int(header.PRGROMSize)*prgBankSize)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, fmt.Errorf("%w: PRG ROM: %v", ErrInvalidROM, err)
	}

	chrSize := int(header.CHRROMSize) * chrBankSize
	if _, err := io.CopyN(io.Discard, r, int64(chrSize)); err != nil {
		return nil, fmt.Errorf("%w: CHR ROM: %v", ErrInvalidROM, err)
	}

	cart, err := New(prg, chrSize, header.Flags6>>4|header.Flags7&0xF0, mirror)
	if err != nil {
		return nil, err
	}
	cart.hasBattery = header.Flags6&0x02 != 0
	return cart, nil
}

// New builds a cartridge from raw PRG data and a CHR ROM size in bytes. A
// zero chrSize gives the board 8KB of CHR RAM.
func New(prg []uint8, chrSize int, mapperID uint8, mirror MirrorMode) (*Cartridge, error) {
	if len(prg) == 0 || len(prg)%prgBankSize != 0 {
		return nil, fmt.Errorf("%w: PRG ROM size %d is not a multiple of 16KB", ErrInvalidROM, len(prg))
	}

	cart := &Cartridge{
		prgROM:   prg,
		chrSize:  chrSize,
		mapperID: mapperID,
		mirror:   mirror,
	}
	if chrSize == 0 {
		cart.chrSize = chrBankSize
		cart.hasCHRRAM = true
	}

	mapper, err := createMapper(mapperID, cart)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper
	cart.mapper.Init()
	return cart, nil
}

// Reset returns the mapper to its power-on banking.
func (c *Cartridge) Reset() {
	c.mapper.Init()
}

// ReadPRG reads from PRG ROM/RAM
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to PRG RAM or mapper registers
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// MapperID returns the iNES mapper number.
func (c *Cartridge) MapperID() uint8 {
	return c.mapperID
}

// Mirror returns the current nametable mirroring mode
func (c *Cartridge) Mirror() MirrorMode {
	return c.mirror
}

// HasBattery reports whether the PRG RAM is battery-backed.
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

// PRGSize returns the PRG ROM size in bytes.
func (c *Cartridge) PRGSize() int {
	return len(c.prgROM)
}

// CHRSize returns the CHR size in bytes and whether it is RAM.
func (c *Cartridge) CHRSize() (int, bool) {
	return c.chrSize, c.hasCHRRAM
}
