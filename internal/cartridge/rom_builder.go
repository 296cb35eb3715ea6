package cartridge

import (
	"bytes"
	"fmt"
	"io"
)

// ROMConfig describes an iNES image to generate.
type ROMConfig struct {
	PRGSize    uint8      // PRG ROM size in 16KB units
	CHRSize    uint8      // CHR ROM size in 8KB units (0 = CHR RAM)
	MapperID   uint8      // Mapper number
	Mirroring  MirrorMode // Nametable mirroring
	HasBattery bool       // Battery-backed SRAM

	// Segments of PRG ROM content keyed by file offset
	Segments    []Segment
	Description string
}

// Segment is a run of bytes placed at an offset into PRG ROM.
type Segment struct {
	Offset int
	Data   []uint8
}

// ROMBuilder provides a fluent interface for building iNES images, such as
// sample ROMs for the DMC.
type ROMBuilder struct {
	config ROMConfig
}

// NewROMBuilder creates a builder for a 16KB NROM image with CHR RAM.
func NewROMBuilder() *ROMBuilder {
	return &ROMBuilder{
		config: ROMConfig{
			PRGSize:     1,
			Mirroring:   MirrorHorizontal,
			Description: "Generated ROM",
		},
	}
}

// WithPRGSize sets the PRG ROM size in 16KB units
func (b *ROMBuilder) WithPRGSize(size uint8) *ROMBuilder {
	b.config.PRGSize = size
	return b
}

// WithCHRSize sets the CHR ROM size in 8KB units
func (b *ROMBuilder) WithCHRSize(size uint8) *ROMBuilder {
	b.config.CHRSize = size
	return b
}

// WithMapper sets the mapper number
func (b *ROMBuilder) WithMapper(mapperID uint8) *ROMBuilder {
	b.config.MapperID = mapperID
	return b
}

// WithMirroring sets the nametable mirroring
func (b *ROMBuilder) WithMirroring(mirroring MirrorMode) *ROMBuilder {
	b.config.Mirroring = mirroring
	return b
}

// WithBattery marks the PRG RAM as battery-backed
func (b *ROMBuilder) WithBattery() *ROMBuilder {
	b.config.HasBattery = true
	return b
}

// WithData places data at a PRG ROM offset
func (b *ROMBuilder) WithData(offset int, data []uint8) *ROMBuilder {
	b.config.Segments = append(b.config.Segments, Segment{Offset: offset, Data: data})
	return b
}

// WithDescription sets a free-form description
func (b *ROMBuilder) WithDescription(description string) *ROMBuilder {
	b.config.Description = description
	return b
}

// Config returns the accumulated configuration.
func (b *ROMBuilder) Config() ROMConfig {
	return b.config
}

// Build generates the ROM data based on the current configuration
func (b *ROMBuilder) Build() ([]byte, error) {
	return GenerateROM(b.config)
}

// BuildCartridge generates and loads the ROM as a cartridge
func (b *ROMBuilder) BuildCartridge() (*Cartridge, error) {
	romData, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadFromReader(bytes.NewReader(romData))
}

// GenerateROM creates an iNES image from config.
func GenerateROM(config ROMConfig) ([]byte, error) {
	header, err := createINESHeader(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create iNES header: %w", err)
	}

	prg := make([]byte, int(config.PRGSize)*prgBankSize)
	for _, seg := range config.Segments {
		if seg.Offset < 0 || seg.Offset+len(seg.Data) > len(prg) {
			return nil, fmt.Errorf("%w: segment at %d (%d bytes) exceeds %d byte PRG ROM",
				ErrInvalidROM, seg.Offset, len(seg.Data), len(prg))
		}
		copy(prg[seg.Offset:], seg.Data)
	}

	result := append(header, prg...)
	result = append(result, make([]byte, int(config.CHRSize)*chrBankSize)...)
	return result, nil
}

// createINESHeader creates an iNES header based on configuration
func createINESHeader(config ROMConfig) ([]byte, error) {
	if config.PRGSize == 0 {
		return nil, fmt.Errorf("%w: PRG ROM size cannot be zero", ErrInvalidROM)
	}
	if !Supported(config.MapperID) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, config.MapperID)
	}

	header := make([]byte, 16)
	copy(header[0:4], "NES\x1A")
	header[4] = config.PRGSize
	header[5] = config.CHRSize

	flags6 := uint8(0)
	if config.Mirroring == MirrorVertical {
		flags6 |= 0x01
	}
	if config.HasBattery {
		flags6 |= 0x02
	}
	if config.Mirroring == MirrorFourScreen {
		flags6 |= 0x08
	}
	flags6 |= (config.MapperID & 0x0F) << 4
	header[6] = flags6
	header[7] = config.MapperID & 0xF0

	return header, nil
}

// SaveROM writes a generated image to w.
func SaveROM(w io.Writer, config ROMConfig) error {
	romData, err := GenerateROM(config)
	if err != nil {
		return err
	}
	_, err = w.Write(romData)
	return err
}
