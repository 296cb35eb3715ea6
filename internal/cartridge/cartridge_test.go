package cartridge

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Test data constants for iNES header construction
const (
	validINESMagic = "NES\x1A"
	invalidMagic   = "ROM\x1A"
)

// createValidINESHeader creates a valid 16-byte iNES header for testing
func createValidINESHeader(prgSize, chrSize, mapper, flags6 uint8) []byte {
	header := make([]byte, 16)
	copy(header[0:4], validINESMagic)
	header[4] = prgSize
	header[5] = chrSize
	header[6] = mapper<<4 | flags6&0x0F
	header[7] = mapper & 0xF0
	return header
}

// createMinimalValidROM creates a minimal valid iNES ROM with specified sizes
func createMinimalValidROM(prgSize, chrSize uint8) []byte {
	rom := createValidINESHeader(prgSize, chrSize, 0, 0)

	prgData := make([]byte, int(prgSize)*16384)
	for i := range prgData {
		prgData[i] = uint8(i % 256)
	}
	chrData := make([]byte, int(chrSize)*8192)
	for i := range chrData {
		chrData[i] = uint8((i + 128) % 256)
	}

	rom = append(rom, prgData...)
	return append(rom, chrData...)
}

func TestLoadFromReader_ValidiNESFormat_ShouldSucceed(t *testing.T) {
	tests := []struct {
		name        string
		prgSize     uint8
		chrSize     uint8
		expectedPRG int
		expectedCHR int
		chrRAM      bool
	}{
		{"16KB PRG, 8KB CHR", 1, 1, 16384, 8192, false},
		{"32KB PRG, 8KB CHR", 2, 1, 32768, 8192, false},
		{"16KB PRG, CHR RAM", 1, 0, 16384, 8192, true},
		{"32KB PRG, 16KB CHR", 2, 2, 32768, 16384, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := LoadFromReader(bytes.NewReader(createMinimalValidROM(tt.prgSize, tt.chrSize)))
			if err != nil {
				t.Fatalf("Expected successful load, got error: %v", err)
			}
			if len(cart.prgROM) != tt.expectedPRG {
				t.Errorf("Expected PRG ROM size %d, got %d", tt.expectedPRG, len(cart.prgROM))
			}
			if cart.chrSize != tt.expectedCHR {
				t.Errorf("Expected CHR size %d, got %d", tt.expectedCHR, cart.chrSize)
			}
			if size, ram := cart.CHRSize(); size != tt.expectedCHR || ram != tt.chrRAM {
				t.Errorf("Expected CHRSize() %d/%v, got %d/%v", tt.expectedCHR, tt.chrRAM, size, ram)
			}
			if cart.hasCHRRAM != tt.chrRAM {
				t.Errorf("Expected hasCHRRAM %v, got %v", tt.chrRAM, cart.hasCHRRAM)
			}
			if cart.MapperID() != 0 {
				t.Errorf("Expected mapper 0, got %d", cart.MapperID())
			}
		})
	}
}

func TestLoadFromReader_InvalidImages(t *testing.T) {
	truncated := createMinimalValidROM(1, 1)
	truncated = truncated[:len(truncated)-100]

	badMagic := createMinimalValidROM(1, 0)
	copy(badMagic, invalidMagic)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrInvalidROM},
		{"short header", []byte(validINESMagic), ErrInvalidROM},
		{"bad magic", badMagic, ErrInvalidROM},
		{"zero PRG", createValidINESHeader(0, 1, 0, 0), ErrInvalidROM},
		{"truncated CHR", truncated, ErrInvalidROM},
		{"unsupported mapper", append(createValidINESHeader(1, 0, 4, 0), make([]byte, 16384)...), ErrUnsupportedMapper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromReader_HeaderFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags6  uint8
		mirror  MirrorMode
		battery bool
	}{
		{"horizontal", 0x00, MirrorHorizontal, false},
		{"vertical", 0x01, MirrorVertical, false},
		{"battery", 0x03, MirrorVertical, true},
		{"four screen", 0x09, MirrorFourScreen, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom := append(createValidINESHeader(1, 0, 0, tt.flags6), make([]byte, 16384)...)
			cart, err := LoadFromReader(bytes.NewReader(rom))
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
			if cart.Mirror() != tt.mirror {
				t.Errorf("Expected mirror %v, got %v", tt.mirror, cart.Mirror())
			}
			if cart.HasBattery() != tt.battery {
				t.Errorf("Expected battery %v, got %v", tt.battery, cart.HasBattery())
			}
		})
	}
}

func TestLoadFromReader_SkipsTrainer(t *testing.T) {
	rom := createValidINESHeader(1, 0, 0, 0x04)
	trainer := bytes.Repeat([]byte{0xEE}, 512)
	prg := make([]byte, 16384)
	prg[0] = 0x42
	rom = append(rom, trainer...)
	rom = append(rom, prg...)

	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := cart.ReadPRG(0x8000); got != 0x42 {
		t.Errorf("Expected $42 after trainer, got $%02X", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, createMinimalValidROM(2, 1), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cart, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cart.PRGSize() != 32768 {
		t.Errorf("Expected 32KB PRG, got %d", cart.PRGSize())
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.nes")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestNew_RejectsBadPRG(t *testing.T) {
	for _, size := range []int{0, 100, 0x5000} {
		if _, err := New(make([]uint8, size), 0, 0, MirrorHorizontal); !errors.Is(err, ErrInvalidROM) {
			t.Errorf("size %d: expected ErrInvalidROM, got %v", size, err)
		}
	}
}
