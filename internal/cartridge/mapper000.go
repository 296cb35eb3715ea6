package cartridge

// Mapper000 implements NROM (mapper 0)
// NROM is the simplest mapper with no bank switching capabilities.
// It supports:
// - 16KB or 32KB PRG ROM (16KB is mirrored to fill 32KB address space)
// - 8KB PRG RAM (SRAM) at 0x6000-0x7FFF (optionally battery-backed)
type Mapper000 struct {
	cart     *Cartridge
	prgBanks uint8 // Number of 16KB PRG banks (1 or 2)
}

// NewMapper000 creates a new NROM mapper
func NewMapper000(cart *Cartridge) *Mapper000 {
	return &Mapper000{cart: cart}
}

// Init has no banking to select.
func (m *Mapper000) Init() {
	m.prgBanks = uint8(len(m.cart.prgROM) / prgBankSize)
}

// ReadPRG reads from PRG ROM/RAM
// Memory map:
// 0x6000-0x7FFF: 8KB PRG RAM (SRAM)
// 0x8000-0xFFFF: 32KB PRG ROM space, a 16KB ROM appears twice
func (m *Mapper000) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		offset := address - 0x8000
		if m.prgBanks == 1 {
			offset &= 0x3FFF
		}
		if int(offset) < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
		return 0
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	}
	return 0
}

// WritePRG writes to PRG RAM. Writes to ROM are ignored.
func (m *Mapper000) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.cart.sram[address-0x6000] = value
	}
}
