package cartridge

// AxROM bank select ($8000-$FFFF): xxxM xPPP
const (
	axromBankMask   = 0x07 // 32KB PRG bank
	axromMirrorBit  = 4    // one-screen nametable page
	axromWindowSize = 0x8000
)

// Mapper007 implements AxROM (mapper 7): one switchable 32KB PRG bank at
// $8000 and a single-screen mirroring select. The board has no PRG RAM.
type Mapper007 struct {
	cart  *Cartridge
	banks int
	bank  int
}

// NewMapper007 creates a new AxROM mapper
func NewMapper007(cart *Cartridge) *Mapper007 {
	return &Mapper007{cart: cart}
}

// Init maps the first 32KB bank and one-screen page 0.
func (m *Mapper007) Init() {
	m.banks = len(m.cart.prgROM) / axromWindowSize
	if m.banks == 0 {
		m.banks = 1
	}
	m.bank = 0
	m.cart.mirror = MirrorSingleScreen0
}

// ReadPRG reads from the selected bank. A 16KB image fills both halves.
func (m *Mapper007) ReadPRG(address uint16) uint8 {
	if address < 0x8000 {
		return 0
	}
	offset := m.bank*axromWindowSize + int(address-0x8000)
	return m.cart.prgROM[offset%len(m.cart.prgROM)]
}

// WritePRG decodes the bank select register.
func (m *Mapper007) WritePRG(address uint16, value uint8) {
	if address < 0x8000 {
		return
	}
	m.bank = int(value&axromBankMask) % m.banks
	if value&(1<<axromMirrorBit) != 0 {
		m.cart.mirror = MirrorSingleScreen1
	} else {
		m.cart.mirror = MirrorSingleScreen0
	}
}

// Bank returns the selected 32KB PRG bank.
func (m *Mapper007) Bank() int {
	return m.bank
}
