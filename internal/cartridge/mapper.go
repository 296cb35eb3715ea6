package cartridge

import (
	"fmt"
	"slices"
)

// Mapper interface for different cartridge mappers
type Mapper interface {
	// Init selects the power-on bank layout.
	Init()
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
}

// mappers lists the supported boards by iNES mapper number.
var mappers = map[uint8]func(*Cartridge) Mapper{
	0: func(c *Cartridge) Mapper { return NewMapper000(c) },
	7: func(c *Cartridge) Mapper { return NewMapper007(c) },
}

// createMapper creates the appropriate mapper for the given ID
func createMapper(id uint8, cart *Cartridge) (Mapper, error) {
	factory, ok := mappers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, id)
	}
	return factory(cart), nil
}

// Supported reports whether a mapper number can be loaded.
func Supported(id uint8) bool {
	_, ok := mappers[id]
	return ok
}

// Mappers returns the supported mapper numbers in ascending order.
func Mappers() []uint8 {
	ids := make([]uint8, 0, len(mappers))
	for id := range mappers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
