package apu

const dmcAddressBase uint16 = 0xC000

// DMC is the delta modulation channel. It fetches 1-bit delta samples from
// CPU memory and steps a 7-bit counter up or down by two per bit.
//
//	DMA reader -> sample buffer -> shift register -> output level
type DMC struct {
	mem   MemoryReader
	rates *[16]uint16
	timer Divider

	irqEnable bool
	loop      bool
	irqFlag   bool

	// latched from $4012/$4013
	startAddress uint16
	startLength  uint16

	address   uint16
	remaining uint16

	buffer     uint8
	bufferFull bool

	shift         uint8
	bitsRemaining uint8
	silence       bool

	level uint8 // 0-127

	fetches uint64
}

func newDMC(t *timing, mem MemoryReader) DMC {
	d := DMC{
		mem:          mem,
		rates:        &t.dmcRates,
		startAddress: dmcAddressBase,
		startLength:  1,
		silence:      true,
	}
	d.timer = NewDivider(t.dmcRates[0] - 1)
	return d
}

// write handles $4010-$4013, reg being 0-3.
func (d *DMC) write(reg uint8, value uint8) {
	switch reg {
	case 0:
		c := decodeDMCControl(value)
		d.irqEnable = c.IRQEnable
		d.loop = c.Loop
		d.timer.SetPeriod(d.rates[c.Rate] - 1)
		if !d.irqEnable {
			d.irqFlag = false
		}
	case 1:
		d.level = field(value, dmcLevelShift, dmcLevelWidth)
	case 2:
		d.startAddress = dmcAddressBase | uint16(value)<<6
	case 3:
		d.startLength = uint16(value)<<4 | 1
	}
}

// setEnabled is the DMC bit of a $4015 write. Enabling while idle restarts
// the sample from the latched address; disabling stops fetching but leaves
// the output level alone.
func (d *DMC) setEnabled(on bool) {
	if !on {
		d.remaining = 0
		return
	}
	if d.remaining == 0 {
		d.restart()
		d.fill()
	}
}

func (d *DMC) restart() {
	d.address = d.startAddress
	d.remaining = d.startLength
}

// fill performs the DMA read that refills an empty sample buffer.
func (d *DMC) fill() {
	if d.bufferFull || d.remaining == 0 {
		return
	}
	var value uint8
	if d.mem != nil {
		v, err := d.mem.DMARead(d.address)
		if err == nil {
			value = v
		}
	}
	d.fetches++
	d.buffer = value
	d.bufferFull = true

	d.address++
	if d.address == 0 {
		d.address = 0x8000
	}
	d.remaining--
	if d.remaining == 0 {
		if d.loop {
			d.restart()
		} else if d.irqEnable {
			d.irqFlag = true
		}
	}
}

// clockTimer runs once per CPU cycle; the rate table is in CPU cycles.
func (d *DMC) clockTimer() {
	if !d.timer.Tick() {
		return
	}
	if !d.silence {
		if d.shift&0x01 != 0 {
			if d.level <= 125 {
				d.level += 2
			}
		} else if d.level >= 2 {
			d.level -= 2
		}
	}
	d.shift >>= 1
	if d.bitsRemaining > 0 {
		d.bitsRemaining--
	}
	if d.bitsRemaining == 0 {
		d.startOutputCycle()
	}
}

func (d *DMC) startOutputCycle() {
	d.bitsRemaining = 8
	if !d.bufferFull {
		d.silence = true
		return
	}
	d.silence = false
	d.shift = d.buffer
	d.bufferFull = false
	d.fill()
}

// Active reports whether sample bytes remain to be fetched.
func (d *DMC) Active() bool {
	return d.remaining > 0
}

// Output returns the 7-bit output level.
func (d *DMC) Output() uint8 {
	return d.level
}

// Address returns the next fetch address.
func (d *DMC) Address() uint16 {
	return d.address
}

// Remaining returns the number of bytes still to be fetched.
func (d *DMC) Remaining() uint16 {
	return d.remaining
}
