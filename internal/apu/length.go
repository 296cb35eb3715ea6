package apu

// LengthTable maps the 5-bit length load code to a counter value.
var LengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22,
	192, 24, 72, 26, 16, 28, 32, 30,
}

// LengthCounter silences a channel once a programmed duration has elapsed.
type LengthCounter struct {
	value   uint8
	halt    bool
	enabled bool
}

// Load sets the counter from the table. It is ignored while the channel is
// disabled in $4015.
func (l *LengthCounter) Load(code uint8) {
	if !l.enabled {
		return
	}
	l.value = LengthTable[code&0x1F]
}

// SetEnabled mirrors the channel's $4015 bit. Disabling clears the counter.
func (l *LengthCounter) SetEnabled(on bool) {
	l.enabled = on
	if !on {
		l.value = 0
	}
}

// SetHalt freezes or releases the counter.
func (l *LengthCounter) SetHalt(halt bool) {
	l.halt = halt
}

// Clock is called on every half frame.
func (l *LengthCounter) Clock() {
	if l.value > 0 && !l.halt {
		l.value--
	}
}

// Value returns the current count.
func (l *LengthCounter) Value() uint8 {
	return l.value
}

// Silenced reports whether the counter has reached zero.
func (l *LengthCounter) Silenced() bool {
	return l.value == 0
}

// LinearCounter is the triangle channel's quarter-frame resolution timer.
type LinearCounter struct {
	value       uint8
	reloadValue uint8
	reload      bool
	control     bool
}

// Configure applies $4008. The reload value takes effect on the next
// quarter frame that sees the reload flag.
func (c *LinearCounter) Configure(tc TriangleControl) {
	c.control = tc.Control
	c.reloadValue = tc.Reload
}

// SetReload raises the reload flag; done by every $400B write.
func (c *LinearCounter) SetReload() {
	c.reload = true
}

// Clock is called on every quarter frame.
func (c *LinearCounter) Clock() {
	if c.reload {
		c.value = c.reloadValue
	} else if c.value > 0 {
		c.value--
	}
	if !c.control {
		c.reload = false
	}
}

// Value returns the current count.
func (c *LinearCounter) Value() uint8 {
	return c.value
}

// Silenced reports whether the counter has reached zero.
func (c *LinearCounter) Silenced() bool {
	return c.value == 0
}
