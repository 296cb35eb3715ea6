package apu

// Envelope produces the 4-bit volume of the pulse and noise channels. It
// either decays from 15 to 0 once per divider period or holds a constant.
type Envelope struct {
	start    bool
	decay    uint8
	divider  Divider
	loop     bool
	constant bool
	volume   uint8
}

// Configure applies the channel's control register. The volume field doubles
// as the divider period.
func (e *Envelope) Configure(c EnvelopeControl) {
	e.loop = c.Halt
	e.constant = c.ConstantVolume
	e.volume = c.Volume
	e.divider.SetPeriod(uint16(c.Volume))
}

// Restart sets the start flag; the next quarter frame restarts the decay.
func (e *Envelope) Restart() {
	e.start = true
}

// Clock is called on every quarter frame.
func (e *Envelope) Clock() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider.Reload()
		return
	}
	if !e.divider.Tick() {
		return
	}
	switch {
	case e.decay > 0:
		e.decay--
	case e.loop:
		e.decay = 15
	}
}

// Output returns the current volume.
func (e *Envelope) Output() uint8 {
	if e.constant {
		return e.volume
	}
	return e.decay
}
