package apu

// Noise is the pseudo-random channel driven by a 15-bit LFSR.
type Noise struct {
	env    Envelope
	length LengthCounter
	timer  Divider

	periods *[16]uint16
	loop    bool   // feedback from bit 6 instead of bit 1
	shift   uint16 // LFSR, seeded to 1
}

func newNoise(t *timing) Noise {
	n := Noise{periods: &t.noisePeriods, shift: 1}
	n.timer = NewDivider(t.noisePeriods[0] - 1)
	return n
}

// write handles the channel's registers, reg being 0-3 ($400D is unused).
func (n *Noise) write(reg uint8, value uint8) {
	switch reg {
	case 0:
		c := decodeEnvelopeControl(value)
		n.length.SetHalt(c.Halt)
		n.env.Configure(c)
	case 2:
		c := decodeNoisePeriod(value)
		n.loop = c.Loop
		n.timer.SetPeriod(n.periods[c.Index] - 1)
	case 3:
		n.length.Load(field(value, lengthShift, lengthWidth))
		n.env.Restart()
	}
}

// clockTimer runs once per CPU cycle; the period table is in CPU cycles.
func (n *Noise) clockTimer() {
	if n.timer.Tick() {
		n.clockShift()
	}
}

func (n *Noise) clockShift() {
	tap := uint(1)
	if n.loop {
		tap = 6
	}
	feedback := (n.shift ^ n.shift>>tap) & 0x01
	n.shift = n.shift>>1 | feedback<<14
}

// Output returns the channel's current 4-bit sample.
func (n *Noise) Output() uint8 {
	if n.length.Silenced() || n.shift&0x01 != 0 {
		return 0
	}
	return n.env.Output()
}

func (n *Noise) lengthCounter() *LengthCounter { return &n.length }
func (n *Noise) envelope() *Envelope { return &n.env }
