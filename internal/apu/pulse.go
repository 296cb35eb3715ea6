package apu

// Duty cycle sequences (8 steps each)
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75% (25% negated)
}

// Pulse is one of the two square wave channels.
type Pulse struct {
	env    Envelope
	sweep  Sweep
	length LengthCounter
	timer  Divider

	period uint16 // 11-bit raw timer period
	duty   uint8
	step   uint8 // position in the 8-step sequence
}

func newPulse(ch Channel) Pulse {
	return Pulse{sweep: Sweep{onesComplement: ch == ChannelPulse1}}
}

// write handles the channel's four registers, reg being 0-3.
func (p *Pulse) write(reg uint8, value uint8) {
	switch reg {
	case 0:
		c := decodePulseControl(value)
		p.duty = c.Duty
		p.length.SetHalt(c.Halt)
		p.env.Configure(c.EnvelopeControl)
	case 1:
		p.sweep.Configure(decodeSweepControl(value))
	case 2:
		p.setPeriod(p.period&0x0700 | uint16(value))
	case 3:
		high := uint16(field(value, timerHighShift, timerHighWidth))
		p.setPeriod(p.period&0x00FF | high<<8)
		p.length.Load(field(value, lengthShift, lengthWidth))
		p.env.Restart()
		p.step = 0
	}
}

func (p *Pulse) setPeriod(period uint16) {
	p.period = period & maxPeriod
	p.timer.SetPeriod(p.period)
}

// Period returns the raw 11-bit timer period, including sweep updates.
func (p *Pulse) Period() uint16 {
	return p.period
}

// clockTimer runs once per APU cycle (every second CPU cycle).
func (p *Pulse) clockTimer() {
	if p.timer.Tick() {
		p.step = (p.step + 1) & 0x07
	}
}

func (p *Pulse) clockSweep() {
	period := p.period
	p.sweep.Clock(&period)
	if period != p.period {
		p.setPeriod(period)
	}
}

// Muted reports whether the sweep unit currently silences the channel.
func (p *Pulse) Muted() bool {
	return p.sweep.Muted(p.period)
}

// Output returns the channel's current 4-bit sample.
func (p *Pulse) Output() uint8 {
	if p.length.Silenced() || p.sweep.Muted(p.period) || dutyTable[p.duty][p.step] == 0 {
		return 0
	}
	return p.env.Output()
}

func (p *Pulse) lengthCounter() *LengthCounter { return &p.length }
func (p *Pulse) envelope() *Envelope { return &p.env }
