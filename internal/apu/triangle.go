package apu

// Triangle wave sequence (32 steps)
var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Triangle is the triangle wave channel. Its timer runs at the CPU rate.
// Periods 0 and 1 are not special-cased and produce an ultrasonic tone.
type Triangle struct {
	length LengthCounter
	linear LinearCounter
	timer  Divider

	period uint16
	step   uint8
}

// write handles the channel's registers, reg being 0-3 ($4009 is unused).
func (t *Triangle) write(reg uint8, value uint8) {
	switch reg {
	case 0:
		c := decodeTriangleControl(value)
		t.length.SetHalt(c.Control)
		t.linear.Configure(c)
	case 2:
		t.setPeriod(t.period&0x0700 | uint16(value))
	case 3:
		high := uint16(field(value, timerHighShift, timerHighWidth))
		t.setPeriod(t.period&0x00FF | high<<8)
		t.length.Load(field(value, lengthShift, lengthWidth))
		t.linear.SetReload()
	}
}

func (t *Triangle) setPeriod(period uint16) {
	t.period = period & maxPeriod
	t.timer.SetPeriod(t.period)
}

// clockTimer runs once per CPU cycle. The sequencer only advances while both
// counters are non-zero.
func (t *Triangle) clockTimer() {
	if t.timer.Tick() && !t.length.Silenced() && !t.linear.Silenced() {
		t.step = (t.step + 1) & 0x1F
	}
}

func (t *Triangle) clockLinear() {
	t.linear.Clock()
}

// Output returns the channel's current 4-bit sample.
func (t *Triangle) Output() uint8 {
	if t.length.Silenced() || t.linear.Silenced() {
		return 0
	}
	return triangleTable[t.step]
}

func (t *Triangle) lengthCounter() *LengthCounter { return &t.length }
