package apu

// Divider is a reload-on-zero countdown. Every timer in the APU and the
// periodic units clocked by the frame sequencer are built on it.
type Divider struct {
	period  uint16
	counter uint16
}

// NewDivider returns a divider loaded with the given period.
func NewDivider(period uint16) Divider {
	return Divider{period: period, counter: period}
}

// SetPeriod changes the reload value. The running count is kept unless it
// would exceed the new period.
func (d *Divider) SetPeriod(period uint16) {
	d.period = period
	if d.counter > period {
		d.counter = period
	}
}

// Period returns the reload value.
func (d *Divider) Period() uint16 {
	return d.period
}

// Counter returns the current count.
func (d *Divider) Counter() uint16 {
	return d.counter
}

// Reload sets the counter back to the period.
func (d *Divider) Reload() {
	d.counter = d.period
}

// Tick decrements the counter. When the counter is already zero it reloads
// instead and reports that the divider fired.
func (d *Divider) Tick() bool {
	if d.counter > 0 {
		d.counter--
		return false
	}
	d.counter = d.period
	return true
}
