package apu

const maxPeriod = 0x7FF

// Sweep periodically rewrites a pulse channel's timer period. Pulse 1 negates
// with one's complement and pulse 2 with two's complement, so for the same
// register contents pulse 1's downward target is one lower.
type Sweep struct {
	divider        Divider
	reload         bool
	enabled        bool
	negate         bool
	shift          uint8
	onesComplement bool
}

// Configure applies $4001/$4005 and arms the divider reload.
func (s *Sweep) Configure(c SweepControl) {
	s.enabled = c.Enabled
	s.negate = c.Negate
	s.shift = c.Shift
	s.divider.SetPeriod(uint16(c.Period))
	s.reload = true
}

// Target returns the period the unit would write for the given current
// period. The result can fall outside the 11-bit range.
func (s *Sweep) Target(period uint16) int {
	change := int(period >> s.shift)
	if !s.negate {
		return int(period) + change
	}
	target := int(period) - change
	if s.onesComplement {
		target--
	}
	return target
}

// Muted reports whether the channel is silenced by the sweep unit. This
// holds whether or not the sweep is enabled. A negative target (pulse 1
// negating with shift 0) does not mute.
func (s *Sweep) Muted(period uint16) bool {
	return period < 8 || s.Target(period) > maxPeriod
}

// Clock is called on every half frame and may update *period.
func (s *Sweep) Clock(period *uint16) {
	fired := s.divider.Tick()
	if fired && s.enabled && s.shift > 0 && !s.Muted(*period) {
		*period = uint16(s.Target(*period))
	}
	if s.reload {
		if !fired {
			s.divider.Reload()
		}
		s.reload = false
	}
}
