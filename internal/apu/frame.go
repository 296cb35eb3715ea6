package apu

// FrameSequencer divides the CPU clock into quarter and half frame events
// and raises the frame interrupt in 4-step mode.
type FrameSequencer struct {
	timing *timing

	fiveStep bool
	inhibit  bool
	irqFlag  bool

	cycle      int // CPU cycles into the current sequence
	step       int // quarter frame events so far in this sequence
	resetDelay int // cycles until a $4017 write resets the count
}

func newFrameSequencer(t *timing) FrameSequencer {
	return FrameSequencer{timing: t}
}

func (f *FrameSequencer) sequence() *sequence {
	if f.fiveStep {
		return &f.timing.fiveStep
	}
	return &f.timing.fourStep
}

// Step advances one CPU cycle and returns the events due on it.
func (f *FrameSequencer) Step() frameEvent {
	if f.resetDelay > 0 {
		f.resetDelay--
		if f.resetDelay == 0 {
			f.cycle = 0
			f.step = 0
		}
	}

	f.cycle++
	seq := f.sequence()

	var ev frameEvent
	for _, s := range seq.steps {
		if s.cycle == f.cycle {
			ev |= s.event
		}
	}
	if ev&eventIRQ != 0 {
		if f.fiveStep || f.inhibit {
			ev &^= eventIRQ
		} else {
			f.irqFlag = true
		}
	}
	if ev&eventQuarter != 0 {
		f.step++
	}
	if f.cycle >= seq.period {
		f.cycle = 0
		f.step = 0
	}
	return ev
}

// Write handles $4017. The count is reset 3 or 4 CPU cycles later depending
// on whether the write lands on an odd cycle. Selecting 5-step mode clocks
// the quarter and half frame units immediately.
func (f *FrameSequencer) Write(value uint8, oddCycle bool) frameEvent {
	c := decodeFrameCounterControl(value)
	f.fiveStep = c.FiveStep
	f.inhibit = c.InhibitIRQ
	if f.inhibit {
		f.irqFlag = false
	}

	f.resetDelay = 3
	if oddCycle {
		f.resetDelay = 4
	}

	if f.fiveStep {
		return eventQuarter | eventHalf
	}
	return 0
}

// IRQ reports the frame interrupt flag.
func (f *FrameSequencer) IRQ() bool {
	return f.irqFlag
}

// ClearIRQ acknowledges the frame interrupt.
func (f *FrameSequencer) ClearIRQ() {
	f.irqFlag = false
}

// FiveStep reports the current mode.
func (f *FrameSequencer) FiveStep() bool {
	return f.fiveStep
}

// Position returns the quarter frame step and the cycle within the sequence.
func (f *FrameSequencer) Position() (step, cycle int) {
	return f.step, f.cycle
}
