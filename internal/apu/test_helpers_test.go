package apu

import (
	"errors"
	"testing"
)

// testMemory serves DMC fetches from a flat 64 KiB image and records the
// addresses read.
type testMemory struct {
	data  [0x10000]uint8
	reads []uint16
	fail  bool
}

func (m *testMemory) DMARead(address uint16) (uint8, error) {
	m.reads = append(m.reads, address)
	if m.fail {
		return 0xFF, errors.New("bus error")
	}
	return m.data[address], nil
}

type irqEvent struct {
	source   IRQSource
	asserted bool
}

// testIRQ records every level change reported by the APU.
type testIRQ struct {
	events []irqEvent
}

func (r *testIRQ) SetIRQ(source IRQSource, asserted bool) {
	r.events = append(r.events, irqEvent{source, asserted})
}

func newTestAPU(t *testing.T) (*APU, *testMemory, *testIRQ) {
	t.Helper()
	mem := &testMemory{}
	irq := &testIRQ{}
	a, err := New(DefaultConfig(), mem, irq)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a, mem, irq
}

func clockN(a *APU, n int) {
	for i := 0; i < n; i++ {
		a.Clock()
	}
}
