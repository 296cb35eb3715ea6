package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"gonesapu/internal/apu"
	"gonesapu/internal/sink"
)

const meterLines = apu.NumChannels + 1

// meter draws per-channel level bars in place. It only exists when the
// output is a terminal.
type meter struct {
	w     io.Writer
	width int
	drawn bool
	frame int
}

func newMeter(f *os.File) *meter {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	width := 40
	if cols, _, err := term.GetSize(fd); err == nil && cols > 30 {
		width = min(cols-20, 60)
	}
	return &meter{w: f, width: width}
}

func (m *meter) bar(l sink.Level) string {
	n := int(l.Peak * float32(m.width))
	n = max(0, min(n, m.width))
	return strings.Repeat("#", n) + strings.Repeat(".", m.width-n)
}

// draw redraws every third frame to keep terminal traffic low.
func (m *meter) draw(levels *sink.Meter) {
	m.frame++
	if m.frame%3 != 0 {
		return
	}
	if m.drawn {
		fmt.Fprintf(m.w, "\x1b[%dA", meterLines)
	}
	for ch := apu.Channel(0); ch < apu.NumChannels; ch++ {
		fmt.Fprintf(m.w, "\r%-9s %s\x1b[K\n", ch, m.bar(levels.Channel(ch)))
	}
	fmt.Fprintf(m.w, "\r%-9s %s\x1b[K\n", "mix", m.bar(levels.Mixed()))
	m.drawn = true
}

func (m *meter) clear() {
	if !m.drawn {
		return
	}
	fmt.Fprintf(m.w, "\x1b[%dA\x1b[J", meterLines)
	m.drawn = false
}
