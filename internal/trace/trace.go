// Package trace reads, writes and generates register-write traces: a list of
// APU port writes scheduled by video frame.
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonesapu/internal/apu"
)

var (
	// ErrBadAddress is returned for an address that cannot be parsed.
	ErrBadAddress = errors.New("trace: bad address")
	// ErrOutOfWindow is returned for an address outside $4000-$4017.
	ErrOutOfWindow = errors.New("trace: address outside the APU window")
)

// Address is a CPU address. In JSON it may be written as "$4000", "0x4000",
// "16384" or a plain number; it is always written back as "$4000".
type Address uint16

// UnmarshalJSON accepts both strings and numbers.
func (a *Address) UnmarshalJSON(data []byte) error {
	var n uint64
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := parseNumber(s, 16)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrBadAddress, s)
		}
		n = v
	} else if err := json.Unmarshal(data, &n); err != nil || n > 0xFFFF {
		return fmt.Errorf("%w: %s", ErrBadAddress, data)
	}
	*a = Address(n)
	return nil
}

// MarshalJSON writes the address in $-prefixed hex.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a Address) String() string {
	return fmt.Sprintf("$%04X", uint16(a))
}

// parseNumber reads a $- or 0x-prefixed hex value or a decimal value that
// fits in bits.
func parseNumber(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "$"):
		return strconv.ParseUint(s[1:], 16, bits)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return strconv.ParseUint(s[2:], 16, bits)
	default:
		return strconv.ParseUint(s, 10, bits)
	}
}

// Event is one register write.
type Event struct {
	Frame   int     `json:"frame"`
	Address Address `json:"address"`
	Value   uint8   `json:"value"`
}

// Trace is a named sequence of register writes.
type Trace struct {
	Name   string  `json:"name"`
	Region string  `json:"region,omitempty"`
	Frames int     `json:"frames"`
	Events []Event `json:"events"`
}

// Writer receives register writes, for example a bus.
type Writer interface {
	Write(address uint16, value uint8)
}

// Load reads and validates a trace file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a trace.
func Parse(r io.Reader) (*Trace, error) {
	var t Trace
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse trace: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every event and orders them by frame. A zero frame count
// is extended to cover the last event.
func (t *Trace) Validate() error {
	if _, err := apu.ParseRegion(t.Region); err != nil {
		return err
	}
	if t.Frames < 0 {
		return fmt.Errorf("trace: negative frame count %d", t.Frames)
	}

	last := -1
	for i, ev := range t.Events {
		if ev.Address < Address(apu.RegisterBase) || ev.Address > Address(apu.RegisterEnd) {
			return fmt.Errorf("%w: event %d writes %v", ErrOutOfWindow, i, ev.Address)
		}
		if ev.Frame < 0 {
			return fmt.Errorf("trace: event %d has negative frame %d", i, ev.Frame)
		}
		if ev.Frame > last {
			last = ev.Frame
		}
	}
	if t.Frames == 0 {
		t.Frames = last + 1
	} else if last >= t.Frames {
		return fmt.Errorf("trace: event at frame %d beyond %d frames", last, t.Frames)
	}

	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].Frame < t.Events[j].Frame
	})
	return nil
}

// EventsFor returns the writes scheduled before frame is generated, in file
// order. Events must be sorted, as Validate leaves them.
func (t *Trace) EventsFor(frame int) []Event {
	lo := sort.Search(len(t.Events), func(i int) bool { return t.Events[i].Frame >= frame })
	hi := sort.Search(len(t.Events), func(i int) bool { return t.Events[i].Frame > frame })
	return t.Events[lo:hi]
}

// Apply sends the writes for frame to w and returns how many were sent.
func (t *Trace) Apply(frame int, w Writer) int {
	events := t.EventsFor(frame)
	for _, ev := range events {
		w.Write(uint16(ev.Address), ev.Value)
	}
	return len(events)
}

// RegionValue returns the parsed region, NTSC when unset.
func (t *Trace) RegionValue() apu.Region {
	r, err := apu.ParseRegion(t.Region)
	if err != nil {
		return apu.NTSC
	}
	return r
}

// Save writes the trace as indented JSON.
func (t *Trace) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// SaveFile writes the trace to path.
func (t *Trace) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := t.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return f.Close()
}
