package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonesapu/internal/apu"
)

func TestAddress_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    Address
		wantErr bool
	}{
		{`"$4000"`, 0x4000, false},
		{`"0x4015"`, 0x4015, false},
		{`"0X400f"`, 0x400F, false},
		{`"16407"`, 0x4017, false},
		{`16388`, 0x4004, false},
		{`"$G000"`, 0, true},
		{`"$10000"`, 0, true},
		{`70000`, 0, true},
		{`-1`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var a Address
			err := json.Unmarshal([]byte(tt.input), &a)
			if tt.wantErr {
				if !errors.Is(err, ErrBadAddress) {
					t.Errorf("Expected ErrBadAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if a != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, a)
			}
		})
	}
}

func TestParse_OrdersAndIndexesEvents(t *testing.T) {
	input := `{
		"name": "test",
		"events": [
			{"frame": 2, "address": "$4000", "value": 1},
			{"frame": 0, "address": "$4015", "value": 15},
			{"frame": 2, "address": "0x4003", "value": 8},
			{"frame": 0, "address": 16386, "value": 253}
		]
	}`
	tr, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tr.Frames != 3 {
		t.Errorf("Expected frame count derived as 3, got %d", tr.Frames)
	}
	if tr.RegionValue() != apu.NTSC {
		t.Errorf("Expected default region NTSC, got %v", tr.RegionValue())
	}

	f0 := tr.EventsFor(0)
	if len(f0) != 2 || f0[0].Address != 0x4015 || f0[1].Address != 0x4002 {
		t.Errorf("frame 0 events = %v", f0)
	}
	if len(tr.EventsFor(1)) != 0 {
		t.Error("frame 1 should have no events")
	}
	f2 := tr.EventsFor(2)
	if len(f2) != 2 || f2[0].Address != 0x4000 || f2[1].Address != 0x4003 {
		t.Errorf("frame 2 events should keep file order, got %v", f2)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"out of window", `{"events":[{"frame":0,"address":"$4018","value":0}]}`, ErrOutOfWindow},
		{"ppu register", `{"events":[{"frame":0,"address":"$2000","value":0}]}`, ErrOutOfWindow},
		{"bad address", `{"events":[{"frame":0,"address":"oops","value":0}]}`, ErrBadAddress},
		{"bad region", `{"region":"SECAM","events":[]}`, apu.ErrRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	for _, input := range []string{
		`{"frames": 2, "events":[{"frame":5,"address":"$4000","value":0}]}`,
		`{"events":[{"frame":-1,"address":"$4000","value":0}]}`,
		`{"frames": -3}`,
		`not json`,
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Expected error for %s", input)
		}
	}
}

type recorder struct {
	writes []Event
}

func (r *recorder) Write(address uint16, value uint8) {
	r.writes = append(r.writes, Event{Address: Address(address), Value: value})
}

func TestTrace_Apply(t *testing.T) {
	tr := &Trace{Events: []Event{
		{Frame: 1, Address: 0x4015, Value: 1},
		{Frame: 1, Address: 0x4000, Value: 0xBF},
	}}
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	var r recorder
	if n := tr.Apply(0, &r); n != 0 {
		t.Errorf("Expected no writes for frame 0, got %d", n)
	}
	if n := tr.Apply(1, &r); n != 2 || r.writes[1].Value != 0xBF {
		t.Errorf("Expected 2 writes for frame 1, got %d %v", n, r.writes)
	}
}

func TestTrace_SaveLoad(t *testing.T) {
	tr, err := Tone(apu.PAL, apu.ChannelPulse2, 440, 1, 10)
	if err != nil {
		t.Fatalf("Tone failed: %v", err)
	}

	var buf bytes.Buffer
	if err := tr.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"$4007"`) {
		t.Error("addresses should be written as $-hex")
	}

	path := filepath.Join(t.TempDir(), "tone.json")
	if err := tr.SaveFile(path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != tr.Name || loaded.Frames != tr.Frames || loaded.RegionValue() != apu.PAL {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if len(loaded.Events) != len(tr.Events) {
		t.Fatalf("Expected %d events, got %d", len(tr.Events), len(loaded.Events))
	}
	for i := range tr.Events {
		if loaded.Events[i] != tr.Events[i] {
			t.Errorf("event %d: %+v != %+v", i, loaded.Events[i], tr.Events[i])
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
