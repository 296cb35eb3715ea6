package trace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"gonesapu/internal/apu"
)

// scriptRegisters are the register names visible to scripts as reg.NAME.
var scriptRegisters = map[string]uint16{
	"PULSE1_CONTROL":  apu.AddrPulse1Control,
	"PULSE1_SWEEP":    apu.AddrPulse1Sweep,
	"PULSE1_TIMER":    apu.AddrPulse1TimerLo,
	"PULSE1_LENGTH":   apu.AddrPulse1Length,
	"PULSE2_CONTROL":  apu.AddrPulse2Control,
	"PULSE2_SWEEP":    apu.AddrPulse2Sweep,
	"PULSE2_TIMER":    apu.AddrPulse2TimerLo,
	"PULSE2_LENGTH":   apu.AddrPulse2Length,
	"TRIANGLE_LINEAR": apu.AddrTriangleLinear,
	"TRIANGLE_TIMER":  apu.AddrTriangleTimer,
	"TRIANGLE_LENGTH": apu.AddrTriangleLength,
	"NOISE_CONTROL":   apu.AddrNoiseControl,
	"NOISE_PERIOD":    apu.AddrNoisePeriod,
	"NOISE_LENGTH":    apu.AddrNoiseLength,
	"DMC_CONTROL":     apu.AddrDMCControl,
	"DMC_LOAD":        apu.AddrDMCLoad,
	"DMC_ADDRESS":     apu.AddrDMCAddress,
	"DMC_LENGTH":      apu.AddrDMCLength,
	"STATUS":          apu.AddrStatus,
	"FRAME_COUNTER":   apu.AddrFrameCounter,
}

// scriptLibs are the standard Lua libraries scripts may use. io and os are
// left out so a trace script cannot touch the filesystem.
var scriptLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// ScriptFile runs a Lua trace script from disk. The trace is named after
// the file.
func ScriptFile(ctx context.Context, path string, region apu.Region) (*Trace, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Script(ctx, name, string(src), region)
}

// Script runs Lua source that builds a trace. Scripts see:
//
//	at(frame)            move the write cursor to frame
//	write(addr, value)   schedule a write at the cursor; addr may be a
//	                     number or a "$4000"-style string
//	frames(n)            set the total length in frames
//	name(s)              set the trace name
//	pulse_period(hz)     timer period for a pulse note
//	triangle_period(hz)  timer period for a triangle note
//	reg.NAME             register addresses, e.g. reg.STATUS
//	region               "NTSC" or "PAL"
//
// Execution stops if ctx is cancelled.
func Script(ctx context.Context, name, src string, region apu.Region) (*Trace, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	for _, lib := range scriptLibs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("trace: open lua %s library: %w", lib.name, err)
		}
	}

	b := newBuilder(name, region)
	frames := 0

	L.SetGlobal("region", lua.LString(region.String()))
	L.SetGlobal("at", L.NewFunction(func(L *lua.LState) int {
		f := L.CheckInt(1)
		if f < 0 {
			L.ArgError(1, "frame must not be negative")
		}
		b.at(f)
		return 0
	}))
	L.SetGlobal("write", L.NewFunction(func(L *lua.LState) int {
		addr := scriptAddress(L, 1)
		v := L.CheckInt(2)
		if v < 0 || v > 0xFF {
			L.ArgError(2, "value must be 0-255")
		}
		b.write(addr, uint8(v))
		return 0
	}))
	L.SetGlobal("frames", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 0 {
			L.ArgError(1, "frame count must not be negative")
		}
		frames = n
		return 0
	}))
	L.SetGlobal("name", L.NewFunction(func(L *lua.LState) int {
		b.t.Name = L.CheckString(1)
		return 0
	}))
	L.SetGlobal("pulse_period", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(region.PulsePeriod(float64(L.CheckNumber(1)))))
		return 1
	}))
	L.SetGlobal("triangle_period", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(region.TrianglePeriod(float64(L.CheckNumber(1)))))
		return 1
	}))

	regs := L.NewTable()
	for k, v := range scriptRegisters {
		L.SetField(regs, k, lua.LNumber(v))
	}
	L.SetGlobal("reg", regs)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("trace: script %s: %w", name, err)
	}
	return b.done(frames)
}

// scriptAddress reads argument n as an address.
func scriptAddress(L *lua.LState, n int) uint16 {
	switch v := L.CheckAny(n).(type) {
	case lua.LNumber:
		if v < 0 || v > 0xFFFF {
			L.ArgError(n, "address out of range")
		}
		return uint16(v)
	case lua.LString:
		a, err := parseNumber(string(v), 16)
		if err != nil {
			L.ArgError(n, fmt.Sprintf("bad address %q", string(v)))
		}
		return uint16(a)
	default:
		L.TypeError(n, lua.LTNumber)
		return 0
	}
}
