// Package app wires configuration, the host bus, register traces and an
// audio backend into a player that runs frame by frame.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gonesapu/internal/apu"
	"gonesapu/internal/bus"
	"gonesapu/internal/cartridge"
	"gonesapu/internal/dpcm"
	"gonesapu/internal/sink"
	"gonesapu/internal/trace"
)

// ErrNoTrace is returned by Run when nothing has been loaded to play.
var ErrNoTrace = errors.New("app: no trace loaded")

// Application represents the main audio player application
type Application struct {
	bus      *bus.Bus
	backend  sink.Backend
	emulator *Emulator

	config *Config
	log    *log.Logger

	// OnFrame, when set, is called after every generated frame.
	OnFrame func(buf *apu.SampleBuffer)

	cartridge *cartridge.Cartridge
	romPath   string
	trace     *trace.Trace

	running     bool
	stop        atomic.Bool
	initialized bool
	startTime   time.Time
	runTime     time.Duration
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// Stats summarizes a run.
type Stats struct {
	Frames        uint64
	Samples       uint64
	Writes        uint64
	Loops         int
	CPUCycles     uint64
	DMARequests   uint64
	DMAErrors     uint64
	StolenCycles  uint64
	Elapsed       time.Duration
	AvgFrameTime  time.Duration
	MaxFrameTime  time.Duration
	RealtimeSpeed float64
}

// NewApplication creates a player from cfg. logger may be nil.
func NewApplication(cfg *Config, logger *log.Logger) (*Application, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "validate", Err: err}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	app := &Application{
		config: cfg,
		log:    logger,
	}
	if err := app.initializeComponents(); err != nil {
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}
	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	apuCfg := app.config.APUConfig()
	apuCfg.Logger = app.log

	b, err := bus.New(apuCfg)
	if err != nil {
		return fmt.Errorf("failed to create bus: %w", err)
	}
	b.SetDMAStall(uint64(app.config.Emulation.DMAStall))
	b.EnableIRQLogging(app.config.Debug.LogIRQ || app.config.Debug.LogLevel == "DEBUG")
	app.bus = b

	if err := app.initializeAudioBackend(); err != nil {
		return fmt.Errorf("failed to initialize audio backend: %w", err)
	}

	app.emulator = NewEmulator(app.bus, app.backend, app.config.Audio.FrameRate)
	app.emulator.SetLimit(app.config.Emulation.Frames)
	app.emulator.SetLoop(app.config.Emulation.Loop)

	app.initialized = true
	return nil
}

// initializeAudioBackend creates the configured backend. A live backend that
// cannot open a device falls back to headless output.
func (app *Application) initializeAudioBackend() error {
	backendType := sink.BackendType(app.config.Audio.Backend)
	backend, err := sink.CreateBackend(backendType)
	if err != nil {
		return err
	}

	sinkCfg := app.config.SinkConfig()
	sinkCfg.Logger = app.log
	if err := backend.Initialize(sinkCfg); err != nil {
		if !backend.IsRealtime() {
			return err
		}
		app.log.Printf("[APP_WARNING] %s backend failed (%v), falling back to headless mode", backend.GetName(), err)
		backend = sink.NewHeadlessBackend()
		if err := backend.Initialize(sinkCfg); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.backend = backend
	return nil
}

// LoadROM loads a cartridge image from disk for DMC samples
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}
	app.insert(cart, romPath)
	return nil
}

// loadROMImage loads an in-memory cartridge image
func (app *Application) loadROMImage(name string, rom []byte) error {
	cart, err := cartridge.LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}
	app.insert(cart, name)
	return nil
}

func (app *Application) insert(cart *cartridge.Cartridge, name string) {
	app.cartridge = cart
	app.romPath = name
	app.bus.LoadCartridge(cart)
	app.bus.Reset()
}

// LoadTrace loads a JSON trace, or runs a Lua script when the file ends in
// .lua.
func (app *Application) LoadTrace(ctx context.Context, path string) error {
	var (
		t   *trace.Trace
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".lua") {
		t, err = trace.ScriptFile(ctx, path, app.config.RegionValue())
	} else {
		t, err = trace.Load(path)
	}
	if err != nil {
		return &ApplicationError{Component: "trace", Operation: "load", Err: err}
	}
	return app.UseTrace(t)
}

// UseTrace plays t from its first frame.
func (app *Application) UseTrace(t *trace.Trace) error {
	if t == nil {
		return ErrNoTrace
	}
	if region := t.RegionValue(); region != app.config.RegionValue() {
		app.log.Printf("[APP_WARNING] trace %q targets %v, playing with %v timing", t.Name, region, app.config.RegionValue())
	}
	app.trace = t
	app.emulator.SetTrace(t)
	app.log.Printf("[APP] trace %q: %d frames, %d writes", t.Name, t.Frames, len(t.Events))
	return nil
}

// LoadDemo selects a builtin demo, loading its ROM when it has one.
func (app *Application) LoadDemo(name string, frames int) error {
	d, err := trace.Builtin(name)
	if err != nil {
		return &ApplicationError{Component: "trace", Operation: "load demo", Err: err}
	}
	if d.ROM != nil {
		rom, err := d.ROM()
		if err != nil {
			return &ApplicationError{Component: "cartridge", Operation: "build demo ROM", Err: err}
		}
		if err := app.loadROMImage(name, rom); err != nil {
			return err
		}
	}
	t, err := d.Build(app.config.RegionValue(), frames)
	if err != nil {
		return &ApplicationError{Component: "trace", Operation: "build demo", Err: err}
	}
	return app.UseTrace(t)
}

// LoadSample converts a WAV or MP3 file to DMC data, builds a cartridge
// holding it and plays it once at the given rate index.
func (app *Application) LoadSample(path string, rate uint8) error {
	pcm, err := dpcm.Load(path)
	if err != nil {
		return &ApplicationError{Component: "sample", Operation: "load", Err: err}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := dpcm.Convert(name, pcm, dpcm.Options{
		Region:    app.config.RegionValue(),
		Rate:      rate,
		Normalize: true,
		Logger:    app.log,
	})
	if err != nil {
		return &ApplicationError{Component: "sample", Operation: "convert", Err: err}
	}
	rom, err := s.ROM()
	if err != nil {
		return &ApplicationError{Component: "sample", Operation: "build ROM", Err: err}
	}
	if err := app.loadROMImage(path, rom); err != nil {
		return err
	}
	t, err := s.Trace(false, s.Frames(app.config.Audio.FrameRate))
	if err != nil {
		return &ApplicationError{Component: "sample", Operation: "build trace", Err: err}
	}
	return app.UseTrace(t)
}

// Run plays until the trace or frame limit ends
func (app *Application) Run() error {
	return app.RunContext(context.Background())
}

// RunContext plays until the trace or frame limit ends or ctx is done.
// Realtime backends are paced to wall-clock speed.
func (app *Application) RunContext(ctx context.Context) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.trace == nil && app.config.Emulation.Frames == 0 {
		return ErrNoTrace
	}

	app.running = true
	app.stop.Store(false)
	app.startTime = time.Now()
	defer func() {
		app.running = false
		app.runTime += time.Since(app.startTime)
	}()

	app.log.Printf("[APP] playing with %s backend", app.backend.GetName())

	pacer := newPacer(app.backend, app.emulator.GetTargetFrameTime(), app.config.Audio.SampleRate, app.config.Audio.LatencyMS)
	for !app.emulator.Done() && !app.stop.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}

		buf, err := app.emulator.Update()
		if err != nil {
			return &ApplicationError{Component: "audio", Operation: "queue frame", Err: err}
		}
		if app.OnFrame != nil {
			app.OnFrame(buf)
		}

		if err := pacer.wait(ctx); err != nil {
			return err
		}
	}

	app.log.Printf("[APP] finished after %d frames", app.emulator.frameCount)
	return nil
}

// Stop ends a running RunContext after the current frame
func (app *Application) Stop() {
	app.stop.Store(true)
}

// Reset resets the bus and rewinds the trace
func (app *Application) Reset() {
	app.bus.Reset()
	app.emulator.Reset()
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running
}

// Stats returns counters for the run so far.
func (app *Application) Stats() Stats {
	elapsed := app.runTime
	if app.running {
		elapsed += time.Since(app.startTime)
	}
	return Stats{
		Frames:        app.emulator.frameCount,
		Samples:       app.emulator.sampleCount,
		Writes:        app.emulator.writeCount,
		Loops:         app.emulator.loops,
		CPUCycles:     app.bus.GetCycleCount(),
		DMARequests:   app.bus.DMARequests(),
		DMAErrors:     app.bus.DMAErrors(),
		StolenCycles:  app.bus.StolenCycles(),
		Elapsed:       elapsed,
		AvgFrameTime:  app.emulator.GetAverageFrameTime(),
		MaxFrameTime:  app.emulator.frameTimes.GetMax(),
		RealtimeSpeed: app.emulator.GetEmulationSpeed(),
	}
}

// Meter returns the levels of the last generated frame
func (app *Application) Meter() *sink.Meter {
	return &app.emulator.meter
}

// GetBus returns the host bus
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetBackend returns the audio backend in use
func (app *Application) GetBackend() sink.Backend {
	return app.backend
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetTrace returns the trace being played
func (app *Application) GetTrace() *trace.Trace {
	return app.trace
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var lastErr error
	if app.backend != nil {
		if err := app.backend.Cleanup(); err != nil {
			lastErr = err
			app.log.Printf("[APP_ERROR] Audio backend cleanup error: %v", err)
		}
	}
	app.initialized = false
	return lastErr
}
