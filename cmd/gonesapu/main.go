// Package main implements the gonesapu executable: it plays register-write
// traces, builtin demos and converted DMC samples through the APU.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gonesapu/internal/app"
	"gonesapu/internal/apu"
	"gonesapu/internal/sink"
	"gonesapu/internal/trace"
	"gonesapu/internal/version"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		romFile    = flag.String("rom", "", "Cartridge image supplying DMC sample data")
		traceFile  = flag.String("trace", "", "Register-write trace (.json) or script (.lua)")
		demo       = flag.String("demo", "", "Builtin demo to play ("+strings.Join(trace.Names(), ", ")+")")
		sample     = flag.String("sample", "", "WAV or MP3 file to convert and play on the DMC")
		rate       = flag.Uint("rate", 15, "DMC rate index (0-15) for -sample")
		export     = flag.String("export", "", "Write the loaded trace as JSON to this path and exit")
		backend    = flag.String("backend", "", "Audio backend ("+backendNames()+")")
		output     = flag.String("o", "", "Output WAV path (implies -backend wav)")
		stems      = flag.Bool("stems", false, "Also write one WAV per channel")
		stemList   = flag.String("stem-channels", "", "Comma-separated channels to write stems for (implies -stems)")
		region     = flag.String("region", "", "Timing region: NTSC or PAL")
		frames     = flag.Int("frames", -1, "Frames to play (0 = whole trace)")
		loop       = flag.Bool("loop", false, "Restart the trace when it ends")
		volume     = flag.Float64("volume", -1, "Output volume 0.0-1.0")
		noFilter   = flag.Bool("nofilter", false, "Disable the console output filter")
		quiet      = flag.Bool("quiet", false, "Disable the level meter")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVer {
		version.PrintBuildInfo(os.Stdout)
		os.Exit(0)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		log.Printf("[APP_WARNING] Could not load config from %s, using defaults: %v", configPath, err)
		cfg = app.NewConfig()
	}

	// Flags override the config file
	if *backend != "" {
		cfg.Audio.Backend = *backend
	}
	if *output != "" {
		cfg.Paths.WAVOutput = *output
		if *backend == "" {
			cfg.Audio.Backend = string(sink.BackendWAV)
		}
	}
	if *stems {
		cfg.Audio.Stems = true
	}
	if *stemList != "" {
		cfg.Audio.Stems = true
		cfg.Audio.StemChannels = strings.Split(*stemList, ",")
	}
	if *region != "" {
		cfg.Emulation.Region = *region
		if r, err := apu.ParseRegion(*region); err == nil && r == apu.PAL {
			cfg.Audio.FrameRate = 50
		}
	}
	if *frames >= 0 {
		cfg.Emulation.Frames = *frames
	}
	if *loop {
		cfg.Emulation.Loop = true
	}
	if *volume >= 0 {
		cfg.Audio.Volume = float32(*volume)
	}
	if *noFilter {
		cfg.Audio.Filter = false
	}
	if *debug {
		cfg.Debug.EnableLogging = true
		cfg.Debug.LogLevel = "DEBUG"
		cfg.Debug.LogIRQ = true
	}

	var logger *log.Logger
	if cfg.Debug.EnableLogging {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("Application cleanup error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := load(ctx, application, *romFile, *traceFile, *demo, *sample, *rate); err != nil {
		log.Fatalf("%v", err)
	}

	if *export != "" {
		if err := application.GetTrace().SaveFile(*export); err != nil {
			log.Fatalf("Failed to export trace: %v", err)
		}
		fmt.Printf("Wrote %s\n", *export)
		return
	}

	var m *meter
	if !*quiet {
		m = newMeter(os.Stdout)
	}
	if m != nil {
		application.OnFrame = func(*apu.SampleBuffer) { m.draw(application.Meter()) }
	}

	t := application.GetTrace()
	fmt.Printf("Playing %q (%s, %d Hz) on %s\n", t.Name, cfg.Emulation.Region, cfg.Audio.SampleRate, application.GetBackend().GetName())

	err = application.RunContext(ctx)
	if m != nil {
		m.clear()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Playback failed: %v", err)
	}

	printStats(application.Stats())
	if cfg.Audio.Backend == string(sink.BackendWAV) {
		fmt.Printf("Wrote %s\n", cfg.Paths.WAVOutput)
	}
}

// load selects what to play. Exactly one of trace, demo and sample is used;
// trace wins over demo, demo over sample, and config paths fill in gaps.
func load(ctx context.Context, application *app.Application, rom, tracePath, demo, sample string, rate uint) error {
	cfg := application.GetConfig()
	if rom == "" {
		rom = cfg.Paths.ROM
	}
	if tracePath == "" {
		tracePath = cfg.Paths.Trace
	}
	if sample == "" {
		sample = cfg.Paths.Sample
	}
	if rate > 15 {
		return fmt.Errorf("DMC rate index %d out of range 0-15", rate)
	}

	if rom != "" {
		if err := application.LoadROM(rom); err != nil {
			return fmt.Errorf("failed to load ROM: %w", err)
		}
	}

	frames := cfg.Emulation.Frames
	if frames == 0 {
		frames = 2 * cfg.Audio.FrameRate
	}

	switch {
	case tracePath != "":
		return application.LoadTrace(ctx, tracePath)
	case demo != "":
		return application.LoadDemo(demo, frames)
	case sample != "":
		return application.LoadSample(sample, uint8(rate))
	default:
		return application.LoadDemo("tone", frames)
	}
}

func printStats(s app.Stats) {
	fmt.Printf("Session Statistics:\n")
	fmt.Printf("   Frames:        %d (%d samples, %d writes)\n", s.Frames, s.Samples, s.Writes)
	fmt.Printf("   CPU cycles:    %d\n", s.CPUCycles)
	fmt.Printf("   DMC fetches:   %d (%d stolen cycles, %d errors)\n", s.DMARequests, s.StolenCycles, s.DMAErrors)
	fmt.Printf("   Frame time:    avg %v, max %v (%.0fx realtime)\n", s.AvgFrameTime, s.MaxFrameTime, s.RealtimeSpeed)
	fmt.Printf("   Session time:  %v\n", s.Elapsed.Round(time.Millisecond))
}

func backendNames() string {
	var names []string
	for _, bt := range sink.BackendTypes() {
		names = append(names, string(bt))
	}
	return strings.Join(names, ", ")
}

func printUsage() {
	fmt.Println("gonesapu - NES audio engine")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Plays NES APU register-write traces through a cycle-stepped model of the")
	fmt.Println("  console's five sound channels, to a WAV file or the default audio device.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  gonesapu [options]                      # Play the builtin tone demo")
	fmt.Println("  gonesapu -trace <file> [options]        # Play a JSON trace or Lua script")
	fmt.Println("  gonesapu -demo <name> [options]         # Play a builtin demo")
	fmt.Println("  gonesapu -sample <file.wav|mp3>         # Convert and play on the DMC")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  gonesapu -demo sweep -backend oto")
	fmt.Println("  gonesapu -trace song.lua -o song.wav -stems")
	fmt.Println("  gonesapu -demo bass -o bass.wav -stem-channels triangle,dmc")
	fmt.Println("  gonesapu -demo bass -region PAL -export bass.json")
	fmt.Println("  gonesapu -sample drum.wav -rate 14 -o drum-dmc.wav")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Printf("  Config file: %s\n", app.GetDefaultConfigPath())
}
