package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"gonesapu/internal/apu"
)

const (
	wavBitDepth    = 16
	wavFormatPCM   = 1
	wavNumChannels = 1
)

// wavFile is one open output file and its encoder.
type wavFile struct {
	path string
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
}

func createWAV(path string, sampleRate int) (*wavFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: create %s: %w", path, err)
	}
	return &wavFile{
		path: path,
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, wavBitDepth, wavNumChannels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: wavNumChannels, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

func (w *wavFile) write(data []int) error {
	w.buf.Data = data
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("sink: write %s: %w", w.path, err)
	}
	return nil
}

func (w *wavFile) close() error {
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	if encErr != nil {
		return fmt.Errorf("sink: finalize %s: %w", w.path, encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("sink: close %s: %w", w.path, fileErr)
	}
	return nil
}

// WAVBackend writes the mixed output as 16-bit mono PCM. With Stems set it
// also writes each channel's raw DAC output to <name>.<channel>.wav next to
// the main file.
type WAVBackend struct {
	initialized bool
	config      Config
	conv        *converter
	mixed       *wavFile
	stems       [apu.NumChannels]*wavFile
	scratch     []int
	frames      int
}

// NewWAVBackend creates a new WAV file backend
func NewWAVBackend() Backend {
	return &WAVBackend{}
}

// stemChannels returns the channels to write stems for, in register order.
func stemChannels(filter []apu.Channel) []apu.Channel {
	var chans []apu.Channel
	for ch := apu.Channel(0); ch < apu.NumChannels; ch++ {
		if len(filter) == 0 || slices.Contains(filter, ch) {
			chans = append(chans, ch)
		}
	}
	return chans
}

// StemPath returns the file a channel stem is written to.
func StemPath(outputPath string, ch apu.Channel) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + "." + ch.String() + ".wav"
}

// Initialize opens the output file(s)
func (b *WAVBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("wav backend already initialized")
	}
	if config.OutputPath == "" {
		return fmt.Errorf("sink: wav backend needs an output path")
	}
	if config.SampleRate <= 0 {
		return fmt.Errorf("sink: invalid sample rate %d", config.SampleRate)
	}

	mixed, err := createWAV(config.OutputPath, config.SampleRate)
	if err != nil {
		return err
	}
	b.mixed = mixed

	if config.Stems {
		for _, ch := range stemChannels(config.StemFilter) {
			stem, err := createWAV(StemPath(config.OutputPath, ch), config.SampleRate)
			if err != nil {
				b.closeAll()
				return err
			}
			b.stems[ch] = stem
		}
	}

	b.config = config
	b.conv = newConverter(config)
	b.frames = 0
	b.initialized = true
	config.logger().Printf("[SINK] writing %s (%d Hz, stems=%v)", config.OutputPath, config.SampleRate, config.Stems)
	return nil
}

// Queue encodes one frame
func (b *WAVBackend) Queue(buf *apu.SampleBuffer) error {
	if !b.initialized {
		return ErrNotInitialized
	}

	samples := b.conv.samples(buf)
	b.scratch = b.scratch[:0]
	for _, v := range samples {
		b.scratch = append(b.scratch, int(toInt16(v)))
	}
	if err := b.mixed.write(b.scratch); err != nil {
		return err
	}

	for ch, stem := range b.stems {
		if stem == nil {
			continue
		}
		full := channelFullScale[ch]
		b.scratch = b.scratch[:0]
		for _, raw := range buf.Channel(apu.Channel(ch)) {
			b.scratch = append(b.scratch, int(toInt16(scale(float32(raw)/full, b.config.Volume))))
		}
		if err := stem.write(b.scratch); err != nil {
			return err
		}
	}

	b.frames++
	return nil
}

func (b *WAVBackend) closeAll() error {
	var first error
	if b.mixed != nil {
		first = b.mixed.close()
		b.mixed = nil
	}
	for i, stem := range b.stems {
		if stem == nil {
			continue
		}
		if err := stem.close(); err != nil && first == nil {
			first = err
		}
		b.stems[i] = nil
	}
	return first
}

// Cleanup finalizes the WAV headers and closes the files
func (b *WAVBackend) Cleanup() error {
	if !b.initialized {
		return nil
	}
	b.initialized = false
	b.config.logger().Printf("[SINK] wrote %d frames to %s", b.frames, b.config.OutputPath)
	return b.closeAll()
}

// IsRealtime returns false (files are written as fast as frames arrive)
func (b *WAVBackend) IsRealtime() bool {
	return false
}

// GetName returns the backend name
func (b *WAVBackend) GetName() string {
	return "WAV"
}

// FrameCount returns the number of frames written
func (b *WAVBackend) FrameCount() int {
	return b.frames
}
