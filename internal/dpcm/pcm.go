// Package dpcm converts recorded audio into delta-modulation sample data
// the DMC channel can play back, packaged in a cartridge image.
package dpcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrFormat is returned for files that are not WAV or MP3 audio.
var ErrFormat = errors.New("dpcm: unsupported audio format")

// PCM is mono audio normalized to [-1, 1].
type PCM struct {
	SampleRate int
	Data       []float32
}

// Duration returns the play time of the samples.
func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(p.Data)) * time.Second / time.Duration(p.SampleRate)
}

// Load reads a .wav or .mp3 file, mixing all channels down to mono.
func Load(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, fmt.Errorf("dpcm: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return DecodeWAV(f)
	case ".mp3":
		return DecodeMP3(f)
	default:
		return PCM{}, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

// DecodeWAV decodes integer PCM WAV data.
func DecodeWAV(r io.ReadSeeker) (PCM, error) {
	dec := wav.NewDecoder(r)
	if dec == nil || !dec.IsValidFile() {
		return PCM{}, fmt.Errorf("%w: not a valid wav file", ErrFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("dpcm: wav: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return PCM{}, fmt.Errorf("%w: wav has no channels", ErrFormat)
	}
	depth := int(dec.BitDepth)
	if depth < 8 || depth > 32 {
		return PCM{}, fmt.Errorf("%w: %d-bit wav", ErrFormat, depth)
	}

	// 8-bit wav is unsigned
	var bias float32
	full := float32(int64(1) << (depth - 1))
	if depth == 8 {
		bias = 128
	}

	p := PCM{
		SampleRate: int(dec.SampleRate),
		Data:       make([]float32, 0, len(buf.Data)/channels),
	}
	for i := 0; i+channels <= len(buf.Data); i += channels {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += (float32(buf.Data[i+c]) - bias) / full
		}
		p.Data = append(p.Data, sum/float32(channels))
	}
	return p, nil
}

// DecodeMP3 decodes an MP3 stream. The decoder always yields 16-bit
// little-endian stereo.
func DecodeMP3(r io.Reader) (PCM, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return PCM{}, fmt.Errorf("dpcm: mp3: %w", err)
	}

	p := PCM{SampleRate: dec.SampleRate()}
	chunk := make([]byte, 4096)
	var pending []byte
	for {
		n, err := dec.Read(chunk)
		pending = append(pending, chunk[:n]...)
		for len(pending) >= 4 {
			l := int16(binary.LittleEndian.Uint16(pending[0:]))
			r := int16(binary.LittleEndian.Uint16(pending[2:]))
			p.Data = append(p.Data, (float32(l)+float32(r))/65536)
			pending = pending[4:]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return PCM{}, fmt.Errorf("dpcm: mp3: %w", err)
		}
	}
	return p, nil
}
