package modules

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var errInvalidWAV = errors.New("invalid WAV file")

// Sample is decoded audio mixed down to mono.
type Sample struct {
	Path       string
	SampleRate float64
	Channels   int
	Data       []float64
}

// Duration returns the sample length in seconds.
func (s *Sample) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}

	return float64(len(s.Data)) / s.SampleRate
}

// LoadWAV decodes the PCM WAV file at path. Multi-channel files are
// averaged to mono.
func LoadWAV(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", errInvalidWAV, path)
	}

	if err := decoder.FwdToPCM(); err != nil {
		return nil, err
	}

	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())

	if bitDepth == 0 || format == nil || format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: unknown format: %s", errInvalidWAV, path)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample

	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}

	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return nil, err
	}

	floatBuf := buf.AsFloatBuffer()
	factor := math.Pow(2, float64(bitDepth-1))
	channels := format.NumChannels
	frames := min(n, len(floatBuf.Data)) / channels

	data := make([]float64, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += floatBuf.Data[i*channels+ch]
		}

		data[i] = sum / float64(channels) / factor
	}

	return &Sample{
		Path:       path,
		SampleRate: float64(format.SampleRate),
		Channels:   channels,
		Data:       data,
	}, nil
}

// WriteWAV writes mono samples as a 16-bit PCM WAV file.
func WriteWAV(path string, sampleRate int, samples []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}

	for i, v := range samples {
		intBuf.Data[i] = int(math.Round(min(max(v, -1), 1) * 32767))
	}

	if err := enc.Write(intBuf); err != nil {
		f.Close()
		return err
	}

	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
