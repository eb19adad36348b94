// Package wavio reads and writes the WAV files used for impulse responses
// and offline renders.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// Read decodes a WAV file into interleaved float32 samples.
func Read(path string) (data []float32, sampleRate, channels int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	return buf.Data, buf.Format.SampleRate, buf.Format.NumChannels, nil
}

// ReadStereo loads a mono or stereo file as separate left/right channels
// resampled to targetRate. Mono files are duplicated; extra channels are ignored.
func ReadStereo(path string, targetRate int) (left, right []float32, err error) {
	data, rate, ch, err := Read(path)
	if err != nil {
		return nil, nil, err
	}
	frames := len(data) / ch
	if frames == 0 {
		return nil, nil, fmt.Errorf("empty wav data: %s", path)
	}
	left = make([]float32, frames)
	right = make([]float32, frames)
	for i := range frames {
		left[i] = data[i*ch]
		if ch > 1 {
			right[i] = data[i*ch+1]
		} else {
			right[i] = left[i]
		}
	}
	if left, err = ResampleIfNeeded(left, rate, targetRate); err != nil {
		return nil, nil, err
	}
	if right, err = ResampleIfNeeded(right, rate, targetRate); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// ResampleIfNeeded converts in from fromRate to toRate. Equal rates return in unchanged.
func ResampleIfNeeded(in []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

// Write stores interleaved samples as 16-bit PCM, creating parent directories.
func Write(path string, samples []float32, sampleRate, channels int) error {
	if channels < 1 {
		return fmt.Errorf("channels must be >= 1")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// WriteStereo interleaves left and right and writes them.
func WriteStereo(path string, left, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch")
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = left[i]
		data[i*2+1] = right[i]
	}
	return Write(path, data, sampleRate, 2)
}
