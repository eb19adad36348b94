package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTripStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ir.wav")
	left := []float32{0.5, -0.25, 0.125, 0}
	right := []float32{-0.5, 0.25, 0, 0.75}
	if err := WriteStereo(path, left, right, 48000); err != nil {
		t.Fatalf("WriteStereo failed: %v", err)
	}
	gotL, gotR, err := ReadStereo(path, 48000)
	if err != nil {
		t.Fatalf("ReadStereo failed: %v", err)
	}
	if len(gotL) != 4 || len(gotR) != 4 {
		t.Fatalf("expected 4 frames, got %d/%d", len(gotL), len(gotR))
	}
	for i := range left {
		if math.Abs(float64(gotL[i]-left[i])) > 1e-3 || math.Abs(float64(gotR[i]-right[i])) > 1e-3 {
			t.Fatalf("frame %d: expected (%f,%f), got (%f,%f)", i, left[i], right[i], gotL[i], gotR[i])
		}
	}
}

func TestReadStereoDuplicatesMonoAndResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	mono := make([]float32, 960)
	for i := range mono {
		mono[i] = float32(0.5 * math.Sin(2*math.Pi*1000*float64(i)/96000))
	}
	if err := Write(path, mono, 96000, 1); err != nil {
		t.Fatal(err)
	}
	left, right, err := ReadStereo(path, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) < 300 || len(left) > 700 {
		t.Fatalf("expected about half the frames after resampling, got %d", len(left))
	}
	for i := range left {
		if left[i] != right[i] {
			t.Fatalf("expected mono input duplicated at %d", i)
		}
	}
}

func TestReadRejectsMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	if _, _, _, err := Read(filepath.Join(dir, "missing.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if err := Write(filepath.Join(dir, "x.wav"), nil, 44100, 0); err == nil {
		t.Fatalf("expected error for zero channels")
	}
}

func TestResampleIfNeededSameRateIsIdentity(t *testing.T) {
	in := []float32{1, 2, 3}
	out, err := ResampleIfNeeded(in, 44100, 44100)
	if err != nil || &out[0] != &in[0] {
		t.Fatalf("expected the input slice back, got %v (%v)", out, err)
	}
}
