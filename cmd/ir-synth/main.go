package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/irsynth"
)

func main() {
	cfg := irsynth.DefaultRoomConfig()

	output := flag.String("output", "assets/ir/room_44k.wav", "Output WAV path")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.Duration, "duration", cfg.Duration, "IR length in seconds")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.Float64Var(&cfg.PreDelay, "pre-delay", cfg.PreDelay, "Gap before the first reflection (s)")
	flag.IntVar(&cfg.EarlyCount, "early", cfg.EarlyCount, "Number of early reflections")
	flag.Float64Var(&cfg.EarlyWindow, "early-window", cfg.EarlyWindow, "Time span of early reflections (s)")
	flag.Float64Var(&cfg.LateLevel, "late", cfg.LateLevel, "Diffuse late-tail level")
	flag.Float64Var(&cfg.StereoWidth, "stereo-width", cfg.StereoWidth, "Stereo decorrelation width [0,1]")
	flag.Float64Var(&cfg.Brightness, "brightness", cfg.Brightness, "Spectral brightness control (>0)")
	flag.Float64Var(&cfg.LowDecay, "low-decay", cfg.LowDecay, "Low-frequency decay time (s)")
	flag.Float64Var(&cfg.HighDecay, "high-decay", cfg.HighDecay, "High-frequency decay time (s)")
	flag.Float64Var(&cfg.FadeOut, "fade", cfg.FadeOut, "Fade-out length at the end (s)")
	flag.Float64Var(&cfg.NormalizePeak, "normalize", cfg.NormalizePeak, "Peak normalization target")
	flag.Parse()

	left, right, err := irsynth.GenerateRoom(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}

	if err := wavio.WriteStereo(*output, left, right, cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	l, r := analysis.Measure(left), analysis.Measure(right)
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.Duration, len(left))
	fmt.Printf("Peak: L %.6f R %.6f, RMS: L %.6f R %.6f\n", l.Peak, r.Peak, l.RMS, r.RMS)
	fmt.Printf("Decay: %.1f dB/s\n", analysis.DecayDBPerSecond(left, cfg.SampleRate))
}
