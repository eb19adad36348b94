package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/engine"
	"github.com/cwbudde/algo-synth/event"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/mixer"
	"github.com/cwbudde/algo-synth/output"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/sequencer"
)

func main() {
	cfg := engine.DefaultConfig()

	name := flag.String("builtin", "piano", "Built-in preset name")
	presetPath := flag.String("preset", "", "Preset JSON file (overrides -builtin)")
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	hold := flag.Float64("hold", 1.0, "Seconds before NoteOff")
	duration := flag.Float64("duration", 2.0, "Total render length in seconds")
	pattern := flag.Bool("pattern", false, "Play the arpeggio pattern instead of a single note")
	bpm := flag.Float64("bpm", sequencer.DefaultBPM, "Pattern tempo")
	room := flag.String("room", "", "Room IR WAV path, or \"synth\" for a generated room")
	out := flag.String("output", "output.wav", "Output WAV file path")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.IntVar(&cfg.SampleRate, "sample-rate", 48000, "Render sample rate in Hz")
	flag.IntVar(&cfg.BlockSize, "block", 128, "Frames per block")
	flag.IntVar(&cfg.Channels, "channels", cfg.Channels, "Output channels (1 or 2)")
	flag.Parse()

	logger, err := engine.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Logger = logger

	var spec *preset.Spec
	if *presetPath != "" {
		spec, err = preset.LoadJSON(*presetPath)
	} else {
		spec, err = preset.Builtin(*name)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preset: %v\n", err)
		os.Exit(1)
	}
	if *room != "" {
		rc := engine.DefaultRoomConfig()
		switch {
		case *room != "synth":
			rc.IRPath, rc.Synth = *room, nil
		case spec.RoomIR != "":
			rc.IRPath, rc.Synth = spec.RoomIR, nil
		}
		cfg.Room = &rc
	}

	samples, err := render(cfg, spec, renderOptions{
		note:     *note,
		velocity: *velocity,
		hold:     *hold,
		duration: *duration,
		pattern:  *pattern,
		bpm:      *bpm,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render error: %v\n", err)
		os.Exit(1)
	}

	if err := wavio.Write(*out, samples, cfg.SampleRate, cfg.Channels); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV: %v\n", err)
		os.Exit(1)
	}

	rep, err := analysis.Analyze(analysis.Downmix(samples, cfg.Channels), cfg.SampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%s, %d frames at %d Hz)\n", *out, spec.Name, rep.Frames, cfg.SampleRate)
	fmt.Printf("Peak: %.1f dBFS, RMS: %.1f dBFS, DC: %.6f\n", rep.PeakDB, rep.RMSDB, rep.DC)
	fmt.Printf("Fundamental: %.2f Hz, Decay: %.1f dB/s\n", rep.FundamentalHz, rep.DecayDBPerS)
}

type renderOptions struct {
	note     int
	velocity int
	hold     float64
	duration float64
	pattern  bool
	bpm      float64
}

// render bounces the engine through a headless device. Events for a block
// are posted after the previous block completes, so timing is block-quantized.
func render(cfg engine.Config, spec *preset.Spec, opt renderOptions) ([]float32, error) {
	inst, err := spec.Build()
	if err != nil {
		return nil, err
	}
	m := mixer.New()
	m.AddTrack(0, inst)
	bus := event.NewBus(event.DefaultCapacity)

	totalFrames := max(1, int(opt.duration*float64(cfg.SampleRate)))
	blocks := (totalFrames + cfg.BlockSize - 1) / cfg.BlockSize
	samples := make([]float32, 0, blocks*cfg.BlockSize*cfg.Channels)

	var onBlock func(frame int)
	if opt.pattern {
		seq, err := sequencer.NewStepSequencer(bus, 0, sequencer.DefaultPPQ, 4, sequencer.Arpeggio(16))
		if err != nil {
			return nil, err
		}
		framesPerTick := float64(cfg.SampleRate) * 60 / (opt.bpm * sequencer.DefaultPPQ)
		next := 0.0
		onBlock = func(frame int) {
			for next <= float64(frame) {
				seq.OnTick()
				next += framesPerTick
			}
		}
	} else {
		holdFrames := int(opt.hold * float64(cfg.SampleRate))
		released := false
		_ = bus.Post(event.NoteOnEvent(opt.note, opt.velocity, 0))
		onBlock = func(frame int) {
			if !released && frame >= holdFrames {
				_ = bus.Post(event.NoteOffEvent(opt.note, 0))
				released = true
			}
		}
	}

	frame := 0
	onBlock(frame)
	dev := output.NewHeadless(output.HeadlessConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		BlockSize:  cfg.BlockSize,
		MaxBlocks:  blocks,
		Sink: func(block []float32) {
			samples = append(samples, block...)
			frame += cfg.BlockSize
			onBlock(frame)
		},
	})
	eng, err := engine.New(m, bus, dev, cfg)
	if err != nil {
		return nil, err
	}
	if err := eng.Start(context.Background()); err != nil {
		return nil, err
	}
	<-dev.Done()
	if err := eng.Stop(); err != nil {
		return nil, err
	}
	if st := eng.Stats(); st.CallbackFaults > 0 {
		return nil, fmt.Errorf("%d render faults", st.CallbackFaults)
	}
	return samples[:min(len(samples), totalFrames*cfg.Channels)], nil
}
