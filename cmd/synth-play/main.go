package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/engine"
	"github.com/cwbudde/algo-synth/event"
	"github.com/cwbudde/algo-synth/mixer"
	"github.com/cwbudde/algo-synth/output"
	"github.com/cwbudde/algo-synth/output/otoout"
	"github.com/cwbudde/algo-synth/output/paout"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/sequencer"
)

const (
	bassChannel = 0
	leadChannel = 1
)

func main() {
	cfg := engine.DefaultConfig()

	backend := flag.String("backend", "oto", "Audio backend: oto or portaudio")
	leadName := flag.String("lead", "lead", "Built-in preset for the lead track")
	bassName := flag.String("bass", "bass", "Built-in preset for the bass track (empty disables)")
	presetPath := flag.String("preset", "", "Preset JSON file for the lead track (overrides -lead)")
	watch := flag.Bool("watch", false, "Reload -preset when the file changes")
	bpm := flag.Float64("bpm", 60, "Tempo in beats per minute")
	ppq := flag.Int("ppq", sequencer.DefaultPPQ, "Clock ticks per beat")
	steps := flag.Int("steps", 16, "Pattern length in steps")
	duration := flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	room := flag.String("room", "", "Room IR WAV path, or \"synth\" for a generated room")
	wet := flag.Float64("wet", 0.25, "Room wet level")
	leadDB := flag.Float64("lead-db", -1, "Lead track gain in dB")
	bassDB := flag.Float64("bass-db", 0, "Bass track gain in dB")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Sample rate in Hz")
	flag.IntVar(&cfg.BlockSize, "block", cfg.BlockSize, "Frames per callback")
	flag.IntVar(&cfg.Channels, "channels", 2, "Output channels (1 or 2)")
	flag.StringVar(&cfg.RecordPath, "record", "", "Record the output to this WAV path")
	pre := flag.Float64("pre-gain", float64(cfg.PreGain), "Gain before the limiter")
	drive := flag.Float64("drive", 1.15, "Limiter drive")
	flag.Parse()

	logger, err := engine.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Logger = logger
	cfg.PreGain = float32(*pre)
	cfg.LimiterDrive = float32(*drive)
	if *room != "" {
		rc := engine.DefaultRoomConfig()
		rc.Wet = float32(*wet)
		if *room != "synth" {
			rc.IRPath = *room
			rc.Synth = nil
		}
		cfg.Room = &rc
	}

	if err := run(cfg, options{
		backend:    *backend,
		leadName:   *leadName,
		bassName:   *bassName,
		presetPath: *presetPath,
		watch:      *watch,
		bpm:        *bpm,
		ppq:        *ppq,
		steps:      *steps,
		duration:   *duration,
		leadGain:   float32(dsp.DBToLinear(*leadDB)),
		bassGain:   float32(dsp.DBToLinear(*bassDB)),
	}, logger); err != nil {
		logger.Error("synth-play failed", "err", err)
		os.Exit(1)
	}
}

type options struct {
	backend    string
	leadName   string
	bassName   string
	presetPath string
	watch      bool
	bpm        float64
	ppq        int
	steps      int
	duration   time.Duration
	leadGain   float32
	bassGain   float32
}

func run(cfg engine.Config, opt options, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	lead, err := loadSpec(opt.leadName, opt.presetPath)
	if err != nil {
		return err
	}
	leadInst, err := lead.Build()
	if err != nil {
		return err
	}
	if cfg.Room != nil && cfg.Room.IRPath == "" && lead.RoomIR != "" {
		cfg.Room.IRPath = lead.RoomIR
	}

	m := mixer.New()
	m.AddTrack(leadChannel, leadInst, mixer.WithGain(opt.leadGain), mixer.WithPan(0.3))

	bus := event.NewBus(event.DefaultCapacity)
	leadSeq, err := sequencer.NewStepSequencer(bus, leadChannel, opt.ppq, 4, sequencer.LeadLine(opt.steps))
	if err != nil {
		return err
	}
	seqs := []*sequencer.StepSequencer{leadSeq}

	if opt.bassName != "" {
		bass, err := preset.Builtin(opt.bassName)
		if err != nil {
			return err
		}
		bassInst, err := bass.Build()
		if err != nil {
			return err
		}
		m.AddTrack(bassChannel, bassInst, mixer.WithGain(opt.bassGain), mixer.WithPan(-0.3))
		bassSeq, err := sequencer.NewStepSequencer(bus, bassChannel, opt.ppq, 4, sequencer.BassLine(opt.steps))
		if err != nil {
			return err
		}
		seqs = append(seqs, bassSeq)
	}

	dev, err := openDevice(opt.backend, cfg)
	if err != nil {
		return err
	}
	eng, err := engine.New(m, bus, dev, cfg)
	if err != nil {
		_ = dev.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opt.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opt.duration)
		defer cancel()
	}

	if opt.watch && opt.presetPath != "" {
		err := preset.Watch(ctx, opt.presetPath, logger, func(s *preset.Spec) {
			inst, err := s.Build()
			if err != nil {
				logger.Warn("preset rebuild failed", "err", err)
				return
			}
			tr, _ := m.Track(leadChannel)
			m.AddTrack(leadChannel, inst, mixer.WithGain(tr.Gain), mixer.WithPan(tr.Pan))
		})
		if err != nil {
			return fmt.Errorf("watch preset: %w", err)
		}
	}

	clock, err := sequencer.NewClock(opt.bpm, opt.ppq)
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}
	if err := clock.Start(ctx, func() {
		for _, s := range seqs {
			s.OnTick()
		}
	}); err != nil {
		_ = eng.Stop()
		return err
	}
	logger.Info("playing", "backend", opt.backend, "lead", lead.Name, "bpm", opt.bpm,
		"sample_rate", cfg.SampleRate, "channels", cfg.Channels)

	<-ctx.Done()
	clock.Stop()
	for _, s := range seqs {
		s.Release()
	}
	err = eng.Stop()
	st := eng.Stats()
	logger.Info("stopped", "blocks", st.Blocks, "faults", st.CallbackFaults,
		"record_written", st.RecordWritten, "record_dropped", st.RecordDropped)
	return err
}

func loadSpec(name, path string) (*preset.Spec, error) {
	if path != "" {
		return preset.LoadJSON(path)
	}
	return preset.Builtin(name)
}

func openDevice(backend string, cfg engine.Config) (output.Device, error) {
	switch backend {
	case "oto":
		return otoout.New(cfg.SampleRate, cfg.Channels, cfg.BlockSize)
	case "portaudio":
		return paout.New(cfg.SampleRate, cfg.Channels, cfg.BlockSize)
	default:
		return nil, fmt.Errorf("unknown backend %q (want oto or portaudio)", backend)
	}
}
