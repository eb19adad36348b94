package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-synth/irsynth"
	"github.com/cwbudde/algo-synth/mixer"
)

var (
	// ErrUnsupportedChannels is returned for channel counts other than 1 or 2.
	ErrUnsupportedChannels = mixer.ErrUnsupportedChannels
	ErrAlreadyRunning      = errors.New("engine: already running")
	ErrNotRunning          = errors.New("engine: not running")

	// ErrStopped is returned by Start on an engine that has been stopped.
	// An engine runs once; build a new one to play again.
	ErrStopped = errors.New("engine: stopped")
)

// RoomConfig enables the master room stage. IRPath takes precedence over Synth.
type RoomConfig struct {
	IRPath string
	Synth  *irsynth.RoomConfig
	Wet    float32
	Dry    float32
}

// DefaultRoomConfig returns a synthesized room mixed in at a quarter level.
func DefaultRoomConfig() RoomConfig {
	room := irsynth.DefaultRoomConfig()
	return RoomConfig{Synth: &room, Wet: 0.25, Dry: 1}
}

// Config holds engine settings.
type Config struct {
	SampleRate   int
	BlockSize    int
	Channels     int
	PreGain      float32
	LimiterDrive float32
	MeterPeriod  time.Duration

	RecordPath  string
	RecordQueue int

	MaxEventsPerBlock int
	JoinTimeout       time.Duration

	Room   *RoomConfig
	Logger *slog.Logger
}

// DefaultConfig returns mono output at 44.1 kHz in 256-frame blocks.
func DefaultConfig() Config {
	return Config{
		SampleRate:        44100,
		BlockSize:         256,
		Channels:          1,
		PreGain:           0.3,
		LimiterDrive:      1.3,
		MeterPeriod:       time.Second,
		RecordQueue:       64,
		MaxEventsPerBlock: 128,
		JoinTimeout:       2 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be > 0")
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, c.Channels)
	}
	if c.PreGain < 0 {
		return fmt.Errorf("pre-gain must be >= 0")
	}
	if c.LimiterDrive <= 0 {
		return fmt.Errorf("limiter drive must be > 0")
	}
	if c.MeterPeriod <= 0 {
		return fmt.Errorf("meter period must be > 0")
	}
	if c.RecordQueue <= 0 {
		return fmt.Errorf("record queue must be > 0")
	}
	if c.MaxEventsPerBlock <= 0 {
		return fmt.Errorf("max events per block must be > 0")
	}
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("join timeout must be > 0")
	}
	if c.Room != nil {
		if c.Room.IRPath == "" && c.Room.Synth == nil {
			return fmt.Errorf("room stage needs an IR path or synth settings")
		}
		if c.Room.Wet < 0 || c.Room.Dry < 0 {
			return fmt.Errorf("room wet/dry must be >= 0")
		}
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
