package engine

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/irsynth"
)

// RoomPartition is the convolution partition length in samples. The wet
// signal lags the dry signal by this many samples.
const RoomPartition = 128

// RoomConvolver convolves a mono signal with a stereo impulse response using
// streaming partitioned overlap-add. All buffers are allocated up front.
type RoomConvolver struct {
	part     int
	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	in     []float32
	fill   int
	outL   []float32
	outR   []float32
	failed bool
}

// NewRoomConvolver builds a convolver for the given left/right IRs. An empty
// IR channel becomes a unit impulse.
func NewRoomConvolver(leftIR, rightIR []float32) (*RoomConvolver, error) {
	if len(leftIR) == 0 {
		leftIR = []float32{1}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1}
	}
	l, err := dspconv.NewStreamingOverlapAdd32(leftIR, RoomPartition)
	if err != nil {
		return nil, fmt.Errorf("room: left IR: %w", err)
	}
	r, err := dspconv.NewStreamingOverlapAdd32(rightIR, RoomPartition)
	if err != nil {
		return nil, fmt.Errorf("room: right IR: %w", err)
	}
	return &RoomConvolver{
		part:     RoomPartition,
		leftOLA:  l,
		rightOLA: r,
		in:       make([]float32, RoomPartition),
		outL:     make([]float32, RoomPartition),
		outR:     make([]float32, RoomPartition),
	}, nil
}

// Process convolves mono into wetL and wetR, which must be at least len(mono) long.
func (c *RoomConvolver) Process(mono, wetL, wetR []float32) {
	for i, x := range mono {
		c.in[c.fill] = x
		wetL[i] = c.outL[c.fill]
		wetR[i] = c.outR[c.fill]
		c.fill++
		if c.fill == c.part {
			c.fill = 0
			c.convolve()
		}
	}
}

func (c *RoomConvolver) convolve() {
	if c.failed {
		return
	}
	errL := c.leftOLA.ProcessBlockTo(c.outL, c.in)
	errR := c.rightOLA.ProcessBlockTo(c.outR, c.in)
	if errL != nil || errR != nil {
		// Leave the room stage silent rather than emit garbage.
		c.failed = true
		clear(c.outL)
		clear(c.outR)
		return
	}
	for i := range c.outL {
		c.outL[i] = float32(dspcore.FlushDenormals(float64(c.outL[i])))
		c.outR[i] = float32(dspcore.FlushDenormals(float64(c.outR[i])))
	}
}

// Reset clears convolution history.
func (c *RoomConvolver) Reset() {
	c.leftOLA.Reset()
	c.rightOLA.Reset()
	clear(c.in)
	clear(c.outL)
	clear(c.outR)
	c.fill = 0
	c.failed = false
}

// roomStage mixes the convolver output into the engine block.
type roomStage struct {
	conv      *RoomConvolver
	wet, dry  float32
	mono      []float32
	wetL      []float32
	wetR      []float32
}

func newRoomStage(cfg RoomConfig, sampleRate, maxFrames int) (*roomStage, error) {
	var left, right []float32
	var err error
	switch {
	case cfg.IRPath != "":
		left, right, err = wavio.ReadStereo(cfg.IRPath, sampleRate)
	default:
		synth := *cfg.Synth
		synth.SampleRate = sampleRate
		left, right, err = irsynth.GenerateRoom(synth)
	}
	if err != nil {
		return nil, fmt.Errorf("room IR: %w", err)
	}
	conv, err := NewRoomConvolver(left, right)
	if err != nil {
		return nil, err
	}
	return &roomStage{
		conv: conv,
		wet:  cfg.Wet,
		dry:  cfg.Dry,
		mono: make([]float32, maxFrames),
		wetL: make([]float32, maxFrames),
		wetR: make([]float32, maxFrames),
	}, nil
}

// process applies the room to an interleaved block of frames*channels samples.
func (s *roomStage) process(x []float32, frames, channels int) {
	if frames > len(s.mono) {
		frames = len(s.mono)
	}
	mono := s.mono[:frames]
	if channels == 1 {
		copy(mono, x[:frames])
	} else {
		for i := range mono {
			mono[i] = 0.5 * (x[2*i] + x[2*i+1])
		}
	}
	s.conv.Process(mono, s.wetL, s.wetR)
	if channels == 1 {
		for i := range mono {
			x[i] = s.dry*x[i] + s.wet*0.5*(s.wetL[i]+s.wetR[i])
		}
		return
	}
	for i := range mono {
		x[2*i] = s.dry*x[2*i] + s.wet*s.wetL[i]
		x[2*i+1] = s.dry*x[2*i+1] + s.wet*s.wetR[i]
	}
}
