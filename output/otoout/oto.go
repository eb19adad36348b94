// Package otoout plays engine output through an oto/v3 context.
package otoout

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-synth/output"
)

// Device pulls blocks from the engine callback whenever oto asks for bytes.
type Device struct {
	ctx        *oto.Context
	player     *oto.Player
	sampleRate int
	channels   int
	blockSize  int

	mu      sync.Mutex
	aborted bool
}

// New opens an oto context. Only one context may exist per process.
func New(sampleRate, channels, blockSize int) (*Device, error) {
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, errors.New("otoout: sample rate and block size must be > 0")
	}
	if channels != 1 && channels != 2 {
		return nil, errors.New("otoout: channels must be 1 or 2")
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4 * time.Duration(blockSize) * time.Second / time.Duration(sampleRate),
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &Device{ctx: ctx, sampleRate: sampleRate, channels: channels, blockSize: blockSize}, nil
}

func (d *Device) Start(cb output.Callback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		return output.ErrStarted
	}
	d.player = d.ctx.NewPlayer(newBlockReader(cb, d.blockSize, d.channels))
	d.player.Play()
	return nil
}

// Abort pauses the player and discards its buffer.
func (d *Device) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil || d.aborted {
		return nil
	}
	d.aborted = true
	d.player.Pause()
	return d.player.Close()
}

func (d *Device) Close() error {
	if err := d.Abort(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		return d.player.Err()
	}
	return nil
}

func (d *Device) SampleRate() int { return d.sampleRate }
func (d *Device) Channels() int   { return d.channels }
func (d *Device) BlockSize() int  { return d.blockSize }

// blockReader serves float32 little-endian bytes rendered one block at a
// time, carrying any unread tail over to the next Read.
type blockReader struct {
	cb     output.Callback
	frames int
	block  []float32
	bytes  []byte
	off    int
}

func newBlockReader(cb output.Callback, frames, channels int) *blockReader {
	n := frames * channels
	return &blockReader{
		cb:     cb,
		frames: frames,
		block:  make([]float32, n),
		bytes:  make([]byte, 4*n),
		off:    4 * n,
	}
}

func (r *blockReader) Read(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if r.off == len(r.bytes) {
			r.cb(r.block, r.frames)
			for i, v := range r.block {
				binary.LittleEndian.PutUint32(r.bytes[4*i:], math.Float32bits(v))
			}
			r.off = 0
		}
		n := copy(p[written:], r.bytes[r.off:])
		r.off += n
		written += n
	}
	return written, nil
}
