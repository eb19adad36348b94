package engine

import (
	"math"
	"strings"
	"sync"

	"github.com/cwbudde/algo-synth/dsp"
)

// Meter accumulates per-block levels between reports.
type Meter struct {
	mu       sync.Mutex
	frames   int
	sumSq    float64
	peakPre  float32
	peakPost float32
	limited  int
}

// Snapshot is the state of a Meter over one reporting period.
type Snapshot struct {
	PeakPre       float32
	PeakPost      float32
	RMS           float64
	PeakPreDB     float64
	PeakPostDB    float64
	RMSDB         float64
	LimitedBlocks int
	Frames        int
}

// Update records one block. rms is the block's RMS over frames frames.
func (m *Meter) Update(prePeak, postPeak, rms float32, limited bool, frames int) {
	m.mu.Lock()
	m.frames += frames
	m.sumSq += float64(rms) * float64(rms) * float64(frames)
	m.peakPre = max(m.peakPre, prePeak)
	m.peakPost = max(m.peakPost, postPeak)
	if limited {
		m.limited++
	}
	m.mu.Unlock()
}

// SnapshotAndReset returns the accumulated values and starts a new period.
func (m *Meter) SnapshotAndReset() Snapshot {
	m.mu.Lock()
	s := Snapshot{
		PeakPre:       m.peakPre,
		PeakPost:      m.peakPost,
		LimitedBlocks: m.limited,
		Frames:        m.frames,
	}
	if m.frames > 0 {
		s.RMS = math.Sqrt(m.sumSq / float64(m.frames))
	}
	m.frames, m.sumSq, m.limited = 0, 0, 0
	m.peakPre, m.peakPost = 0, 0
	m.mu.Unlock()

	s.PeakPreDB = dsp.LinearToDB(float64(s.PeakPre))
	s.PeakPostDB = dsp.LinearToDB(float64(s.PeakPost))
	s.RMSDB = dsp.LinearToDB(s.RMS)
	return s
}

// Bar draws the post-limiter peak as a width-character bar spanning floor..ceil dBFS.
func (s Snapshot) Bar(floor, ceil float64, width int) string {
	if width <= 0 || ceil <= floor {
		return "[]"
	}
	fill := int((s.PeakPostDB-floor)/(ceil-floor)*float64(width) + 0.5)
	fill = min(max(fill, 0), width)
	return "[" + strings.Repeat("#", fill) + strings.Repeat(".", width-fill) + "]"
}
