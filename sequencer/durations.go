package sequencer

import "math"

// Note lengths in beats.
const (
	Whole     = 4.0
	Half      = 2.0
	Quarter   = 1.0
	Eighth    = 0.5
	Sixteenth = 0.25
)

// Dotted extends a length by half.
func Dotted(beats float64) float64 { return beats * 1.5 }

// Triplet fits three notes in the time of two.
func Triplet(beats float64) float64 { return beats * 2 / 3 }

// BeatsToTicks converts a length in beats to clock ticks, never less than one.
func BeatsToTicks(beats float64, ppq int) int {
	return max(1, int(math.Round(beats*float64(ppq))))
}
