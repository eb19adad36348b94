package sequencer

// Arpeggio rises in whole tones from A4 with velocity ramping per bar
// position; every fourth step rests.
func Arpeggio(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		if i%4 == 3 {
			steps[i] = RestStep()
			continue
		}
		steps[i] = Step{Note: 69 + (i%4)*2, Velocity: min(127, 20*(i%4)+25), Gate: 0.6}
	}
	return steps
}

// BassLine walks up from A2 with a rest on every fourth step.
func BassLine(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		if i%4 == 3 {
			steps[i] = RestStep()
			continue
		}
		steps[i] = Step{Note: 45 + (i%4)*2, Velocity: 85, Gate: 0.6}
	}
	return steps
}

// LeadLine plays short notes on even steps, cycling through seven pitches.
func LeadLine(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		if i%2 != 0 {
			steps[i] = RestStep()
			continue
		}
		steps[i] = Step{Note: 69 + (i*3)%7, Velocity: 95, Gate: 0.45}
	}
	return steps
}
