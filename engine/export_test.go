package engine

// Pause holds the recorder's writer before its next pop. Producers are
// unaffected.
func (r *Recorder) Pause() {
	r.pauseMu.Lock()
	if r.gate == nil {
		r.gate = make(chan struct{})
	}
	r.pauseMu.Unlock()
}

// Resume releases a paused writer.
func (r *Recorder) Resume() {
	r.pauseMu.Lock()
	if r.gate != nil {
		close(r.gate)
		r.gate = nil
	}
	r.pauseMu.Unlock()
}
