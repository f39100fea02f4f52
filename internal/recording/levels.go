package recording

// LevelWindow keeps the most recent n level samples, oldest first.
type LevelWindow struct {
	samples []float64
	next    int
	full    bool
}

// NewLevelWindow returns a window holding n samples (at least one).
func NewLevelWindow(n int) *LevelWindow {
	if n < 1 {
		n = 1
	}
	return &LevelWindow{samples: make([]float64, n)}
}

// Add appends v, evicting the oldest sample when full.
func (w *LevelWindow) Add(v float64) {
	w.samples[w.next] = v
	w.next = (w.next + 1) % len(w.samples)
	if w.next == 0 {
		w.full = true
	}
}

// Values returns a copy of the samples, oldest first.
func (w *LevelWindow) Values() []float64 {
	if !w.full {
		return append([]float64(nil), w.samples[:w.next]...)
	}
	out := make([]float64, 0, len(w.samples))
	out = append(out, w.samples[w.next:]...)
	return append(out, w.samples[:w.next]...)
}

// Reset drops all samples.
func (w *LevelWindow) Reset() {
	w.next = 0
	w.full = false
}
