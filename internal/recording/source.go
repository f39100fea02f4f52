package recording

import (
	"context"
	"errors"
	"math"
	"sync"
)

// ErrSourceClosed is returned when pushing into a released source.
var ErrSourceClosed = errors.New("recording: source closed")

// Source supplies encoded audio chunks and the current input level (0..1).
// Chunks may be closed by the source when it ends.
type Source interface {
	Chunks() <-chan []byte
	Level() float64
	Close() error
}

// StreamSource is fed by HTTP handlers: each posted chunk is handed to the
// recorder synchronously, so a Push that returned nil was observed in the
// state the recorder had at that moment.
type StreamSource struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once

	mu    sync.RWMutex
	level float64
}

// NewStreamSource returns an open source.
func NewStreamSource() *StreamSource {
	return &StreamSource{ch: make(chan []byte), done: make(chan struct{})}
}

func (s *StreamSource) Chunks() <-chan []byte { return s.ch }

func (s *StreamSource) Level() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// SetLevel records the latest input level reported by the client.
func (s *StreamSource) SetLevel(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(1, v))
	s.mu.Lock()
	s.level = v
	s.mu.Unlock()
}

// Push delivers one chunk. It blocks until the recorder takes it, the source
// is closed or ctx ends.
func (s *StreamSource) Push(ctx context.Context, chunk []byte) error {
	select {
	case <-s.done:
		return ErrSourceClosed
	default:
	}
	select {
	case s.ch <- chunk:
		return nil
	case <-s.done:
		return ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the source. Safe to call more than once.
func (s *StreamSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
