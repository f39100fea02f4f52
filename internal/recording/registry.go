package recording

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown recording ids.
	ErrNotFound = errors.New("recording: not found")
	// ErrNotOwner is returned when a user touches someone else's recording.
	ErrNotOwner = errors.New("recording: not owned by user")
)

type entry struct {
	rec *Recorder
	src *StreamSource
}

// Registry holds the live recorders of this process, keyed by id.
type Registry struct {
	opts Options
	deps Deps

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry whose recorders share opts and deps.
func NewRegistry(opts Options, deps Deps) *Registry {
	return &Registry{opts: opts, deps: deps, entries: make(map[string]*entry)}
}

// Begin creates a recorder fed by a stream source and starts it. Once its
// upload settles the recorder stays visible for Options.Retain and is then
// forgotten.
func (g *Registry) Begin(meetingID, userID int) (*Recorder, error) {
	id := uuid.NewString()
	rec := NewRecorder(id, meetingID, userID, g.opts, g.deps)
	rec.onSettle = func() {
		time.AfterFunc(g.opts.Retain, func() { g.forget(id, rec) })
	}
	src := NewStreamSource()
	if err := rec.Start(src); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.entries[id] = &entry{rec: rec, src: src}
	g.mu.Unlock()
	return rec, nil
}

func (g *Registry) lookup(id string, userID int) (*entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.rec.UserID() != userID {
		return nil, ErrNotOwner
	}
	return e, nil
}

// Get returns the recorder id owned by userID.
func (g *Registry) Get(id string, userID int) (*Recorder, error) {
	e, err := g.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	return e.rec, nil
}

// Push forwards a chunk and, when level is non-nil, the input level.
func (g *Registry) Push(ctx context.Context, id string, userID int, chunk []byte, level *float64) error {
	e, err := g.lookup(id, userID)
	if err != nil {
		return err
	}
	if level != nil {
		e.src.SetLevel(*level)
	}
	if len(chunk) == 0 {
		return nil
	}
	st := e.rec.Status().State
	if st != StateRecording && st != StatePaused {
		return ErrInvalidTransition
	}
	if err := e.src.Push(ctx, chunk); err != nil {
		if errors.Is(err, ErrSourceClosed) {
			return ErrInvalidTransition
		}
		return err
	}
	return nil
}

// Discard aborts the recording and forgets it.
func (g *Registry) Discard(id string, userID int) error {
	e, err := g.lookup(id, userID)
	if err != nil {
		return err
	}
	e.rec.Abort()
	g.mu.Lock()
	delete(g.entries, id)
	g.mu.Unlock()
	return nil
}

// forget drops id if it still holds rec and rec has not been restarted.
func (g *Registry) forget(id string, rec *Recorder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[id]; ok && e.rec == rec && rec.settled() {
		delete(g.entries, id)
	}
}

// Len reports how many recorders are held.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Shutdown aborts every recorder still capturing.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	recs := make([]*Recorder, 0, len(g.entries))
	for _, e := range g.entries {
		recs = append(recs, e.rec)
	}
	g.mu.Unlock()
	for _, r := range recs {
		r.Abort()
	}
}
