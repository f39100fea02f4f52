package recording

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"audiosales/web-gateway/internal/worker"
)

// Gauge tracks live recordings; prometheus.Gauge satisfies it.
type Gauge interface {
	Inc()
	Dec()
}

// Deps are the collaborators a recorder uploads through.
type Deps struct {
	URLs     URLIssuer
	Blobs    BlobUploader
	Meetings AudioNotifier
	Jobs     interface{ SubmitJob(worker.Job) error }
	Observer UploadObserver
	Active   Gauge
	Logger   *logrus.Logger
}

// Options tune a recorder.
type Options struct {
	LevelWindow      int
	LevelPoll        time.Duration
	SnapshotInterval time.Duration
	RedirectDelay    time.Duration
	// Retain is how long a Registry keeps a settled recording visible
	// to Status polls before forgetting it.
	Retain time.Duration
	Now    func() time.Time
}

// Recorder owns one capture session at a time.
type Recorder struct {
	id        string
	meetingID int
	userID    int
	opts      Options
	deps      Deps
	log       *logrus.Entry

	// onSettle runs once a session's upload has finished and, on success,
	// its redirect is published. Called without mu held.
	onSettle func()

	mu        sync.Mutex
	session   uint64
	state     State
	phase     Phase
	errMsg    string
	source    Source
	chunks    [][]byte
	count     int
	size      int
	snapshot  []byte
	levels    *LevelWindow
	fired     bool
	releasing bool
	startedAt time.Time
	blobName  string
	redirect  *Redirect
	timer     *time.Timer
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewRecorder returns an idle recorder for the given meeting and user.
func NewRecorder(id string, meetingID, userID int, opts Options, deps Deps) *Recorder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	return &Recorder{
		id:        id,
		meetingID: meetingID,
		userID:    userID,
		opts:      opts,
		deps:      deps,
		log:       deps.Logger.WithFields(logrus.Fields{"recording_id": id, "meeting_id": meetingID}),
		state:     StateIdle,
		levels:    NewLevelWindow(opts.LevelWindow),
	}
}

// ID returns the recorder id.
func (r *Recorder) ID() string { return r.id }

// UserID returns the owner.
func (r *Recorder) UserID() int { return r.userID }

// Start begins a new session on src. A stopped recorder may start again;
// the previous session's audio is discarded.
func (r *Recorder) Start(src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if (r.state != StateIdle && r.state != StateStopped) || r.releasing {
		return ErrInvalidTransition
	}

	r.session++
	r.source = src
	r.chunks = nil
	r.count = 0
	r.size = 0
	r.snapshot = nil
	r.levels.Reset()
	r.fired = false
	r.errMsg = ""
	r.blobName = ""
	r.redirect = nil
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.state = StateRecording
	r.phase = PhaseCapturing
	r.startedAt = r.opts.Now()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go r.pump(ctx, src)
	if r.opts.LevelPoll > 0 {
		r.wg.Add(1)
		go r.every(ctx, r.opts.LevelPoll, func() { r.levels.Add(src.Level()) })
	}
	if r.opts.SnapshotInterval > 0 {
		r.wg.Add(1)
		go r.every(ctx, r.opts.SnapshotInterval, func() { r.snapshot = bytes.Join(r.chunks, nil) })
	}
	if r.deps.Active != nil {
		r.deps.Active.Inc()
	}
	r.log.Info("Recording started")
	return nil
}

func (r *Recorder) pump(ctx context.Context, src Source) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-src.Chunks():
			if !ok {
				return
			}
			r.mu.Lock()
			// chunks produced while paused are dropped
			if r.state != StatePaused && len(chunk) > 0 {
				r.chunks = append(r.chunks, chunk)
				r.count++
				r.size += len(chunk)
			}
			r.mu.Unlock()
		}
	}
}

// every runs fn under the recorder lock on each tick until ctx ends.
func (r *Recorder) every(ctx context.Context, interval time.Duration, fn func()) {
	defer r.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.mu.Lock()
			fn()
			r.mu.Unlock()
		}
	}
}

// Pause suspends capture.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return ErrInvalidTransition
	}
	r.state = StatePaused
	return nil
}

// Resume continues a paused capture.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePaused {
		return ErrInvalidTransition
	}
	r.state = StateRecording
	return nil
}

// Stop ends the session, assembles the final blob and enqueues its upload.
// Only the first Stop of a session uploads; later calls return
// ErrInvalidTransition. Upload problems land in Status, not here.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != StateRecording && r.state != StatePaused {
		r.mu.Unlock()
		return ErrInvalidTransition
	}
	r.state = StateStopped
	fire := !r.fired
	r.fired = true
	r.releasing = true
	r.mu.Unlock()

	r.release()

	r.mu.Lock()
	r.releasing = false
	if !fire {
		r.mu.Unlock()
		return nil
	}
	data := bytes.Join(r.chunks, nil)
	r.snapshot = data
	r.blobName = BuildFilename(r.meetingID, r.userID, r.opts.Now())
	r.phase = PhaseUploading
	job := &UploadJob{recorder: r, session: r.session, blobName: r.blobName, data: data}
	r.mu.Unlock()

	r.log.WithField("bytes", len(data)).Info("Recording stopped, queueing upload")
	if r.deps.Jobs == nil {
		r.finishUpload(job.session, errors.New("no upload pool configured"))
		return nil
	}
	if err := r.deps.Jobs.SubmitJob(job); err != nil {
		r.finishUpload(job.session, err)
	}
	return nil
}

// Abort ends the session without uploading.
func (r *Recorder) Abort() {
	r.mu.Lock()
	capturing := r.state == StateRecording || r.state == StatePaused
	if capturing {
		r.state = StateStopped
		r.phase = PhaseAborted
		r.fired = true
		r.releasing = true
		r.chunks = nil
		r.snapshot = nil
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()

	if capturing {
		r.release()
		r.mu.Lock()
		r.releasing = false
		r.mu.Unlock()
		r.log.Info("Recording aborted")
	}
}

// release stops the session goroutines and closes the source.
func (r *Recorder) release() {
	r.mu.Lock()
	cancel, src := r.cancel, r.source
	r.cancel, r.source = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	if src != nil {
		if err := src.Close(); err != nil {
			r.log.WithError(err).Warn("Failed to release audio source")
		}
	}
	if r.deps.Active != nil && cancel != nil {
		r.deps.Active.Dec()
	}
}

// finishUpload records the outcome of session's upload. Outcomes of a
// session the recorder has since restarted are dropped. The audio is
// released either way; there is no retry.
func (r *Recorder) finishUpload(session uint64, err error) {
	r.mu.Lock()
	if session != r.session {
		r.mu.Unlock()
		r.log.WithField("session", session).Debug("Ignoring upload result of a previous session")
		return
	}
	r.chunks = nil
	r.snapshot = nil
	if err != nil {
		r.phase = PhaseFailed
		r.errMsg = err.Error()
		r.mu.Unlock()
		r.log.WithError(err).Error("Recording upload failed")
		r.settle()
		return
	}
	r.phase = PhaseUploaded
	r.log.WithField("blob", r.blobName).Info("Recording uploaded")

	target := RedirectTarget(r.meetingID)
	at := r.opts.Now().Add(r.opts.RedirectDelay)
	r.timer = time.AfterFunc(r.opts.RedirectDelay, func() {
		r.mu.Lock()
		if r.session != session {
			r.mu.Unlock()
			return
		}
		r.redirect = &Redirect{Location: target, At: at}
		r.timer = nil
		r.mu.Unlock()
		r.settle()
	})
	r.mu.Unlock()
}

func (r *Recorder) settle() {
	if r.onSettle != nil {
		r.onSettle()
	}
}

// settled reports whether the current session is over and nothing more
// will change in its status.
func (r *Recorder) settled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateStopped || r.releasing {
		return false
	}
	switch r.phase {
	case PhaseFailed, PhaseAborted:
		return true
	case PhaseUploaded:
		return r.redirect != nil
	}
	return false
}

// Status returns a snapshot of the recorder.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{
		ID:            r.id,
		MeetingID:     r.meetingID,
		UserID:        r.userID,
		State:         r.state,
		Phase:         r.phase,
		Error:         r.errMsg,
		Chunks:        r.count,
		Bytes:         r.size,
		SnapshotBytes: len(r.snapshot),
		Levels:        r.levels.Values(),
		BlobName:      r.blobName,
		StartedAt:     r.startedAt,
	}
	if r.redirect != nil {
		rd := *r.redirect
		st.Redirect = &rd
	}
	return st
}
