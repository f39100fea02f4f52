package recording

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiosales/web-gateway/internal/storage"
	"audiosales/web-gateway/internal/worker"
)

type fakeIssuer struct{ err error }

func (f *fakeIssuer) IssueUploadURL(_ context.Context, blobName string) (storage.UploadURL, error) {
	if f.err != nil {
		return storage.UploadURL{}, f.err
	}
	return storage.UploadURL{URL: "https://acct.blob.core.windows.net/moc-audio/" + blobName + "?sig=x", BlobName: blobName}, nil
}

type fakeBlobs struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
}

func (f *fakeBlobs) Upload(_ context.Context, _ string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.data = data
	return f.err
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMeetings struct {
	meetingID int
	blob      string
}

func (f *fakeMeetings) UpdateMeetingAudio(_ context.Context, meetingID int, blobPath string) error {
	f.meetingID, f.blob = meetingID, blobPath
	return nil
}

// inlineJobs executes jobs on submit.
type inlineJobs struct{ submitted int32 }

func (j *inlineJobs) SubmitJob(job worker.Job) error {
	atomic.AddInt32(&j.submitted, 1)
	_ = job.Execute(context.Background())
	return nil
}

// heldJobs keeps submitted jobs for the test to run later.
type heldJobs struct {
	mu   sync.Mutex
	jobs []worker.Job
}

func (j *heldJobs) SubmitJob(job worker.Job) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs = append(j.jobs, job)
	return nil
}

type fakeGauge struct{ v int32 }

func (g *fakeGauge) Inc() { atomic.AddInt32(&g.v, 1) }
func (g *fakeGauge) Dec() { atomic.AddInt32(&g.v, -1) }

type harness struct {
	reg      *Registry
	blobs    *fakeBlobs
	meetings *fakeMeetings
	jobs     *inlineJobs
	gauge    *fakeGauge
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := &harness{blobs: &fakeBlobs{}, meetings: &fakeMeetings{}, jobs: &inlineJobs{}, gauge: &fakeGauge{}}
	h.reg = NewRegistry(Options{
		LevelWindow:      4,
		LevelPoll:        time.Millisecond,
		SnapshotInterval: time.Millisecond,
		RedirectDelay:    10 * time.Millisecond,
		Now:              func() time.Time { return time.Date(2024, 1, 21, 10, 5, 0, 0, time.UTC) },
	}, Deps{
		URLs:     &fakeIssuer{},
		Blobs:    h.blobs,
		Meetings: h.meetings,
		Jobs:     h.jobs,
		Active:   h.gauge,
		Logger:   logger,
	})
	return h
}

func TestStopTwiceUploadsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec, err := h.reg.Begin(42, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.gauge.v))

	require.NoError(t, h.reg.Push(ctx, rec.ID(), 7, []byte("ab"), nil))
	require.NoError(t, h.reg.Push(ctx, rec.ID(), 7, []byte("cd"), nil))

	require.NoError(t, rec.Stop())
	assert.ErrorIs(t, rec.Stop(), ErrInvalidTransition)

	assert.Equal(t, 1, h.blobs.count())
	assert.Equal(t, "abcd", string(h.blobs.data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.jobs.submitted))
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.gauge.v))

	st := rec.Status()
	assert.Equal(t, StateStopped, st.State)
	assert.Equal(t, PhaseUploaded, st.Phase)
	assert.Equal(t, "meeting_42_user_7_20240121_100500.webm", st.BlobName)
	assert.Equal(t, 42, h.meetings.meetingID)
	assert.Equal(t, st.BlobName, h.meetings.blob)

	require.Eventually(t, func() bool { return rec.Status().Redirect != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "/feedback/42", rec.Status().Redirect.Location)
}

func TestConcurrentStopsEnqueueOneUpload(t *testing.T) {
	h := newHarness(t)
	rec, err := h.reg.Begin(1, 1)
	require.NoError(t, err)
	require.NoError(t, h.reg.Push(context.Background(), rec.ID(), 1, []byte("x"), nil))

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rec.Stop() == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, 1, h.blobs.count())
}

func TestPausedChunksAreDropped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rec, err := h.reg.Begin(0, 3)
	require.NoError(t, err)

	require.NoError(t, h.reg.Push(ctx, rec.ID(), 3, []byte("a"), nil))
	require.NoError(t, rec.Pause())
	assert.ErrorIs(t, rec.Pause(), ErrInvalidTransition)
	require.NoError(t, h.reg.Push(ctx, rec.ID(), 3, []byte("b"), nil))
	require.NoError(t, rec.Resume())
	assert.ErrorIs(t, rec.Resume(), ErrInvalidTransition)
	require.NoError(t, h.reg.Push(ctx, rec.ID(), 3, []byte("c"), nil))
	require.NoError(t, rec.Stop())

	assert.Equal(t, "ac", string(h.blobs.data))
	assert.Equal(t, "user_3_20240121_100500.webm", rec.Status().BlobName)
	assert.Zero(t, h.meetings.meetingID)

	require.Eventually(t, func() bool { return rec.Status().Redirect != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "/dashboard", rec.Status().Redirect.Location)
}

func TestUploadFailureIsReportedInStatus(t *testing.T) {
	h := newHarness(t)
	h.blobs.err = errors.New("storage unavailable")

	rec, err := h.reg.Begin(5, 5)
	require.NoError(t, err)
	require.NoError(t, h.reg.Push(context.Background(), rec.ID(), 5, []byte("zz"), nil))
	require.NoError(t, rec.Stop())

	st := rec.Status()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Contains(t, st.Error, "storage unavailable")
	assert.Nil(t, st.Redirect)
	assert.Equal(t, 1, h.blobs.count())
}

func TestAbortSkipsUpload(t *testing.T) {
	h := newHarness(t)
	rec, err := h.reg.Begin(9, 2)
	require.NoError(t, err)
	require.NoError(t, h.reg.Push(context.Background(), rec.ID(), 2, []byte("a"), nil))

	rec.Abort()
	assert.Equal(t, PhaseAborted, rec.Status().Phase)
	assert.ErrorIs(t, rec.Stop(), ErrInvalidTransition)
	assert.ErrorIs(t, h.reg.Push(context.Background(), rec.ID(), 2, []byte("b"), nil), ErrInvalidTransition)
	assert.Zero(t, h.blobs.count())
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.gauge.v))
}

func TestRestartResetsSession(t *testing.T) {
	h := newHarness(t)
	rec, err := h.reg.Begin(8, 8)
	require.NoError(t, err)
	require.NoError(t, h.reg.Push(context.Background(), rec.ID(), 8, []byte("old"), nil))
	require.NoError(t, rec.Stop())

	src := NewStreamSource()
	require.NoError(t, rec.Start(src))
	assert.ErrorIs(t, rec.Start(src), ErrInvalidTransition)
	require.NoError(t, src.Push(context.Background(), []byte("new")))
	require.NoError(t, rec.Stop())

	assert.Equal(t, 2, h.blobs.count())
	assert.Equal(t, "new", string(h.blobs.data))
}

func TestStaleUploadDoesNotTouchRestartedSession(t *testing.T) {
	h := newHarness(t)
	jobs := &heldJobs{}
	deps := h.reg.deps
	deps.Jobs = jobs
	rec := NewRecorder("r1", 8, 8, h.reg.opts, deps)

	first := NewStreamSource()
	require.NoError(t, rec.Start(first))
	require.NoError(t, first.Push(context.Background(), []byte("old")))
	require.Eventually(t, func() bool { return rec.Status().Bytes == 3 }, time.Second, time.Millisecond)
	require.NoError(t, rec.Stop())
	require.Len(t, jobs.jobs, 1)

	require.NoError(t, rec.Start(NewStreamSource()))
	h.blobs.err = errors.New("late failure")
	require.Error(t, jobs.jobs[0].Execute(context.Background()))

	st := rec.Status()
	assert.Equal(t, StateRecording, st.State)
	assert.Equal(t, PhaseCapturing, st.Phase)
	assert.Empty(t, st.Error)

	h.blobs.err = nil
	require.NoError(t, jobs.jobs[0].Execute(context.Background()))
	time.Sleep(30 * time.Millisecond)
	st = rec.Status()
	assert.Equal(t, PhaseCapturing, st.Phase)
	assert.Nil(t, st.Redirect)
	rec.Abort()
}

func TestSettledRecordingsAreForgotten(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	chunk := make([]byte, 1<<20)

	var recs []*Recorder
	for i := 0; i < 3; i++ {
		rec, err := h.reg.Begin(i+1, 4)
		require.NoError(t, err)
		require.NoError(t, h.reg.Push(ctx, rec.ID(), 4, chunk, nil))
		require.Eventually(t, func() bool { return rec.Status().Chunks == 1 }, time.Second, time.Millisecond)
		require.NoError(t, rec.Stop())
		recs = append(recs, rec)
	}
	h.blobs.err = errors.New("storage unavailable")
	failed, err := h.reg.Begin(9, 4)
	require.NoError(t, err)
	require.NoError(t, failed.Stop())

	require.Eventually(t, func() bool { return h.reg.Len() == 0 }, time.Second, 5*time.Millisecond)
	for _, rec := range recs {
		rec.mu.Lock()
		assert.Nil(t, rec.chunks)
		assert.Nil(t, rec.snapshot)
		rec.mu.Unlock()
		st := rec.Status()
		assert.Equal(t, PhaseUploaded, st.Phase)
		assert.Equal(t, 1, st.Chunks)
		assert.Equal(t, 1<<20, st.Bytes)
	}
	_, err = h.reg.Get(recs[0].ID(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetainKeepsSettledRecordingVisible(t *testing.T) {
	h := newHarness(t)
	h.reg.opts.Retain = time.Hour
	rec, err := h.reg.Begin(1, 1)
	require.NoError(t, err)
	require.NoError(t, rec.Stop())

	require.Eventually(t, func() bool { return rec.Status().Redirect != nil }, time.Second, 5*time.Millisecond)
	got, err := h.reg.Get(rec.ID(), 1)
	require.NoError(t, err)
	assert.Same(t, rec, got)
	assert.Equal(t, 1, h.reg.Len())
}

func TestLevelsAreSampled(t *testing.T) {
	h := newHarness(t)
	level := 0.5
	rec, err := h.reg.Begin(1, 1)
	require.NoError(t, err)
	require.NoError(t, h.reg.Push(context.Background(), rec.ID(), 1, nil, &level))

	require.Eventually(t, func() bool { return len(rec.Status().Levels) == 4 }, time.Second, time.Millisecond)
	for _, v := range rec.Status().Levels {
		if v != 0 {
			assert.Equal(t, 0.5, v)
		}
	}
	rec.Abort()
}

func TestRegistryOwnership(t *testing.T) {
	h := newHarness(t)
	rec, err := h.reg.Begin(1, 1)
	require.NoError(t, err)

	_, err = h.reg.Get(rec.ID(), 2)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = h.reg.Get("missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, h.reg.Discard(rec.ID(), 1))
	assert.Zero(t, h.reg.Len())
	assert.Zero(t, h.blobs.count())
}

func TestRegistryShutdownAbortsLiveRecorders(t *testing.T) {
	h := newHarness(t)
	a, err := h.reg.Begin(1, 1)
	require.NoError(t, err)
	b, err := h.reg.Begin(2, 1)
	require.NoError(t, err)

	h.reg.Shutdown()
	assert.Equal(t, StateStopped, a.Status().State)
	assert.Equal(t, StateStopped, b.Status().State)
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.gauge.v))
}

func TestBuildFilename(t *testing.T) {
	at := time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC)
	assert.Equal(t, "meeting_1_user_2_20240309_080706.webm", BuildFilename(1, 2, at))
	assert.Equal(t, "meeting_1_20240309_080706.webm", BuildFilename(1, 0, at))
	assert.Equal(t, "recording_20240309_080706.webm", BuildFilename(0, 0, at))
}

func TestLevelWindow(t *testing.T) {
	w := NewLevelWindow(3)
	assert.Empty(t, w.Values())
	w.Add(1)
	w.Add(2)
	assert.Equal(t, []float64{1, 2}, w.Values())
	w.Add(3)
	w.Add(4)
	assert.Equal(t, []float64{2, 3, 4}, w.Values())
	w.Reset()
	assert.Empty(t, w.Values())
}
