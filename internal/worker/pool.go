// Package worker runs background jobs (audio uploads) on a fixed pool of
// goroutines fed by a bounded queue.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrQueueFull is returned by SubmitJob when the queue has no room.
	ErrQueueFull = errors.New("worker: job queue full")
	// ErrStopped is returned by SubmitJob after Stop.
	ErrStopped = errors.New("worker: dispatcher stopped")
)

// Job is a unit of background work.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Worker pulls jobs from the dispatcher queue until it is closed.
type Worker struct {
	ID     int
	queue  <-chan Job
	ctx    context.Context
	logger *logrus.Logger
	wg     *sync.WaitGroup
}

// Start runs the worker loop in its own goroutine.
func (w Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for job := range w.queue {
			w.run(job)
		}
		w.logger.WithField("worker", w.ID).Debug("Worker stopping")
	}()
}

func (w Worker) run(job Job) {
	log := w.logger.WithFields(logrus.Fields{"worker": w.ID, "job_id": job.ID()})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Job panicked")
		}
	}()

	log.Info("Started job")
	if err := job.Execute(w.ctx); err != nil {
		log.WithError(err).Error("Error processing job")
		return
	}
	log.Info("Finished job")
}

// Dispatcher owns the queue and the workers draining it.
type Dispatcher struct {
	MaxWorkers int
	JobQueue   chan Job
	Workers    []Worker

	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a dispatcher; call Run to start the workers.
func NewDispatcher(maxWorkers, jobQueueSize int, logger *logrus.Logger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if jobQueueSize < 0 {
		jobQueueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the workers.
func (d *Dispatcher) Run() {
	d.logger.WithField("workers", d.MaxWorkers).Info("Dispatcher starting")
	for i := 1; i <= d.MaxWorkers; i++ {
		w := Worker{ID: i, queue: d.JobQueue, ctx: d.ctx, logger: d.logger, wg: &d.wg}
		d.Workers = append(d.Workers, w)
		w.Start()
	}
}

// SubmitJob enqueues job without blocking.
func (d *Dispatcher) SubmitJob(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.JobQueue <- job:
		d.logger.WithField("job_id", job.ID()).Debug("Job submitted to queue")
		return nil
	default:
		d.logger.WithField("job_id", job.ID()).Warn("Job queue full")
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued jobs to finish. If ctx ends
// first, running jobs see their context cancelled and Stop returns ctx.Err().
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.JobQueue)
	d.mu.Unlock()

	d.logger.Info("Dispatcher: draining queue")
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("Dispatcher: shutdown complete")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
