// Package dispatch delivers post-commit side effects (mail, domain events)
// on a small pool of background workers so request handlers never wait on
// an external provider.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"alcyxob/coach-app/internal/metrics"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher is closed")

// ErrQueueFull is returned by Submit when every slot of the queue is taken.
// The job is dropped; the caller logs and counts it like a failed delivery.
var ErrQueueFull = errors.New("dispatch queue is full")

// Job is one delivery. It receives a context bounded by the job timeout,
// never the request's context.
type Job func(ctx context.Context) error

type task struct {
	kind string
	run  Job
}

// Dispatcher runs submitted jobs on a fixed set of workers.
type Dispatcher struct {
	jobs    chan task
	timeout time.Duration

	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

// Options tune a Dispatcher. Zero values fall back to the defaults.
type Options struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

const (
	defaultWorkers    = 4
	defaultQueueSize  = 256
	defaultJobTimeout = 15 * time.Second
)

// New starts the workers. Call Close to drain and stop them.
func New(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaultJobTimeout
	}

	d := &Dispatcher{
		jobs:    make(chan task, opts.QueueSize),
		timeout: opts.JobTimeout,
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.work()
	}
	return d
}

// Submit queues job without blocking. kind labels logs and the failure
// metric ("mail", "event").
func (d *Dispatcher) Submit(kind string, job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.jobs <- task{kind: kind, run: job}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for t := range d.jobs {
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordSideEffectFailure(t.kind)
			slog.Error("side effect panicked", "kind", t.kind, "panic", r)
		}
	}()
	if err := t.run(ctx); err != nil {
		metrics.RecordSideEffectFailure(t.kind)
		slog.Error("side effect failed", "kind", t.kind, "error", err)
	}
}

// Close stops accepting jobs and waits for the queued ones to finish, or for
// ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
