package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var ErrStopped = errors.New("runner stopped")

// Job is one unit of work. It receives the context of the caller that
// submitted it.
type Job func(ctx context.Context) error

type request struct {
	id       string
	ctx      context.Context
	job      Job
	queuedAt time.Time
	response chan error
}

// Runner executes jobs one at a time, in arrival order, on a single goroutine.
type Runner struct {
	queue       chan request
	minInterval time.Duration
	lastRun     time.Time
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	log         *slog.Logger
}

func New(log *slog.Logger, queueSize int, minInterval time.Duration) *Runner {
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		queue:       make(chan request, queueSize),
		minInterval: max(minInterval, 0),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         log,
	}

	go r.processQueue()

	return r
}

// Do enqueues job and blocks until it has run. It returns the job's error,
// ctx.Err() when the caller gives up first, or ErrStopped after Stop.
func (r *Runner) Do(ctx context.Context, job Job) error {
	req := request{
		id:       uuid.NewString(),
		ctx:      ctx,
		job:      job,
		queuedAt: time.Now(),
		response: make(chan error, 1),
	}

	if r.ctx.Err() != nil {
		return ErrStopped
	}

	select {
	case r.queue <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return ErrStopped
	}

	select {
	case err := <-req.response:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		select {
		case err := <-req.response:
			return err
		default:
			return ErrStopped
		}
	}
}

// Stop cancels pending jobs and waits for the running one to return.
func (r *Runner) Stop() {
	r.cancel()
	<-r.done
}

func (r *Runner) processQueue() {
	defer close(r.done)

	for {
		select {
		case req := <-r.queue:
			r.handleRequest(req)
		case <-r.ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Runner) drain() {
	for {
		select {
		case req := <-r.queue:
			req.response <- ErrStopped
		default:
			return
		}
	}
}

func (r *Runner) handleRequest(req request) {
	if r.ctx.Err() != nil {
		req.response <- ErrStopped
		return
	}
	if err := req.ctx.Err(); err != nil {
		req.response <- err
		return
	}

	if delay := r.delay(); delay > 0 {
		r.log.DebugContext(req.ctx, "Spacing job",
			"jobID", req.id,
			"delay", delay,
			"queueLen", len(r.queue))

		select {
		case <-time.After(delay):
		case <-req.ctx.Done():
			req.response <- req.ctx.Err()
			return
		case <-r.ctx.Done():
			req.response <- ErrStopped
			return
		}
	}

	startedAt := time.Now()
	err := r.run(req)
	r.lastRun = time.Now()

	r.log.DebugContext(req.ctx, "Job finished",
		"jobID", req.id,
		"wait", startedAt.Sub(req.queuedAt),
		"elapsed", r.lastRun.Sub(startedAt),
		"queueLen", len(r.queue),
		"failed", err != nil)

	req.response <- err
}

func (r *Runner) run(req request) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("job %s panicked: %v", req.id, recovered)
		}
	}()

	return req.job(req.ctx)
}

func (r *Runner) delay() time.Duration {
	if r.minInterval <= 0 || r.lastRun.IsZero() {
		return 0
	}

	return max(r.minInterval-time.Since(r.lastRun), 0)
}
