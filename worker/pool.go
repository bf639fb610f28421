// Package worker runs Prior Authorization retrieval sessions in the
// background on a bounded goroutine pool, with per-case retry, timeout, and
// cancellation.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

var (
	// ErrStopped is returned when a job is enqueued after Stop.
	ErrStopped = errors.New("worker pool is stopped")
	// ErrQueueFull is returned when the job queue rejects a new job.
	ErrQueueFull = errors.New("job queue is full")
)

const (
	defaultQueueCapacity = 128
	defaultMaxAttempts   = 3
	defaultJobTimeout    = 10 * time.Minute
	maxBackoff           = time.Minute
	drainTimeout         = 15 * time.Minute
)

// Runner executes one retrieval session for a stored case. The error decides
// whether the job is retried.
type Runner interface {
	RunCase(ctx context.Context, caseID string) error
}

// Job is one queued retrieval request.
type Job struct {
	CaseID     string
	EnqueuedAt time.Time
	Attempt    int
}

// Pool dispatches queued retrieval jobs onto a fixed-size goroutine pool.
// Each running job registers a cancel function keyed by case ID, so a case
// can be cancelled individually while the rest of the pool keeps working.
type Pool struct {
	queue  *jobQueue
	pool   *ants.Pool
	runner Runner
	logger *slog.Logger

	maxAttempts int
	jobTimeout  time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// PoolOption configures a Pool after defaults are applied.
type PoolOption func(*Pool)

// WithLogger sets the pool logger.
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxAttempts sets how many times a failing job is executed in total.
func WithMaxAttempts(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithJobTimeout bounds one job execution including its retries.
func WithJobTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.jobTimeout = d
		}
	}
}

// NewPool creates a worker pool with size concurrent workers.
func NewPool(size int, runner Runner, opts ...PoolOption) (*Pool, error) {
	ctx, cancel := context.WithCancel(context.Background())

	antsPool, err := ants.NewPool(size,
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	p := &Pool{
		queue:       newJobQueue(defaultQueueCapacity),
		pool:        antsPool,
		runner:      runner,
		logger:      slog.Default(),
		maxAttempts: defaultMaxAttempts,
		jobTimeout:  defaultJobTimeout,
		ctx:         ctx,
		cancel:      cancel,
		active:      make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start launches the dispatch loop.
func (p *Pool) Start() {
	go p.dispatchLoop()
}

// Stop rejects new jobs, drains the queue, and waits for running jobs.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.queue.Close()

		if err := p.pool.ReleaseTimeout(drainTimeout); err != nil {
			p.logger.Warn("worker pool drain timed out", "error", err)
		}
	})
}

// Enqueue queues a retrieval job for the given case.
func (p *Pool) Enqueue(caseID string) error {
	select {
	case <-p.ctx.Done():
		return ErrStopped
	default:
	}

	job := &Job{CaseID: caseID, EnqueuedAt: time.Now()}
	if err := p.queue.Enqueue(job); err != nil {
		return err
	}
	p.logger.Debug("retrieval job enqueued", "case_id", caseID)
	return nil
}

// Cancel aborts the running job for the given case. It reports whether a
// running job was found.
func (p *Pool) Cancel(caseID string) bool {
	p.mu.Lock()
	cancel, ok := p.active[caseID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	p.logger.Info("cancelling retrieval job", "case_id", caseID)
	cancel()
	return true
}

// Status reports queue depth and running worker count.
type Status struct {
	Queued  int `json:"queued"`
	Running int `json:"running"`
}

func (p *Pool) Status() Status {
	return Status{
		Queued:  p.queue.Len(),
		Running: p.pool.Running(),
	}
}

func (p *Pool) dispatchLoop() {
	for {
		job, ok := p.queue.Dequeue()
		if !ok {
			return
		}
		if err := p.pool.Submit(func() { p.execute(job) }); err != nil {
			p.logger.Error("failed to submit job to pool", "case_id", job.CaseID, "error", err)
		}
	}
}

// execute runs one job with bounded retries and exponential backoff. Context
// cancellation, whether from Stop, the job timeout, or Cancel, ends the job
// without further attempts.
func (p *Pool) execute(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("retrieval job panicked", "case_id", job.CaseID, "panic", r)
		}
	}()

	ctx, timeoutCancel := context.WithTimeout(p.ctx, p.jobTimeout)
	defer timeoutCancel()
	runCtx, manualCancel := context.WithCancel(ctx)
	defer manualCancel()

	p.register(job.CaseID, manualCancel)
	defer p.unregister(job.CaseID)

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		job.Attempt = attempt

		lastErr = p.runner.RunCase(runCtx, job.CaseID)
		if lastErr == nil {
			p.logger.Info("retrieval job completed", "case_id", job.CaseID, "attempt", attempt)
			return
		}
		if runCtx.Err() != nil {
			p.logger.Warn("retrieval job cancelled", "case_id", job.CaseID)
			return
		}

		backoff := time.Second << (attempt - 1)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		p.logger.Warn("retrieval job failed",
			"case_id", job.CaseID, "attempt", attempt, "max_attempts", p.maxAttempts,
			"error", lastErr, "backoff", backoff)

		select {
		case <-runCtx.Done():
			return
		case <-time.After(backoff):
		}
	}

	p.logger.Error("retrieval job exhausted its attempts", "case_id", job.CaseID, "error", lastErr)
}

func (p *Pool) register(caseID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[caseID] = cancel
}

func (p *Pool) unregister(caseID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, caseID)
}
