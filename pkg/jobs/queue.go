// Package jobs runs background work, such as asynchronous schedule generation,
// on a bounded in-process worker pool.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job outcomes reported to the Observer.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)

var (
	// ErrNotStarted is returned when enqueuing before Start or after Stop.
	ErrNotStarted = errors.New("queue not running")
	// ErrQueueFull is returned when the buffer has no room. Callers surface it
	// as back-pressure rather than blocking the request.
	ErrQueueFull = errors.New("queue is full")
)

// Job is a unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. The context is cancelled on Stop or when the job
// timeout elapses.
type Handler func(context.Context, Job) error

// Observer receives one call per handler execution.
type Observer interface {
	ObserveJob(jobType, outcome string, duration time.Duration)
}

// QueueConfig configures the pool. Zero values pick conservative defaults.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff; each further attempt doubles it.
	RetryDelay time.Duration
	// JobTimeout bounds a single handler run. Zero disables it.
	JobTimeout time.Duration
	Observer   Observer
	Logger     *zap.Logger
}

// Queue dispatches jobs to per-type handlers.
type Queue struct {
	name string
	cfg  QueueConfig
	log  *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc

	jobs chan Job
	wg   sync.WaitGroup
}

// NewQueue builds an idle queue. Register handlers before Start.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:     name,
		cfg:      cfg,
		log:      cfg.Logger.With(zap.String("queue", name)),
		handlers: make(map[string]Handler),
		jobs:     make(chan Job, cfg.BufferSize),
	}
}

// Handle registers the handler for a job type, replacing any previous one.
func (q *Queue) Handle(jobType string, handler Handler) {
	q.mu.Lock()
	q.handlers[jobType] = handler
	q.mu.Unlock()
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	for i := 1; i <= q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	q.log.Info("queue started", zap.Int("workers", q.cfg.Workers), zap.Int("buffer", q.cfg.BufferSize))
}

// Stop cancels in-flight handlers and waits for workers to exit. Buffered jobs
// that never started are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.log.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Pending reports how many jobs are buffered and not yet picked up.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Submit wraps payload in a job with a fresh ID and enqueues it.
func (q *Queue) Submit(jobType string, payload interface{}) (string, error) {
	job := Job{ID: uuid.NewString(), Type: jobType, Payload: payload}
	if err := q.Enqueue(job); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Enqueue adds a job without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrNotStarted)
	}
	if _, ok := q.handlers[job.Type]; !ok {
		return fmt.Errorf("%s: no handler for job type %q", q.name, job.Type)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

func (q *Queue) work(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(workerID, job)
		}
	}
}

func (q *Queue) run(workerID int, job Job) {
	q.mu.RLock()
	handler := q.handlers[job.Type]
	q.mu.RUnlock()

	start := time.Now()
	err := q.invoke(handler, job)
	took := time.Since(start)

	fields := []zap.Field{
		zap.Int("worker", workerID),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt+1),
		zap.Duration("took", took),
	}
	if err == nil {
		q.observe(job.Type, OutcomeSucceeded, took)
		q.log.Debug("job done", fields...)
		return
	}

	fields = append(fields, zap.Error(err))
	if job.Attempt >= q.cfg.MaxRetries || q.ctx.Err() != nil {
		q.observe(job.Type, OutcomeFailed, took)
		q.log.Error("job failed", fields...)
		return
	}
	q.observe(job.Type, OutcomeRetried, took)
	q.log.Warn("job failed, retrying", fields...)
	q.retryLater(job)
}

// invoke runs the handler under the job timeout and turns panics into errors
// so one bad payload cannot take a worker down.
func (q *Queue) invoke(handler Handler, job Job) (err error) {
	ctx := q.ctx
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.JobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) retryLater(job Job) {
	delay := q.cfg.RetryDelay << job.Attempt
	job.Attempt++

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.observe(job.Type, OutcomeFailed, 0)
				q.log.Error("requeue failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}

func (q *Queue) observe(jobType, outcome string, took time.Duration) {
	if q.cfg.Observer != nil {
		q.cfg.Observer.ObserveJob(jobType, outcome, took)
	}
}
