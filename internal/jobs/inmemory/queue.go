package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/hoa-ledger/internal/jobs"
)

const (
	defaultWorkers    = 3
	defaultMaxRetries = 3
)

// Queue fans statement-import jobs out over a buffered channel to a fixed
// pool of workers. It is both the Publisher and the Consumer of the jobs
// package; a multi-instance deployment would put Pub/Sub or Cloud Tasks
// behind the same two interfaces.
type Queue struct {
	ch      chan *jobs.ImportStatementJob
	quit    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	store   jobs.JobStore
	workers int
	closed  bool
}

// NewQueue sizes the channel with bufferSize; publishing blocks once the
// buffer is full. workers <= 0 falls back to a small default pool.
func NewQueue(bufferSize, workers int, store jobs.JobStore) *Queue {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Queue{
		ch:      make(chan *jobs.ImportStatementJob, bufferSize),
		quit:    make(chan struct{}),
		store:   store,
		workers: workers,
	}
}

// PublishImportStatement fills in identity and lifecycle defaults, records
// the job as pending, and hands it to the worker pool.
func (q *Queue) PublishImportStatement(ctx context.Context, job *jobs.ImportStatementJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("PublishImportStatement: queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishImportStatement: save job: %w", err)
		}
	}

	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.quit:
		return fmt.Errorf("PublishImportStatement: queue is closed")
	}
}

// Start launches the worker pool. Each worker runs handler for one job at a
// time until ctx is cancelled or the queue is stopped.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return fmt.Errorf("Start: queue is closed")
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-q.quit:
					return
				case job := <-q.ch:
					if job == nil {
						return
					}
					q.run(ctx, job, handler)
				}
			}
		}()
	}
	return nil
}

// run executes one job and schedules a retry on failure. Backoff grows
// linearly with the attempt number.
func (q *Queue) run(ctx context.Context, job *jobs.ImportStatementJob, handler jobs.JobHandler) {
	now := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now
	q.record(ctx, job)

	err := handler(ctx, job)

	finished := time.Now()
	job.CompletedAt = &finished

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	case job.RetryCount < job.MaxRetries:
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		job.Error = err.Error()
		backoff := time.Duration(job.RetryCount) * time.Second
		time.AfterFunc(backoff, func() {
			job.Status = jobs.JobStatusPending
			job.StartedAt = nil
			job.CompletedAt = nil
			_ = q.PublishImportStatement(ctx, job)
		})
	default:
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
	}

	q.record(ctx, job)
}

func (q *Queue) record(ctx context.Context, job *jobs.ImportStatementJob) {
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop closes the queue and waits for in-flight jobs, giving up when ctx
// expires.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
