package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quillfeed/quillfeed/pkg/logger"
)

// retryBackoff is the delay before the first retry; it doubles per attempt.
const retryBackoff = 100 * time.Millisecond

// Job is one named unit of fan-out work. Delivery is at-least-once while the
// queue is running, with no ordering guarantee across jobs; anything
// non-idempotent must tolerate replays. Retries still pending when the queue
// stops are abandoned.
type Job struct {
	Name string
	Run  func(ctx context.Context) error

	attempt int
	enqAt   time.Time
}

// Queue accepts jobs for asynchronous execution. WorkerQueue backs
// production; SyncQueue backs tests and benches that need determinism.
type Queue interface {
	Enqueue(job Job)
}

// SyncQueue executes each job inline on Enqueue.
type SyncQueue struct{}

func (SyncQueue) Enqueue(job Job) {
	if err := job.Run(context.Background()); err != nil {
		logger.Error("job failed", zap.String("job", job.Name), zap.Error(err))
	}
}

// WorkerQueue is a buffered in-process job queue drained by a worker pool.
// Enqueue blocks when the buffer is full, so producers feel backpressure
// instead of losing feed updates.
type WorkerQueue struct {
	ch         chan Job
	maxRetries int
	metricsCh  chan time.Duration // enqueue->done latency
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewWorkerQueue(queueSize, maxRetries int) *WorkerQueue {
	if queueSize <= 0 {
		queueSize = 10000
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &WorkerQueue{
		ch:         make(chan Job, queueSize),
		maxRetries: maxRetries,
		metricsCh:  make(chan time.Duration, 65536),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the pool and returns a stop function. Stopping finishes
// every job already buffered before the workers exit, subject to the
// caller's context deadline.
func (q *WorkerQueue) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case job := <-q.ch:
					q.process(job)
				case <-q.stopCh:
					// drain the buffer before exiting
					for {
						select {
						case job := <-q.ch:
							q.process(job)
						default:
							return
						}
					}
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		q.stopOnce.Do(func() { close(q.stopCh) })
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
}

func (q *WorkerQueue) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := job.Run(ctx)
	cancel()
	if err != nil {
		if job.attempt+1 < q.maxRetries {
			job.attempt++
			delay := retryBackoff << (job.attempt - 1)
			logger.Warn("job failed, retrying",
				zap.String("job", job.Name), zap.Int("attempt", job.attempt),
				zap.Duration("backoff", delay), zap.Error(err))
			// requeue off-worker so a full buffer cannot wedge the pool
			time.AfterFunc(delay, func() {
				select {
				case q.ch <- job:
				case <-q.stopCh:
					logger.Error("job retry abandoned on shutdown", zap.String("job", job.Name), zap.Error(err))
				}
			})
			return
		}
		logger.Error("job failed, retries exhausted", zap.String("job", job.Name), zap.Error(err))
		return
	}
	if !job.enqAt.IsZero() {
		select {
		case q.metricsCh <- time.Since(job.enqAt):
		default:
		}
	}
}

func (q *WorkerQueue) Enqueue(job Job) {
	job.enqAt = time.Now()
	select {
	case q.ch <- job:
	case <-q.stopCh:
		logger.Warn("queue stopped, job dropped", zap.String("job", job.Name))
	}
}

// Metrics returns the read side of the enqueue-to-done latency channel.
func (q *WorkerQueue) Metrics() <-chan time.Duration { return q.metricsCh }

// QueueLen returns the current queue length (sampled).
func (q *WorkerQueue) QueueLen() int { return len(q.ch) }
