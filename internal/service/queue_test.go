package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerQueueRunsEveryJobPastFullBuffer(t *testing.T) {
	q := NewWorkerQueue(1, 3)
	stop := q.Start(2)

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(Job{Name: "add_status", Run: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			}})
		}()
	}
	wg.Wait()

	require.NoError(t, stop(context.Background()))
	require.Equal(t, int32(20), ran.Load())
}

func TestWorkerQueueStopDrainsBufferedJobs(t *testing.T) {
	q := NewWorkerQueue(64, 3)

	var ran atomic.Int32
	for i := 0; i < 32; i++ {
		q.Enqueue(Job{Name: "add_status", Run: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
	}

	stop := q.Start(4)
	require.NoError(t, stop(context.Background()))
	require.Equal(t, int32(32), ran.Load())
}

func TestWorkerQueueRetriesUntilSuccess(t *testing.T) {
	q := NewWorkerQueue(16, 3)
	stop := q.Start(1)
	defer stop(context.Background())

	var attempts atomic.Int32
	done := make(chan struct{})
	q.Enqueue(Job{Name: "populate_feeds", Run: func(ctx context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("store unavailable")
		}
		close(done)
		return nil
	}})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job never succeeded")
	}
	require.Equal(t, int32(3), attempts.Load())
}

func TestWorkerQueueRetryBackoffGrows(t *testing.T) {
	q := NewWorkerQueue(16, 3)
	stop := q.Start(1)
	defer stop(context.Background())

	times := make(chan time.Time, 3)
	q.Enqueue(Job{Name: "remove_status", Run: func(ctx context.Context) error {
		times <- time.Now()
		return errors.New("store unavailable")
	}})

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		select {
		case ts := <-times:
			stamps = append(stamps, ts)
		case <-time.After(5 * time.Second):
			t.Fatalf("attempt %d never ran", i+1)
		}
	}
	require.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), retryBackoff)
	require.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 2*retryBackoff)
}

func TestWorkerQueueGivesUpAfterMaxRetries(t *testing.T) {
	q := NewWorkerQueue(16, 2)
	stop := q.Start(1)

	var attempts atomic.Int32
	q.Enqueue(Job{Name: "add_status", Run: func(ctx context.Context) error {
		attempts.Add(1)
		return errors.New("store unavailable")
	}})

	require.Eventually(t, func() bool { return attempts.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(2 * retryBackoff)
	require.NoError(t, stop(context.Background()))
	require.Equal(t, int32(2), attempts.Load())
}
