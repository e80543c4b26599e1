package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) ObserveJob(jobType, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, jobType+":"+outcome)
	r.mu.Unlock()
}

func (r *outcomeRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

func TestQueueDispatchesByType(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	done := make(chan Job, 1)
	q.Handle("generate", func(_ context.Context, job Job) error {
		done <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Submit("generate", "payload")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case job := <-done:
		assert.Equal(t, id, job.ID)
		assert.Equal(t, "payload", job.Payload)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRejectsUnknownTypeAndUnstarted(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Handle("generate", func(context.Context, Job) error { return nil })

	_, err := q.Submit("generate", nil)
	assert.ErrorIs(t, err, ErrNotStarted)

	q.Start(context.Background())
	_, err = q.Submit("unknown", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler")

	q.Stop()
	_, err = q.Submit("generate", nil)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestQueueFullDoesNotBlock(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 1, BufferSize: 1})
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q.Handle("slow", func(ctx context.Context, _ Job) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	_, err := q.Submit("slow", nil)
	require.NoError(t, err)
	<-started

	_, err = q.Submit("slow", nil)
	require.NoError(t, err, "fills the buffer")
	assert.Equal(t, 1, q.Pending())

	_, err = q.Submit("slow", nil)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	rec := &outcomeRecorder{}
	q := NewQueue("test", QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond, Observer: rec})
	var calls int32
	finished := make(chan struct{})
	q.Handle("flaky", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("boom")
		}
		assert.Equal(t, 2, job.Attempt)
		close(finished)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Submit("flaky", nil)
	require.NoError(t, err)

	select {
	case <-finished:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("retries did not complete")
	}
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"flaky:retried", "flaky:retried", "flaky:succeeded"}, rec.snapshot())
}

func TestQueueRecoversPanicsAndTimesOut(t *testing.T) {
	rec := &outcomeRecorder{}
	q := NewQueue("test", QueueConfig{JobTimeout: 20 * time.Millisecond, Observer: rec})
	q.Handle("panics", func(context.Context, Job) error { panic("bad payload") })
	q.Handle("hangs", func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		return ctx.Err()
	})
	q.Handle("ok", func(context.Context, Job) error { return nil })
	q.Start(context.Background())
	defer q.Stop()

	for _, jobType := range []string{"panics", "hangs", "ok"} {
		_, err := q.Submit(jobType, nil)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"panics:failed", "hangs:failed", "ok:succeeded"}, rec.snapshot())
}
