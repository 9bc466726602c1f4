package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCloseDrainsQueuedJobs(t *testing.T) {
	d := New(Options{Workers: 2, QueueSize: 16})

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Submit("mail", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	require.NoError(t, d.Close(context.Background()))
	require.Equal(t, int32(10), ran.Load())

	require.ErrorIs(t, d.Submit("mail", func(context.Context) error { return nil }), ErrClosed)
	require.NoError(t, d.Close(context.Background()), "closing twice is harmless")
}

func TestSubmitNeverBlocks(t *testing.T) {
	d := New(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, d.Submit("event", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Submit("event", func(context.Context) error { return nil }))

	begin := time.Now()
	err := d.Submit("event", func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrQueueFull)
	require.Less(t, time.Since(begin), 100*time.Millisecond)

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestFailingAndPanickingJobsDoNotStopWorkers(t *testing.T) {
	d := New(Options{Workers: 1})
	done := make(chan struct{})

	require.NoError(t, d.Submit("mail", func(context.Context) error { return errors.New("provider down") }))
	require.NoError(t, d.Submit("mail", func(context.Context) error { panic("boom") }))
	require.NoError(t, d.Submit("mail", func(context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker stopped after a failing job")
	}
	require.NoError(t, d.Close(context.Background()))
}

func TestJobContextIsDetachedAndBounded(t *testing.T) {
	d := New(Options{Workers: 1, JobTimeout: 50 * time.Millisecond})
	result := make(chan error, 1)

	require.NoError(t, d.Submit("event", func(ctx context.Context) error {
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	}))
	require.ErrorIs(t, <-result, context.DeadlineExceeded)
	require.NoError(t, d.Close(context.Background()))
}

func TestCloseGivesUpWhenContextEnds(t *testing.T) {
	d := New(Options{Workers: 1})
	release := make(chan struct{})
	require.NoError(t, d.Submit("mail", func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
	close(release)
}
