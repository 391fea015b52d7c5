package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RegisterRejectsBadSpec(t *testing.T) {
	worker := NewWorker(1)
	defer worker.Shutdown()
	s := NewScheduler(worker, time.UTC)

	err := s.Register("sweeps", "not a cron spec", func(ctx context.Context) error { return nil })
	assert.Error(t, err)

	require.NoError(t, s.Register("sweeps", "0 1 * * *", func(ctx context.Context) error { return nil }))
	assert.Error(t, s.Register("sweeps", "0 2 * * *", func(ctx context.Context) error { return nil }))
}

func TestScheduler_TriggerRunsOnWorker(t *testing.T) {
	worker := NewWorker(1)
	defer worker.Shutdown()
	s := NewScheduler(worker, time.UTC)

	done := make(chan struct{})
	require.NoError(t, s.Register("sweeps", "0 1 * * *", func(ctx context.Context) error {
		close(done)
		return errors.New("boom")
	}))

	require.NoError(t, s.Trigger("sweeps"))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	assert.Eventually(t, func() bool {
		status := s.Status()
		return len(status) == 1 && !status[0].Running && status[0].LastError == "boom"
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, s.Trigger("missing"), ErrUnknownJob)
}

func TestScheduler_NoOverlap(t *testing.T) {
	worker := NewWorker(2)
	defer worker.Shutdown()
	s := NewScheduler(worker, time.UTC)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, s.Register("slow", "@daily", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}))

	require.NoError(t, s.Trigger("slow"))
	<-started
	assert.ErrorIs(t, s.Trigger("slow"), ErrJobRunning)
	close(release)

	assert.Eventually(t, func() bool {
		return s.Trigger("slow") == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_StatsCountFailures(t *testing.T) {
	worker := NewWorker(1)
	done := make(chan struct{}, 2)
	worker.EnqueueAsync(func(ctx context.Context) error {
		done <- struct{}{}
		return nil
	})
	worker.EnqueueAsync(func(ctx context.Context) error {
		defer func() { done <- struct{}{} }()
		panic("bad job")
	})
	<-done
	<-done
	worker.Shutdown()

	stats := worker.GetStats()
	assert.EqualValues(t, 2, stats.CompletedJobs)
	assert.EqualValues(t, 1, stats.FailedJobs)
	assert.Equal(t, 0, stats.ActiveJobs)
}
