package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorker_TracksCompletedAndFailedJobs(t *testing.T) {
	w := NewWorker(2)

	var wg sync.WaitGroup
	wg.Add(3)
	w.Enqueue(func(ctx context.Context) error {
		defer wg.Done()
		return nil
	})
	w.Enqueue(func(ctx context.Context) error {
		defer wg.Done()
		return errors.New("smtp down")
	})
	w.EnqueueAsync(func(ctx context.Context) error {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()
	w.Shutdown()

	stats := w.GetStats()
	assert.Equal(t, int64(3), stats.CompletedJobs)
	assert.Equal(t, int64(2), stats.FailedJobs)
	assert.Zero(t, stats.ActiveJobs)
	assert.Equal(t, 10, stats.MaxConcurrent)
}

func TestWorker_ShutdownIsIdempotent(t *testing.T) {
	w := NewWorker(0)
	w.Shutdown()
	w.Shutdown()
	assert.Error(t, w.Context().Err())
}
