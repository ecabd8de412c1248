package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolLifecycle(t *testing.T) {
	pool := NewPool()

	assert.Error(t, pool.Submit(func() {}), "submit before initialize")
	assert.Error(t, pool.Initialize(0))
	require.NoError(t, pool.Initialize(4))
	assert.Error(t, pool.Initialize(4), "double initialize")
	assert.Equal(t, 4, pool.GetWorkerCount())

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(8), atomic.LoadInt32(&ran))

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, 0, pool.GetWorkerCount())
	assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolShutdown)
	require.NoError(t, pool.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	pool := NewPool()
	require.NoError(t, pool.Initialize(1))

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	// one worker busy, queue holds two
	require.NoError(t, pool.Submit(func() { <-release }))
	require.NoError(t, pool.Submit(func() { <-release }))
	assert.ErrorIs(t, pool.Submit(func() {}), ErrQueueFull)
	assert.Error(t, pool.Submit(nil))

	close(release)
	require.NoError(t, pool.Shutdown(context.Background()))

	stats := pool.GetStats()
	assert.Equal(t, uint64(3), stats["jobs_completed"])
	assert.Equal(t, uint64(1), stats["jobs_rejected"])
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	pool := NewPool()
	require.NoError(t, pool.Initialize(1))

	require.NoError(t, pool.Submit(func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive a panicking job")
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, uint64(1), pool.GetStats()["jobs_panicked"])
}

func TestShutdownHonoursContext(t *testing.T) {
	pool := NewPool()
	require.NoError(t, pool.Initialize(1))

	release := make(chan struct{})
	defer close(release)
	require.NoError(t, pool.Submit(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)
}
