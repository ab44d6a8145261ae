package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/models"
)

func newTestPool(t *testing.T, mgr *BadgerManager) *WorkerPool {
	t.Helper()
	config := NewDefaultConfig()
	config.PollInterval = 5 * time.Millisecond
	config.Concurrency = 2
	pool := NewWorkerPool(mgr, config, arbor.NewLogger())
	t.Cleanup(func() { _ = pool.Stop() })
	return pool
}

func TestWorkerPool_DispatchesByType(t *testing.T) {
	mgr := newTestManager(t, time.Minute, 3)
	pool := newTestPool(t, mgr)
	ctx := context.Background()

	var refreshed, loaded int32
	pool.RegisterHandler(models.JobTypeRefreshLabels, func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&refreshed, 1)
		return nil
	})
	pool.RegisterHandler(models.JobTypeLoadContexts, func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&loaded, 1)
		return nil
	})

	require.NoError(t, mgr.Enqueue(ctx, Message{Type: models.JobTypeRefreshLabels}))
	require.NoError(t, mgr.Enqueue(ctx, Message{Type: models.JobTypeLoadContexts}))
	require.NoError(t, pool.Start())

	assert.Eventually(t, func() bool {
		n, err := mgr.Len(ctx)
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshed))
	assert.Equal(t, int32(1), atomic.LoadInt32(&loaded))
}

func TestWorkerPool_FailedJobIsRedelivered(t *testing.T) {
	mgr := newTestManager(t, 20*time.Millisecond, 5)
	pool := newTestPool(t, mgr)
	ctx := context.Background()

	var attempts int32
	pool.RegisterHandler(models.JobTypeLoadContextOptions, func(ctx context.Context, msg *Message) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("upstream unavailable")
		}
		return nil
	})

	require.NoError(t, mgr.Enqueue(ctx, Message{Type: models.JobTypeLoadContextOptions}))
	require.NoError(t, pool.Start())

	assert.Eventually(t, func() bool {
		n, err := mgr.Len(ctx)
		return err == nil && n == 0
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestWorkerPool_PanicIsTreatedAsFailure(t *testing.T) {
	mgr := newTestManager(t, 20*time.Millisecond, 2)
	pool := newTestPool(t, mgr)
	ctx := context.Background()

	var attempts int32
	pool.RegisterHandler(models.JobTypeRefreshLabels, func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&attempts, 1)
		panic("boom")
	})

	require.NoError(t, mgr.Enqueue(ctx, Message{Type: models.JobTypeRefreshLabels}))
	require.NoError(t, pool.Start())

	assert.Eventually(t, func() bool {
		n, err := mgr.Len(ctx)
		return err == nil && n == 0
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestWorkerPool_ExhaustedContextsDoNotStallRefresh(t *testing.T) {
	mgr := newTestManager(t, 20*time.Millisecond, 1)
	pool := newTestPool(t, mgr)
	ctx := context.Background()

	var failures, refreshed int32
	pool.RegisterHandler(models.JobTypeLoadContextOptions, func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&failures, 1)
		return errors.New("jira unavailable")
	})
	pool.RegisterHandler(models.JobTypeRefreshLabels, func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&refreshed, 1)
		return nil
	})

	contexts := receiveScanLimit + 4
	for i := 0; i < contexts; i++ {
		require.NoError(t, mgr.Enqueue(ctx, Message{Type: models.JobTypeLoadContextOptions}))
	}
	require.NoError(t, pool.Start())

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&failures) == int32(contexts)
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, mgr.Enqueue(ctx, Message{Type: models.JobTypeRefreshLabels}))

	assert.Eventually(t, func() bool {
		n, err := mgr.Len(ctx)
		return err == nil && n == 0 && atomic.LoadInt32(&refreshed) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(contexts), atomic.LoadInt32(&failures))
}

func TestWorkerPool_UnknownTypeIsDropped(t *testing.T) {
	mgr := newTestManager(t, time.Minute, 3)
	pool := newTestPool(t, mgr)
	ctx := context.Background()

	require.NoError(t, mgr.Enqueue(ctx, Message{Type: "unknown"}))
	require.NoError(t, pool.Start())

	assert.Eventually(t, func() bool {
		n, err := mgr.Len(ctx)
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorkerPool_LongJobKeepsMessageInvisible(t *testing.T) {
	mgr := newTestManager(t, 100*time.Millisecond, 5)
	config := NewDefaultConfig()
	config.PollInterval = 5 * time.Millisecond
	config.Concurrency = 2
	config.VisibilityTimeout = 100 * time.Millisecond
	pool := NewWorkerPool(mgr, config, arbor.NewLogger())
	t.Cleanup(func() { _ = pool.Stop() })
	ctx := context.Background()

	var calls int32
	pool.RegisterHandler(models.JobTypeRefreshLabels, func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&calls, 1)
		time.Sleep(400 * time.Millisecond)
		return nil
	})

	require.NoError(t, mgr.Enqueue(ctx, Message{Type: models.JobTypeRefreshLabels}))
	require.NoError(t, pool.Start())

	assert.Eventually(t, func() bool {
		n, err := mgr.Len(ctx)
		return err == nil && n == 0
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
