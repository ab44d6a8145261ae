package labels

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestCache_ReadAllEmpty(t *testing.T) {
	cache := NewCache(newMemoryKV(), true, arbor.NewLogger())

	labels, err := cache.ReadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, labels)
	assert.Empty(t, labels)
}

func TestCache_OverwriteRoundTrip(t *testing.T) {
	kv := newMemoryKV()
	cache := NewCache(kv, true, arbor.NewLogger())
	ctx := context.Background()

	want := []string{"Red | KEY1 | Name1", "Blue | KEY2 | Name2"}
	require.NoError(t, cache.Overwrite(ctx, want))

	got, err := cache.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := kv.Get(ctx, LabelsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["Red | KEY1 | Name1","Blue | KEY2 | Name2"]`, raw)

	require.NoError(t, cache.Overwrite(ctx, nil))
	raw, err = kv.Get(ctx, LabelsKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
}

func TestCache_ReadAllNonArrayIsEmpty(t *testing.T) {
	kv := newMemoryKV()
	require.NoError(t, kv.Set(context.Background(), LabelsKey, `{"label":"x"}`, ""))
	cache := NewCache(kv, true, arbor.NewLogger())

	labels, err := cache.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestCache_MergeUpsert(t *testing.T) {
	cache := NewCache(newMemoryKV(), true, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, cache.Overwrite(ctx, []string{"Red | KEY1 | Name1"}))
	require.NoError(t, cache.MergeUpsert(ctx, []string{"Red | KEY1 | Name1", "Blue | KEY1 | Name1"}))

	labels, err := cache.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Red | KEY1 | Name1", "Blue | KEY1 | Name1"}, labels)
}

func TestCache_MergeUpsertIdempotent(t *testing.T) {
	cache := NewCache(newMemoryKV(), true, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, cache.Overwrite(ctx, []string{"Green | KEY9 | Name9"}))
	batch := []string{"Red | KEY1 | Name1", "Blue | KEY1 | Name1"}

	require.NoError(t, cache.MergeUpsert(ctx, batch))
	first, err := cache.ReadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.MergeUpsert(ctx, batch))
	second, err := cache.ReadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Green | KEY9 | Name9", "Red | KEY1 | Name1", "Blue | KEY1 | Name1"}, second)
}

func TestCache_WriteFailure(t *testing.T) {
	kv := newMemoryKV()
	kv.setErr = errors.New("disk full")
	cache := NewCache(kv, true, arbor.NewLogger())

	err := cache.Overwrite(context.Background(), []string{"Red | KEY1 | Name1"})

	var writeErr *CacheWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, LabelsKey, writeErr.Key)
	assert.ErrorIs(t, err, kv.setErr)

	err = cache.MergeUpsert(context.Background(), []string{"Red | KEY1 | Name1"})
	assert.ErrorAs(t, err, &writeErr)
}

func TestCache_ReadFailureAbortsMerge(t *testing.T) {
	kv := newMemoryKV()
	kv.getErr = errors.New("io error")
	cache := NewCache(kv, true, arbor.NewLogger())

	err := cache.MergeUpsert(context.Background(), []string{"Red | KEY1 | Name1"})
	assert.ErrorIs(t, err, kv.getErr)
	assert.Equal(t, 0, kv.setCalls)
}

func TestCache_ConcurrentMergesKeepEveryBatch(t *testing.T) {
	cache := NewCache(newMemoryKV(), true, arbor.NewLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			label := fmt.Sprintf("Value %d | KEY | Name", i)
			assert.NoError(t, cache.MergeUpsert(ctx, []string{label}))
		}(i)
	}
	wg.Wait()

	labels, err := cache.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, labels, 20)
}
