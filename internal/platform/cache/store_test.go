package cache

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

func TestLoad_DeduplicatesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []string{"sim-daily-2026"}, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got, err := Load(context.Background(), store, "league:list", loader)
			if err == nil && (len(got) != 1 || got[0] != "sim-daily-2026") {
				err = errors.New("unexpected value")
			}
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader calls: got=%d want=1", got)
	}
}

func TestLoad_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	errDown := errors.New("db down")
	calls := 0
	loader := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errDown
		}
		return 7, nil
	}

	_, err := Load(context.Background(), store, "k", loader)
	require.ErrorIs(t, err, errDown)

	got, err := Load(context.Background(), store, "k", loader)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 2, calls)
}

func TestLoad_TypeMismatch(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	store.Set(context.Background(), "k", "text")

	_, err := Load(context.Background(), store, "k", func(context.Context) (int, error) { return 1, nil })
	assert.Error(t, err)
}

func TestStore_ExpiryAndPurge(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore(30*time.Second, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	store.Set(ctx, "score:league:lg-1:list", "cached")
	now = now.Add(10 * time.Second)
	store.Set(ctx, "score:league:lg-2:list", "cached")

	_, ok := store.Get(ctx, "score:league:lg-1:list")
	require.True(t, ok)

	now = now.Add(25 * time.Second)
	_, ok = store.Get(ctx, "score:league:lg-1:list")
	require.False(t, ok, "first entry expired")

	if removed := store.Purge(); removed != 1 {
		t.Fatalf("purge count: got=%d want=1", removed)
	}
	assert.Equal(t, 1, store.Len())
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "score:league:lg-1:list", 1)
	store.Set(ctx, "score:league:lg-1:snapshots:20", 2)
	store.Set(ctx, "score:league:lg-2:list", 3)
	store.Set(ctx, "", 4)

	store.DeletePrefix(ctx, "score:league:lg-1:")
	if got := store.Len(); got != 1 {
		t.Fatalf("entries after prefix delete: got=%d want=1", got)
	}
}
