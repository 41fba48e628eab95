package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_Invalidate_RemovesEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)
	store.Set(ctx, "k", "v")
	store.Invalidate(ctx, "k")

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("entry survived Invalidate")
	}
}

func TestStore_InvalidatePrefix_RemovesMatchingEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)
	store.Set(ctx, "scores:s1", 1)
	store.Set(ctx, "scores:s2", 2)
	store.Set(ctx, "teams:s1", 3)

	store.InvalidatePrefix(ctx, "scores:")

	if _, ok := store.Get(ctx, "scores:s1"); ok {
		t.Fatal("scores:s1 survived prefix invalidation")
	}
	if _, ok := store.Get(ctx, "scores:s2"); ok {
		t.Fatal("scores:s2 survived prefix invalidation")
	}
	if _, ok := store.Get(ctx, "teams:s1"); !ok {
		t.Fatal("teams:s1 should be untouched")
	}
}

func TestStore_EntriesExpireAfterTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	store := NewStoreWithClock(30*time.Second, clock)
	store.Set(ctx, "k", "v")

	if _, ok := store.Get(ctx, "k"); !ok {
		t.Fatal("entry missing before expiry")
	}

	mu.Lock()
	now = now.Add(31 * time.Second)
	mu.Unlock()

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("entry survived past its TTL")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
