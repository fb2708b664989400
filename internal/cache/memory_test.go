package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemory_GetOrCompute_StoresAndServes(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	calls := 0
	produce := func(context.Context) ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	for i := 0; i < 3; i++ {
		got, err := m.GetOrCompute(ctx, "k", time.Hour, produce)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if string(got) != "payload" {
			t.Fatalf("unexpected value %q", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 producer call, got %d", calls)
	}
}

func TestMemory_TTLExpiry_Recomputes(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	calls := 0
	produce := func(context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	if _, err := m.GetOrCompute(ctx, "k", time.Hour, produce); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}

	// Still live one second before the deadline.
	now = now.Add(time.Hour - time.Second)
	if _, err := m.GetOrCompute(ctx, "k", time.Hour, produce); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cached hit, got %d producer calls", calls)
	}

	// Expired at the deadline.
	now = now.Add(2 * time.Second)
	if _, err := m.GetOrCompute(ctx, "k", time.Hour, produce); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected recompute after expiry, got %d producer calls", calls)
	}
}

func TestMemory_ProducerFailure_NotCached(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	calls := 0
	if _, err := m.GetOrCompute(ctx, "k", time.Hour, func(context.Context) ([]byte, error) {
		calls++
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected producer error, got %v", err)
	}

	// Next call must invoke the producer again and can succeed.
	got, err := m.GetOrCompute(ctx, "k", time.Hour, func(context.Context) ([]byte, error) {
		calls++
		return []byte("ok"), nil
	})
	if err != nil || string(got) != "ok" {
		t.Fatalf("expected recovery, got %q err=%v", got, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 producer calls, got %d", calls)
	}
}

func TestMemory_ConcurrentMisses_SingleProducerCall(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	produce := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("shared"), nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([][]byte, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.GetOrCompute(ctx, "k", time.Hour, produce)
		}(i)
	}

	// Give the goroutines a moment to pile onto the same flight.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 producer call, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil || string(results[i]) != "shared" {
			t.Fatalf("caller %d: value=%q err=%v", i, results[i], errs[i])
		}
	}
}

func TestMemory_DeleteAndClear(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	seed := func(key string) {
		if _, err := m.GetOrCompute(ctx, key, time.Hour, func(context.Context) ([]byte, error) {
			return []byte(key), nil
		}); err != nil {
			t.Fatalf("seed %q: %v", key, err)
		}
	}
	seed("a")
	seed("b")

	if !m.Delete(ctx, "a") {
		t.Fatalf("expected Delete to report existing entry")
	}
	if m.Delete(ctx, "a") {
		t.Fatalf("expected Delete to report missing entry")
	}

	if !m.Clear(ctx) {
		t.Fatalf("Clear should succeed")
	}
	calls := 0
	if _, err := m.GetOrCompute(ctx, "b", time.Hour, func(context.Context) ([]byte, error) {
		calls++
		return []byte("b2"), nil
	}); err != nil {
		t.Fatalf("GetOrCompute after Clear: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected recompute after Clear")
	}
}

func TestKey_DeterministicShapes(t *testing.T) {
	if got := Key("random", "2025-07-14-10"); got != "character_random_2025-07-14-10" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("search", "levi"); got != "character_search_levi" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("all"); got != "character_all" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("byid", 42); got != "character_byid_42" {
		t.Fatalf("unexpected key %q", got)
	}

	// Structured params hash identically for identical content.
	type filter struct{ Species []string }
	a := Key("list", filter{Species: []string{"Human"}})
	b := Key("list", filter{Species: []string{"Human"}})
	c := Key("list", filter{Species: []string{"Titan"}})
	if a != b {
		t.Fatalf("identical params must derive identical keys: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("different params must derive different keys")
	}

	// Nil params are skipped.
	if got := Key("daily", nil, "2025-07-14"); got != "character_daily_2025-07-14" {
		t.Fatalf("unexpected key %q", got)
	}
}
