package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex()
	var inFlight atomic.Int32
	var maxInFlight atomic.Int32

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := m.Lock(Key("league-1", "member-1"))
			defer unlock()

			current := inFlight.Add(1)
			for {
				prev := maxInFlight.Load()
				if current <= prev || maxInFlight.CompareAndSwap(prev, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Fatalf("same key ran concurrently: max in flight got=%d want=1", got)
	}
	if got := m.Len(); got != 0 {
		t.Fatalf("idle keys must be released: got=%d want=0", got)
	}
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex()
	unlockA := m.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on a different key should not block")
	}
}

func TestKeyedMutex_TryLock(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex()
	unlock, ok := m.TryLock("scoring|league-1")
	if !ok {
		t.Fatalf("expected first TryLock to succeed")
	}

	if _, ok := m.TryLock("scoring|league-1"); ok {
		t.Fatalf("expected second TryLock on held key to fail")
	}

	unlock()
	unlock()

	again, ok := m.TryLock("scoring|league-1")
	if !ok {
		t.Fatalf("expected TryLock after unlock to succeed")
	}
	again()
	if got := m.Len(); got != 0 {
		t.Fatalf("unexpected held keys: got=%d want=0", got)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	if got := Key("a", "b", "c"); got != "a|b|c" {
		t.Fatalf("unexpected key: got=%q want=%q", got, "a|b|c")
	}
	if got := Key(); got != "" {
		t.Fatalf("unexpected empty key: got=%q", got)
	}
}
