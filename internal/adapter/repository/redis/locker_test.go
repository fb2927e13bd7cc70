package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLocker_RunsFunctionAndReleases(t *testing.T) {
	client, mr := newMiniredis(t)

	locker := NewLocker(client, LockOptions{}, zerolog.Nop())
	ctx := context.Background()

	called := false
	err := locker.WithLock(ctx, "posting:fuel_record:F-1", func(ctx context.Context) error {
		called = true
		if !mr.Exists("lock:posting:fuel_record:F-1") {
			t.Errorf("expected lock key to be held")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock failed: %v", err)
	}
	if !called {
		t.Fatalf("expected function to run")
	}
	if mr.Exists("lock:posting:fuel_record:F-1") {
		t.Fatalf("expected lock key to be released")
	}
}

func TestLocker_PassesThroughError(t *testing.T) {
	client, mr := newMiniredis(t)

	locker := NewLocker(client, LockOptions{}, zerolog.Nop())
	want := errors.New("boom")

	err := locker.WithLock(context.Background(), "k", func(context.Context) error { return want })
	if err != want {
		t.Fatalf("expected error to pass through unchanged, got %v", err)
	}
	if mr.Exists("lock:k") {
		t.Fatalf("expected lock released after error")
	}
}

func TestLocker_SerializesSameKey(t *testing.T) {
	client, _ := newMiniredis(t)

	locker := NewLocker(client, LockOptions{
		Expiry:     5 * time.Second,
		Tries:      200,
		RetryDelay: 5 * time.Millisecond,
	}, zerolog.Nop())

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "shared", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			if err != nil {
				t.Errorf("WithLock failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder at a time, saw %d", maxSeen)
	}
}

func TestLocker_FailsWhenHeld(t *testing.T) {
	client, mr := newMiniredis(t)

	if err := mr.Set("lock:busy", "someone-else"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	locker := NewLocker(client, LockOptions{Tries: 2, RetryDelay: time.Millisecond}, zerolog.Nop())

	called := false
	err := locker.WithLock(context.Background(), "busy", func(context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatalf("expected lock acquisition to fail")
	}
	if called {
		t.Fatalf("function must not run without the lock")
	}
}
