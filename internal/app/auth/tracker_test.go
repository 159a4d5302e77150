package auth

import (
	"sync"
	"testing"
	"time"
)

func newFakeClockTracker() (*MemoryTracker, *time.Time) {
	tracker := NewMemoryTracker(DefaultLockoutWindow, DefaultLockoutThreshold)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }
	return tracker, &now
}

func TestLockoutAfterThreshold(t *testing.T) {
	tracker, _ := newFakeClockTracker()

	for i := 1; i <= 4; i++ {
		if got := tracker.RecordFailure("alice@example.com"); got != i {
			t.Fatalf("RecordFailure #%d = %d", i, got)
		}
		if tracker.IsLockedOut("alice@example.com") {
			t.Fatalf("locked out after %d failures", i)
		}
	}

	tracker.RecordFailure("alice@example.com")
	if !tracker.IsLockedOut("alice@example.com") {
		t.Fatal("not locked out after 5 failures")
	}
}

func TestLockoutExpiresWithWindow(t *testing.T) {
	tracker, now := newFakeClockTracker()

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("bob@example.com")
	}
	if !tracker.IsLockedOut("bob@example.com") {
		t.Fatal("expected lockout")
	}

	// One second past the window every attempt has aged out.
	*now = now.Add(DefaultLockoutWindow + time.Second)
	if tracker.IsLockedOut("bob@example.com") {
		t.Fatal("still locked out after window elapsed")
	}
}

func TestWindowSlidesPerAttempt(t *testing.T) {
	tracker, now := newFakeClockTracker()

	// Three old failures, then two more much later: the old ones age out
	// before the count can reach the threshold.
	for i := 0; i < 3; i++ {
		tracker.RecordFailure("carol@example.com")
	}
	*now = now.Add(DefaultLockoutWindow - time.Second)
	if got := tracker.RecordFailure("carol@example.com"); got != 4 {
		t.Fatalf("count = %d, want 4", got)
	}
	*now = now.Add(2 * time.Second)
	if got := tracker.RecordFailure("carol@example.com"); got != 2 {
		t.Fatalf("count = %d, want 2 after first three aged out", got)
	}
	if tracker.IsLockedOut("carol@example.com") {
		t.Fatal("unexpected lockout")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	tracker, _ := newFakeClockTracker()

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("locked@example.com")
	}
	if tracker.IsLockedOut("other@example.com") {
		t.Fatal("lockout leaked across keys")
	}
}

func TestConcurrentRecordFailure(t *testing.T) {
	tracker := NewMemoryTracker(DefaultLockoutWindow, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordFailure("shared-key")
		}()
	}
	wg.Wait()

	if got := tracker.RecordFailure("shared-key"); got != 101 {
		t.Fatalf("count = %d, want 101", got)
	}
}
