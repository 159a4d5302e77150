package auth

import (
	"sync"
	"time"
)

const (
	DefaultLockoutWindow    = 600 * time.Second
	DefaultLockoutThreshold = 5
)

// Tracker counts failed login attempts per lockout key (normalized email or
// origin address). The backing store is swappable; a multi-instance
// deployment would put a shared counter behind this interface.
type Tracker interface {
	// RecordFailure appends a failure to the key's window and returns the
	// resulting count.
	RecordFailure(key string) int
	IsLockedOut(key string) bool
}

// MemoryTracker keeps attempt timestamps in process memory within a sliding
// window. State is ephemeral and resets on restart. Entries older than the
// window are pruned lazily on access.
type MemoryTracker struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	window    time.Duration
	threshold int
	now       func() time.Time
}

func NewMemoryTracker(window time.Duration, threshold int) *MemoryTracker {
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	return &MemoryTracker{
		attempts:  make(map[string][]time.Time),
		window:    window,
		threshold: threshold,
		now:       time.Now,
	}
}

func (t *MemoryTracker) RecordFailure(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.prune(key)
	kept = append(kept, t.now())
	t.attempts[key] = kept
	return len(kept)
}

func (t *MemoryTracker) IsLockedOut(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.prune(key)
	if len(kept) == 0 {
		delete(t.attempts, key)
	} else {
		t.attempts[key] = kept
	}
	return len(kept) >= t.threshold
}

// prune drops attempts that have aged out of the window. Caller holds mu.
func (t *MemoryTracker) prune(key string) []time.Time {
	cutoff := t.now().Add(-t.window)
	var kept []time.Time
	for _, at := range t.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}

var _ Tracker = (*MemoryTracker)(nil)
