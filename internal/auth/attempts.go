package auth

import (
	"fmt"
	"sync"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 15 * time.Minute
)

type attemptEntry struct {
	count      int
	blockUntil time.Time
}

// AttemptTracker counts failed logins per email and blocks further attempts
// once the threshold is reached. State lives in process memory only; a
// restart clears all lockouts.
type AttemptTracker struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
	max     int
	window  time.Duration
	clock   func() time.Time
}

func NewAttemptTracker(maxAttempts int, window time.Duration) *AttemptTracker {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultLockWindow
	}

	return &AttemptTracker{
		entries: make(map[string]*attemptEntry),
		max:     maxAttempts,
		window:  window,
		clock:   time.Now,
	}
}

type LoginCheck struct {
	CanLogin   bool
	Message    string
	RetryAfter time.Duration
}

// Check reports whether the email may attempt a login. An expired block is
// purged as a side effect.
func (t *AttemptTracker) Check(email string) LoginCheck {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[email]
	if !ok {
		return LoginCheck{CanLogin: true}
	}

	if entry.count >= t.max {
		remaining := entry.blockUntil.Sub(t.clock())
		if remaining > 0 {
			minutes := int((remaining + time.Minute - 1) / time.Minute)
			return LoginCheck{
				Message:    fmt.Sprintf("account blocked, try again in %d minutes", minutes),
				RetryAfter: remaining,
			}
		}
		delete(t.entries, email)
	}

	return LoginCheck{CanLogin: true}
}

// RecordFailure increments the counter for the email. Reaching the
// threshold starts the block window.
func (t *AttemptTracker) RecordFailure(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[email]
	if !ok {
		entry = &attemptEntry{}
		t.entries[email] = entry
	}

	entry.count++
	if entry.count >= t.max {
		entry.blockUntil = t.clock().Add(t.window)
	}
}

// Reset removes the entry unconditionally. Used after a successful login.
func (t *AttemptTracker) Reset(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, email)
}

// PurgeExpired removes entries whose block window has elapsed and returns
// how many were dropped.
func (t *AttemptTracker) PurgeExpired() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	purged := 0
	for email, entry := range t.entries {
		if entry.count >= t.max && now.After(entry.blockUntil) {
			delete(t.entries, email)
			purged++
		}
	}

	return purged
}
