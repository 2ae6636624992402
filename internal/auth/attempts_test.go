package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptTrackerAllowsFirstAttempt(t *testing.T) {
	tracker := NewAttemptTracker(5, 15*time.Minute)

	check := tracker.Check("test@example.com")
	assert.True(t, check.CanLogin)
	assert.Empty(t, check.Message)
}

func TestAttemptTrackerAllowsBelowThreshold(t *testing.T) {
	tracker := NewAttemptTracker(5, 15*time.Minute)

	for i := 0; i < 4; i++ {
		tracker.RecordFailure("test@example.com")
	}

	assert.True(t, tracker.Check("test@example.com").CanLogin)
}

func TestAttemptTrackerBlocksAtThreshold(t *testing.T) {
	tracker := NewAttemptTracker(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("test@example.com")
	}

	check := tracker.Check("test@example.com")
	require.False(t, check.CanLogin)
	assert.Contains(t, check.Message, "blocked")
	assert.Contains(t, check.Message, "15 minutes")
	assert.Greater(t, check.RetryAfter, time.Duration(0))
}

func TestAttemptTrackerCheckIsIdempotent(t *testing.T) {
	tracker := NewAttemptTracker(5, 15*time.Minute)

	tracker.RecordFailure("test@example.com")
	for i := 0; i < 10; i++ {
		assert.True(t, tracker.Check("test@example.com").CanLogin)
	}
	assert.Equal(t, 1, tracker.entries["test@example.com"].count)
}

func TestAttemptTrackerResetClearsBlock(t *testing.T) {
	tracker := NewAttemptTracker(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("test@example.com")
	}
	require.False(t, tracker.Check("test@example.com").CanLogin)

	tracker.Reset("test@example.com")
	assert.True(t, tracker.Check("test@example.com").CanLogin)
}

func TestAttemptTrackerBlockExpires(t *testing.T) {
	now := time.Now().UTC()
	tracker := NewAttemptTracker(5, 15*time.Minute)
	tracker.clock = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("test@example.com")
	}
	require.False(t, tracker.Check("test@example.com").CanLogin)

	now = now.Add(16 * time.Minute)
	assert.True(t, tracker.Check("test@example.com").CanLogin)

	// The expired entry was purged, so the next failure starts from zero.
	tracker.RecordFailure("test@example.com")
	assert.True(t, tracker.Check("test@example.com").CanLogin)
}

func TestAttemptTrackerRemainingMinutesRoundUp(t *testing.T) {
	now := time.Now().UTC()
	tracker := NewAttemptTracker(5, 15*time.Minute)
	tracker.clock = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("test@example.com")
	}

	now = now.Add(14*time.Minute + 30*time.Second)
	check := tracker.Check("test@example.com")
	require.False(t, check.CanLogin)
	assert.Contains(t, check.Message, "1 minutes")
}

func TestAttemptTrackerPurgeExpired(t *testing.T) {
	now := time.Now().UTC()
	tracker := NewAttemptTracker(5, 15*time.Minute)
	tracker.clock = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("blocked@example.com")
	}
	tracker.RecordFailure("counting@example.com")

	assert.Equal(t, 0, tracker.PurgeExpired())

	now = now.Add(16 * time.Minute)
	assert.Equal(t, 1, tracker.PurgeExpired())
	assert.True(t, tracker.Check("blocked@example.com").CanLogin)
	assert.Equal(t, 1, tracker.entries["counting@example.com"].count)
}

func TestAttemptTrackerConcurrentFailures(t *testing.T) {
	tracker := NewAttemptTracker(100, 15*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@example.com", n%5)
			tracker.RecordFailure(email)
			tracker.Check(email)
		}(i)
	}
	wg.Wait()

	total := 0
	for _, entry := range tracker.entries {
		total += entry.count
	}
	assert.Equal(t, 50, total)
}
