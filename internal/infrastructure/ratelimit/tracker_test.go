package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTrackerLimit(t *testing.T) {
	ctx := context.Background()
	tracker := NewInMemoryTracker(15 * time.Minute)
	key := "GET /creator/onboarding/status"

	limited, err := tracker.IsLimited(ctx, key, 3)
	require.NoError(t, err)
	assert.False(t, limited, "fresh key must not be limited")

	for i := 0; i < 2; i++ {
		require.NoError(t, tracker.RecordAttempt(ctx, key))
	}
	limited, err = tracker.IsLimited(ctx, key, 3)
	require.NoError(t, err)
	assert.False(t, limited, "below the threshold")

	require.NoError(t, tracker.RecordAttempt(ctx, key))
	limited, err = tracker.IsLimited(ctx, key, 3)
	require.NoError(t, err)
	assert.True(t, limited, "at the threshold")
}

func TestInMemoryTrackerKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	tracker := NewInMemoryTracker(15 * time.Minute)

	require.NoError(t, tracker.RecordAttempt(ctx, "POST /auth/signup"))

	limited, err := tracker.IsLimited(ctx, "POST /auth/request-otp", 1)
	require.NoError(t, err)
	assert.False(t, limited)

	limited, err = tracker.IsLimited(ctx, "POST /auth/signup", 1)
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestInMemoryTrackerWindowExpiry(t *testing.T) {
	ctx := context.Background()
	tracker := NewInMemoryTracker(15 * time.Minute)
	key := "POST /creator/onboarding/step1/basic-profile"

	base := time.Now()
	tracker.now = func() time.Time { return base }

	for i := 0; i < DefaultLimit; i++ {
		require.NoError(t, tracker.RecordAttempt(ctx, key))
	}
	limited, err := tracker.IsLimited(ctx, key, DefaultLimit)
	require.NoError(t, err)
	assert.True(t, limited)

	// One second short of expiry, everything is still counted.
	tracker.now = func() time.Time { return base.Add(15*time.Minute - time.Second) }
	limited, err = tracker.IsLimited(ctx, key, DefaultLimit)
	require.NoError(t, err)
	assert.True(t, limited)

	// Past the window the attempts age out and the key resets.
	tracker.now = func() time.Time { return base.Add(16 * time.Minute) }
	limited, err = tracker.IsLimited(ctx, key, DefaultLimit)
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestInMemoryTrackerDefaults(t *testing.T) {
	tracker := NewInMemoryTracker(0)
	assert.Equal(t, DefaultWindow, tracker.window)

	ctx := context.Background()
	require.NoError(t, tracker.RecordAttempt(ctx, "k"))

	// A non-positive limit falls back to the default threshold.
	limited, err := tracker.IsLimited(ctx, "k", 0)
	require.NoError(t, err)
	assert.False(t, limited)
}
