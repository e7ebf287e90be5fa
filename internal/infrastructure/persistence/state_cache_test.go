package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorly/creator-sdk/internal/domain/onboarding"
)

func openTestCache(t *testing.T) (*StateCache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	cache, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache, path
}

func TestTokenRoundTrip(t *testing.T) {
	cache, _ := openTestCache(t)

	_, ok, err := cache.LoadToken()
	require.NoError(t, err)
	assert.False(t, ok, "a fresh cache holds no token")

	require.NoError(t, cache.SaveToken("token-1"))
	token, ok, err := cache.LoadToken()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token-1", token)

	require.NoError(t, cache.SaveToken("token-2"))
	token, _, err = cache.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "token-2", token, "saving replaces the stored token")

	require.NoError(t, cache.ClearToken())
	_, ok, err = cache.LoadToken()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.ClearToken(), "clearing an empty cache is a no-op")
}

func TestSnapshotRoundTrip(t *testing.T) {
	cache, _ := openTestCache(t)

	_, ok, err := cache.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, ok)

	snap := onboarding.Snapshot{
		CurrentStep:        3,
		CompletedSteps:     []int{1, 2},
		ProgressPercentage: 33,
	}
	require.NoError(t, cache.SaveSnapshot(snap))

	loaded, ok, err := cache.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, loaded)

	snap.CurrentStep = 4
	snap.CompletedSteps = []int{1, 2, 3}
	snap.ProgressPercentage = 50
	require.NoError(t, cache.SaveSnapshot(snap))

	loaded, _, err = cache.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded, "saving replaces the stored snapshot")

	require.NoError(t, cache.ClearSnapshot())
	_, ok, err = cache.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	cache, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, cache.SaveToken("token-1"))
	require.NoError(t, cache.SaveSnapshot(onboarding.Snapshot{CurrentStep: 2, CompletedSteps: []int{1}, ProgressPercentage: 17}))
	require.NoError(t, cache.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	token, ok, err := reopened.LoadToken()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token-1", token)

	snap, ok, err := reopened.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, snap.CurrentStep)
}
