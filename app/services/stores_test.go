package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreChallenges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "a", 42, time.Minute))

	angle, ok, err := store.Take(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, angle)

	_, ok, err = store.Take(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "challenge must be consumed")

	require.NoError(t, store.Put(ctx, "expired", 10, -time.Second))
	_, ok, _ = store.Take(ctx, "expired")
	assert.False(t, ok)
}

func TestMemoryStoreRevocations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = store.IsRevoked(ctx, "jti-old")
	assert.False(t, revoked, "entries past their expiry are forgotten")

	revoked, _ = store.IsRevoked(ctx, "unknown")
	assert.False(t, revoked)
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	store.set("live", storeEntry{value: 1, expiresAt: time.Now().Add(time.Hour)})
	store.set("dead", storeEntry{value: 1, expiresAt: time.Now().Add(-time.Hour)})
	store.sweep(time.Now())

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Len(t, store.m, 1)
	assert.Contains(t, store.m, "live")
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	store.Close()
	assert.NotPanics(t, store.Close)
}
