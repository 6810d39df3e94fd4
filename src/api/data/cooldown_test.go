package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCooldownsWindow(t *testing.T) {
	c := NewMemoryCooldowns(50 * time.Millisecond)
	ctx := context.Background()

	remaining, ok, err := c.Touch(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, remaining)

	remaining, ok, err = c.Touch(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, remaining, time.Duration(0))

	active, err := c.Active(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.True(t, active)

	time.Sleep(60 * time.Millisecond)

	_, ok, err = c.Touch(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.True(t, ok, "window lapsed")
}

func TestMemoryCooldownsRelease(t *testing.T) {
	c := NewMemoryCooldowns(time.Minute)
	ctx := context.Background()

	_, ok, err := c.Touch(ctx, "alice", "p1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Release(ctx, "alice", "p1"))

	active, err := c.Active(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.False(t, active)

	_, ok, err = c.Touch(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.True(t, ok, "a released window does not block the next attempt")
}

func TestMemoryCooldownsAreScoped(t *testing.T) {
	c := NewMemoryCooldowns(time.Minute)
	ctx := context.Background()

	_, ok, err := c.Touch(ctx, "alice", "p1")
	require.NoError(t, err)
	require.True(t, ok)

	// A different member and a different proposal each get their own window.
	_, ok, err = c.Touch(ctx, "bob", "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = c.Touch(ctx, "alice", "p2")
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := c.Active(ctx, "bob", "p2")
	require.NoError(t, err)
	assert.False(t, active)
}
