package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sg-semilla/semilla-auth/internal/config"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "semilla:role-permissions:7", Key(7))
}

func TestNop(t *testing.T) {
	ctx := context.Background()

	var c PermissionCache = Nop{}

	require.NoError(t, c.Set(ctx, 1, []string{"users.read"}))

	codes, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, codes)
	require.NoError(t, c.Invalidate(ctx, 1))
	require.NoError(t, c.InvalidateAll(ctx))
}

// TestRedis runs against a real server when SEMILLA_TEST_REDIS_ADDR is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("SEMILLA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SEMILLA_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()

	client, err := Connect(ctx, config.Redis{Addr: addr})
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	c := NewRedis(client, time.Minute)
	require.NoError(t, c.InvalidateAll(ctx))

	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, 1, []string{"users.read", "users.write"}))
	require.NoError(t, c.Set(ctx, 2, nil))

	codes, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"users.read", "users.write"}, codes)

	codes, ok, err = c.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, codes)

	require.NoError(t, c.Invalidate(ctx, 1))

	_, ok, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.InvalidateAll(ctx))

	_, ok, err = c.Get(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnectFailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, config.Redis{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
