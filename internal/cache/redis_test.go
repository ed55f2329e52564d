package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Total string `json:"total"`
	Days  int    `json:"days"`
}

func setupRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedis(context.Background(), mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRedis_SetGet(t *testing.T) {
	c, mr := setupRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "financial:2024-01-01:2024-01-31", report{Total: "45.00", Days: 31}))
	assert.True(t, mr.Exists(keyPrefix+"financial:2024-01-01:2024-01-31"))

	var got report
	ok, err := c.Get(ctx, "financial:2024-01-01:2024-01-31", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, report{Total: "45.00", Days: 31}, got)
}

func TestRedis_Miss(t *testing.T) {
	c, _ := setupRedis(t, time.Minute)

	var got report
	ok, err := c.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Expires(t *testing.T) {
	c, mr := setupRedis(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "traffic", report{Days: 1}))
	mr.FastForward(31 * time.Second)

	var got report
	ok, err := c.Get(ctx, "traffic", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), addr, time.Minute)
	assert.Error(t, err)
}
