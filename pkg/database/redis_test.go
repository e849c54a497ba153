package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivabot-go/internal/config"
)

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	require.NoError(t, InitRedis(config.RedisConfig{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = RDB.Close() })

	require.NoError(t, RDB.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	err := InitRedis(config.RedisConfig{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
	_ = RDB.Close()
}
