package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestHistoryEmptySession(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewHistoryRepository(client, 5)

	history, err := repo.GetHistory(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryKeepsLastInteractions(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewHistoryRepository(client, 2)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.AppendInteraction(ctx, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	history, err := repo.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "q2", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "a2", history[1].Content)
	assert.Equal(t, "a3", history[3].Content)

	assert.True(t, mr.TTL(historyKey("s1")) > 0)
}

func TestHistorySessionsAreIsolated(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewHistoryRepository(client, 5)
	ctx := context.Background()

	require.NoError(t, repo.AppendInteraction(ctx, "a", "hi", "hello"))

	history, err := repo.GetHistory(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, history)
}
