package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, ttl time.Duration) (*RedisConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisConversationRepository(client, ttl), mr
}

func TestAddMessageAndLoadHistory(t *testing.T) {
	r, _ := newTestRepo(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("What tickets are open?")))
	require.NoError(t, r.AddMessage(ctx, "c1", schema.AssistantMessage("OPTIMIZED: 1 of 3 tools selected", nil)))

	hist, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", hist.ConversationID)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, schema.User, hist.Messages[0].Role)
	assert.Equal(t, "What tickets are open?", hist.Messages[0].Content)
	assert.Equal(t, schema.Assistant, hist.Messages[1].Role)

	n, err := r.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoadHistoryEmptyConversation(t *testing.T) {
	r, _ := newTestRepo(t, time.Minute)

	hist, err := r.LoadHistory(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
}

func TestAddMessageSetsTTL(t *testing.T) {
	r, mr := newTestRepo(t, 15*time.Minute)
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("hello")))
	assert.Equal(t, 15*time.Minute, mr.TTL("conversation:c1:messages"))
}

func TestAddMessageTrimsHistory(t *testing.T) {
	r, _ := newTestRepo(t, 0)
	ctx := context.Background()

	for i := 0; i < maxHistoryMessages+10; i++ {
		require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage(fmt.Sprintf("msg %d", i))))
	}

	hist, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, hist.Messages, maxHistoryMessages)
	assert.Equal(t, "msg 10", hist.Messages[0].Content)
}

func TestClearHistory(t *testing.T) {
	r, _ := newTestRepo(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("hello")))
	require.NoError(t, r.ClearHistory(ctx, "c1"))

	n, err := r.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
