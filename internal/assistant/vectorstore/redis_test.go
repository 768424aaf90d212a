package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

type fixedProvider struct{ dim int }

func (f fixedProvider) Generate(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, f.dim), nil
}

func (f fixedProvider) Dimension() int { return f.dim }

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, fixedProvider{dim: 4}, 2), mr
}

func TestDegradedModeReturnsStoreUnavailable(t *testing.T) {
	s := NewRedisStore(nil, fixedProvider{dim: 4}, 2)
	ctx := context.Background()

	assert.False(t, s.Available())
	assert.ErrorIs(t, s.EnsureIndexes(ctx), model.ErrStoreUnavailable)

	_, err := s.SearchTools(ctx, []float32{0, 0, 0, 0}, 3)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = s.SearchCache(ctx, []float32{0, 0, 0, 0})
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	err = s.StoreCacheEntry(ctx, model.CachedQueryRecord{Query: "q"}, time.Minute)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = s.ClearCache(ctx)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = s.IndexTools(ctx, nil, false)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = s.Stats(ctx)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestStoreCacheEntry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	rec := model.CachedQueryRecord{
		Query:     "What tickets are open?",
		Response:  "There are 3 open tickets.",
		ToolsUsed: []string{"jira.search_issues"},
		CachedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Vector:    []float32{0.1, 0.2, 0.3, 0.4},
	}
	require.NoError(t, s.StoreCacheEntry(ctx, rec, time.Hour))

	key := CacheEntryKey(rec.Query)
	assert.Equal(t, rec.Query, mr.HGet(key, "query"))
	assert.Equal(t, rec.Response, mr.HGet(key, "response"))
	assert.Equal(t, `["jira.search_issues"]`, mr.HGet(key, "tools_used"))
	assert.Equal(t, "2025-06-01T12:00:00Z", mr.HGet(key, "cached_at"))

	ttl := mr.TTL(key)
	assert.Equal(t, time.Hour, ttl)
}

func TestStoreCacheEntryOverwritesSameQuery(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	rec := model.CachedQueryRecord{Query: "same query", Response: "first", Vector: []float32{1}}
	require.NoError(t, s.StoreCacheEntry(ctx, rec, 0))

	rec.Response = "second"
	require.NoError(t, s.StoreCacheEntry(ctx, rec, 0))

	keys := mr.Keys()
	assert.Len(t, keys, 1)
	assert.Equal(t, "second", mr.HGet(CacheEntryKey("same query"), "response"))
}

func TestClearCache(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c"} {
		require.NoError(t, s.StoreCacheEntry(ctx, model.CachedQueryRecord{Query: q, Vector: []float32{1}}, 0))
	}
	// A tool document must survive a cache clear.
	mr.HSet(ToolKeyPrefix+"jira.get_issue", "name", "jira.get_issue")

	deleted, err := s.ClearCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.CacheDocs)
	assert.Equal(t, int64(1), stats.ToolDocs)
}

func TestIndexToolsSkipsWhenPopulated(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	defs := []model.ToolDefinition{
		{Name: "jira.get_issue", Server: "jira", Type: model.ToolTypeRead},
		{Name: "jira.search_issues", Server: "jira", Type: model.ToolTypeRead},
	}
	for _, d := range defs {
		mr.HSet(ToolKeyPrefix+d.Name, "name", d.Name)
	}

	stored, err := s.IndexTools(ctx, defs, false)
	require.NoError(t, err)
	assert.Zero(t, stored, "matching document count must skip reindexing")
}

func TestIndexToolsForceRewrites(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	defs := []model.ToolDefinition{
		{Name: "jira.get_issue", Description: "fetch issue", Server: "jira", Type: model.ToolTypeRead},
	}
	stored, err := s.IndexTools(ctx, defs, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	key := ToolKeyPrefix + "jira.get_issue"
	assert.Equal(t, "jira.get_issue", mr.HGet(key, "name"))
	assert.Equal(t, "jira", mr.HGet(key, "server"))
	assert.Equal(t, "read", mr.HGet(key, "type"))
	assert.Len(t, mr.HGet(key, "embedding"), 16)
}

func TestCacheEntryKeyIsContentAddressed(t *testing.T) {
	assert.Equal(t, CacheEntryKey("q1"), CacheEntryKey("q1"))
	assert.NotEqual(t, CacheEntryKey("q1"), CacheEntryKey("q2"))
	assert.Contains(t, CacheEntryKey("q1"), CacheKeyPrefix)
}
