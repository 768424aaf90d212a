// Package vectorstore manages the Redis vector indexes backing tool search
// and the semantic cache. Both indexes are HNSW over FLOAT32 vectors with
// cosine distance; similarity reported to callers is 1 - distance.
package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"

	"github.com/mcp-tool-select-poc/server/internal/assistant/catalog"
	"github.com/mcp-tool-select-poc/server/internal/assistant/embedding"
	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	logx "github.com/mcp-tool-select-poc/server/pkg/logger"
)

const (
	ToolIndexName  = "mcp_tools"
	ToolKeyPrefix  = "tool:"
	CacheIndexName = "semantic_cache"
	CacheKeyPrefix = "supportAssistant:cache:"

	distanceField = "vector_distance"
)

// Stats summarizes what is currently stored in Redis.
type Stats struct {
	ToolDocs  int64 `json:"tool_docs"`
	CacheDocs int64 `json:"cache_docs"`
}

// RedisStore implements tool search and the semantic cache index over a
// single Redis connection. Vector searches are bounded by a weighted
// semaphore so a burst of queries cannot pile unbounded KNN work onto Redis.
type RedisStore struct {
	client   redis.Cmdable
	embedder model.EmbeddingProvider
	sem      *semaphore.Weighted
}

var (
	_ model.ToolSearcher = (*RedisStore)(nil)
	_ model.CacheIndex   = (*RedisStore)(nil)
)

// NewRedisStore builds a store over client. A nil client yields a store in
// degraded mode whose every method reports ErrStoreUnavailable.
func NewRedisStore(client redis.Cmdable, embedder model.EmbeddingProvider, maxConcurrent int64) *RedisStore {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &RedisStore{
		client:   client,
		embedder: embedder,
		sem:      semaphore.NewWeighted(maxConcurrent),
	}
}

// Available reports whether the store has a live Redis connection.
func (s *RedisStore) Available() bool {
	return s.client != nil
}

// Client exposes the underlying connection for repositories that share it.
func (s *RedisStore) Client() redis.Cmdable {
	return s.client
}

// EnsureIndexes creates the tool and cache indexes if they do not exist.
// Existing indexes are left untouched.
func (s *RedisStore) EnsureIndexes(ctx context.Context) error {
	if s.client == nil {
		return model.ErrStoreUnavailable
	}
	if err := s.ensureIndex(ctx, ToolIndexName, ToolKeyPrefix, toolSchema(s.embedder.Dimension())); err != nil {
		return err
	}
	return s.ensureIndex(ctx, CacheIndexName, CacheKeyPrefix, cacheSchema(s.embedder.Dimension()))
}

func (s *RedisStore) ensureIndex(ctx context.Context, name, prefix string, schema []*redis.FieldSchema) error {
	log := logx.With("vectorstore")
	if _, err := s.client.FTInfo(ctx, name).Result(); err == nil {
		log.Debug().Str("index", name).Msg("index already exists")
		return nil
	}

	opts := &redis.FTCreateOptions{
		OnHash: true,
		Prefix: []interface{}{prefix},
	}
	if err := s.client.FTCreate(ctx, name, opts, schema...).Err(); err != nil {
		// A concurrent starter may have won the race.
		if strings.Contains(strings.ToLower(err.Error()), "index already exists") {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	log.Info().Str("index", name).Str("prefix", prefix).Msg("created vector index")
	return nil
}

func toolSchema(dim int) []*redis.FieldSchema {
	return []*redis.FieldSchema{
		{FieldName: "name", FieldType: redis.SearchFieldTypeText},
		{FieldName: "description", FieldType: redis.SearchFieldTypeText},
		{FieldName: "server", FieldType: redis.SearchFieldTypeText},
		{FieldName: "type", FieldType: redis.SearchFieldTypeText},
		vectorField(dim),
	}
}

func cacheSchema(dim int) []*redis.FieldSchema {
	return []*redis.FieldSchema{
		{FieldName: "query", FieldType: redis.SearchFieldTypeText},
		{FieldName: "response", FieldType: redis.SearchFieldTypeText},
		vectorField(dim),
	}
}

func vectorField(dim int) *redis.FieldSchema {
	return &redis.FieldSchema{
		FieldName: "embedding",
		FieldType: redis.SearchFieldTypeVector,
		VectorArgs: &redis.FTVectorArgs{
			HNSWOptions: &redis.FTHNSWOptions{
				Type:           "FLOAT32",
				Dim:            dim,
				DistanceMetric: "COSINE",
			},
		},
	}
}

// IndexTools embeds and stores every tool definition. When force is false
// and the stored document count already matches, indexing is skipped so
// restarts reuse the existing vectors.
func (s *RedisStore) IndexTools(ctx context.Context, defs []model.ToolDefinition, force bool) (int, error) {
	if s.client == nil {
		return 0, model.ErrStoreUnavailable
	}

	log := logx.With("vectorstore")
	if !force {
		existing, err := s.countKeys(ctx, ToolKeyPrefix+"*")
		if err != nil {
			return 0, err
		}
		if existing == int64(len(defs)) {
			log.Info().Int64("count", existing).Msg("tool index already populated, skipping")
			return 0, nil
		}
	}

	stored := 0
	for _, def := range defs {
		vec, err := s.embedder.Generate(ctx, catalog.EmbeddingText(def))
		if err != nil {
			return stored, fmt.Errorf("embed tool %s: %w", def.Name, err)
		}
		key := ToolKeyPrefix + def.Name
		fields := map[string]interface{}{
			"name":        def.Name,
			"description": def.Description,
			"server":      def.Server,
			"type":        string(def.Type),
			"embedding":   embedding.VectorToBytes(vec),
		}
		if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
			return stored, fmt.Errorf("store tool %s: %w", def.Name, err)
		}
		stored++
	}
	log.Info().Int("stored", stored).Msg("tool indexing complete")
	return stored, nil
}

// SearchTools returns the topK tools nearest to vector, ordered by
// descending similarity.
func (s *RedisStore) SearchTools(ctx context.Context, vector []float32, topK int) ([]model.ToolMatch, error) {
	if s.client == nil {
		return nil, model.ErrStoreUnavailable
	}
	if topK < 1 {
		topK = 1
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire search slot: %w", err)
	}
	defer s.sem.Release(1)

	res, err := s.knn(ctx, ToolIndexName, vector, topK,
		[]redis.FTSearchReturn{
			{FieldName: "name"},
			{FieldName: "description"},
			{FieldName: "server"},
			{FieldName: "type"},
			{FieldName: distanceField},
		})
	if err != nil {
		return nil, fmt.Errorf("tool vector search: %w", err)
	}

	matches := make([]model.ToolMatch, 0, len(res.Docs))
	for _, doc := range res.Docs {
		sim, err := similarityFromDoc(doc)
		if err != nil {
			return nil, err
		}
		matches = append(matches, model.ToolMatch{
			Name:        doc.Fields["name"],
			Description: doc.Fields["description"],
			Server:      doc.Fields["server"],
			Type:        model.ToolType(doc.Fields["type"]),
			Similarity:  sim,
		})
	}
	return matches, nil
}

// SearchCache returns the nearest cached query, or nil when the cache index
// is empty. The caller applies the similarity threshold.
func (s *RedisStore) SearchCache(ctx context.Context, vector []float32) (*model.CacheMatch, error) {
	if s.client == nil {
		return nil, model.ErrStoreUnavailable
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire search slot: %w", err)
	}
	defer s.sem.Release(1)

	res, err := s.knn(ctx, CacheIndexName, vector, 1,
		[]redis.FTSearchReturn{
			{FieldName: "query"},
			{FieldName: "response"},
			{FieldName: "tools_used"},
			{FieldName: "cached_at"},
			{FieldName: distanceField},
		})
	if err != nil {
		return nil, fmt.Errorf("cache vector search: %w", err)
	}
	if len(res.Docs) == 0 {
		return nil, nil
	}

	doc := res.Docs[0]
	sim, err := similarityFromDoc(doc)
	if err != nil {
		return nil, err
	}

	var toolsUsed []string
	if raw := doc.Fields["tools_used"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &toolsUsed); err != nil {
			log := logx.With("vectorstore")
			log.Warn().Err(err).Str("doc", doc.ID).Msg("malformed tools_used on cache entry")
		}
	}
	return &model.CacheMatch{
		Query:      doc.Fields["query"],
		Response:   doc.Fields["response"],
		ToolsUsed:  toolsUsed,
		CachedAt:   doc.Fields["cached_at"],
		Similarity: sim,
	}, nil
}

// StoreCacheEntry writes a completed query into the cache index. The key is
// derived from the query text, so re-answering the same query overwrites its
// entry instead of accumulating duplicates.
func (s *RedisStore) StoreCacheEntry(ctx context.Context, rec model.CachedQueryRecord, ttl time.Duration) error {
	if s.client == nil {
		return model.ErrStoreUnavailable
	}

	toolsUsed, err := json.Marshal(rec.ToolsUsed)
	if err != nil {
		return fmt.Errorf("encode tools_used: %w", err)
	}
	key := CacheEntryKey(rec.Query)
	fields := map[string]interface{}{
		"query":      rec.Query,
		"response":   rec.Response,
		"tools_used": toolsUsed,
		"cached_at":  rec.CachedAt.UTC().Format(time.RFC3339),
		"embedding":  embedding.VectorToBytes(rec.Vector),
	}
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	if ttl > 0 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("set cache entry ttl: %w", err)
		}
	}
	return nil
}

// ClearCache deletes every cache entry and returns how many were removed.
func (s *RedisStore) ClearCache(ctx context.Context) (int64, error) {
	if s.client == nil {
		return 0, model.ErrStoreUnavailable
	}
	var deleted int64
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, CacheKeyPrefix+"*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("delete cache keys: %w", err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// DropIndexes removes both indexes together with their documents. Used by
// the reindex path.
func (s *RedisStore) DropIndexes(ctx context.Context) error {
	if s.client == nil {
		return model.ErrStoreUnavailable
	}
	for _, name := range []string{ToolIndexName, CacheIndexName} {
		err := s.client.FTDropIndexWithArgs(ctx, name, &redis.FTDropIndexOptions{DeleteDocs: true}).Err()
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "unknown index") {
			return fmt.Errorf("drop index %s: %w", name, err)
		}
	}
	return nil
}

// Stats counts the documents under each prefix.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	if s.client == nil {
		return Stats{}, model.ErrStoreUnavailable
	}
	tools, err := s.countKeys(ctx, ToolKeyPrefix+"*")
	if err != nil {
		return Stats{}, err
	}
	cached, err := s.countKeys(ctx, CacheKeyPrefix+"*")
	if err != nil {
		return Stats{}, err
	}
	return Stats{ToolDocs: tools, CacheDocs: cached}, nil
}

func (s *RedisStore) countKeys(ctx context.Context, pattern string) (int64, error) {
	var count int64
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scan %s: %w", pattern, err)
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

func (s *RedisStore) knn(ctx context.Context, index string, vector []float32, k int, ret []redis.FTSearchReturn) (redis.FTSearchResult, error) {
	query := fmt.Sprintf("(*)=>[KNN %d @embedding $vec AS %s]", k, distanceField)
	opts := &redis.FTSearchOptions{
		Return:         ret,
		SortBy:         []redis.FTSearchSortBy{{FieldName: distanceField, Asc: true}},
		LimitOffset:    0,
		Limit:          k,
		Params:         map[string]interface{}{"vec": embedding.VectorToBytes(vector)},
		DialectVersion: 2,
	}
	return s.client.FTSearchWithArgs(ctx, index, query, opts).Result()
}

func similarityFromDoc(doc redis.Document) (float64, error) {
	raw, ok := doc.Fields[distanceField]
	if !ok {
		return 0, fmt.Errorf("document %s missing %s", doc.ID, distanceField)
	}
	distance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("document %s: parse %s: %w", doc.ID, distanceField, err)
	}
	return 1 - distance, nil
}

// CacheEntryKey derives the Redis key for a cached query from its content.
func CacheEntryKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}
