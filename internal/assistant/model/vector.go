package model

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable is returned by vector-store operations when Redis is
// not connected; callers degrade to no-cache / no-prefilter behaviour.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// EmbeddingProvider produces a fixed-dimension vector for non-empty text.
// Implementations must reject empty or whitespace-only input and propagate
// encoder failures to the caller.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// CachedQueryRecord is one semantic-cache entry: the original query, the
// generated response and the tools that produced it, plus the query vector
// used for nearest-neighbour lookup.
type CachedQueryRecord struct {
	Query     string
	Response  string
	ToolsUsed []string
	CachedAt  time.Time
	Vector    []float32
}

// CacheMatch is the best cached record found for a query vector.
type CacheMatch struct {
	Query      string
	Response   string
	ToolsUsed  []string
	CachedAt   string
	Similarity float64
}

// ToolSearcher performs approximate nearest-neighbour search over the
// indexed tool vectors.
type ToolSearcher interface {
	SearchTools(ctx context.Context, vector []float32, topK int) ([]ToolMatch, error)
}

// CacheIndex persists and searches cached query records.
type CacheIndex interface {
	SearchCache(ctx context.Context, vector []float32) (*CacheMatch, error)
	StoreCacheEntry(ctx context.Context, rec CachedQueryRecord, ttl time.Duration) error
}
