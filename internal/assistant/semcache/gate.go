package semcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	logx "github.com/mcp-tool-select-poc/server/pkg/logger"
)

// Gate answers queries from the semantic cache when a sufficiently similar
// query was answered before, and records fresh answers for future lookups.
type Gate struct {
	embedder  model.EmbeddingProvider
	index     model.CacheIndex
	enabled   bool
	threshold float64
	ttl       time.Duration
}

// NewGate builds the cache gate from its config. The TTL string must be a
// valid duration such as "1h".
func NewGate(embedder model.EmbeddingProvider, index model.CacheIndex, cfg model.CacheConfig) (*Gate, error) {
	ttl, err := time.ParseDuration(cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("parse cache ttl %q: %w", cfg.TTL, err)
	}
	return &Gate{
		embedder:  embedder,
		index:     index,
		enabled:   cfg.Enabled,
		threshold: cfg.SimilarityThreshold,
		ttl:       ttl,
	}, nil
}

// Enabled reports whether the gate is active.
func (g *Gate) Enabled() bool { return g.enabled }

// Threshold returns the configured similarity cutoff.
func (g *Gate) Threshold() float64 { return g.threshold }

// Check looks a query up in the cache. A nil match means miss. Cache
// backend failures degrade to a miss; an embedding failure is returned
// because the same embedder is needed further down the pipeline.
func (g *Gate) Check(ctx context.Context, query string) (*model.CacheMatch, error) {
	log := logx.With("semcache")
	if !g.enabled {
		return nil, nil
	}
	if !IsInformationRequest(query) {
		log.Debug().Str("query", query).Msg("not an information request, skipping cache check")
		return nil, nil
	}

	vec, err := g.embedder.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cache lookup embedding: %w", err)
	}

	match, err := g.index.SearchCache(ctx, vec)
	if err != nil {
		if errors.Is(err, model.ErrStoreUnavailable) {
			log.Debug().Msg("cache index unavailable")
		} else {
			log.Error().Err(err).Msg("cache lookup failed")
		}
		return nil, nil
	}
	if match == nil {
		log.Info().Msg("cache miss: no cached queries")
		return nil, nil
	}

	log.Info().
		Float64("similarity", match.Similarity).
		Float64("threshold", g.threshold).
		Str("cached_query", match.Query).
		Msg("cache similarity check")

	if match.Similarity < g.threshold {
		return nil, nil
	}
	return match, nil
}

// Store records a completed answer for future lookups. Non-information
// requests are never stored.
func (g *Gate) Store(ctx context.Context, query, response string, toolsUsed []string) error {
	if !g.enabled || !IsInformationRequest(query) {
		return nil
	}

	vec, err := g.embedder.Generate(ctx, query)
	if err != nil {
		return fmt.Errorf("cache store embedding: %w", err)
	}

	rec := model.CachedQueryRecord{
		Query:     query,
		Response:  response,
		ToolsUsed: toolsUsed,
		CachedAt:  time.Now(),
		Vector:    vec,
	}
	if err := g.index.StoreCacheEntry(ctx, rec, g.ttl); err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	log := logx.With("semcache")
	log.Info().Str("query", query).Msg("cached response")
	return nil
}
