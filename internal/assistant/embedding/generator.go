// Package embedding produces query and tool vectors, caching repeated texts
// so identical queries never pay for a second embedding round trip.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

// ErrEmptyText is returned when the caller asks to embed blank input.
var ErrEmptyText = errors.New("cannot embed empty text")

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// Generator wraps an embedding provider with a bounded in-process cache.
// Entries are keyed by content hash and evicted in insertion order once the
// cache is full.
type Generator struct {
	provider model.EmbeddingProvider
	capacity int

	mu     sync.Mutex
	cache  map[string][]float32
	order  []string
	hits   uint64
	misses uint64
}

var _ model.EmbeddingProvider = (*Generator)(nil)

// NewGenerator builds a caching generator over the given provider.
// A capacity below 1 falls back to a single-entry cache.
func NewGenerator(provider model.EmbeddingProvider, capacity int) *Generator {
	if capacity < 1 {
		capacity = 1
	}
	return &Generator{
		provider: provider,
		capacity: capacity,
		cache:    make(map[string][]float32, capacity),
	}
}

// Generate returns the embedding for text, serving repeated texts from the
// cache. The same text always yields the same vector within a process.
func (g *Generator) Generate(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	key := cacheKey(text)

	g.mu.Lock()
	if vec, ok := g.cache[key]; ok {
		g.hits++
		g.mu.Unlock()
		return cloneVector(vec), nil
	}
	g.misses++
	g.mu.Unlock()

	vec, err := g.provider.Generate(ctx, text)
	if err != nil {
		return nil, err
	}
	if want := g.provider.Dimension(); len(vec) != want {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), want)
	}

	g.mu.Lock()
	g.store(key, vec)
	g.mu.Unlock()

	return cloneVector(vec), nil
}

// Dimension reports the provider's configured vector width.
func (g *Generator) Dimension() int {
	return g.provider.Dimension()
}

// Stats returns a snapshot of the cache counters.
func (g *Generator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{Hits: g.hits, Misses: g.misses, Size: len(g.cache)}
}

// store must be called with the mutex held. A concurrent miss for the same
// text may land twice; the second write is a no-op for the eviction queue.
func (g *Generator) store(key string, vec []float32) {
	if _, ok := g.cache[key]; ok {
		g.cache[key] = cloneVector(vec)
		return
	}
	for len(g.cache) >= g.capacity {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.cache, oldest)
	}
	g.cache[key] = cloneVector(vec)
	g.order = append(g.order, key)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
