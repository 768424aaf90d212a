package assistant

import (
	"sync"

	"github.com/mcp-tool-select-poc/server/internal/assistant/embedding"
	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	"github.com/mcp-tool-select-poc/server/internal/assistant/vectorstore"
)

// ConfigSnapshot echoes the tuning knobs in effect, so the demo can show
// which thresholds produced the observed numbers.
type ConfigSnapshot struct {
	Model               string  `json:"model"`
	EmbeddingModel      string  `json:"embedding_model"`
	EmbeddingDimension  int     `json:"embedding_dimension"`
	CacheEnabled        bool    `json:"cache_enabled"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	CacheTTL            string  `json:"cache_ttl"`
	TopK                int     `json:"top_k"`
}

// PerformanceStats is the body of GET /api/performance/stats.
type PerformanceStats struct {
	Config           ConfigSnapshot     `json:"config"`
	UptimeSeconds    int64              `json:"uptime_seconds"`
	TotalQueries     int64              `json:"total_queries"`
	BaselineQueries  int64              `json:"baseline_queries"`
	OptimizedQueries int64              `json:"optimized_queries"`
	CacheHits        int64              `json:"cache_hits"`
	CacheMisses      int64              `json:"cache_misses"`
	CacheBypass      int64              `json:"cache_bypass"`
	CacheHitRate     float64            `json:"cache_hit_rate"`
	TotalTokens      int64              `json:"total_tokens"`
	TotalCost        float64            `json:"total_cost"`
	RedisConnected   bool               `json:"redis_connected"`
	EmbeddingCache   embedding.Stats    `json:"embedding_cache"`
	Store            *vectorstore.Stats `json:"store,omitempty"`
}

// metrics accumulates per-query counters behind a mutex. Queries are short
// and infrequent relative to the lock cost, so contention is not a concern.
type metrics struct {
	mu               sync.Mutex
	totalQueries     int64
	baselineQueries  int64
	optimizedQueries int64
	cacheHits        int64
	cacheMisses      int64
	cacheBypass      int64
	totalTokens      int64
	totalCost        float64
}

func (m *metrics) record(panel string, res *model.SelectionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries++
	switch panel {
	case model.PanelBaseline:
		m.baselineQueries++
	case model.PanelOptimized:
		m.optimizedQueries++
	}
	switch res.CacheStatus {
	case model.CacheStatusHit:
		m.cacheHits++
	case model.CacheStatusMiss:
		m.cacheMisses++
	case model.CacheStatusBypass:
		m.cacheBypass++
	}
	m.totalTokens += int64(res.Tokens)
	m.totalCost += res.Cost
}

func (m *metrics) snapshot() PerformanceStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := PerformanceStats{
		TotalQueries:     m.totalQueries,
		BaselineQueries:  m.baselineQueries,
		OptimizedQueries: m.optimizedQueries,
		CacheHits:        m.cacheHits,
		CacheMisses:      m.cacheMisses,
		CacheBypass:      m.cacheBypass,
		TotalTokens:      m.totalTokens,
		TotalCost:        m.totalCost,
	}
	if lookups := m.cacheHits + m.cacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(m.cacheHits) / float64(lookups)
	}
	return stats
}
