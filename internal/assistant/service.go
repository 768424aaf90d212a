// Package assistant owns the service context: it wires the catalog, the
// embedding generator, the Redis vector store, the semantic cache and the
// LLM selector together, and tracks the runtime counters the demo surfaces.
package assistant

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/mcp-tool-select-poc/server/internal/assistant/catalog"
	"github.com/mcp-tool-select-poc/server/internal/assistant/embedding"
	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	"github.com/mcp-tool-select-poc/server/internal/assistant/repo"
	"github.com/mcp-tool-select-poc/server/internal/assistant/selector"
	"github.com/mcp-tool-select-poc/server/internal/assistant/semcache"
	"github.com/mcp-tool-select-poc/server/internal/assistant/vectorstore"
	errx "github.com/mcp-tool-select-poc/server/internal/core/error"
	logx "github.com/mcp-tool-select-poc/server/pkg/logger"
)

// queryRunner is the slice of the selector the service drives.
type queryRunner interface {
	Baseline(ctx context.Context, query string) (*model.SelectionResult, error)
	Optimized(ctx context.Context, query string) (*model.SelectionResult, error)
}

// Service is the assembled assistant. Redis being unreachable at startup
// degrades the service to uncached, unfiltered selection instead of failing;
// a broken embedder or LLM configuration is fatal.
type Service struct {
	cfg           Config
	catalog       *catalog.Catalog
	embedder      *embedding.Generator
	store         *vectorstore.RedisStore
	runner        queryRunner
	conversations model.ConversationRepository
	metrics       *metrics
	startedAt     time.Time
}

// New runs the startup sequence and returns the ready service.
func New(ctx context.Context, cfg Config) (*Service, error) {
	log := logx.With("assistant")

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load tool catalog: %w", err)
	}
	log.Info().Int("tools", cat.Len()).Msg("tool catalog loaded")

	provider, err := embedding.NewOpenAIProvider(ctx, cfg.OpenAI, cfg.Embedding)
	if err != nil {
		return nil, err
	}
	gen := embedding.NewGenerator(provider, cfg.Embedding.CacheSize)
	log.Info().Int("dimension", gen.Dimension()).Str("model", cfg.Embedding.Model).Msg("embedding generator ready")

	store := connectStore(ctx, cfg, gen, cat)

	gate, err := semcache.NewGate(gen, store, cfg.Cache)
	if err != nil {
		return nil, err
	}

	// A broken LLM config is not fatal; queries fail with 503 until fixed.
	var runner queryRunner
	if chatModel, err := selector.NewOpenAIChatModel(ctx, cfg.OpenAI); err != nil {
		log.Warn().Err(err).Msg("llm client init failed, selection queries disabled")
	} else {
		runner = selector.New(chatModel, cat, gen, store, gate, cfg.Selector.TopK, model.ResolvePricing(cfg.OpenAI.Model))
	}

	var conversations model.ConversationRepository
	if store.Available() {
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse conversation ttl %q: %w", cfg.Conversation.TTL, err)
		}
		conversations = repo.NewRedisConversationRepository(store.Client(), ttl)
	}

	log.Info().Bool("redis", store.Available()).Msg("assistant service ready")
	return &Service{
		cfg:           cfg,
		catalog:       cat,
		embedder:      gen,
		store:         store,
		runner:        runner,
		conversations: conversations,
		metrics:       &metrics{},
		startedAt:     time.Now(),
	}, nil
}

// connectStore dials Redis and prepares the vector indexes. Any failure
// leaves the store in degraded mode.
func connectStore(ctx context.Context, cfg Config, gen *embedding.Generator, cat *catalog.Catalog) *vectorstore.RedisStore {
	log := logx.With("assistant")

	client, err := cfg.Redis.New()
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache and pre-filtering")
		return vectorstore.NewRedisStore(nil, gen, int64(cfg.Search.MaxConcurrent))
	}

	store := vectorstore.NewRedisStore(client, gen, int64(cfg.Search.MaxConcurrent))
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("vector index setup failed, running degraded")
		return vectorstore.NewRedisStore(nil, gen, int64(cfg.Search.MaxConcurrent))
	}
	if _, err := store.IndexTools(ctx, cat.All(), false); err != nil {
		// Selection still works from the full catalog when search fails.
		log.Warn().Err(err).Msg("tool indexing failed")
	}
	return store
}

// Process answers one query on the requested panel and records the outcome
// in the runtime counters and, when asked, in conversation memory.
func (s *Service) Process(ctx context.Context, req model.QueryRequest) (*model.SelectionResult, error) {
	if s.runner == nil {
		return nil, errx.New(nil, http.StatusServiceUnavailable, "llm service unavailable")
	}

	var result *model.SelectionResult
	var err error

	switch req.Panel {
	case model.PanelBaseline:
		result, err = s.runner.Baseline(ctx, req.Query)
	case model.PanelOptimized:
		result, err = s.runner.Optimized(ctx, req.Query)
	default:
		return nil, errx.New(fmt.Errorf("unknown panel %q", req.Panel), http.StatusBadRequest, "panel must be baseline or optimized")
	}
	if err != nil {
		return nil, err
	}

	s.metrics.record(req.Panel, result)

	if req.ConversationID != "" && s.conversations != nil {
		s.recordConversation(ctx, req.ConversationID, req.Query, result.Response)
	}
	return result, nil
}

func (s *Service) recordConversation(ctx context.Context, conversationID, query, response string) {
	log := logx.With("assistant")
	if err := s.conversations.AddMessage(ctx, conversationID, schema.UserMessage(query)); err != nil {
		log.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to record user message")
		return
	}
	if err := s.conversations.AddMessage(ctx, conversationID, schema.AssistantMessage(response, nil)); err != nil {
		log.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to record assistant message")
	}
}

// Tools returns the full catalog grouped by server.
func (s *Service) Tools() map[string][]model.ToolDefinition {
	grouped := make(map[string][]model.ToolDefinition, len(s.catalog.Servers()))
	for _, def := range s.catalog.All() {
		grouped[def.Server] = append(grouped[def.Server], def)
	}
	return grouped
}

// ClearCache wipes every semantic cache entry.
func (s *Service) ClearCache(ctx context.Context) (int64, error) {
	return s.store.ClearCache(ctx)
}

// Reindex drops both vector indexes, clears cache entries and rebuilds the
// tool index from the catalog.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if err := s.store.DropIndexes(ctx); err != nil {
		return 0, err
	}
	if _, err := s.store.ClearCache(ctx); err != nil {
		return 0, err
	}
	if err := s.store.EnsureIndexes(ctx); err != nil {
		return 0, err
	}
	return s.store.IndexTools(ctx, s.catalog.All(), true)
}

// EmbeddingPreview shows the expanded text each tool is embedded under.
func (s *Service) EmbeddingPreview() map[string]string {
	preview := make(map[string]string, s.catalog.Len())
	for _, def := range s.catalog.All() {
		preview[def.Name] = catalog.EmbeddingText(def)
	}
	return preview
}

// History loads the recorded messages of a conversation.
func (s *Service) History(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	if s.conversations == nil {
		return nil, errx.New(model.ErrStoreUnavailable, http.StatusServiceUnavailable, "conversation memory unavailable")
	}
	return s.conversations.LoadHistory(ctx, conversationID)
}

// ClearHistory removes a conversation's recorded messages.
func (s *Service) ClearHistory(ctx context.Context, conversationID string) error {
	if s.conversations == nil {
		return errx.New(model.ErrStoreUnavailable, http.StatusServiceUnavailable, "conversation memory unavailable")
	}
	return s.conversations.ClearHistory(ctx, conversationID)
}

// Health reports liveness facts for the health endpoint.
type Health struct {
	Status         string `json:"status"`
	RedisConnected bool   `json:"redis_connected"`
	LLMReady       bool   `json:"llm_ready"`
	ToolsLoaded    int    `json:"tools_loaded"`
	CacheEnabled   bool   `json:"cache_enabled"`
	Model          string `json:"model"`
}

// Healthz summarizes the service state. The service is "ok" even when Redis
// is down because selection still works in degraded mode.
func (s *Service) Healthz() Health {
	return Health{
		Status:         "ok",
		RedisConnected: s.store.Available(),
		LLMReady:       s.runner != nil,
		ToolsLoaded:    s.catalog.Len(),
		CacheEnabled:   s.cfg.Cache.Enabled,
		Model:          s.cfg.OpenAI.Model,
	}
}

// PerformanceStats reports the counters accumulated since startup.
func (s *Service) PerformanceStats(ctx context.Context) PerformanceStats {
	stats := s.metrics.snapshot()
	stats.Config = ConfigSnapshot{
		Model:               s.cfg.OpenAI.Model,
		EmbeddingModel:      s.cfg.Embedding.Model,
		EmbeddingDimension:  s.cfg.Embedding.Dimension,
		CacheEnabled:        s.cfg.Cache.Enabled,
		SimilarityThreshold: s.cfg.Cache.SimilarityThreshold,
		CacheTTL:            s.cfg.Cache.TTL,
		TopK:                s.cfg.Selector.TopK,
	}
	stats.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
	stats.EmbeddingCache = s.embedder.Stats()
	stats.RedisConnected = s.store.Available()
	if s.store.Available() {
		if storeStats, err := s.store.Stats(ctx); err == nil {
			stats.Store = &storeStats
		}
	}
	return stats
}
