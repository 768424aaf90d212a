// Package selector runs the two tool-selection paths the demo compares: the
// baseline that sends the full catalog to the LLM, and the optimized path
// that consults the semantic cache and pre-filters candidates with vector
// search first.
package selector

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/mcp-tool-select-poc/server/internal/assistant/catalog"
	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	"github.com/mcp-tool-select-poc/server/internal/assistant/semcache"
	logx "github.com/mcp-tool-select-poc/server/pkg/logger"
)

const (
	parseErrorFallbackCount = 5
	emptySelectionFallback  = 3
	parseErrorMessage       = "Failed to parse LLM response"
)

// Selector orchestrates tool selection over the catalog, the vector store
// and the semantic cache.
type Selector struct {
	llm      ChatModel
	catalog  *catalog.Catalog
	embedder model.EmbeddingProvider
	searcher model.ToolSearcher
	gate     *semcache.Gate
	topK     int
	pricing  model.Pricing
}

// New wires a selector. topK bounds the optimized path's candidate set.
func New(llm ChatModel, cat *catalog.Catalog, embedder model.EmbeddingProvider, searcher model.ToolSearcher, gate *semcache.Gate, topK int, pricing model.Pricing) *Selector {
	if topK < 1 {
		topK = 1
	}
	return &Selector{
		llm:      llm,
		catalog:  cat,
		embedder: embedder,
		searcher: searcher,
		gate:     gate,
		topK:     topK,
		pricing:  pricing,
	}
}

// Baseline sends every catalog tool to the LLM. It never touches the cache,
// so its metrics show what selection costs without pre-filtering.
func (s *Selector) Baseline(ctx context.Context, query string) (*model.SelectionResult, error) {
	start := time.Now()
	all := s.catalog.All()
	log := logx.With("selector")
	log.Info().Int("tools", len(all)).Str("panel", model.PanelBaseline).Msg("selection start")

	sel, err := s.selectWithLLM(ctx, query, all)
	if err != nil {
		return nil, err
	}

	return &model.SelectionResult{
		Response:       selectionSummary(model.PanelBaseline, len(sel.Tools), len(all)),
		Latency:        round3(time.Since(start).Seconds()),
		Tokens:         sel.InputTokens + sel.OutputTokens,
		InputTokens:    sel.InputTokens,
		OutputTokens:   sel.OutputTokens,
		Cost:           round4(sel.Cost),
		ToolsCount:     len(all),
		CacheStatus:    model.CacheStatusBypass,
		ToolsUsed:      toolNames(sel.Tools),
		SelectionError: sel.Error,
	}, nil
}

// Optimized answers from the semantic cache when possible, otherwise
// pre-filters candidates with vector search before the LLM call and stores
// the fresh answer for next time.
func (s *Selector) Optimized(ctx context.Context, query string) (*model.SelectionResult, error) {
	start := time.Now()
	log := logx.With("selector")

	match, err := s.gate.Check(ctx, query)
	if err != nil {
		return nil, err
	}
	if match != nil {
		latency := time.Since(start).Seconds()
		log.Info().Float64("similarity", match.Similarity).Str("cached_query", match.Query).Msg("cache hit")
		return &model.SelectionResult{
			Response:         match.Response,
			Latency:          round3(latency),
			CacheStatus:      model.CacheStatusHit,
			VectorSearchTime: int(latency * 1000),
			Similarity:       int(match.Similarity * 100),
			OriginalQuery:    match.Query,
			ToolsUsed:        match.ToolsUsed,
		}, nil
	}

	vectorStart := time.Now()
	candidates, filtered, err := s.prefilter(ctx, query)
	if err != nil {
		return nil, err
	}
	vectorTime := int(time.Since(vectorStart).Milliseconds())
	log.Info().
		Int("candidates", len(candidates)).
		Int("catalog", s.catalog.Len()).
		Int("vector_time_ms", vectorTime).
		Msg("vector pre-filtering complete")

	sel, err := s.selectWithLLM(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	summary := selectionSummary(model.PanelOptimized, len(sel.Tools), len(candidates))

	cacheStatus := model.CacheStatusMiss
	if semcache.IsWriteOperation(query) {
		cacheStatus = model.CacheStatusBypass
	} else if err := s.gate.Store(ctx, query, summary, toolNames(sel.Tools)); err != nil {
		log.Warn().Err(err).Msg("response not cached")
	}

	return &model.SelectionResult{
		Response:         summary,
		Latency:          round3(time.Since(start).Seconds()),
		Tokens:           sel.InputTokens + sel.OutputTokens,
		InputTokens:      sel.InputTokens,
		OutputTokens:     sel.OutputTokens,
		Cost:             round4(sel.Cost),
		ToolsCount:       len(candidates),
		CacheStatus:      cacheStatus,
		VectorSearchTime: vectorTime,
		ToolsUsed:        toolNames(sel.Tools),
		FilteredTools:    filtered,
		SelectionError:   sel.Error,
	}, nil
}

// prefilter narrows the catalog with vector search. A failed search degrades
// to the full catalog so selection still works without Redis; a failed
// embedding is returned because nothing downstream can run without it.
func (s *Selector) prefilter(ctx context.Context, query string) ([]model.ToolDefinition, []string, error) {
	vec, err := s.embedder.Generate(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	log := logx.With("selector")
	matches, err := s.searcher.SearchTools(ctx, vec, s.topK)
	if err != nil {
		log.Warn().Err(err).Msg("vector search failed, using full catalog")
		return s.catalog.All(), nil, nil
	}

	candidates := make([]model.ToolDefinition, 0, len(matches))
	filtered := make([]string, 0, len(matches))
	for _, m := range matches {
		def, ok := s.catalog.Lookup(m.Name)
		if !ok {
			log.Warn().Str("tool", m.Name).Msg("indexed tool missing from catalog")
			continue
		}
		candidates = append(candidates, def)
		filtered = append(filtered, m.Name)
	}
	if len(candidates) == 0 {
		return s.catalog.All(), nil, nil
	}
	return candidates, filtered, nil
}

type llmSelection struct {
	Tools        []model.ToolDefinition
	InputTokens  int
	OutputTokens int
	Cost         float64
	Error        string
}

func (s *Selector) selectWithLLM(ctx context.Context, query string, available []model.ToolDefinition) (*llmSelection, error) {
	prompt := renderSelectPrompt(query, formatToolsContext(available))

	msg, err := s.llm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(msg.Content)

	inputTokens := model.EstimateTokens(prompt)
	outputTokens := model.EstimateTokens(raw)
	cost := model.CostFromTokens(inputTokens, outputTokens, s.pricing)
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		usage := msg.ResponseMeta.Usage
		inputTokens = usage.PromptTokens
		outputTokens = usage.CompletionTokens
		_, _, cost = model.ComputeCost(usage, s.pricing)
	}
	sel := &llmSelection{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         cost,
	}

	log := logx.With("selector")
	names, err := parseToolSelection(raw)
	if err != nil {
		log.Error().Err(err).Str("response", truncate(raw, 200)).Msg("unparseable selection response")
		sel.Tools = firstN(available, parseErrorFallbackCount)
		sel.Error = parseErrorMessage
		return sel, nil
	}

	for _, name := range names {
		for _, def := range available {
			if def.Name == name {
				sel.Tools = append(sel.Tools, def)
				break
			}
		}
	}
	if len(sel.Tools) == 0 && len(available) > 0 {
		log.Warn().Int("fallback", emptySelectionFallback).Msg("no tools selected, using fallback")
		sel.Tools = firstN(available, emptySelectionFallback)
	}
	return sel, nil
}

func toolNames(tools []model.ToolDefinition) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}

func firstN(tools []model.ToolDefinition, n int) []model.ToolDefinition {
	if len(tools) < n {
		n = len(tools)
	}
	out := make([]model.ToolDefinition, n)
	copy(out, tools[:n])
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
