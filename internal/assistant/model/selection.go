package model

// CacheStatus tracks where a query ended up in the semantic cache lifecycle:
// BYPASS for write operations that never touch the cache, HIT when a stored
// answer short-circuited the flow, MISS when the full pipeline ran.
type CacheStatus string

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
)

// Panel selects which processing path serves a query.
const (
	PanelBaseline  = "baseline"
	PanelOptimized = "optimized"
)

// QueryRequest is the body of POST /api/query. ConversationID is optional;
// when present the query and response are appended to conversation memory.
type QueryRequest struct {
	Query          string `json:"query" binding:"required"`
	Panel          string `json:"panel" binding:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// SelectionResult is the outcome of one tool-selection query, including the
// latency/token/cost metrics the demo compares between panels.
type SelectionResult struct {
	Response         string      `json:"response"`
	Latency          float64     `json:"latency"`
	Tokens           int         `json:"tokens"`
	InputTokens      int         `json:"input_tokens,omitempty"`
	OutputTokens     int         `json:"output_tokens,omitempty"`
	Cost             float64     `json:"cost"`
	ToolsCount       int         `json:"tools_count"`
	CacheStatus      CacheStatus `json:"cache_status,omitempty"`
	VectorSearchTime int         `json:"vector_search_time,omitempty"`
	Similarity       int         `json:"similarity,omitempty"`
	OriginalQuery    string      `json:"original_query,omitempty"`
	ToolsUsed        []string    `json:"tools_used"`
	FilteredTools    []string    `json:"filtered_tools,omitempty"`
	SelectionError   string      `json:"error,omitempty"`
}
