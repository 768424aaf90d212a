// Package server exposes the assistant over HTTP: the query endpoint the
// demo panels call, catalog and health introspection, cache management and
// conversation memory.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcp-tool-select-poc/server/internal/assistant"
	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	"github.com/mcp-tool-select-poc/server/internal/core"
)

// AssistantService is the surface of the assistant the HTTP layer uses.
type AssistantService interface {
	Process(ctx context.Context, req model.QueryRequest) (*model.SelectionResult, error)
	Tools() map[string][]model.ToolDefinition
	ClearCache(ctx context.Context) (int64, error)
	Reindex(ctx context.Context) (int, error)
	EmbeddingPreview() map[string]string
	History(ctx context.Context, conversationID string) (*model.ConversationHistory, error)
	ClearHistory(ctx context.Context, conversationID string) error
	Healthz() assistant.Health
	PerformanceStats(ctx context.Context) assistant.PerformanceStats
}

var _ AssistantService = (*assistant.Service)(nil)

// Server is the HTTP front of the assistant.
type Server struct {
	svc    AssistantService
	engine *gin.Engine
}

// New builds the router with its middleware and routes.
func New(svc AssistantService, env core.Environment) *Server {
	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger())

	s := &Server{svc: svc, engine: engine}
	s.routes(engine)
	return s
}

func (s *Server) routes(engine *gin.Engine) {
	api := engine.Group("/api")
	{
		api.POST("/query", s.handleQuery)
		api.GET("/tools", s.handleTools)
		api.GET("/health", s.handleHealth)
		api.GET("/performance/stats", s.handlePerformanceStats)
		api.DELETE("/cache", s.handleClearCache)
		api.GET("/conversations/:id", s.handleConversationHistory)
		api.DELETE("/conversations/:id", s.handleClearConversation)

		debug := api.Group("/debug")
		{
			debug.GET("/embeddings", s.handleDebugEmbeddings)
			debug.POST("/reindex", s.handleReindex)
		}
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
