package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	errx "github.com/mcp-tool-select-poc/server/internal/core/error"
	logx "github.com/mcp-tool-select-poc/server/pkg/logger"
)

func (s *Server) handleQuery(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query and panel are required"})
		return
	}

	result, err := s.svc.Process(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTools(c *gin.Context) {
	grouped := s.svc.Tools()
	total := 0
	for _, tools := range grouped {
		total += len(tools)
	}
	c.JSON(http.StatusOK, gin.H{"servers": grouped, "total": total})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Healthz())
}

func (s *Server) handlePerformanceStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.PerformanceStats(c.Request.Context()))
}

func (s *Server) handleClearCache(c *gin.Context) {
	deleted, err := s.svc.ClearCache(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) handleDebugEmbeddings(c *gin.Context) {
	texts := s.svc.EmbeddingPreview()
	c.JSON(http.StatusOK, gin.H{"embedding_texts": texts, "count": len(texts)})
}

func (s *Server) handleReindex(c *gin.Context) {
	indexed, err := s.svc.Reindex(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexed": indexed})
}

func (s *Server) handleConversationHistory(c *gin.Context) {
	hist, err := s.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": hist.ConversationID,
		"messages":        hist.Messages,
	})
}

func (s *Server) handleClearConversation(c *gin.Context) {
	if err := s.svc.ClearHistory(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// abortWithError maps service errors onto HTTP. AppError carries its own
// status and safe message; anything else becomes a 500. Redis being down
// mid-request surfaces as 503 rather than an internal error.
func abortWithError(c *gin.Context, err error) {
	log := logx.With("http")
	log.Error().Err(err).Str("request_id", c.GetString("request_id")).Str("path", c.Request.URL.Path).Msg("request failed")

	if errors.Is(err, model.ErrStoreUnavailable) {
		c.JSON(errx.Status(err, http.StatusServiceUnavailable), gin.H{"error": "redis unavailable"})
		return
	}

	status := errx.Status(err, http.StatusInternalServerError)
	message := errx.SystemErrorMessage
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.JSON(status, gin.H{"error": message})
}
