package selector

import (
	"context"
	"fmt"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

// ChatModel is the slice of the chat client the selector needs. Kept narrow
// so tests can substitute a scripted model.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// NewOpenAIChatModel builds the chat client used for tool selection.
func NewOpenAIChatModel(ctx context.Context, cfg model.OpenAIConfig) (ChatModel, error) {
	maxTokens := cfg.MaxTokens
	temperature := cfg.Temperature
	cm, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return cm, nil
}
