package assistant

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
	"github.com/mcp-tool-select-poc/server/pkg/redis"
)

// Config aggregates every service setting, populated from the environment.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	Redis        redis.Config
	OpenAI       model.OpenAIConfig
	Embedding    model.EmbeddingConfig
	Cache        model.CacheConfig
	Selector     model.SelectorConfig
	Search       model.SearchConfig
	Conversation model.ConversationConfig
	Server       model.ServerConfig
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
