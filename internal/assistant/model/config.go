package model

// ================ Config ================
type OpenAIConfig struct {
	APIKey      string  `envconfig:"OPENAI_API_KEY" required:"true"`
	BaseURL     string  `envconfig:"OPENAI_BASE_URL"`
	Model       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	MaxTokens   int     `envconfig:"OPENAI_MAX_TOKENS" default:"500"`
	Temperature float32 `envconfig:"OPENAI_TEMPERATURE" default:"0.1"`
	Timeout     int     `envconfig:"OPENAI_TIMEOUT_SECONDS" default:"30"`
}

type EmbeddingConfig struct {
	Model     string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	Dimension int    `envconfig:"EMBEDDING_DIMENSION" default:"384"`
	CacheSize int    `envconfig:"EMBEDDING_CACHE_SIZE" default:"1000"`
	Timeout   int    `envconfig:"EMBEDDING_TIMEOUT_SECONDS" default:"15"`
}

type CacheConfig struct {
	Enabled             bool    `envconfig:"SEMANTIC_CACHE_ENABLED" default:"true"`
	SimilarityThreshold float64 `envconfig:"CACHE_SIMILARITY_THRESHOLD" default:"0.65"`
	TTL                 string  `envconfig:"CACHE_TTL" default:"1h"`
}

type SelectorConfig struct {
	TopK int `envconfig:"SELECTOR_TOP_K" default:"3"`
}

type SearchConfig struct {
	// MaxConcurrent bounds the number of in-flight vector searches so a
	// burst of requests cannot saturate the Redis connection pool.
	MaxConcurrent int `envconfig:"SEARCH_MAX_CONCURRENT" default:"8"`
}

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"SERVER_PORT" default:"8000"`
}
