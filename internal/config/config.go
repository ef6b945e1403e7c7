package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the chunking services.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Tokenizer
	TokenizerProvider string `env:"TOKENIZER_PROVIDER" envDefault:"tiktoken"` // "tiktoken" (BPE) or "words" (whitespace)
	TokenizerEncoding string `env:"TOKENIZER_ENCODING" envDefault:"cl100k_base"`

	// Embeddings (required for the semantic strategy)
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"openai"` // "openai" or "none"
	OpenAIKey         string `env:"OPENAI_API_KEY"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	// Result cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Queue (required for the async worker path)
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"` // "nats" or "none"
	QueueURL      string `env:"QUEUE_URL"`

	// Chunking defaults applied when a request omits them
	DefaultChunkSize    int     `env:"DEFAULT_CHUNK_SIZE" envDefault:"512"`
	DefaultChunkOverlap float64 `env:"DEFAULT_CHUNK_OVERLAP" envDefault:"0.25"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
