package app

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"github.com/preciz/chunx/embeddings"
	"github.com/preciz/chunx/internal/cache"
	"github.com/preciz/chunx/internal/config"
	"github.com/preciz/chunx/internal/logger"
	"github.com/preciz/chunx/internal/queue"
	"github.com/preciz/chunx/tokenizer"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Tokenizer tokenizer.Tokenizer
	Embedder  embeddings.Embedder // nil when EMBEDDING_PROVIDER=none
	Cache     cache.Cache
	Queue     queue.Queue // nil when QUEUE_PROVIDER=none
}

// BuildGateway loads env, config, and the components the gateway needs. The
// queue is optional; without one the async endpoint is disabled.
func BuildGateway() (Deps, error) {
	deps, err := buildCommon()
	if err != nil {
		return Deps{}, err
	}
	c, err := buildCache(deps.Config, deps.Log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	deps.Cache = c
	if deps.Config.QueueProvider != "none" && deps.Config.QueueURL != "" {
		q, err := buildQueue(deps.Config, deps.Log)
		if err != nil {
			return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
		}
		deps.Queue = q
	}
	return deps, nil
}

// BuildWorker loads env, config, and the components the chunk worker needs.
// The queue is mandatory.
func BuildWorker() (Deps, error) {
	deps, err := buildCommon()
	if err != nil {
		return Deps{}, err
	}
	q, err := buildQueue(deps.Config, deps.Log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	deps.Queue = q
	return deps, nil
}

func buildCommon() (Deps, error) {
	// A missing .env is fine; config falls back to the process environment.
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	tok, err := buildTokenizer(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return Deps{
		Config:    cfg,
		Log:       log,
		Tokenizer: tok,
		Embedder:  embedder,
	}, nil
}

func buildTokenizer(cfg config.Config, log *slog.Logger) (tokenizer.Tokenizer, error) {
	switch cfg.TokenizerProvider {
	case "tiktoken":
		tok, err := tokenizer.NewTiktoken(cfg.TokenizerEncoding)
		if err != nil {
			return nil, err
		}
		log.Info("using tiktoken tokenizer", "encoding", cfg.TokenizerEncoding)
		return tok, nil
	case "words":
		log.Info("using whitespace word tokenizer")
		return tokenizer.NewWords(), nil
	default:
		return nil, fmt.Errorf("invalid TOKENIZER_PROVIDER: %s (valid options: tiktoken, words)", cfg.TokenizerProvider)
	}
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
		return embedder, nil
	case "none":
		// Semantic chunking requests will be rejected.
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, none)", cfg.EmbeddingProvider)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis chunk cache", "addr", cfg.RedisAddr)
		return c, nil
	case "none":
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: redis, none)", cfg.CacheProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}
