package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/preciz/chunx"
	"github.com/preciz/chunx/internal/app"
	"github.com/preciz/chunx/internal/cache"
	"github.com/preciz/chunx/internal/extract"
	"github.com/preciz/chunx/internal/httputil"
	"github.com/preciz/chunx/internal/queue"
)

type chunkRequest struct {
	Text     string       `json:"text" validate:"required"`
	Strategy string       `json:"strategy" validate:"required,oneof=token word sentence semantic"`
	Options  chunkOptions `json:"options"`
}

// chunkOptions uses pointers so omitted fields fall back to per-strategy
// defaults rather than zero values.
type chunkOptions struct {
	ChunkSize            *int     `json:"chunk_size" validate:"omitempty,min=1"`
	ChunkOverlap         *float64 `json:"chunk_overlap" validate:"omitempty,min=0"`
	MinSentencesPerChunk *int     `json:"min_sentences_per_chunk" validate:"omitempty,min=1"`
	Delimiters           []string `json:"delimiters"`
	MinCharsPerSentence  *int     `json:"min_chars_per_sentence" validate:"omitempty,min=0"`
	Threshold            *float64 `json:"threshold" validate:"omitempty,max=1"`
	MinSentences         *int     `json:"min_sentences" validate:"omitempty,min=1"`
	MinChunkSize         *int     `json:"min_chunk_size" validate:"omitempty,min=1"`
	ThresholdStep        *float64 `json:"threshold_step"`
	SimilarityWindow     *int     `json:"similarity_window" validate:"omitempty,min=0"`
}

type chunkTaskPayload struct {
	RequestID uuid.UUID      `json:"request_id"`
	Strategy  chunx.Strategy `json:"strategy"`
	Config    chunx.Config   `json:"config"`
	Text      string         `json:"text"`
}

func main() {
	deps, err := app.BuildGateway()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/chunk", chunkHandler(deps))
	r.Post("/api/chunk/upload", uploadHandler(deps))
	r.Post("/api/chunk/async", asyncHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func chunkHandler(deps app.Deps) http.HandlerFunc {
	cacheTTL := time.Duration(deps.Config.CacheTTL) * time.Second

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req chunkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		strategy, cfg := resolveRequest(deps, req)
		key := cache.Key(strategy, cfg, req.Text)
		if cached, err := deps.Cache.GetChunks(ctx, key); err == nil && cached != nil {
			httputil.WriteJSON(w, http.StatusOK, map[string]any{
				"strategy": strategy,
				"count":    len(cached),
				"chunks":   cached,
				"cached":   true,
			})
			return
		}

		chunker, err := chunx.New(strategy, deps.Tokenizer, deps.Embedder, cfg)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid chunker configuration", err, http.StatusBadRequest)
			return
		}
		chunks, err := chunker.Chunk(ctx, req.Text)
		if err != nil {
			var cerr *chunx.ConfigError
			if errors.As(err, &cerr) {
				httputil.Fail(deps.Log, w, "invalid chunker configuration", err, http.StatusBadRequest)
				return
			}
			// Tokenizer or embedding capability failure.
			httputil.Fail(deps.Log, w, "chunking failed", err, http.StatusBadGateway)
			return
		}

		// An empty result marshals to JSON null and would read back as a
		// miss, so only non-empty results are worth storing.
		if len(chunks) > 0 {
			if err := deps.Cache.SetChunks(ctx, key, chunks, cacheTTL); err != nil {
				deps.Log.Warn("failed to cache chunks", "err", err)
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"strategy": strategy,
			"count":    len(chunks),
			"chunks":   chunks,
		})
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := extract.Text(header.Filename, content)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to extract text", err, http.StatusBadRequest)
			return
		}

		req := chunkRequest{Text: text, Strategy: r.FormValue("strategy")}
		if req.Strategy == "" {
			req.Strategy = string(chunx.StrategyToken)
		}
		if v := r.FormValue("chunk_size"); v != "" {
			size, err := strconv.Atoi(v)
			if err != nil || size <= 0 {
				httputil.Fail(deps.Log, w, "invalid chunk_size", err, http.StatusBadRequest)
				return
			}
			req.Options.ChunkSize = &size
		}

		strategy, cfg := resolveRequest(deps, req)
		chunker, err := chunx.New(strategy, deps.Tokenizer, deps.Embedder, cfg)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid chunker configuration", err, http.StatusBadRequest)
			return
		}
		chunks, err := chunker.Chunk(ctx, text)
		if err != nil {
			httputil.Fail(deps.Log, w, "chunking failed", err, http.StatusBadGateway)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"filename": header.Filename,
			"strategy": strategy,
			"count":    len(chunks),
			"chunks":   chunks,
		})
	}
}

func asyncHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if deps.Queue == nil {
			httputil.Fail(deps.Log, w, "async chunking is not configured", nil, http.StatusServiceUnavailable)
			return
		}

		var req chunkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		strategy, cfg := resolveRequest(deps, req)
		// Reject bad settings here rather than inside the worker.
		if _, err := chunx.New(strategy, deps.Tokenizer, deps.Embedder, cfg); err != nil {
			httputil.Fail(deps.Log, w, "invalid chunker configuration", err, http.StatusBadRequest)
			return
		}

		payload := chunkTaskPayload{
			RequestID: uuid.New(),
			Strategy:  strategy,
			Config:    cfg,
			Text:      req.Text,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			httputil.Fail(deps.Log, w, "marshal payload failed", err, http.StatusInternalServerError)
			return
		}
		task := queue.Task{Type: queue.TaskTypeChunk, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			httputil.Fail(deps.Log, w, "failed to enqueue request; please retry", err, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"request_id": payload.RequestID.String(),
			"status":     "queued",
		})
	}
}

// resolveRequest fills per-strategy defaults for every option the request
// omitted, so the worker and the cache key always see fully resolved
// settings.
func resolveRequest(deps app.Deps, req chunkRequest) (chunx.Strategy, chunx.Config) {
	strategy := chunx.Strategy(req.Strategy)
	cfg := chunx.Config{
		ChunkSize:            deps.Config.DefaultChunkSize,
		ChunkOverlap:         deps.Config.DefaultChunkOverlap,
		MinSentencesPerChunk: 1,
		Delimiters:           chunx.DefaultDelimiters(),
		Threshold:            chunx.ThresholdAuto,
		MinSentences:         1,
		MinChunkSize:         2,
		ThresholdStep:        0.01,
		SimilarityWindow:     1,
	}
	if strategy == chunx.StrategySentence {
		cfg.ChunkOverlap = 128
		cfg.MinCharsPerSentence = 6
	}

	opts := req.Options
	if opts.ChunkSize != nil {
		cfg.ChunkSize = *opts.ChunkSize
	}
	if opts.ChunkOverlap != nil {
		cfg.ChunkOverlap = *opts.ChunkOverlap
	}
	if opts.MinSentencesPerChunk != nil {
		cfg.MinSentencesPerChunk = *opts.MinSentencesPerChunk
	}
	if len(opts.Delimiters) > 0 {
		cfg.Delimiters = opts.Delimiters
	}
	if opts.MinCharsPerSentence != nil {
		cfg.MinCharsPerSentence = *opts.MinCharsPerSentence
	}
	if opts.Threshold != nil {
		cfg.Threshold = *opts.Threshold
	}
	if opts.MinSentences != nil {
		cfg.MinSentences = *opts.MinSentences
	}
	if opts.MinChunkSize != nil {
		cfg.MinChunkSize = *opts.MinChunkSize
	}
	if opts.ThresholdStep != nil {
		cfg.ThresholdStep = *opts.ThresholdStep
	}
	if opts.SimilarityWindow != nil {
		cfg.SimilarityWindow = *opts.SimilarityWindow
	}
	return strategy, cfg
}
