package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/preciz/chunx"
	"github.com/preciz/chunx/internal/app"
	"github.com/preciz/chunx/internal/httputil"
	"github.com/preciz/chunx/internal/queue"
)

type chunkTaskPayload struct {
	RequestID uuid.UUID      `json:"request_id"`
	Strategy  chunx.Strategy `json:"strategy"`
	Config    chunx.Config   `json:"config"`
	Text      string         `json:"text"`
}

type chunkResultPayload struct {
	RequestID uuid.UUID      `json:"request_id"`
	Strategy  chunx.Strategy `json:"strategy"`
	Chunks    []chunx.Chunk  `json:"chunks,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("chunk worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeChunk, func(ctx context.Context, task queue.Task) error {
			var payload chunkTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleChunk(ctx, deps, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, deps.Config.Port, "worker")
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("chunk worker stopped", "err", err)
	}
}

func handleChunk(ctx context.Context, deps app.Deps, payload chunkTaskPayload) error {
	result := chunkResultPayload{RequestID: payload.RequestID, Strategy: payload.Strategy}

	chunker, err := chunx.New(payload.Strategy, deps.Tokenizer, deps.Embedder, payload.Config)
	if err != nil {
		// A bad configuration will never succeed on retry; report it instead.
		result.Error = err.Error()
		return publishResult(ctx, deps, result)
	}
	chunks, err := chunker.Chunk(ctx, payload.Text)
	if err != nil {
		// Capability failures (tokenizer, embeddings) are retried by the queue.
		deps.Log.Error("chunking failed", "request_id", payload.RequestID, "strategy", payload.Strategy, "err", err)
		return err
	}
	result.Chunks = chunks

	deps.Log.Info("chunking completed", "request_id", payload.RequestID, "strategy", payload.Strategy, "chunks", len(chunks))
	return publishResult(ctx, deps, result)
}

func publishResult(ctx context.Context, deps app.Deps, result chunkResultPayload) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	task := queue.Task{Type: queue.TaskTypeResult, Payload: body, NotBefore: time.Now()}
	return queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond)
}
