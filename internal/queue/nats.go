package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/preciz/chunx/internal/retry"
)

// defaultMaxAttempts bounds delivery attempts for chunking tasks that carry
// no explicit limit.
const defaultMaxAttempts = 5

// subjectFor maps a task type to its NATS subject. Chunk requests and their
// results travel on separate subjects under one namespace, so a result
// subscriber never sees raw requests.
func subjectFor(t TaskType) string {
	return "chunx.tasks." + string(t)
}

// groupFor names the queue group for a task type. Workers of the same type
// join one group and NATS delivers each task to exactly one of them.
func groupFor(t TaskType) string {
	return "chunx-workers-" + string(t)
}

// NewNATS returns a Queue carrying chunking tasks over core NATS subjects.
// Retries are modeled as delayed re-publishes: a failed task goes back on its
// subject with a NotBefore in the future rather than being NAKed.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{log: log, nc: nc}
}

type natsQueue struct {
	log *slog.Logger
	nc  *nats.Conn
}

func (q *natsQueue) Enqueue(_ context.Context, task Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Type == "" {
		return errors.New("task type required")
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.nc.Publish(subjectFor(task.Type), body)
}

func (q *natsQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	sub, err := q.nc.QueueSubscribe(subjectFor(taskType), groupFor(taskType), func(msg *nats.Msg) {
		q.consume(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) consume(ctx context.Context, msg *nats.Msg, handler Handler) {
	var task Task
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		q.log.Error("failed to decode chunk task", "subject", msg.Subject, "err", err)
		return
	}

	// Delayed retries arrive immediately; hold them until their slot.
	if task.NotBefore.After(time.Now()) {
		time.Sleep(time.Until(task.NotBefore))
	}

	if err := handler(ctx, task); err != nil {
		q.retryTask(ctx, task, err)
	}
}

func (q *natsQueue) retryTask(ctx context.Context, task Task, handlerErr error) {
	task.Attempts++
	if task.MaxAttempts == 0 {
		task.MaxAttempts = defaultMaxAttempts
	}

	if task.Attempts >= task.MaxAttempts {
		q.log.Error("chunk task permanently failed", "id", task.ID, "type", task.Type, "attempts", task.Attempts, "original_err", handlerErr)
		return
	}

	task.NotBefore = time.Now().Add(retry.ExponentialBackoff(task.Attempts, time.Second))
	if err := q.Enqueue(ctx, task); err != nil {
		q.log.Error("failed to re-enqueue chunk task", "id", task.ID, "type", task.Type, "original_err", handlerErr, "enqueue_err", err)
	}
}
