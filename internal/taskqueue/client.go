package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
)

// QueueNames are the broker queues tasks are routed to by priority, plus the queue exhausted tasks
// are reported on.
type QueueNames struct {
	High   string
	Normal string
	Low    string
	Failed string
}

func (q QueueNames) ForPriority(priority domain.TaskPriority) string {
	switch priority {
	case domain.High:
		return q.High
	case domain.Low:
		return q.Low
	default:
		return q.Normal
	}
}

type Client struct {
	queue  domain.Queue
	names  QueueNames
	nowFun func() time.Time
}

func NewClient(queue domain.Queue, names QueueNames) *Client {
	return &Client{
		queue:  queue,
		names:  names,
		nowFun: time.Now,
	}
}

// Enqueue publishes a task descriptor to the queue of its kind's priority. A positive delay parks
// the task until its not-before time. The returned handle is the task id.
func (c *Client) Enqueue(ctx context.Context, kind domain.TaskKind, payload domain.TaskPayload, opts domain.EnqueueOptions) (handle string, err error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", errval.ErrInvalidTaskKind, kind)
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	now := c.nowFun().UTC()
	task := domain.Task{
		ID:             uuid.NewString(),
		Kind:           kind,
		Priority:       kind.Priority(),
		Payload:        payload,
		MaxAttempts:    maxAttempts,
		TimeoutSeconds: int(opts.Timeout / time.Second),
		EnqueuedAt:     now,
	}
	if opts.Delay > 0 {
		notBefore := now.Add(opts.Delay)
		task.NotBefore = &notBefore
	}

	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	queueName := c.names.ForPriority(task.Priority)
	if opts.Delay > 0 {
		err = c.queue.PublishDelayedMessage(ctx, queueName, body, opts.Delay)
	} else {
		err = c.queue.PublishMessage(ctx, queueName, body)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Error occurred while publishing task", "task_id", task.ID, "task_kind", kind, "queue", queueName, "error", err.Error())
		return "", fmt.Errorf("publish %s task: %w", kind, err)
	}

	tasksEnqueued.WithLabelValues(string(kind)).Inc()
	slog.InfoContext(ctx, "Task is enqueued", "task_id", task.ID, "task_kind", kind, "queue", queueName, "delay", opts.Delay.String())
	return task.ID, nil
}
