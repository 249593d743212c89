package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
	"github.com/sf7293/widget-manager/pkg/process"
)

// Worker consumes task descriptors from one priority queue and runs them through the registered
// processes. Each task is retried in place within its own attempt and per-attempt timeout budget.
type Worker struct {
	queue           domain.Queue
	names           QueueNames
	registry        *process.Registry
	initialInterval time.Duration
	nowFun          func() time.Time
}

type Option func(*Worker)

// WithInitialInterval sets the first backoff interval between attempts.
func WithInitialInterval(d time.Duration) Option { return func(w *Worker) { w.initialInterval = d } }

func WithClock(now func() time.Time) Option { return func(w *Worker) { w.nowFun = now } }

func NewWorker(queue domain.Queue, names QueueNames, registry *process.Registry, opts ...Option) *Worker {
	w := &Worker{
		queue:           queue,
		names:           names,
		registry:        registry,
		initialInterval: time.Second,
		nowFun:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run starts concurrency consumers on the queue of the given priority. It returns once the
// consumers are registered; they stop when ctx is cancelled.
func (w *Worker) Run(ctx context.Context, consumerName string, priority domain.TaskPriority, concurrency int) error {
	queueName := w.names.ForPriority(priority)
	slog.InfoContext(ctx, "Creating consumer for RabbitMQ", "queue", queueName, "consumer_name", consumerName, "concurrency", concurrency)
	return w.queue.ConsumeMessages(ctx, consumerName, queueName, concurrency, w.Handle)
}

// Handle executes one delivery. A nil return acks the message; an error requeues it, which only
// happens when the task could not be parked again or reported.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var task domain.Task
	if err := json.Unmarshal(body, &task); err != nil {
		slog.ErrorContext(ctx, "There was an error in unmarshalling the task, discarding", "error", err.Error(), "raw", string(body))
		return nil
	}

	log := slog.With("task_id", task.ID, "task_kind", task.Kind, "widget_id", task.Payload.WidgetID)
	log.InfoContext(ctx, "Task is picked up from the queue")

	if task.NotBefore != nil {
		if remaining := task.NotBefore.Sub(w.nowFun()); remaining > 0 {
			log.InfoContext(ctx, "Task is not due yet, delaying it again", "not_before", task.NotBefore.Format(time.RFC3339), "remaining", remaining.String())
			if err := w.queue.PublishDelayedMessage(ctx, w.names.ForPriority(task.Kind.Priority()), body, remaining); err != nil {
				return fmt.Errorf("re-delay task %s: %w", task.ID, err)
			}
			tasksDelayed.WithLabelValues(string(task.Kind)).Inc()
			return nil
		}
	}

	p, err := w.registry.NewProcess(task.Kind)
	if err != nil {
		log.ErrorContext(ctx, "Error while creating process for the task", "error", err.Error())
		return w.reportFailure(ctx, task, err)
	}

	maxAttempts := task.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := w.nowFun()
	operation := func() error {
		task.Attempt++
		attemptCtx := ctx
		if timeout := task.Timeout(); timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		err := p.Execute(attemptCtx, task)
		if err == nil {
			return nil
		}

		if errval.IsPermanent(err) {
			return backoff.Permanent(err)
		}

		if task.Attempt < maxAttempts {
			taskRetries.WithLabelValues(string(task.Kind)).Inc()
			log.WarnContext(ctx, "Attempt failed, retrying", "attempt", task.Attempt, "max_attempts", maxAttempts, "error", err.Error())
		}

		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.initialInterval
	b.MaxElapsedTime = 0
	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx))
	taskDurationSeconds.WithLabelValues(string(task.Kind)).Observe(w.nowFun().Sub(start).Seconds())

	switch {
	case err == nil:
		taskResults.WithLabelValues(string(task.Kind), resultSucceeded).Inc()
		log.InfoContext(ctx, "Task running has been successfully finished", "attempt", task.Attempt)
		return nil
	case errors.Is(err, errval.ErrNotFound):
		taskResults.WithLabelValues(string(task.Kind), resultCancelled).Inc()
		log.InfoContext(ctx, "Widget no longer exists, task is cancelled", "attempt", task.Attempt, "error", err.Error())
		return nil
	case ctx.Err() != nil:
		// the worker is shutting down, leave the message for redelivery
		return ctx.Err()
	default:
		log.ErrorContext(ctx, "Task failed after all attempts", "attempt", task.Attempt, "max_attempts", maxAttempts, "error", err.Error())
		return w.reportFailure(ctx, task, err)
	}
}

func (w *Worker) reportFailure(ctx context.Context, task domain.Task, cause error) error {
	taskResults.WithLabelValues(string(task.Kind), resultFailed).Inc()

	body, err := json.Marshal(domain.FailedTask{
		Task:     task,
		Error:    cause.Error(),
		FailedAt: w.nowFun().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "There was an error in marshalling failed task", "task_id", task.ID, "error", err.Error())
		return nil
	}

	if err = w.queue.PublishMessage(ctx, w.names.Failed, body); err != nil {
		return fmt.Errorf("publish failed task %s: %w", task.ID, err)
	}

	slog.InfoContext(ctx, "Failed task is published to the failure queue", "task_id", task.ID, "task_kind", task.Kind, "queue", w.names.Failed)
	return nil
}
