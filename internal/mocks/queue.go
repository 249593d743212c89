package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
)

type Message struct {
	Queue string
	Body  []byte
	Delay time.Duration
}

// Queue is an in-memory domain.Queue recording every publish.
type Queue struct {
	mu       sync.Mutex
	Messages []Message
	Handlers map[string]func(ctx context.Context, body []byte) error

	PublishErr error
	Healthy    bool
}

func NewQueue() *Queue {
	return &Queue{
		Handlers: map[string]func(ctx context.Context, body []byte) error{},
		Healthy:  true,
	}
}

func (q *Queue) IsHealthy() bool {
	return q.Healthy
}

func (q *Queue) PublishMessage(ctx context.Context, queueName string, body []byte) error {
	return q.PublishDelayedMessage(ctx, queueName, body, 0)
}

func (q *Queue) PublishDelayedMessage(ctx context.Context, queueName string, body []byte, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.PublishErr != nil {
		return q.PublishErr
	}

	q.Messages = append(q.Messages, Message{Queue: queueName, Body: append([]byte(nil), body...), Delay: delay})
	return nil
}

func (q *Queue) ConsumeMessages(ctx context.Context, consumerName, queueName string, concurrency int, handler func(ctx context.Context, body []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Handlers[queueName] = handler
	return nil
}

func (q *Queue) Close() error {
	return nil
}

// Published returns the messages published to queueName.
func (q *Queue) Published(queueName string) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	var messages []Message
	for _, m := range q.Messages {
		if m.Queue == queueName {
			messages = append(messages, m)
		}
	}

	return messages
}

type EnqueuedTask struct {
	Kind    domain.TaskKind
	Payload domain.TaskPayload
	Options domain.EnqueueOptions
}

// TaskQueue is a domain.TaskQueue recording every enqueue.
type TaskQueue struct {
	mu    sync.Mutex
	Tasks []EnqueuedTask
	Err   error
}

func (q *TaskQueue) Enqueue(ctx context.Context, kind domain.TaskKind, payload domain.TaskPayload, opts domain.EnqueueOptions) (handle string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.Err != nil {
		return "", q.Err
	}

	q.Tasks = append(q.Tasks, EnqueuedTask{Kind: kind, Payload: payload, Options: opts})
	return string(kind) + "-" + strconv.Itoa(len(q.Tasks)), nil
}

func (q *TaskQueue) Enqueued() []EnqueuedTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]EnqueuedTask(nil), q.Tasks...)
}

func (q *TaskQueue) OfKind(kind domain.TaskKind) []EnqueuedTask {
	var tasks []EnqueuedTask
	for _, t := range q.Enqueued() {
		if t.Kind == kind {
			tasks = append(tasks, t)
		}
	}

	return tasks
}
