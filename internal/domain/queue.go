package domain

import (
	"context"
	"time"
)

// Queue is the message transport the task queue is built on.
type Queue interface {
	IsHealthy() bool
	PublishMessage(ctx context.Context, queueName string, body []byte) error
	PublishDelayedMessage(ctx context.Context, queueName string, body []byte, delay time.Duration) error
	// ConsumeMessages acks a delivery when handler returns nil and requeues it otherwise.
	ConsumeMessages(ctx context.Context, consumerName, queueName string, concurrency int, handler func(ctx context.Context, body []byte) error) error
	Close() error
}

// TaskQueue enqueues a unit of work for execution now or after a delay and returns its handle.
type TaskQueue interface {
	Enqueue(ctx context.Context, kind TaskKind, payload TaskPayload, opts EnqueueOptions) (handle string, err error)
}
