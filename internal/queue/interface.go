package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// Publisher is the server side of the queue
type Publisher interface {
	Enqueue(ctx context.Context, job *Job) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// JobQueue is the interface for job queues
type JobQueue interface {
	Publisher

	// Consume delivers messages until ctx is cancelled. The caller acknowledges each
	// message. Prefetch bounds the unacknowledged messages held by this consumer.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)
}

// DLQPurger removes dead-lettered messages older than retention and reports how many
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
