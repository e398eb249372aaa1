package jobs

import (
	"context"
	"fmt"
	"sync"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

// MemoryQueue is the in-process redelivery queue for the single-binary
// deployment. Dead-lettered messages stay inspectable through DeadLetters.
type MemoryQueue struct {
	mu         sync.Mutex
	messages   chan *job.ExecutionMessage
	deadLetter []*job.ExecutionMessage
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryQueue{messages: make(chan *job.ExecutionMessage, capacity)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	if q == nil {
		return fmt.Errorf("jobs: memory queue is nil")
	}
	if msg == nil {
		return fmt.Errorf("jobs: execution message is required")
	}
	select {
	case q.messages <- msg:
		return nil
	default:
		return fmt.Errorf("jobs: memory queue is full")
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	if q == nil {
		return nil, fmt.Errorf("jobs: memory queue is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg := <-q.messages:
		return &memoryDelivery{queue: q, msg: msg}, nil
	}
}

// DeadLetters returns the messages parked after exhausting redelivery.
func (q *MemoryQueue) DeadLetters() []*job.ExecutionMessage {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*job.ExecutionMessage(nil), q.deadLetter...)
}

type memoryDelivery struct {
	queue *MemoryQueue
	msg   *job.ExecutionMessage
}

func (d *memoryDelivery) Message() *job.ExecutionMessage {
	if d == nil {
		return nil
	}
	return d.msg
}

func (d *memoryDelivery) Ack(context.Context) error {
	return nil
}

func (d *memoryDelivery) Nack(ctx context.Context, opts queue.NackOptions) error {
	if d == nil || d.queue == nil {
		return fmt.Errorf("jobs: delivery is not configured")
	}
	if opts.DeadLetter {
		d.queue.mu.Lock()
		d.queue.deadLetter = append(d.queue.deadLetter, d.msg)
		d.queue.mu.Unlock()
		return nil
	}
	if opts.Requeue {
		return d.queue.Enqueue(ctx, d.msg)
	}
	return nil
}

var (
	_ queue.Enqueuer = (*MemoryQueue)(nil)
	_ queue.Dequeuer = (*MemoryQueue)(nil)
	_ queue.Delivery = (*memoryDelivery)(nil)
)
