// Package jobs queues webhook payloads whose delivery exhausted every
// attempt and retries them later through a background worker.
package jobs

import (
	"context"
	"fmt"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/google/uuid"

	"github.com/goliatone/go-studio/core"
)

const (
	// RedeliveryJobID tags queued webhook redeliveries.
	RedeliveryJobID = "studio.webhooks.redeliver"

	paramEvent   = "event"
	paramPayload = "payload"
	paramCause   = "cause"
	paramAttempt = "attempt"
)

// QueueSink parks exhausted webhook payloads on a job queue instead of
// dropping them. It satisfies the dead-letter contract of the emitter.
type QueueSink struct {
	enqueuer queue.Enqueuer
	logger   core.Logger
	newKey   func() string
}

func NewQueueSink(enqueuer queue.Enqueuer, logger core.Logger) (*QueueSink, error) {
	if enqueuer == nil {
		return nil, fmt.Errorf("jobs: enqueuer is required")
	}
	return &QueueSink{
		enqueuer: enqueuer,
		logger:   logger,
		newKey:   uuid.NewString,
	}, nil
}

func (s *QueueSink) DeadLetter(ctx context.Context, event string, payload any, cause error) error {
	if s == nil || s.enqueuer == nil {
		return fmt.Errorf("jobs: queue sink is not configured")
	}
	causeText := ""
	if cause != nil {
		causeText = cause.Error()
	}
	msg := &job.ExecutionMessage{
		JobID: RedeliveryJobID,
		Parameters: map[string]any{
			paramEvent:   event,
			paramPayload: payload,
			paramCause:   causeText,
			paramAttempt: 0,
		},
		IdempotencyKey: s.newKey(),
	}
	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		return core.PersistenceError("jobs: enqueue redelivery", err)
	}
	core.LogWith(ctx, s.logger, "info", "webhook payload queued for redelivery", map[string]any{
		"event": event,
		"cause": causeText,
	})
	return nil
}

// RedeliveryWorker drains the redelivery queue and pushes each payload
// back through the dispatcher. A failed redelivery re-enqueues a copy
// with the attempt counter bumped; once MaxAttempts copies have failed
// the message is dead-lettered on the queue for manual inspection.
type RedeliveryWorker struct {
	dequeuer   queue.Dequeuer
	enqueuer   queue.Enqueuer
	dispatcher core.EventDispatcher
	logger     core.Logger

	// MaxAttempts bounds redelivery rounds, Delay spaces them out.
	MaxAttempts int
	Delay       time.Duration

	newKey func() string
}

func NewRedeliveryWorker(
	dequeuer queue.Dequeuer,
	enqueuer queue.Enqueuer,
	dispatcher core.EventDispatcher,
	logger core.Logger,
) (*RedeliveryWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("jobs: dequeuer is required")
	}
	if enqueuer == nil {
		return nil, fmt.Errorf("jobs: enqueuer is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("jobs: dispatcher is required")
	}
	return &RedeliveryWorker{
		dequeuer:    dequeuer,
		enqueuer:    enqueuer,
		dispatcher:  dispatcher,
		logger:      logger,
		MaxAttempts: 3,
		Delay:       time.Minute,
		newKey:      uuid.NewString,
	}, nil
}

// Run processes deliveries until the context is canceled.
func (w *RedeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			core.LogWith(ctx, w.logger, "error", "redelivery cycle failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
}

// ProcessOne handles a single queued redelivery.
func (w *RedeliveryWorker) ProcessOne(ctx context.Context) error {
	if w == nil || w.dequeuer == nil || w.dispatcher == nil {
		return fmt.Errorf("jobs: redelivery worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	msg := delivery.Message()
	if msg == nil || msg.JobID != RedeliveryJobID {
		return delivery.Nack(ctx, queue.NackOptions{
			DeadLetter: true,
			Reason:     "jobs: unexpected message on redelivery queue",
		})
	}

	event, _ := msg.Parameters[paramEvent].(string)
	payload := msg.Parameters[paramPayload]
	attempt := intParam(msg.Parameters, paramAttempt)

	result := w.dispatcher.Send(ctx, payload)
	if result.Success {
		core.LogWith(ctx, w.logger, "info", "webhook redelivered", map[string]any{
			"event":   event,
			"attempt": attempt + 1,
		})
		return delivery.Ack(ctx)
	}

	if attempt+1 >= w.maxAttempts() {
		core.LogWith(ctx, w.logger, "warn", "webhook redelivery exhausted", map[string]any{
			"event":   event,
			"attempt": attempt + 1,
		})
		return delivery.Nack(ctx, queue.NackOptions{
			DeadLetter: true,
			Requeue:    false,
			Reason:     redeliveryReason(result.Err),
		})
	}

	// Re-enqueue a bumped copy and settle the original, so the attempt
	// counter survives the round trip through the queue.
	retry := &job.ExecutionMessage{
		JobID: RedeliveryJobID,
		Parameters: map[string]any{
			paramEvent:   event,
			paramPayload: payload,
			paramCause:   redeliveryReason(result.Err),
			paramAttempt: attempt + 1,
		},
		IdempotencyKey: w.nextKey(),
	}
	if err := w.enqueuer.Enqueue(ctx, retry); err != nil {
		// Keep the original alive rather than losing the payload.
		return delivery.Nack(ctx, queue.NackOptions{
			Requeue: true,
			Delay:   w.delay(),
			Reason:  "jobs: re-enqueue failed",
		})
	}
	return delivery.Ack(ctx)
}

func (w *RedeliveryWorker) maxAttempts() int {
	if w != nil && w.MaxAttempts > 0 {
		return w.MaxAttempts
	}
	return 3
}

func (w *RedeliveryWorker) delay() time.Duration {
	if w != nil && w.Delay > 0 {
		return w.Delay
	}
	return time.Minute
}

func (w *RedeliveryWorker) nextKey() string {
	if w != nil && w.newKey != nil {
		return w.newKey()
	}
	return uuid.NewString()
}

func redeliveryReason(err error) string {
	if err == nil {
		return "jobs: delivery failed"
	}
	return err.Error()
}

func intParam(params map[string]any, key string) int {
	switch value := params[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}

var _ core.DeadLetterSink = (*QueueSink)(nil)
