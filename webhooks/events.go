package webhooks

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-studio/core"
)

// Emitter fans task events out to the dispatcher without blocking the
// mutation that produced them. Each helper only fixes the event name and
// wraps the task payload; the dispatcher is reused verbatim for all four.
type Emitter struct {
	dispatcher core.EventDispatcher
	deadLetter core.DeadLetterSink
	logger     core.Logger
	wg         sync.WaitGroup
}

func NewEmitter(dispatcher core.EventDispatcher, deadLetter core.DeadLetterSink, logger core.Logger) *Emitter {
	return &Emitter{
		dispatcher: dispatcher,
		deadLetter: deadLetter,
		logger:     logger,
	}
}

func (e *Emitter) TaskCreated(ctx context.Context, task core.Task) {
	e.emit(ctx, core.EventTaskCreated, task)
}

func (e *Emitter) TaskUpdated(ctx context.Context, task core.Task) {
	e.emit(ctx, core.EventTaskUpdated, task)
}

func (e *Emitter) TaskDeleted(ctx context.Context, task core.Task) {
	e.emit(ctx, core.EventTaskDeleted, task)
}

func (e *Emitter) TaskStatusChanged(ctx context.Context, task core.Task) {
	e.emit(ctx, core.EventTaskStatusChanged, task)
}

// Flush blocks until every in-flight delivery resolved. Intended for tests
// and graceful shutdown; regular request handling never calls it.
func (e *Emitter) Flush() {
	if e == nil {
		return
	}
	e.wg.Wait()
}

func (e *Emitter) emit(ctx context.Context, event string, task core.Task) {
	if e == nil || e.dispatcher == nil {
		return
	}
	payload := core.TaskEventPayload{Event: event, Task: task.Clone()}

	// Delivery is detached from the request context: the mutation has
	// already committed and returns regardless of the webhook outcome.
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		result := e.dispatcher.Send(context.WithoutCancel(ctx), payload)
		e.logOutcome(ctx, event, task.ID, result)
		// A missing target URL fails every delivery identically; queueing
		// those for redelivery would only accumulate messages that can
		// never succeed.
		if errors.Is(result.Err, ErrNotConfigured) {
			return
		}
		if !result.Success && result.Err != nil && e.deadLetter != nil {
			if err := e.deadLetter.DeadLetter(context.WithoutCancel(ctx), event, payload, result.Err); err != nil {
				core.LogWith(ctx, e.logger, "error", "webhook dead-letter failed", map[string]any{
					"event":   event,
					"task_id": task.ID,
					"error":   err.Error(),
				})
			}
		}
	}()
}

func (e *Emitter) logOutcome(ctx context.Context, event string, taskID string, result core.DispatchResult) {
	fields := map[string]any{
		"event":    event,
		"task_id":  taskID,
		"attempts": result.Attempts,
	}
	if result.Success {
		core.LogWith(ctx, e.logger, "info", "webhook delivered", fields)
		return
	}
	if result.Err != nil {
		fields["error"] = core.DispatchError("webhooks: delivery failed", result.Err).Error()
	}
	core.LogWith(ctx, e.logger, "warn", "webhook delivery failed", fields)
}
