package webhooks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-studio/core"
)

type stubDispatcher struct {
	mu       sync.Mutex
	payloads []core.TaskEventPayload
	result   core.DispatchResult
}

func (d *stubDispatcher) Send(_ context.Context, payload any) core.DispatchResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if typed, ok := payload.(core.TaskEventPayload); ok {
		d.payloads = append(d.payloads, typed)
	}
	return d.result
}

type stubDeadLetter struct {
	mu     sync.Mutex
	events []string
}

func (s *stubDeadLetter) DeadLetter(_ context.Context, event string, _ any, _ error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func TestEmitter_WrapsTaskInEventPayload(t *testing.T) {
	dispatcher := &stubDispatcher{result: core.DispatchResult{Success: true, Attempts: 1}}
	emitter := NewEmitter(dispatcher, nil, nil)

	task := core.Task{ID: "t-1", Title: "Draft essay", Type: core.TaskTypeWriting}
	emitter.TaskCreated(context.Background(), task)
	emitter.TaskStatusChanged(context.Background(), task)
	emitter.Flush()

	if len(dispatcher.payloads) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(dispatcher.payloads))
	}
	seen := map[string]bool{}
	for _, payload := range dispatcher.payloads {
		seen[payload.Event] = true
		if payload.Task.ID != "t-1" {
			t.Fatalf("expected full task in payload, got %+v", payload.Task)
		}
	}
	if !seen[core.EventTaskCreated] || !seen[core.EventTaskStatusChanged] {
		t.Fatalf("expected created and status-changed events, got %v", seen)
	}
}

func TestEmitter_DeadLettersTerminalFailures(t *testing.T) {
	dispatcher := &stubDispatcher{
		result: core.DispatchResult{Success: false, Attempts: 3, Err: errors.New("endpoint down")},
	}
	sink := &stubDeadLetter{}
	emitter := NewEmitter(dispatcher, sink, nil)

	emitter.TaskDeleted(context.Background(), core.Task{ID: "t-2"})
	emitter.Flush()

	if len(sink.events) != 1 || sink.events[0] != core.EventTaskDeleted {
		t.Fatalf("expected one dead-lettered task_deleted event, got %v", sink.events)
	}
}

func TestEmitter_NotConfiguredFailureIsNotDeadLettered(t *testing.T) {
	dispatcher := &stubDispatcher{
		result: core.DispatchResult{Success: false, Attempts: 0, Err: ErrNotConfigured},
	}
	sink := &stubDeadLetter{}
	emitter := NewEmitter(dispatcher, sink, nil)

	emitter.TaskCreated(context.Background(), core.Task{ID: "t-3"})
	emitter.Flush()

	if len(sink.events) != 0 {
		t.Fatalf("expected nothing dead-lettered when no target is configured, got %v", sink.events)
	}
}

func TestEmitter_UnconfiguredDispatcherNeverEnqueuesRedelivery(t *testing.T) {
	dispatcher := NewDispatcher(core.WebhookConfig{}, nil)
	sink := &stubDeadLetter{}
	emitter := NewEmitter(dispatcher, sink, nil)

	emitter.TaskCreated(context.Background(), core.Task{ID: "t-4", Title: "Draft essay"})
	emitter.TaskStatusChanged(context.Background(), core.Task{ID: "t-4"})
	emitter.Flush()

	if len(sink.events) != 0 {
		t.Fatalf("mutations without a target URL must not dead-letter, got %v", sink.events)
	}
}
