package tasks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/store/memory"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	tasks  []core.Task
}

func (r *recordingEmitter) record(event string, task core.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.tasks = append(r.tasks, task)
}

func (r *recordingEmitter) TaskCreated(_ context.Context, task core.Task) {
	r.record(core.EventTaskCreated, task)
}

func (r *recordingEmitter) TaskUpdated(_ context.Context, task core.Task) {
	r.record(core.EventTaskUpdated, task)
}

func (r *recordingEmitter) TaskDeleted(_ context.Context, task core.Task) {
	r.record(core.EventTaskDeleted, task)
}

func (r *recordingEmitter) TaskStatusChanged(_ context.Context, task core.Task) {
	r.record(core.EventTaskStatusChanged, task)
}

func newTestLifecycle(t *testing.T) (*Lifecycle, *memory.TaskStore, *recordingEmitter) {
	t.Helper()
	store := memory.NewTaskStore()
	emitter := &recordingEmitter{}
	lifecycle, err := NewLifecycle(store, emitter, nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	counter := 0
	lifecycle.newID = func() string {
		counter++
		return fmt.Sprintf("task-%d", counter)
	}
	lifecycle.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return lifecycle, store, emitter
}

func strPtr(v string) *string { return &v }

func TestLifecycle_CreateAppliesDefaults(t *testing.T) {
	lifecycle, _, emitter := newTestLifecycle(t)

	task, err := lifecycle.Create(context.Background(), core.TaskInput{
		Title: "  Translate chapter two  ",
		Type:  core.TaskTypeTranslation,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "task-1" {
		t.Fatalf("expected generated id, got %q", task.ID)
	}
	if task.Title != "Translate chapter two" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.Status != core.TaskStatusOpen || task.Priority != core.TaskPriorityNormal {
		t.Fatalf("expected OPEN/NORMAL defaults, got %s/%s", task.Status, task.Priority)
	}
	if task.Tags == nil || task.Attachments == nil {
		t.Fatalf("expected empty slices, got tags=%v attachments=%v", task.Tags, task.Attachments)
	}
	if !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Fatalf("expected matching timestamps on create")
	}
	if len(emitter.events) != 1 || emitter.events[0] != core.EventTaskCreated {
		t.Fatalf("expected a single task_created event, got %v", emitter.events)
	}
}

func TestLifecycle_CreateRejectsInvalidInput(t *testing.T) {
	lifecycle, store, emitter := newTestLifecycle(t)

	cases := []core.TaskInput{
		{Title: "", Type: core.TaskTypeWriting},
		{Title: "   ", Type: core.TaskTypeWriting},
		{Title: "ok", Type: "CHORES"},
		{Title: "ok", Type: core.TaskTypeWriting, Status: "PAUSED"},
		{Title: "ok", Type: core.TaskTypeWriting, Priority: "SOMEDAY"},
	}
	for i, input := range cases {
		if _, err := lifecycle.Create(context.Background(), input); !core.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	tasks, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected nothing persisted, got %d tasks", len(tasks))
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %v", emitter.events)
	}
}

func TestLifecycle_UpdateMergesAndPreservesIdentity(t *testing.T) {
	lifecycle, _, emitter := newTestLifecycle(t)
	created, err := lifecycle.Create(context.Background(), core.TaskInput{
		Title: "Write outline",
		Type:  core.TaskTypeWriting,
		Tags:  []string{"essay"},
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	later := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	lifecycle.now = func() time.Time { return later }

	updated, err := lifecycle.Update(context.Background(), created.ID, core.TaskPatch{
		Title:    strPtr("Write full outline"),
		Category: strPtr("longform"),
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("id must not change, got %q", updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt must be preserved")
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("expected refreshed updatedAt, got %v", updated.UpdatedAt)
	}
	if updated.Title != "Write full outline" || updated.Category != "longform" {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "essay" {
		t.Fatalf("unpatched tags must survive, got %v", updated.Tags)
	}
	if emitter.events[len(emitter.events)-1] != core.EventTaskUpdated {
		t.Fatalf("expected task_updated, got %v", emitter.events)
	}
}

func TestLifecycle_StatusChangeEmitsOnlyStatusChanged(t *testing.T) {
	lifecycle, _, emitter := newTestLifecycle(t)
	created, err := lifecycle.Create(context.Background(), core.TaskInput{
		Title: "Ship release notes",
		Type:  core.TaskTypeTech,
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	done := core.TaskStatusDone
	// Patch touches both status and description in one call.
	if _, err := lifecycle.Update(context.Background(), created.ID, core.TaskPatch{
		Status:      &done,
		Description: strPtr("published"),
	}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	var updates []string
	for _, event := range emitter.events {
		if event != core.EventTaskCreated {
			updates = append(updates, event)
		}
	}
	if len(updates) != 1 || updates[0] != core.EventTaskStatusChanged {
		t.Fatalf("expected exactly one task_status_changed event, got %v", updates)
	}
}

func TestLifecycle_NoopUpdateEmitsNothing(t *testing.T) {
	lifecycle, _, emitter := newTestLifecycle(t)
	created, err := lifecycle.Create(context.Background(), core.TaskInput{
		Title: "Review flashcards",
		Type:  core.TaskTypeLearning,
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	before := len(emitter.events)

	later := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	lifecycle.now = func() time.Time { return later }

	same := created.Status
	result, err := lifecycle.Update(context.Background(), created.ID, core.TaskPatch{Status: &same})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if !result.UpdatedAt.Equal(later) {
		t.Fatalf("updatedAt must refresh on every accepted update, got %v", result.UpdatedAt)
	}
	if !result.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt must be preserved")
	}
	if len(emitter.events) != before {
		t.Fatalf("expected no events for a no-op update, got %v", emitter.events[before:])
	}
}

func TestLifecycle_UpdateMissingTaskIsNotFound(t *testing.T) {
	lifecycle, _, emitter := newTestLifecycle(t)

	_, err := lifecycle.Update(context.Background(), "missing", core.TaskPatch{Title: strPtr("x")})
	if !core.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %v", emitter.events)
	}
}

func TestLifecycle_DeleteEmitsSnapshot(t *testing.T) {
	lifecycle, store, emitter := newTestLifecycle(t)
	created, err := lifecycle.Create(context.Background(), core.TaskInput{
		Title: "Archive drafts",
		Type:  core.TaskTypeWriting,
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if err := lifecycle.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, err := store.Get(context.Background(), created.ID); !core.IsNotFound(err) {
		t.Fatalf("expected record gone, got %v", err)
	}
	last := len(emitter.events) - 1
	if emitter.events[last] != core.EventTaskDeleted {
		t.Fatalf("expected task_deleted, got %v", emitter.events)
	}
	if emitter.tasks[last].Title != "Archive drafts" {
		t.Fatalf("expected pre-deletion snapshot in payload, got %+v", emitter.tasks[last])
	}
}

func TestLifecycle_DeleteMissingTaskIsNotFound(t *testing.T) {
	lifecycle, _, emitter := newTestLifecycle(t)

	err := lifecycle.Delete(context.Background(), "ghost")
	if !core.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no webhook events, got %v", emitter.events)
	}
}
