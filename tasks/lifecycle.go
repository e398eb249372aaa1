// Package tasks implements CRUD over the task table and decides which
// webhook event each mutation emits.
package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-studio/core"
)

// EventEmitter receives the single event selected for a mutation. Emission
// is fire-and-forget on the implementation side; the lifecycle never waits
// for delivery.
type EventEmitter interface {
	TaskCreated(ctx context.Context, task core.Task)
	TaskUpdated(ctx context.Context, task core.Task)
	TaskDeleted(ctx context.Context, task core.Task)
	TaskStatusChanged(ctx context.Context, task core.Task)
}

type Lifecycle struct {
	store   core.TaskStore
	emitter EventEmitter
	logger  core.Logger
	newID   func() string
	now     func() time.Time
}

func NewLifecycle(store core.TaskStore, emitter EventEmitter, logger core.Logger) (*Lifecycle, error) {
	if store == nil {
		return nil, fmt.Errorf("tasks: task store is required")
	}
	return &Lifecycle{
		store:   store,
		emitter: emitter,
		logger:  logger,
		newID:   uuid.NewString,
		now:     core.UTCNow,
	}, nil
}

func (l *Lifecycle) Create(ctx context.Context, input core.TaskInput) (core.Task, error) {
	if l == nil || l.store == nil {
		return core.Task{}, fmt.Errorf("tasks: lifecycle is not configured")
	}
	if strings.TrimSpace(input.Title) == "" {
		return core.Task{}, core.ValidationError("tasks: title is required")
	}
	if !input.Type.Valid() {
		return core.Task{}, core.ValidationError(fmt.Sprintf("tasks: invalid task type %q", input.Type))
	}

	status := input.Status
	if status == "" {
		status = core.TaskStatusOpen
	}
	if !status.Valid() {
		return core.Task{}, core.ValidationError(fmt.Sprintf("tasks: invalid task status %q", status))
	}
	priority := input.Priority
	if priority == "" {
		priority = core.TaskPriorityNormal
	}
	if !priority.Valid() {
		return core.Task{}, core.ValidationError(fmt.Sprintf("tasks: invalid task priority %q", priority))
	}

	now := l.clock()
	task := core.Task{
		ID:          l.nextID(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Type:        input.Type,
		Category:    input.Category,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		Tags:        ensureSlice(input.Tags),
		Attachments: ensureSlice(input.Attachments),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.store.Insert(ctx, task); err != nil {
		return core.Task{}, core.PersistenceError("tasks: insert task", err)
	}
	if l.emitter != nil {
		l.emitter.TaskCreated(ctx, task)
	}
	core.LogWith(ctx, l.logger, "info", "task created", map[string]any{
		"task_id": task.ID,
		"type":    string(task.Type),
	})
	return task, nil
}

// Update merges patch over the stored record, preserving id and createdAt
// and refreshing updatedAt. A status change emits task_status_changed and
// suppresses task_updated: exactly one event fires per update.
func (l *Lifecycle) Update(ctx context.Context, id string, patch core.TaskPatch) (core.Task, error) {
	if l == nil || l.store == nil {
		return core.Task{}, fmt.Errorf("tasks: lifecycle is not configured")
	}
	existing, err := l.store.Get(ctx, id)
	if err != nil {
		return core.Task{}, err
	}

	merged, err := applyPatch(existing, patch)
	if err != nil {
		return core.Task{}, err
	}

	statusChanged := merged.Status != existing.Status
	otherChanged := fieldsChanged(existing, merged)

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = l.clock()
	if err := l.store.Update(ctx, merged); err != nil {
		return core.Task{}, core.PersistenceError("tasks: update task", err)
	}

	// updatedAt moves on every accepted update, but an event only fires
	// when a field actually changed.
	if !statusChanged && !otherChanged {
		return merged, nil
	}

	if l.emitter != nil {
		if statusChanged {
			l.emitter.TaskStatusChanged(ctx, merged)
		} else {
			l.emitter.TaskUpdated(ctx, merged)
		}
	}
	core.LogWith(ctx, l.logger, "info", "task updated", map[string]any{
		"task_id":        merged.ID,
		"status_changed": statusChanged,
	})
	return merged, nil
}

// Delete removes the record and emits task_deleted carrying the
// pre-deletion snapshot.
func (l *Lifecycle) Delete(ctx context.Context, id string) error {
	if l == nil || l.store == nil {
		return fmt.Errorf("tasks: lifecycle is not configured")
	}
	snapshot, err := l.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := l.store.Delete(ctx, id); err != nil {
		return err
	}
	if l.emitter != nil {
		l.emitter.TaskDeleted(ctx, snapshot)
	}
	core.LogWith(ctx, l.logger, "info", "task deleted", map[string]any{
		"task_id": snapshot.ID,
	})
	return nil
}

func (l *Lifecycle) Get(ctx context.Context, id string) (core.Task, error) {
	if l == nil || l.store == nil {
		return core.Task{}, fmt.Errorf("tasks: lifecycle is not configured")
	}
	return l.store.Get(ctx, id)
}

func (l *Lifecycle) List(ctx context.Context) ([]core.Task, error) {
	if l == nil || l.store == nil {
		return nil, fmt.Errorf("tasks: lifecycle is not configured")
	}
	return l.store.List(ctx)
}

func applyPatch(existing core.Task, patch core.TaskPatch) (core.Task, error) {
	merged := existing.Clone()
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return core.Task{}, core.ValidationError("tasks: title cannot be empty")
		}
		merged.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return core.Task{}, core.ValidationError(fmt.Sprintf("tasks: invalid task type %q", *patch.Type))
		}
		merged.Type = *patch.Type
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return core.Task{}, core.ValidationError(fmt.Sprintf("tasks: invalid task status %q", *patch.Status))
		}
		merged.Status = *patch.Status
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return core.Task{}, core.ValidationError(fmt.Sprintf("tasks: invalid task priority %q", *patch.Priority))
		}
		merged.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		merged.DueDate = *patch.DueDate
	}
	if patch.Tags != nil {
		merged.Tags = ensureSlice(*patch.Tags)
	}
	if patch.Attachments != nil {
		merged.Attachments = ensureSlice(*patch.Attachments)
	}
	return merged, nil
}

// fieldsChanged reports changes to any field other than status and the
// managed timestamps.
func fieldsChanged(before, after core.Task) bool {
	return before.Title != after.Title ||
		before.Description != after.Description ||
		before.Type != after.Type ||
		before.Category != after.Category ||
		before.Priority != after.Priority ||
		before.DueDate != after.DueDate ||
		!slices.Equal(before.Tags, after.Tags) ||
		!slices.Equal(before.Attachments, after.Attachments)
}

func ensureSlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string(nil), values...)
}

func (l *Lifecycle) nextID() string {
	if l != nil && l.newID != nil {
		return l.newID()
	}
	return uuid.NewString()
}

func (l *Lifecycle) clock() time.Time {
	if l != nil && l.now != nil {
		return l.now().UTC()
	}
	return core.UTCNow()
}
