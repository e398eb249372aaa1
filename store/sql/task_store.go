package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-studio/core"
)

type TaskStore struct {
	db   *bun.DB
	repo repository.Repository[*taskRecord]
}

func (s *TaskStore) Get(ctx context.Context, id string) (core.Task, error) {
	if s == nil || s.repo == nil {
		return core.Task{}, fmt.Errorf("sqlstore: task store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.NotFoundError(fmt.Sprintf("sqlstore: task %q not found", id))
		}
		return core.Task{}, core.PersistenceError("sqlstore: get task", err)
	}
	return record.toDomain(), nil
}

func (s *TaskStore) List(ctx context.Context) ([]core.Task, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: task store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, core.PersistenceError("sqlstore: list tasks", err)
	}
	out := make([]core.Task, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *TaskStore) Insert(ctx context.Context, task core.Task) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: task store is not configured")
	}
	if strings.TrimSpace(task.ID) == "" {
		return core.ValidationError("sqlstore: task id is required")
	}
	if _, err := s.repo.Create(ctx, newTaskRecord(task)); err != nil {
		return core.PersistenceError("sqlstore: insert task", err)
	}
	return nil
}

func (s *TaskStore) Update(ctx context.Context, task core.Task) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: task store is not configured")
	}
	id := strings.TrimSpace(task.ID)
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFoundError(fmt.Sprintf("sqlstore: task %q not found", id))
		}
		return core.PersistenceError("sqlstore: update task", err)
	}
	if _, err := s.repo.Update(ctx, newTaskRecord(task), repository.UpdateByID(id)); err != nil {
		return core.PersistenceError("sqlstore: update task", err)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: task store is not configured")
	}
	id = strings.TrimSpace(id)
	res, err := s.db.NewDelete().
		Model((*taskRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return core.PersistenceError("sqlstore: delete task", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return core.NotFoundError(fmt.Sprintf("sqlstore: task %q not found", id))
	}
	return nil
}
