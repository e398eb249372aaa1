package sqlstore

import (
	"context"
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-studio/core"
)

// RepositoryFactory builds the SQL-backed stores over a shared bun handle.
type RepositoryFactory struct {
	db *bun.DB

	taskStore     *TaskStore
	protocolStore *ProtocolStore
	sessionStore  *SessionStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.taskStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) TaskStore() core.TaskStore {
	if f == nil {
		return nil
	}
	return f.taskStore
}

func (f *RepositoryFactory) ProtocolStore() core.ProtocolStore {
	if f == nil {
		return nil
	}
	return f.protocolStore
}

func (f *RepositoryFactory) SessionStore() core.SessionStore {
	if f == nil {
		return nil
	}
	return f.sessionStore
}

func (f *RepositoryFactory) initStores() error {
	taskRepo := repository.NewRepository[*taskRecord](f.db, taskHandlers())
	if validator, ok := taskRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid task repository wiring: %w", err)
		}
	}
	f.taskStore = &TaskStore{db: f.db, repo: taskRepo}

	protocolStore, err := NewProtocolStore(f.db)
	if err != nil {
		return err
	}
	f.protocolStore = protocolStore

	sessionStore, err := NewSessionStore(f.db)
	if err != nil {
		return err
	}
	f.sessionStore = sessionStore

	return nil
}

// EnsureSchema creates the studio tables when they do not exist yet.
// Single-binary installs have no external migration step.
func (f *RepositoryFactory) EnsureSchema(ctx context.Context) error {
	if f == nil || f.db == nil {
		return fmt.Errorf("sqlstore: repository factory is not configured")
	}
	models := []any{
		(*taskRecord)(nil),
		(*protocolRecord)(nil),
		(*sessionRecord)(nil),
	}
	for _, model := range models {
		if _, err := f.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: create table for %T: %w", model, err)
		}
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
