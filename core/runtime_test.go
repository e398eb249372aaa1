package core

import (
	"context"
	"testing"
)

type stubTaskStore struct{}

func (stubTaskStore) Get(context.Context, string) (Task, error) { return Task{}, nil }
func (stubTaskStore) List(context.Context) ([]Task, error)      { return nil, nil }
func (stubTaskStore) Insert(context.Context, Task) error        { return nil }
func (stubTaskStore) Update(context.Context, Task) error        { return nil }
func (stubTaskStore) Delete(context.Context, string) error      { return nil }

type stubProtocolStore struct{}

func (stubProtocolStore) Get(context.Context, int) (Protocol, error) { return Protocol{}, nil }
func (stubProtocolStore) List(context.Context) ([]Protocol, error)   { return nil, nil }
func (stubProtocolStore) Save(context.Context, Protocol) error       { return nil }

type stubSessionStore struct{}

func (stubSessionStore) Append(context.Context, ProtocolSession) error { return nil }
func (stubSessionStore) ListByProtocol(context.Context, int) ([]ProtocolSession, error) {
	return nil, nil
}
func (stubSessionStore) List(context.Context) ([]ProtocolSession, error) { return nil, nil }

func TestNewRuntime_ResolvesConfigAndHoldsStores(t *testing.T) {
	runtime := Config{}
	runtime.Server.Address = ":6060"

	rt, err := NewRuntime(context.Background(), runtime,
		WithTaskStore(stubTaskStore{}),
		WithProtocolStore(stubProtocolStore{}),
		WithSessionStore(stubSessionStore{}),
	)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if rt.Config().Server.Address != ":6060" {
		t.Fatalf("runtime config override lost: %+v", rt.Config())
	}
	if rt.Config().ServiceName != "studio" {
		t.Fatalf("defaults not applied: %+v", rt.Config())
	}
	if rt.TaskStore() == nil || rt.ProtocolStore() == nil || rt.SessionStore() == nil {
		t.Fatalf("stores must be retained")
	}
	if rt.Logger() == nil {
		t.Fatalf("logger must never be nil")
	}
}

func TestNewRuntime_RequiresStores(t *testing.T) {
	if _, err := NewRuntime(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without stores")
	}
	if _, err := NewRuntime(context.Background(), Config{},
		WithTaskStore(stubTaskStore{}),
		WithProtocolStore(stubProtocolStore{}),
	); err == nil {
		t.Fatalf("expected error without session store")
	}
}

func TestLogWith_NilLoggerIsNoop(t *testing.T) {
	// Must not panic.
	LogWith(context.Background(), nil, "info", "message", map[string]any{"k": "v"})
	LogWith(nil, nil, "error", "message", nil)
}
