package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// TaskStore is the injected task table. Implementations serialize access;
// the lifecycle service performs no locking of its own.
type TaskStore interface {
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context) ([]Task, error)
	Insert(ctx context.Context, task Task) error
	Update(ctx context.Context, task Task) error
	Delete(ctx context.Context, id string) error
}

// ProtocolStore holds the protocol projections.
type ProtocolStore interface {
	Get(ctx context.Context, id int) (Protocol, error)
	List(ctx context.Context) ([]Protocol, error)
	Save(ctx context.Context, protocol Protocol) error
}

// SessionStore is the append-only session log. Append never rejects a
// session whose protocol is missing: orphaned sessions are legal.
type SessionStore interface {
	Append(ctx context.Context, session ProtocolSession) error
	ListByProtocol(ctx context.Context, protocolID int) ([]ProtocolSession, error)
	List(ctx context.Context) ([]ProtocolSession, error)
}

// DispatchResult is the terminal outcome of one outbound delivery, however
// many attempts it took.
type DispatchResult struct {
	Success  bool
	Attempts int
	Err      error
}

// EventDispatcher delivers a payload to the configured external endpoint.
// Send blocks until the delivery resolves; callers that must not block run
// it from an unawaited goroutine.
type EventDispatcher interface {
	Send(ctx context.Context, payload any) DispatchResult
}

// DeadLetterSink receives payloads whose delivery exhausted every attempt.
type DeadLetterSink interface {
	DeadLetter(ctx context.Context, event string, payload any, cause error) error
}

// StoreProvider bundles the persistence backends a runtime resolves once.
type StoreProvider interface {
	TaskStore() TaskStore
	ProtocolStore() ProtocolStore
	SessionStore() SessionStore
}
