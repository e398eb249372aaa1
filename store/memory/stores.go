// Package memory provides mutex-guarded process-local stores. They back the
// default runtime and every package's unit tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-studio/core"
)

type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]core.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[string]core.Task{}}
}

func (s *TaskStore) Get(_ context.Context, id string) (core.Task, error) {
	if s == nil {
		return core.Task{}, fmt.Errorf("memory: task store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[strings.TrimSpace(id)]
	if !ok {
		return core.Task{}, core.NotFoundError(fmt.Sprintf("memory: task %q not found", id))
	}
	return task.Clone(), nil
}

func (s *TaskStore) List(_ context.Context) ([]core.Task, error) {
	if s == nil {
		return nil, fmt.Errorf("memory: task store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *TaskStore) Insert(_ context.Context, task core.Task) error {
	if s == nil {
		return fmt.Errorf("memory: task store is nil")
	}
	id := strings.TrimSpace(task.ID)
	if id == "" {
		return core.ValidationError("memory: task id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[id] = task.Clone()
	return nil
}

func (s *TaskStore) Update(_ context.Context, task core.Task) error {
	if s == nil {
		return fmt.Errorf("memory: task store is nil")
	}
	id := strings.TrimSpace(task.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return core.NotFoundError(fmt.Sprintf("memory: task %q not found", id))
	}
	s.tasks[id] = task.Clone()
	return nil
}

func (s *TaskStore) Delete(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("memory: task store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return core.NotFoundError(fmt.Sprintf("memory: task %q not found", id))
	}
	delete(s.tasks, id)
	return nil
}

type ProtocolStore struct {
	mu        sync.Mutex
	protocols map[int]core.Protocol
}

func NewProtocolStore(seed ...core.Protocol) *ProtocolStore {
	store := &ProtocolStore{protocols: map[int]core.Protocol{}}
	for _, protocol := range seed {
		store.protocols[protocol.ID] = protocol
	}
	return store
}

func (s *ProtocolStore) Get(_ context.Context, id int) (core.Protocol, error) {
	if s == nil {
		return core.Protocol{}, fmt.Errorf("memory: protocol store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	protocol, ok := s.protocols[id]
	if !ok {
		return core.Protocol{}, core.NotFoundError(fmt.Sprintf("memory: protocol %d not found", id))
	}
	return protocol, nil
}

func (s *ProtocolStore) List(_ context.Context) ([]core.Protocol, error) {
	if s == nil {
		return nil, fmt.Errorf("memory: protocol store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Protocol, 0, len(s.protocols))
	for _, protocol := range s.protocols {
		out = append(out, protocol)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ProtocolStore) Save(_ context.Context, protocol core.Protocol) error {
	if s == nil {
		return fmt.Errorf("memory: protocol store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocols[protocol.ID] = protocol
	return nil
}

type SessionStore struct {
	mu       sync.Mutex
	sessions []core.ProtocolSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Append(_ context.Context, session core.ProtocolSession) error {
	if s == nil {
		return fmt.Errorf("memory: session store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
	return nil
}

func (s *SessionStore) ListByProtocol(_ context.Context, protocolID int) ([]core.ProtocolSession, error) {
	if s == nil {
		return nil, fmt.Errorf("memory: session store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ProtocolSession
	for _, session := range s.sessions {
		if session.ProtocolID == protocolID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *SessionStore) List(_ context.Context) ([]core.ProtocolSession, error) {
	if s == nil {
		return nil, fmt.Errorf("memory: session store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ProtocolSession(nil), s.sessions...), nil
}

var (
	_ core.TaskStore     = (*TaskStore)(nil)
	_ core.ProtocolStore = (*ProtocolStore)(nil)
	_ core.SessionStore  = (*SessionStore)(nil)
)
