// Package jsonfile persists collections as flat JSON arrays on disk, one
// file per collection. Every mutation rewrites the whole file; the data
// volumes involved are personal-scale, so simplicity wins over deltas.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-studio/core"
)

const (
	tasksFile     = "tasks.json"
	protocolsFile = "protocols.json"
	sessionsFile  = "sessions.json"
)

// readCollection loads a JSON array from path. A missing or unreadable
// file yields the empty collection: the store heals by rewriting on the
// next mutation instead of refusing to start.
func readCollection[T any](path string, logger core.Logger) []T {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			core.LogWith(context.Background(), logger, "warn", "starting with empty collection", map[string]any{
				"path":  path,
				"error": err.Error(),
			})
		}
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		core.LogWith(context.Background(), logger, "warn", "starting with empty collection", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return nil
	}
	return out
}

// writeCollection rewrites path atomically via a temp file and rename, so
// a crash mid-write never leaves a truncated collection behind.
func writeCollection[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return core.PersistenceError("jsonfile: encode collection", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return core.PersistenceError("jsonfile: create data dir", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return core.PersistenceError("jsonfile: create temp file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return core.PersistenceError("jsonfile: write collection", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return core.PersistenceError("jsonfile: close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return core.PersistenceError("jsonfile: replace collection", err)
	}
	return nil
}

type TaskStore struct {
	mu     sync.Mutex
	path   string
	logger core.Logger
}

func NewTaskStore(dataDir string, logger core.Logger) *TaskStore {
	return &TaskStore{path: filepath.Join(dataDir, tasksFile), logger: logger}
}

func (s *TaskStore) load() []core.Task {
	return readCollection[core.Task](s.path, s.logger)
}

func (s *TaskStore) Get(_ context.Context, id string) (core.Task, error) {
	if s == nil {
		return core.Task{}, fmt.Errorf("jsonfile: task store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id = strings.TrimSpace(id)
	for _, task := range s.load() {
		if task.ID == id {
			return task.Clone(), nil
		}
	}
	return core.Task{}, core.NotFoundError(fmt.Sprintf("jsonfile: task %q not found", id))
}

func (s *TaskStore) List(_ context.Context) ([]core.Task, error) {
	if s == nil {
		return nil, fmt.Errorf("jsonfile: task store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.load()
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	out := make([]core.Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Clone())
	}
	return out, nil
}

func (s *TaskStore) Insert(_ context.Context, task core.Task) error {
	if s == nil {
		return fmt.Errorf("jsonfile: task store is nil")
	}
	if strings.TrimSpace(task.ID) == "" {
		return core.ValidationError("jsonfile: task id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.load()
	tasks = append(tasks, task.Clone())
	return writeCollection(s.path, tasks)
}

func (s *TaskStore) Update(_ context.Context, task core.Task) error {
	if s == nil {
		return fmt.Errorf("jsonfile: task store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.load()
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = task.Clone()
			return writeCollection(s.path, tasks)
		}
	}
	return core.NotFoundError(fmt.Sprintf("jsonfile: task %q not found", task.ID))
}

func (s *TaskStore) Delete(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("jsonfile: task store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id = strings.TrimSpace(id)
	tasks := s.load()
	for i := range tasks {
		if tasks[i].ID == id {
			tasks = append(tasks[:i], tasks[i+1:]...)
			return writeCollection(s.path, tasks)
		}
	}
	return core.NotFoundError(fmt.Sprintf("jsonfile: task %q not found", id))
}

type ProtocolStore struct {
	mu     sync.Mutex
	path   string
	logger core.Logger
}

func NewProtocolStore(dataDir string, logger core.Logger) *ProtocolStore {
	return &ProtocolStore{path: filepath.Join(dataDir, protocolsFile), logger: logger}
}

// Seed writes the given protocols only when the collection file does not
// exist yet, so a fresh install starts with the practice catalog while
// restarts keep accumulated progress.
func (s *ProtocolStore) Seed(protocols []core.Protocol) error {
	if s == nil {
		return fmt.Errorf("jsonfile: protocol store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return writeCollection(s.path, protocols)
}

func (s *ProtocolStore) Get(_ context.Context, id int) (core.Protocol, error) {
	if s == nil {
		return core.Protocol{}, fmt.Errorf("jsonfile: protocol store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, protocol := range readCollection[core.Protocol](s.path, s.logger) {
		if protocol.ID == id {
			return protocol, nil
		}
	}
	return core.Protocol{}, core.NotFoundError(fmt.Sprintf("jsonfile: protocol %d not found", id))
}

func (s *ProtocolStore) List(_ context.Context) ([]core.Protocol, error) {
	if s == nil {
		return nil, fmt.Errorf("jsonfile: protocol store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	protocols := readCollection[core.Protocol](s.path, s.logger)
	sort.Slice(protocols, func(i, j int) bool { return protocols[i].ID < protocols[j].ID })
	return protocols, nil
}

func (s *ProtocolStore) Save(_ context.Context, protocol core.Protocol) error {
	if s == nil {
		return fmt.Errorf("jsonfile: protocol store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	protocols := readCollection[core.Protocol](s.path, s.logger)
	for i := range protocols {
		if protocols[i].ID == protocol.ID {
			protocols[i] = protocol
			return writeCollection(s.path, protocols)
		}
	}
	protocols = append(protocols, protocol)
	return writeCollection(s.path, protocols)
}

type SessionStore struct {
	mu     sync.Mutex
	path   string
	logger core.Logger
}

func NewSessionStore(dataDir string, logger core.Logger) *SessionStore {
	return &SessionStore{path: filepath.Join(dataDir, sessionsFile), logger: logger}
}

func (s *SessionStore) Append(_ context.Context, session core.ProtocolSession) error {
	if s == nil {
		return fmt.Errorf("jsonfile: session store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := readCollection[core.ProtocolSession](s.path, s.logger)
	sessions = append(sessions, session)
	return writeCollection(s.path, sessions)
}

func (s *SessionStore) ListByProtocol(_ context.Context, protocolID int) ([]core.ProtocolSession, error) {
	if s == nil {
		return nil, fmt.Errorf("jsonfile: session store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ProtocolSession
	for _, session := range readCollection[core.ProtocolSession](s.path, s.logger) {
		if session.ProtocolID == protocolID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *SessionStore) List(_ context.Context) ([]core.ProtocolSession, error) {
	if s == nil {
		return nil, fmt.Errorf("jsonfile: session store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readCollection[core.ProtocolSession](s.path, s.logger), nil
}

var (
	_ core.TaskStore     = (*TaskStore)(nil)
	_ core.ProtocolStore = (*ProtocolStore)(nil)
	_ core.SessionStore  = (*SessionStore)(nil)
)
