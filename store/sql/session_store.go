package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-studio/core"
)

type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &SessionStore{db: db}, nil
}

// Append inserts the session row. Sessions are append-only: there is no
// update or delete path by design of the log.
func (s *SessionStore) Append(ctx context.Context, session core.ProtocolSession) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return core.ValidationError("sqlstore: session id is required")
	}
	record := newSessionRecord(session, time.Now().UTC())
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.PersistenceError("sqlstore: append session", err)
	}
	return nil
}

func (s *SessionStore) ListByProtocol(ctx context.Context, protocolID int) ([]core.ProtocolSession, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: session store is not configured")
	}
	var records []*sessionRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.protocol_id = ?", protocolID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, core.PersistenceError("sqlstore: list sessions", err)
	}
	out := make([]core.ProtocolSession, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *SessionStore) List(ctx context.Context) ([]core.ProtocolSession, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: session store is not configured")
	}
	var records []*sessionRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, core.PersistenceError("sqlstore: list sessions", err)
	}
	out := make([]core.ProtocolSession, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
