package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-studio/core"
)

type ProtocolStore struct {
	db *bun.DB
}

func NewProtocolStore(db *bun.DB) (*ProtocolStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &ProtocolStore{db: db}, nil
}

func (s *ProtocolStore) Get(ctx context.Context, id int) (core.Protocol, error) {
	if s == nil || s.db == nil {
		return core.Protocol{}, fmt.Errorf("sqlstore: protocol store is not configured")
	}
	record := &protocolRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Protocol{}, core.NotFoundError(fmt.Sprintf("sqlstore: protocol %d not found", id))
		}
		return core.Protocol{}, core.PersistenceError("sqlstore: get protocol", err)
	}
	return record.toDomain(), nil
}

func (s *ProtocolStore) List(ctx context.Context) ([]core.Protocol, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: protocol store is not configured")
	}
	var records []*protocolRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, core.PersistenceError("sqlstore: list protocols", err)
	}
	out := make([]core.Protocol, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// Save upserts the protocol row. The projection is recomputed from the
// session log on every write, so last-write-wins is acceptable here.
func (s *ProtocolStore) Save(ctx context.Context, protocol core.Protocol) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: protocol store is not configured")
	}
	record := newProtocolRecord(protocol)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(record).
			Where("id = ?", record.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err == nil && affected > 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
	if err != nil {
		return core.PersistenceError("sqlstore: save protocol", err)
	}
	return nil
}
