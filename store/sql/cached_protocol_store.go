package sqlstore

import (
	"context"
	"fmt"
	"strconv"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-studio/core"
)

const protocolCacheKeyPrefix = "go-studio::protocol::v1"

// CachedProtocolStore serves protocol reads from a cache in front of the
// SQL store. The summary and list endpoints are read-heavy while writes
// only happen when a session lands, so cache-aside with invalidate-on-save
// keeps the projection cheap without staleness windows.
type CachedProtocolStore struct {
	base  core.ProtocolStore
	cache repositorycache.CacheService
}

func NewCachedProtocolStore(base core.ProtocolStore, cacheService repositorycache.CacheService) (*CachedProtocolStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base protocol store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: protocol cache service is required")
	}
	return &CachedProtocolStore{base: base, cache: cacheService}, nil
}

func protocolCacheKey(id int) string {
	return protocolCacheKeyPrefix + "::" + strconv.Itoa(id)
}

func protocolListCacheKey() string {
	return protocolCacheKeyPrefix + "::all"
}

func (s *CachedProtocolStore) Get(ctx context.Context, id int) (core.Protocol, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Protocol{}, fmt.Errorf("sqlstore: cached protocol store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, protocolCacheKey(id), func(ctx context.Context) (core.Protocol, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedProtocolStore) List(ctx context.Context) ([]core.Protocol, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached protocol store is not configured")
	}
	protocols, err := repositorycache.GetOrFetch(ctx, s.cache, protocolListCacheKey(), func(ctx context.Context) ([]core.Protocol, error) {
		return s.base.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]core.Protocol(nil), protocols...), nil
}

func (s *CachedProtocolStore) Save(ctx context.Context, protocol core.Protocol) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached protocol store is not configured")
	}
	if err := s.base.Save(ctx, protocol); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, protocolCacheKey(protocol.ID)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, protocolListCacheKey())
}

var _ core.ProtocolStore = (*CachedProtocolStore)(nil)
