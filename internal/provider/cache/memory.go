package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"moviescroll/internal/domain"
	"moviescroll/internal/stream"
)

const (
	defaultTTL             = 10 * time.Minute
	defaultCleanupInterval = 5 * time.Minute
)

// Memory serves repeated page requests from an in-process cache.
// Requests that differ only in lifecycle share an entry.
type Memory struct {
	next   stream.Fetcher
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewMemory wraps next with a cache whose entries live for ttl
func NewMemory(next stream.Fetcher, ttl time.Duration, logger *zap.Logger) *Memory {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		next:   next,
		cache:  gocache.New(ttl, defaultCleanupInterval),
		logger: logger.Named("cache.memory"),
	}
}

func (m *Memory) Fetch(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
	key := req.Key()
	if x, found := m.cache.Get(key); found {
		m.logger.Debug("cache hit", zap.String("key", key))
		return clonePage(x.(*domain.ResultPage)), nil
	}

	page, err := m.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	// an empty page may fill up later
	if !page.Empty() {
		m.cache.Set(key, clonePage(page), gocache.DefaultExpiration)
	}
	return page, nil
}

// Len returns the number of cached pages
func (m *Memory) Len() int {
	return m.cache.ItemCount()
}

func clonePage(p *domain.ResultPage) *domain.ResultPage {
	cp := *p
	cp.Items = make([]domain.ResultItem, len(p.Items))
	copy(cp.Items, p.Items)
	return &cp
}
