package loader

import (
	"context"
	"errors"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
	"go.uber.org/zap"
)

// LedgerCache is the subset of the Redis cache the cached loader needs
type LedgerCache interface {
	ReadJSON(ctx context.Context, key string, v any) error
	WriteJSON(ctx context.Context, key string, v any) error
}

// CachedLoader serves ledgers from a cache in front of another loader.
// Cache failures are logged and bypassed; only the inner loader can fail a load.
type CachedLoader struct {
	inner  Loader
	cache  LedgerCache
	key    string
	miss   error
	logger *zap.Logger
}

// NewCachedLoader wraps inner. missErr is the error the cache returns for an absent key.
func NewCachedLoader(inner Loader, cache LedgerCache, key string, missErr error, logger *zap.Logger) *CachedLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLoader{
		inner:  inner,
		cache:  cache,
		key:    key,
		miss:   missErr,
		logger: logger,
	}
}

// Source implements Loader
func (c *CachedLoader) Source() string {
	return c.inner.Source()
}

// Location is the inner loader's location
func (c *CachedLoader) Location() string {
	return Location(c.inner)
}

// Ping checks the inner source when it supports health checks
func (c *CachedLoader) Ping(ctx context.Context) error {
	if p, ok := c.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Load implements Loader
func (c *CachedLoader) Load(ctx context.Context) (*models.Ledger, error) {
	var cached models.Ledger
	err := c.cache.ReadJSON(ctx, c.key, &cached)
	switch {
	case err == nil:
		c.logger.Debug("ledger cache hit",
			zap.String("key", c.key),
			zap.Int("rows", len(cached.Records)))
		return &cached, nil
	case c.miss != nil && errors.Is(err, c.miss):
		c.logger.Debug("ledger cache miss", zap.String("key", c.key))
	default:
		c.logger.Warn("ledger cache read failed, bypassing",
			zap.String("key", c.key),
			zap.Error(err))
	}

	ledger, err := c.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.WriteJSON(ctx, c.key, ledger); err != nil {
		c.logger.Warn("ledger cache write failed",
			zap.String("key", c.key),
			zap.Error(err))
	}

	return ledger, nil
}
