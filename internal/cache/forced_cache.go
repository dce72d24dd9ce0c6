package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/liliang-cn/standbot/internal/domain"
	"go.uber.org/zap"
)

// URLLookup fetches the document published at url
type URLLookup func(ctx context.Context, website, url string) (*domain.Document, error)

// ForcedCache holds the master exhibitor list document of each website.
// Entries are loaded once and never invalidated; a not-found result is
// remembered as nil so the store is not asked again.
type ForcedCache struct {
	lookup URLLookup
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*domain.Document
}

// NewForcedCache creates an empty forced document cache
func NewForcedCache(lookup URLLookup, logger *zap.Logger) *ForcedCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForcedCache{
		lookup:  lookup,
		logger:  logger,
		entries: make(map[string]*domain.Document),
	}
}

// Get returns the master list document for website, or nil when it does not
// exist or could not be loaded. Errors never reach the caller.
func (c *ForcedCache) Get(ctx context.Context, website, url string) *domain.Document {
	if url == "" {
		return nil
	}

	c.mu.Lock()
	doc, ok := c.entries[website]
	c.mu.Unlock()
	if ok {
		return doc
	}

	doc, err := c.lookup(ctx, website, url)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("Failed to load forced document",
			zap.String("website", website),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		doc = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[website]; ok {
		return existing
	}
	c.entries[website] = doc
	return doc
}

// Len returns the number of websites with a cached entry, nil entries included
func (c *ForcedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
