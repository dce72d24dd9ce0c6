// Package cache holds the in-memory document caches used while building
// chat prompts. Neither cache is authoritative: a miss falls through to the
// document store.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/liliang-cn/standbot/internal/domain"
)

// DefaultContextCacheSize is the capacity of the context document cache
const DefaultContextCacheSize = 20

// ContextCache is a bounded LRU of documents recently used as LLM context.
// The underlying cache keeps its map and recency list under a single lock.
type ContextCache struct {
	lru *lru.Cache[string, *domain.Document]
}

// NewContextCache creates a cache holding at most size documents
func NewContextCache(size int) (*ContextCache, error) {
	if size <= 0 {
		size = DefaultContextCacheSize
	}
	c, err := lru.New[string, *domain.Document](size)
	if err != nil {
		return nil, err
	}
	return &ContextCache{lru: c}, nil
}

// Get returns the cached copy of id and marks it most recently used
func (c *ContextCache) Get(id string) (*domain.Document, bool) {
	return c.lru.Get(id)
}

// Put stores doc, overwriting any previous copy, and marks it most recently
// used. When full, the least recently used document is evicted first.
func (c *ContextCache) Put(doc *domain.Document) {
	if doc == nil || doc.ID == "" {
		return
	}
	c.lru.Add(doc.ID, doc)
}

// Fresher returns the cached copy of doc when it is at least as new as doc;
// otherwise it caches doc and returns it.
func (c *ContextCache) Fresher(doc *domain.Document) *domain.Document {
	if cached, ok := c.Get(doc.ID); ok && !cached.UpdatedAt.Before(doc.UpdatedAt) {
		return cached
	}
	c.Put(doc)
	return doc
}

// Keys returns the cached ids from least to most recently used
func (c *ContextCache) Keys() []string {
	return c.lru.Keys()
}

// Len returns the number of cached documents
func (c *ContextCache) Len() int {
	return c.lru.Len()
}
