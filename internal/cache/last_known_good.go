package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// LastKnownGood keeps the most recent successfully fetched schema per page,
// bounded to maxEntries with least-recently-used eviction. Stored schemas are
// treated as immutable snapshots.
type LastKnownGood struct {
	mu    sync.Mutex
	store *lru.Cache
}

// NewLastKnownGood creates a bounded last-known-good cache.
func NewLastKnownGood(maxEntries int) *LastKnownGood {
	return &LastKnownGood{store: lru.New(maxEntries)}
}

// Put records schema as the latest good copy for ref.
func (l *LastKnownGood) Put(ref domain.PageRef, schema domain.PageSchema) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store.Add(ref.String(), schema)
}

// Get returns the latest good copy for ref.
func (l *LastKnownGood) Get(ref domain.PageRef) (domain.PageSchema, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.store.Get(ref.String())
	if !ok {
		return domain.PageSchema{}, false
	}
	schema, ok := v.(domain.PageSchema)
	return schema, ok
}

// Len reports the number of pages held.
func (l *LastKnownGood) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Len()
}
