package tenants

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// Directory looks tenant records up.
type Directory interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}

const defaultMaxTenants = 1024

type cachedTenant struct {
	tenant  *domain.Tenant
	expires time.Time
}

// CachedDirectory memoizes lookups for ttl. Unknown tenants are cached too,
// so a bad id in a link does not hit the directory on every request.
// Errors other than domain.ErrTenantNotFound are never cached. Each miss
// asks the wrapped directory under timeout, whatever its source.
type CachedDirectory struct {
	next    Directory
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries *lru.Cache
}

// NewCachedDirectory wraps next. A zero timeout leaves lookups bounded only
// by the caller's context.
func NewCachedDirectory(next Directory, ttl, timeout time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:    next,
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
		entries: lru.New(defaultMaxTenants),
	}
}

// GetTenant returns the cached record or asks the wrapped directory.
func (c *CachedDirectory) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	if entry, ok := c.lookup(id); ok {
		if entry.tenant == nil {
			return nil, domain.ErrTenantNotFound
		}
		return entry.tenant, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tenant, err := c.next.GetTenant(ctx, id)
	switch {
	case err == nil:
		c.store(id, tenant)
	case errors.Is(err, domain.ErrTenantNotFound):
		c.store(id, nil)
	}
	return tenant, err
}

// Forget drops the cached record for id, e.g. after its theme changed.
func (c *CachedDirectory) Forget(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(id)
}

func (c *CachedDirectory) lookup(id uuid.UUID) (cachedTenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(id)
	if !ok {
		return cachedTenant{}, false
	}
	entry, _ := v.(cachedTenant)
	if !c.now().Before(entry.expires) {
		c.entries.Remove(id)
		return cachedTenant{}, false
	}
	return entry, true
}

func (c *CachedDirectory) store(id uuid.UUID, tenant *domain.Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(id, cachedTenant{tenant: tenant, expires: c.now().Add(c.ttl)})
}
