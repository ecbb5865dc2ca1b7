package user

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// StatusCache keeps recently read stored statuses so the action gate does not
// hit the repository on every request. Entries hold the stored status, which
// is evaluated against the clock on every read, so a detention still ends on
// time while cached. A nil *StatusCache is a valid, disabled cache.
//
// Every entry carries the user version it was read at. A write never
// replaces an entry with an older version, so a read that loaded the user
// before a transition cannot put the pre-transition status back.
type StatusCache struct {
	mu    sync.Mutex
	items *cache.Cache
}

type cachedStatus struct {
	status  user.Status
	version int
	// evicted marks an invalidation; it only blocks older writes
	evicted bool
}

// NewStatusCache returns a cache with the given TTL, or nil when ttl <= 0.
func NewStatusCache(ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		return nil
	}
	return &StatusCache{items: cache.New(ttl, 2*ttl)}
}

func (c *StatusCache) Get(id uuid.UUID) (user.Status, bool) {
	if c == nil {
		return user.Status{}, false
	}
	entry, ok := c.lookup(id)
	if !ok || entry.evicted {
		return user.Status{}, false
	}
	return entry.status, true
}

// Set stores status as read at version. It is a no-op when the cache already
// holds a newer version of the user.
func (c *StatusCache) Set(id uuid.UUID, status user.Status, version int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.lookup(id); ok && entry.version > version {
		return
	}
	c.items.Set(id.String(), cachedStatus{status: status, version: version}, cache.DefaultExpiration)
}

// Invalidate drops the entry for id once the user reached version elsewhere.
// An entry already at version or newer is kept. Until the TTL runs out,
// writes older than version are still refused.
func (c *StatusCache) Invalidate(id uuid.UUID, version int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.lookup(id); ok && entry.version >= version {
		return
	}
	c.items.Set(id.String(), cachedStatus{version: version, evicted: true}, cache.DefaultExpiration)
}

// Len is the number of cached entries, including expired ones not yet evicted.
func (c *StatusCache) Len() int {
	if c == nil {
		return 0
	}
	return c.items.ItemCount()
}

func (c *StatusCache) lookup(id uuid.UUID) (cachedStatus, bool) {
	v, ok := c.items.Get(id.String())
	if !ok {
		return cachedStatus{}, false
	}
	entry, ok := v.(cachedStatus)
	return entry, ok
}
