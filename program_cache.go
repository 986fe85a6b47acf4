package confscope

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewProgramCache returns an in-memory ProgramCache. Programs expire after
// ttl; a ttl of zero keeps them for the lifetime of the cache.
func NewProgramCache(ttl time.Duration) ProgramCache {
	cleanup := time.Duration(0)
	if ttl > 0 {
		cleanup = 2 * ttl
	} else {
		ttl = gocache.NoExpiration
	}
	return &memoryProgramCache{store: gocache.New(ttl, cleanup)}
}

type memoryProgramCache struct {
	store *gocache.Cache
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.store.SetDefault(key, value)
}
