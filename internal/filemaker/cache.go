package filemaker

import (
	"time"

	"github.com/coocood/freecache"
)

// SessionCache holds Admin API tokens per server until they expire.
type SessionCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

// NewSessionCache allocates sizeBytes of cache memory. Tokens expire after ttl.
func NewSessionCache(sizeBytes int, ttl time.Duration) *SessionCache {
	return &SessionCache{cache: freecache.NewCache(sizeBytes), ttl: ttl}
}

func (c *SessionCache) Get(serverID string) (string, bool) {
	v, err := c.cache.Get([]byte(serverID))
	if err != nil {
		return "", false
	}
	return string(v), true
}

func (c *SessionCache) Set(serverID, token string) error {
	secs := int(c.ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return c.cache.Set([]byte(serverID), []byte(token), secs)
}

func (c *SessionCache) Invalidate(serverID string) {
	c.cache.Del([]byte(serverID))
}
