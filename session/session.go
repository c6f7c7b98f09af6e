// Package session caches login sessions per tenant and site context.
//
// A session token is only valid for the context it was obtained in, so the
// cache never shares one across keys. Concurrent callers asking for the same
// key share a single in-flight login.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/metrics"
)

// Key identifies the context a session is valid for.
type Key struct {
	Via    uat.SessionSource
	Tenant string
	Site   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Via, k.Tenant, k.Site)
}

// LoginFunc obtains a fresh session for a key.
type LoginFunc func(ctx context.Context) (*uat.Session, error)

// Cache holds at most one session per Key.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sessions map[Key]*uat.Session

	sf singleflight.Group
}

// Option configures the Cache.
type Option func(*Cache)

// WithTTL bounds how long a cached session is reused. Zero means until
// invalidated, since session expiry is server-defined.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithClock sets the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records cache hits and misses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		now:      time.Now,
		sessions: make(map[Key]*uat.Session),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached session for key, or calls login to obtain one.
// Failed logins are not cached.
func (c *Cache) Get(ctx context.Context, key Key, login LoginFunc) (*uat.Session, error) {
	if s := c.lookup(key); s != nil {
		c.metrics.RecordSessionCacheHit(string(key.Via))
		return s, nil
	}
	c.metrics.RecordSessionCacheMiss(string(key.Via))

	// singleflight prevents duplicate logins for the same context
	result, err, _ := c.sf.Do(key.String(), func() (interface{}, error) {
		if s := c.lookup(key); s != nil {
			return s, nil
		}
		s, err := login(ctx)
		if err != nil {
			return nil, err
		}
		if s == nil || s.Token == "" {
			return nil, fmt.Errorf("uat/session: login for %s returned no session", key)
		}
		c.mu.Lock()
		c.sessions[key] = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*uat.Session), nil
}

func (c *Cache) lookup(key Key) *uat.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[key]
	if !ok {
		return nil
	}
	if c.ttl > 0 && c.now().After(s.AcquiredAt.Add(c.ttl)) {
		return nil
	}
	return s
}

// Invalidate drops the session for key, e.g. after the server rejected it.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, key)
}

// Clear drops every cached session.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[Key]*uat.Session)
}

// Len returns the number of cached sessions, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
