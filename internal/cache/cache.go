// Package cache holds the session-scoped profile cache. It is strictly a
// read-through shortcut over the user store: every value in it is
// reconstructable from the store, it is primed only after the store has
// answered at least once for that user, and it is invalidated on every auth
// transition and profile mutation.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	primedAt time.Time
}

type pending struct {
	expires time.Time
}

// SessionCache caches per-user values for the lifetime of a session and
// tracks the time-boxed "just signed in, confirmation pending" state.
type SessionCache[T any] struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]entry[T]
	pend    map[string]pending
}

// New constructs an empty SessionCache.
func New[T any]() *SessionCache[T] {
	return &SessionCache[T]{
		now:     time.Now,
		entries: map[string]entry[T]{},
		pend:    map[string]pending{},
	}
}

// Get returns the cached value for uid if the cache has been primed for it.
func (c *SessionCache[T]) Get(uid string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[uid]
	return e.value, ok
}

// Put primes the cache for uid. Call only with a value freshly read from or
// written to the authoritative store.
func (c *SessionCache[T]) Put(uid string, v T) {
	c.mu.Lock()
	c.entries[uid] = entry[T]{value: v, primedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops the cached value and pending state for uid. Call on every
// profile mutation and on sign-out.
func (c *SessionCache[T]) Invalidate(uid string) {
	c.mu.Lock()
	delete(c.entries, uid)
	delete(c.pend, uid)
	c.mu.Unlock()
}

// InvalidateAll drops everything. Call on identity-provider state changes
// that do not name a user.
func (c *SessionCache[T]) InvalidateAll() {
	c.mu.Lock()
	c.entries = map[string]entry[T]{}
	c.pend = map[string]pending{}
	c.mu.Unlock()
}

// BeginPending marks uid as freshly signed in for the duration d. While
// pending, callers may serve the cached profile without re-consulting the
// store; after expiry the authoritative path applies again.
func (c *SessionCache[T]) BeginPending(uid string, d time.Duration) {
	c.mu.Lock()
	c.pend[uid] = pending{expires: c.now().Add(d)}
	c.mu.Unlock()
}

// IsPending reports whether uid is inside the post-sign-in window. Expired
// entries are cleaned up on read.
func (c *SessionCache[T]) IsPending(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pend[uid]
	if !ok {
		return false
	}
	if c.now().After(p.expires) {
		delete(c.pend, uid)
		return false
	}
	return true
}

// ConfirmPending ends the pending window early, once the authoritative
// store has been consulted.
func (c *SessionCache[T]) ConfirmPending(uid string) {
	c.mu.Lock()
	delete(c.pend, uid)
	c.mu.Unlock()
}
