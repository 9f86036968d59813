// Package store holds the role-scoped, server-synced state slices: each
// store owns its lists, keeps them consistent with user mutations through a
// single optimistic-update discipline, and refetches on matching feed events.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/cleverdining/datahub/internal/api"
)

var (
	// ErrNotFound means the entity is not in the currently loaded page.
	ErrNotFound = errors.New("entity not in local state")

	// ErrBadTransition rejects a status change the UI must not offer.
	ErrBadTransition = errors.New("status transition not allowed")
)

// Collection is one paginated slice of server state. A monotonic fetch
// sequence number suppresses stale responses: a slow page-1 reply can never
// overwrite a newer page-2 reply that already landed.
type Collection[T any] struct {
	mu     sync.RWMutex
	name   string
	items  []T
	count  int
	page   int
	search string

	nextSeq    int64
	appliedSeq int64
	lastSync   time.Time
}

func NewCollection[T any](name string) *Collection[T] {
	return &Collection[T]{name: name}
}

// begin issues a sequence number for a fetch that is about to start.
func (c *Collection[T]) begin() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	return c.nextSeq
}

// applyPage installs a fetched page unless a newer fetch already landed.
// It reports whether the page was applied.
func (c *Collection[T]) applyPage(seq int64, p api.Page[T], search string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.appliedSeq {
		return false
	}
	c.appliedSeq = seq
	c.items = p.Results
	c.count = p.Count
	c.page = p.Page
	c.search = search
	c.lastSync = time.Now().UTC()
	return true
}

// Name returns the resource label used in log lines and the status surface.
func (c *Collection[T]) Name() string { return c.name }

// Items returns a copy of the loaded list.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Count is the server-side total used for pagination controls.
func (c *Collection[T]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Page is the currently loaded page number (0 until first fetch).
func (c *Collection[T]) Page() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// Search is the search term the current list was fetched with.
func (c *Collection[T]) Search() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

// LastSync is when the list was last replaced by server state.
func (c *Collection[T]) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// Find returns the first loaded item matching the predicate.
func (c *Collection[T]) Find(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Mutate is the one transactional optimistic-update path: snapshot the
// matched entity, apply the change locally, await the server call, and roll
// the snapshot back if it rejects. The rollback re-locates the entity by
// predicate because a feed-driven refetch may have moved it meanwhile.
func (c *Collection[T]) Mutate(match func(T) bool, apply func(*T), call func() error) error {
	c.mu.Lock()
	idx := -1
	for i := range c.items {
		if match(c.items[i]) {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	snapshot := c.items[idx]
	apply(&c.items[idx])
	c.mu.Unlock()

	if err := call(); err != nil {
		c.mu.Lock()
		for i := range c.items {
			if match(c.items[i]) {
				c.items[i] = snapshot
				break
			}
		}
		c.mu.Unlock()
		return err
	}
	return nil
}
