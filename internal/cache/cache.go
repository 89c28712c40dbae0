// Package cache provides the per-session store of intermediate extraction
// values. Entries are keyed by (node, sample) and reference-counted: every
// entry starts with the node's statically known dependent count and is
// physically dropped the moment the last dependent has consumed it. The
// refcount contract is safety-critical — releasing early corrupts results,
// never releasing defeats the memory bound — so misuse is surfaced as an
// error rather than silently tolerated.
package cache

import (
	"errors"
	"fmt"
)

// ErrNotCached is returned when releasing an entry that is absent, which
// within a session means a scheduling or bookkeeping fault.
var ErrNotCached = errors.New("entry not in cache")

// Entry is the tagged result of one (node, sample) computation: either a
// value or the skip sentinel carrying the original failure cause. Dependents
// inspect and propagate the tag instead of re-raising.
type Entry struct {
	Value any
	Err   error
}

// Skipped reports whether the entry is the error sentinel.
func (e Entry) Skipped() bool { return e.Err != nil }

type key struct {
	node   string
	sample string
}

// Cache is the session-scoped intermediate value store. It is created at
// session start and discarded at session end; it is never accessed
// concurrently in the baseline single-worker model.
type Cache struct {
	fanout  map[string]int
	entries map[key]Entry
	refs    map[key]int
}

// New creates an empty cache. fanout gives, per node ID, the number of
// consumers each (node, sample) entry must serve before eviction.
func New(fanout map[string]int) *Cache {
	return &Cache{
		fanout:  fanout,
		entries: make(map[key]Entry),
		refs:    make(map[key]int),
	}
}

// Has reports whether a value or sentinel is currently cached.
func (c *Cache) Has(node, sample string) bool {
	_, ok := c.entries[key{node, sample}]
	return ok
}

// Get returns the cached entry without consuming a reference. The second
// return value is false when the entry was never computed or was already
// released.
func (c *Cache) Get(node, sample string) (Entry, bool) {
	e, ok := c.entries[key{node, sample}]
	return e, ok
}

// Put stores the computed entry and arms its reference count. Writing the
// same (node, sample) twice is a fault.
func (c *Cache) Put(node, sample string, e Entry) error {
	k := key{node, sample}
	if _, exists := c.entries[k]; exists {
		return fmt.Errorf("duplicate put for node %q sample %q", node, sample)
	}
	c.entries[k] = e
	c.refs[k] = c.fanout[node]
	return nil
}

// Release records that one dependent has consumed the entry, dropping it
// when the reference count reaches zero.
func (c *Cache) Release(node, sample string) error {
	k := key{node, sample}
	if _, exists := c.entries[k]; !exists {
		return fmt.Errorf("release of node %q sample %q: %w", node, sample, ErrNotCached)
	}
	c.refs[k]--
	if c.refs[k] <= 0 {
		delete(c.entries, k)
		delete(c.refs, k)
	}
	return nil
}

// Drop evicts the entry immediately, bypassing the reference-count wait.
// Used for drop-on-save features, whose values nothing downstream retains.
func (c *Cache) Drop(node, sample string) {
	k := key{node, sample}
	delete(c.entries, k)
	delete(c.refs, k)
}

// Len returns the number of live entries, for memory-bound assertions.
func (c *Cache) Len() int { return len(c.entries) }
