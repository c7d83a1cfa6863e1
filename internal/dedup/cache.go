// Package dedup tracks which contributors have already been reported for
// recently-seen vehicle-position events.
//
// The cache is bounded: only the most recently first-seen event identifiers
// are tracked. An evicted identifier that reappears is treated as brand-new
// and every contributor is re-reported. That imprecision is the accepted
// cost of bounded memory and must not be tightened into an LRU or a larger
// window without revisiting the memory tradeoff.
package dedup

import (
	"sort"
	"sync"
)

// DefaultWindow is the number of recent event identifiers tracked.
const DefaultWindow = 30

// Cache is the recent-events contributor store. All access serializes on a
// single mutex; hold times are bounded list/map mutation only.
type Cache struct {
	mu           sync.Mutex
	window       int
	order        []string
	contributors map[string]map[string]struct{}
}

// NewCache creates a cache tracking the given number of recent events.
// A window of zero or less uses DefaultWindow.
func NewCache(window int) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Cache{
		window:       window,
		contributors: make(map[string]map[string]struct{}),
	}
}

// Report records the contributor set currently attached to eventID and
// returns the contributors not yet reported for it, in sorted order.
//
// For an unseen event every contributor is new. For a tracked event the
// stored set is replaced (not unioned) with the incoming one: a contributor
// that stops appearing is no longer considered seen on the next update.
// An empty result means the update carried nothing new.
func (c *Cache) Report(eventID string, contributors []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	incoming := make(map[string]struct{}, len(contributors))
	for _, id := range contributors {
		incoming[id] = struct{}{}
	}

	stored, tracked := c.contributors[eventID]
	if tracked {
		fresh := make([]string, 0, len(incoming))
		for id := range incoming {
			if _, seen := stored[id]; !seen {
				fresh = append(fresh, id)
			}
		}
		c.contributors[eventID] = incoming
		sort.Strings(fresh)
		return fresh
	}

	c.order = append(c.order, eventID)
	c.contributors[eventID] = incoming
	c.evictLocked()

	fresh := make([]string, 0, len(incoming))
	for id := range incoming {
		fresh = append(fresh, id)
	}
	sort.Strings(fresh)
	return fresh
}

// evictLocked trims the tracked set down to the window, dropping the oldest
// identifiers and their stored contributor sets together.
func (c *Cache) evictLocked() {
	if len(c.order) <= c.window {
		return
	}
	evicted := c.order[:len(c.order)-c.window]
	for _, id := range evicted {
		delete(c.contributors, id)
	}
	c.order = append(c.order[:0:0], c.order[len(c.order)-c.window:]...)
}

// Len returns the number of tracked event identifiers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Tracked reports whether eventID is currently in the window.
func (c *Cache) Tracked(eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.contributors[eventID]
	return ok
}
