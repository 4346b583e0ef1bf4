// SPDX-License-Identifier: MIT

package decomp

import "sync"

// Cache memoizes one Decomposer per chemical alphabet. Lookups are safe
// for concurrent use; a decomposer is constructed at most once per key.
type Cache struct {
	mu sync.Mutex
	m  map[string]*Decomposer
}

// NewCache returns an empty decomposer cache.
func NewCache() *Cache {
	return &Cache{m: make(map[string]*Decomposer)}
}

// Decomposer returns the decomposer for the alphabet described by the
// constraints, building it on first use.
func (c *Cache) Decomposer(constraints Constraints) *Decomposer {
	key := constraints.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.m[key]; ok {
		return d
	}
	d := newDecomposer(constraints)
	c.m[key] = d
	return d
}

// Len returns the number of cached alphabets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
