package cache

import (
	"container/list"
	"sync"
)

// LRU is a mutex-guarded least-recently-used cache with request coalescing.
// Eviction is driven by a per-value cost function against a fixed budget:
// ByteCost gives a byte-budgeted cache for binary payloads, UnitCost gives a
// count-budgeted cache for small structured results. The in-flight map
// guarantees at most one concurrent compute per key.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	budget   int
	cost     func(V) int
	size     int
	order    *list.List // most recently used at the back
	entries  map[K]*list.Element
	inflight map[K]*inflightCall[V]
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
	cost  int
}

type inflightCall[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// ByteCost sizes a value by its byte length.
func ByteCost(b []byte) int { return len(b) }

// UnitCost makes every entry cost one budget unit.
func UnitCost[V any](V) int { return 1 }

// NewLRU creates a cache that evicts least-recently-used entries whenever
// the summed cost of resident values exceeds budget.
func NewLRU[K comparable, V any](budget int, cost func(V) int) *LRU[K, V] {
	return &LRU[K, V]{
		budget:   budget,
		cost:     cost,
		order:    list.New(),
		entries:  make(map[K]*list.Element),
		inflight: make(map[K]*inflightCall[V]),
	}
}

// Get returns the cached value and refreshes its recency. It never fetches.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(key)
}

// Set inserts or replaces a value, evicting least-recently-used entries
// while the cache is over budget. Any in-flight marker for the key is
// cleared so later lookups see the stored value instead of a stale fetch.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
	c.setLocked(key, value)
}

// GetOrCompute returns the cached value for key, or runs compute to produce
// it. Concurrent callers for the same key share a single compute invocation;
// every caller receives that invocation's result. The call's own in-flight
// marker is removed exactly once, when the compute settles, and failures are
// never cached. A Set that lands mid-compute wins over the computed value.
func (c *LRU[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-call.done
		return call.value, call.err
	}
	call := &inflightCall[V]{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	value, err := compute()

	c.mu.Lock()
	// A Set during the compute supersedes this call: leave whatever
	// marker and value the newer writer installed, and don't re-store
	// the stale result.
	if c.inflight[key] == call {
		delete(c.inflight, key)
		if err == nil {
			c.setLocked(key, value)
		}
	}
	c.mu.Unlock()

	call.value, call.err = value, err
	close(call.done)
	return value, err
}

// Delete removes a key if present.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
}

// Len returns the number of resident entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Size returns the summed cost of resident entries.
func (c *LRU[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *LRU[K, V]) lookupLocked(key K) (V, bool) {
	elem, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToBack(elem)
	return elem.Value.(*lruEntry[K, V]).value, true
}

func (c *LRU[K, V]) setLocked(key K, value V) {
	cost := c.cost(value)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*lruEntry[K, V])
		c.size += cost - entry.cost
		entry.value = value
		entry.cost = cost
		c.order.MoveToBack(elem)
	} else {
		elem := c.order.PushBack(&lruEntry[K, V]{key: key, value: value, cost: cost})
		c.entries[key] = elem
		c.size += cost
	}

	for c.size > c.budget && c.order.Len() > 0 {
		c.removeLocked(c.order.Front())
	}
}

func (c *LRU[K, V]) removeLocked(elem *list.Element) {
	entry := elem.Value.(*lruEntry[K, V])
	c.order.Remove(elem)
	delete(c.entries, entry.key)
	c.size -= entry.cost
}
