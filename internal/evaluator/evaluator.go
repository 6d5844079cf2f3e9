// Package evaluator wraps the physics point-evaluator with an optional
// content-addressed memoization cache.
package evaluator

import (
	"container/list"
	"sync"

	"github.com/plasmaforge/fusor/internal/physics"
)

// DefaultCacheSize bounds the memo cache when callers pass no capacity.
const DefaultCacheSize = 256

// Stats reports cache accounting since construction.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

// Evaluator memoizes Evaluate results keyed by the content hash of the
// design point. Entries are pure function values, so there is no
// invalidation; eviction is LRU. Safe for concurrent use. Racing misses
// on the same key recompute independently and the last writer wins.
type Evaluator struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recent
	items    map[string]*list.Element
	stats    Stats
}

type entry struct {
	key string
	out physics.OutputMap
}

// New returns an Evaluator with the given cache capacity. Zero disables
// memoization entirely; negative uses DefaultCacheSize.
func New(capacity int) *Evaluator {
	if capacity < 0 {
		capacity = DefaultCacheSize
	}
	return &Evaluator{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Evaluate returns the output map for in, serving repeated points from the
// cache. Callers own the returned map.
func (e *Evaluator) Evaluate(in physics.PointInputs) (physics.OutputMap, error) {
	if e.capacity == 0 {
		return physics.Evaluate(in)
	}
	key := in.CacheKey()

	e.mu.Lock()
	if el, ok := e.items[key]; ok {
		e.order.MoveToFront(el)
		e.stats.Hits++
		out := cloneOutputs(el.Value.(*entry).out)
		e.mu.Unlock()
		return out, nil
	}
	e.stats.Misses++
	e.mu.Unlock()

	// Compute outside the lock; identical concurrent misses are cheaper
	// than serializing every evaluation.
	out, err := physics.Evaluate(in)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if el, ok := e.items[key]; ok {
		// Lost the race: overwrite, last writer wins.
		el.Value.(*entry).out = cloneOutputs(out)
		e.order.MoveToFront(el)
	} else {
		e.items[key] = e.order.PushFront(&entry{key: key, out: cloneOutputs(out)})
		for e.order.Len() > e.capacity {
			oldest := e.order.Back()
			e.order.Remove(oldest)
			delete(e.items, oldest.Value.(*entry).key)
			e.stats.Evictions++
		}
	}
	e.mu.Unlock()
	return out, nil
}

// Stats returns a snapshot of the cache counters.
func (e *Evaluator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.Size = e.order.Len()
	return s
}

func cloneOutputs(out physics.OutputMap) physics.OutputMap {
	c := make(physics.OutputMap, len(out))
	for k, v := range out {
		c[k] = v
	}
	return c
}
