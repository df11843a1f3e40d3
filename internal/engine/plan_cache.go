package engine

import (
	"container/list"
	"sync"

	"smfdb/internal/plan"
)

// PlanCache is a bounded LRU of raw SQL text -> plan.Node, grounded in
// original_source/src/portal.h's per-statement plan reuse: a byte-identical
// repeated query string skips re-analyzing, per §11.5. Execute still lexes
// and parses every statement before the lookup.
type PlanCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key  string
	node *plan.Node
}

func NewPlanCache(capacity int) *PlanCache {
	return &PlanCache{capacity: capacity, ll: list.New(), items: map[string]*list.Element{}}
}

func (c *PlanCache) Get(sql string) (*plan.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[sql]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).node, true
}

func (c *PlanCache) Put(sql string, node *plan.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[sql]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).node = node
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: sql, node: node})
	c.items[sql] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}
