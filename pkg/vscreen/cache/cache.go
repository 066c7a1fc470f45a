// Package cache is a small TTL + LRU map.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a TTL + LRU map safe for concurrent use. The zero value is not
// usable; call New.
type Cache[V any] struct {
	ttl  time.Duration
	size int
	now  func() time.Time

	mu  sync.Mutex
	lru *list.List // front is most recently used
	idx map[string]*list.Element
}

type item[V any] struct {
	key     string
	val     V
	expires time.Time
}

// New returns a cache holding at most size entries for ttl each.
func New[V any](ttl time.Duration, size int) *Cache[V] {
	return &Cache[V]{ttl: ttl, size: size, now: time.Now, lru: list.New(), idx: map[string]*list.Element{}}
}

// Get returns a fresh entry and marks it recently used. Stale entries are
// dropped on sight.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.idx[key]; ok {
		it := el.Value.(*item[V])
		if c.now().Before(it.expires) {
			c.lru.MoveToFront(el)
			return it.val, true
		}
		c.drop(el)
	}
	var zero V
	return zero, false
}

// Put stores v, replacing any previous value, and evicts from the cold end
// while over size.
func (c *Cache[V]) Put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	if el, ok := c.idx[key]; ok {
		it := el.Value.(*item[V])
		it.val, it.expires = v, exp
		c.lru.MoveToFront(el)
		return
	}
	c.idx[key] = c.lru.PushFront(&item[V]{key: key, val: v, expires: exp})
	for c.lru.Len() > c.size {
		c.drop(c.lru.Back())
	}
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache[V]) drop(el *list.Element) {
	c.lru.Remove(el)
	delete(c.idx, el.Value.(*item[V]).key)
}
