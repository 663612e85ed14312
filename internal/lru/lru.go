// Package lru holds a small fixed size cache whose entries expire.
package lru

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

// Cache is a fixed size least recently used cache. Entries older than the
// time to live are treated as missing. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mutex sync.Mutex
	size  int
	ttl   time.Duration
	items map[K]*list.Element
	order *list.List
}

// New creates a Cache holding at most size entries for ttl each. A
// non-positive ttl keeps entries until they are evicted.
func New[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	if size < 1 {
		size = 1
	}
	return &Cache[K, V]{
		size:  size,
		ttl:   ttl,
		items: make(map[K]*list.Element, size),
		order: list.New(),
	}
}

// Add stores the value at now, evicting the least recently used entry if
// the cache is full. It reports whether an eviction happened.
func (c *Cache[K, V]) Add(key K, value V, now time.Time) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = now.Add(c.ttl)
	}
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		e.value, e.expires = value, expires
		c.order.MoveToFront(elem)
		return false
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expires: expires})
	if c.order.Len() <= c.size {
		return false
	}
	c.removeElement(c.order.Back())
	return true
}

// Get returns the value for key if it is present and not expired at now.
func (c *Cache[K, V]) Get(key K, now time.Time) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[K, V])
	if !e.expires.IsZero() && !now.Before(e.expires) {
		c.removeElement(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

// Remove drops key from the cache.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.removeElement(elem)
	}
	return ok
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[K]*list.Element, c.size)
	c.order.Init()
}

// Len returns the number of entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.order.Len()
}

func (c *Cache[K, V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[K, V]).key)
}
