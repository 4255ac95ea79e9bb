package session

import "container/list"

// BoundedCache is a fixed-capacity map that evicts its least recently written entry.
// Put on an existing key overwrites the value and marks it most recent.
// It is not safe for concurrent use; Session guards it with its own lock.
type BoundedCache[K comparable, V any] struct {
	capacity int
	order    *list.List
	items    map[K]*list.Element
}

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewBoundedCache creates a cache holding at most capacity entries.
func NewBoundedCache[K comparable, V any](capacity int) *BoundedCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedCache[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// Put inserts or overwrites key and returns the keys evicted to stay within capacity.
func (c *BoundedCache[K, V]) Put(key K, value V) []K {
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry[K, V]).value = value
		c.order.MoveToFront(el)
		return nil
	}

	c.items[key] = c.order.PushFront(&cacheEntry[K, V]{key: key, value: value})

	var evicted []K
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		entry := oldest.Value.(*cacheEntry[K, V])
		c.order.Remove(oldest)
		delete(c.items, entry.key)
		evicted = append(evicted, entry.key)
	}
	return evicted
}

// Get returns the value for key without changing its position.
func (c *BoundedCache[K, V]) Get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		return el.Value.(*cacheEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (c *BoundedCache[K, V]) Contains(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Remove deletes key if present.
func (c *BoundedCache[K, V]) Remove(key K) {
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// Len returns the number of entries.
func (c *BoundedCache[K, V]) Len() int {
	return c.order.Len()
}

// Cap returns the capacity.
func (c *BoundedCache[K, V]) Cap() int {
	return c.capacity
}

// Keys returns keys from most to least recent.
func (c *BoundedCache[K, V]) Keys() []K {
	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*cacheEntry[K, V]).key)
	}
	return keys
}

// Values returns values from most to least recent.
func (c *BoundedCache[K, V]) Values() []V {
	values := make([]V, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		values = append(values, el.Value.(*cacheEntry[K, V]).value)
	}
	return values
}
