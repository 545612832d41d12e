package services

import "sync"

// cache mirrors documents that have been read from or written to the store.
// Values are cloned on the way in and out so callers never share memory with it.
type cache[T any] struct {
	items map[string]T
	clone func(T) T
	mutex sync.RWMutex
}

func newCache[T any](clone func(T) T) *cache[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &cache[T]{
		items: make(map[string]T),
		clone: clone,
	}
}

func (c *cache[T]) get(id string) (T, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	v, ok := c.items[id]
	if !ok {
		return v, false
	}
	return c.clone(v), true
}

func (c *cache[T]) put(id string, v T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items[id] = c.clone(v)
}

func (c *cache[T]) remove(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, id)
}

func (c *cache[T]) removeWhere(match func(T) bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for id, v := range c.items {
		if match(v) {
			delete(c.items, id)
		}
	}
}

func (c *cache[T]) len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// keyedMutex serializes read-modify-write sequences on the same document id.
// Entries are dropped once no caller holds or waits for them.
type keyedMutex struct {
	mutex sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// lock blocks until id is free and returns the matching unlock
func (k *keyedMutex) lock(id string) func() {
	k.mutex.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &keyedLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mutex.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mutex.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mutex.Unlock()
	}
}

func (k *keyedMutex) len() int {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return len(k.locks)
}
