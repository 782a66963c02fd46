// verify_cache.go implements an LRU cache of Ed25519 verification
// results. A Document or Entry replayed through a validator multiple
// times (e.g. re-checked after arriving from several peers) would
// otherwise pay Ed25519's pairing-free but still non-trivial scalar
// multiplication on every pass; caching by (identity, message,
// signature) avoids that.
package crypto

import (
	"sync"
	"sync/atomic"

	"github.com/fogpack/fogpack/value"
)

// DefaultVerifyCacheSize is the default number of entries in a
// VerifyCache.
const DefaultVerifyCacheSize = 4096

type verifyCacheNode struct {
	key   value.Hash
	valid bool
	prev  *verifyCacheNode
	next  *verifyCacheNode
}

// VerifyCache is a concurrent-safe LRU cache of Ed25519 verification
// outcomes, keyed by a digest of (identity, message, signature).
type VerifyCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[value.Hash]*verifyCacheNode

	head *verifyCacheNode
	tail *verifyCacheNode

	hits   atomic.Int64
	misses atomic.Int64
}

// NewVerifyCache creates a verification cache holding up to capacity
// entries. If capacity <= 0, DefaultVerifyCacheSize is used.
func NewVerifyCache(capacity int) *VerifyCache {
	if capacity <= 0 {
		capacity = DefaultVerifyCacheSize
	}
	return &VerifyCache{
		capacity: capacity,
		items:    make(map[value.Hash]*verifyCacheNode, capacity),
	}
}

// CacheKey derives the cache key for a (identity, message, signature)
// verification, so callers never need to build the concatenation
// themselves.
func CacheKey(id value.Identity, msg []byte, sig value.Signature) value.Hash {
	st := NewHashState()
	st.Write(id[:])
	st.Write(msg)
	st.Write(sig[:])
	return st.Sum()
}

// Get looks up a cached verification result.
func (c *VerifyCache) Get(key value.Hash) (valid bool, ok bool) {
	c.mu.RLock()
	node, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		c.misses.Add(1)
		return false, false
	}

	c.mu.Lock()
	c.moveToHead(node)
	c.mu.Unlock()

	c.hits.Add(1)
	return node.valid, true
}

// Add inserts a verification result, evicting the least recently used
// entry if the cache is at capacity.
func (c *VerifyCache) Add(key value.Hash, valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[key]; ok {
		existing.valid = valid
		c.moveToHead(existing)
		return
	}

	node := &verifyCacheNode{key: key, valid: valid}
	c.items[key] = node
	c.pushHead(node)

	if len(c.items) > c.capacity {
		c.evictTail()
	}
}

// Len returns the number of entries currently cached.
func (c *VerifyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Hits returns the number of cache hits since creation.
func (c *VerifyCache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of cache misses since creation.
func (c *VerifyCache) Misses() int64 { return c.misses.Load() }

// VerifyCached checks a signature, consulting and updating cache around
// the underlying Verify call.
func VerifyCached(cache *VerifyCache, id value.Identity, msg []byte, sig value.Signature) bool {
	key := CacheKey(id, msg, sig)
	if valid, ok := cache.Get(key); ok {
		return valid
	}
	valid := Verify(id, msg, sig)
	cache.Add(key, valid)
	return valid
}

func (c *VerifyCache) moveToHead(n *verifyCacheNode) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.pushHead(n)
}

func (c *VerifyCache) pushHead(n *verifyCacheNode) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *VerifyCache) unlink(n *verifyCacheNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

func (c *VerifyCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.key)
	c.unlink(c.tail)
}
