// Package cache implements a byte-capacity LRU cache of raw data blocks
// (container/list + map, single mutex), with cache lookup keys hashed
// through XXH3 (github.com/zeebo/xxh3) instead of formatted
// "<path>:<offset>" strings, avoiding a string allocation on every lookup.
// The WAL and Bloom-filter formats stay on FNV-1a because their byte
// layout is fixed by the on-disk contract; a cache key never touches
// disk, so XXH3 is free to use here.
package cache

import (
	"container/list"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// BlockKey identifies one cached block by its table file path and the
// block's offset within that file.
type BlockKey struct {
	Path   string
	Offset uint64
}

func (k BlockKey) hash() uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(k.Path)
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(k.Offset >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

type blockEntry struct {
	key   BlockKey
	bytes []byte
}

// BlockCache is a bounded LRU cache of raw block bytes, keyed by
// (table path, block offset). Capacity is measured in total cached bytes.
type BlockCache struct {
	mu       sync.Mutex
	capacity uint64
	used     uint64
	index    map[uint64]*list.Element // hash -> element, collision-checked on hit
	order    *list.List
}

// NewBlockCache creates a cache bounded by capacity bytes of payload.
func NewBlockCache(capacity uint64) *BlockCache {
	return &BlockCache{
		capacity: capacity,
		index:    make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached bytes for key, if present, and marks it
// most-recently-used.
func (c *BlockCache) Get(key BlockKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key.hash()]
	if !ok {
		return nil, false
	}
	e := el.Value.(*blockEntry)
	if e.key != key {
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.bytes, true
}

// Put inserts bytes for key, evicting least-recently-used entries until
// usage fits within capacity.
func (c *BlockCache) Put(key BlockKey, bytes []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := key.hash()
	if el, ok := c.index[h]; ok {
		e := el.Value.(*blockEntry)
		c.used -= uint64(len(e.bytes))
		e.bytes = bytes
		c.used += uint64(len(bytes))
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&blockEntry{key: key, bytes: bytes})
	c.index[h] = el
	c.used += uint64(len(bytes))

	for c.used > c.capacity && c.order.Len() > 0 {
		back := c.order.Back()
		e := back.Value.(*blockEntry)
		c.order.Remove(back)
		delete(c.index, e.key.hash())
		c.used -= uint64(len(e.bytes))
	}
}

// String renders a BlockKey for diagnostics only; cache lookups never use
// it (they hash the struct directly).
func (k BlockKey) String() string {
	return k.Path + ":" + strconv.FormatUint(k.Offset, 10)
}
