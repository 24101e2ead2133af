package table

import "sync"

// Cache bounds the number of simultaneously-open table readers. Unlike the
// block cache, eviction order is not LRU: any entry beyond capacity may be
// dropped arbitrarily, whichever the map iteration visits first.
type Cache struct {
	mu       sync.Mutex
	capacity int
	readers  map[string]*Reader
}

// NewCache creates an open-table cache bounded by capacity files.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		readers:  make(map[string]*Reader),
	}
}

// Get returns the reader for path, opening and caching it on first use.
func (c *Cache) Get(path string) (*Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.readers[path]; ok {
		return r, nil
	}

	r, err := Open(path)
	if err != nil {
		return nil, err
	}

	if len(c.readers) >= c.capacity {
		for evictPath, evictReader := range c.readers {
			delete(c.readers, evictPath)
			evictReader.Close()
			break
		}
	}
	c.readers[path] = r
	return r, nil
}

// Erase closes and removes path's cached reader, if present. Called when a
// table is deleted by compaction.
func (c *Cache) Erase(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.readers[path]; ok {
		delete(c.readers, path)
		r.Close()
	}
}

// Close closes every cached reader.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.readers, path)
	}
	return firstErr
}
