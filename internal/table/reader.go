package table

import (
	"bytes"
	"errors"
	"os"

	"github.com/dialtr/lsmkv/internal/block"
	"github.com/dialtr/lsmkv/internal/cache"
	"github.com/dialtr/lsmkv/internal/dbformat"
	"github.com/dialtr/lsmkv/internal/filter"
)

// ErrKeyNotFound means a Get found no entry for the key in this table.
var ErrKeyNotFound = errors.New("table: key not found")

// Reader opens an immutable table file for point lookups and full-table
// iteration.
type Reader struct {
	f      *os.File
	path   string
	index  []block.IndexEntry
	filter *filter.Reader
}

// Open reads and validates the footer, then loads the index and filter
// blocks fully into memory.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < block.FooterSize {
		f.Close()
		return nil, block.ErrBadFooter
	}

	footerBuf := make([]byte, block.FooterSize)
	if _, err := f.ReadAt(footerBuf, info.Size()-block.FooterSize); err != nil {
		f.Close()
		return nil, err
	}
	footer, err := block.DecodeFooter(footerBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	indexBuf := make([]byte, footer.IndexSize)
	if _, err := f.ReadAt(indexBuf, int64(footer.IndexOffset)); err != nil {
		f.Close()
		return nil, err
	}
	index, err := block.DecodeIndex(indexBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	filterBuf := make([]byte, footer.FilterSize)
	if _, err := f.ReadAt(filterBuf, int64(footer.FilterOffset)); err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{
		f:      f,
		path:   path,
		index:  index,
		filter: filter.NewReader(filterBuf),
	}, nil
}

// Path returns the file path this reader was opened from.
func (r *Reader) Path() string {
	return r.path
}

// SmallestKey returns the first key of the first index entry, or nil if
// the table is empty.
func (r *Reader) SmallestKey() []byte {
	if len(r.index) == 0 {
		return nil
	}
	return r.index[0].Key
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Get looks up key in four steps: filter check, index binary search,
// cached block read, then linear scan within the block. blockCache may be
// nil to bypass caching entirely; fillCache controls whether a cache miss
// populates the cache.
func (r *Reader) Get(key []byte, blockCache *cache.BlockCache, fillCache bool) (dbformat.ValueType, []byte, error) {
	if !r.filter.MayContain(key) {
		return 0, nil, ErrKeyNotFound
	}

	idx := block.FindBlock(r.index, key)
	if idx < 0 {
		return 0, nil, ErrKeyNotFound
	}
	entry := r.index[idx]

	data, err := r.readBlock(entry, blockCache, fillCache)
	if err != nil {
		return 0, nil, err
	}

	br := block.NewReader(data)
	for {
		e, ok := br.Next()
		if !ok {
			break
		}
		c := bytes.Compare(e.Key, key)
		if c == 0 {
			return e.Type, e.Value, nil
		}
		if c > 0 {
			break
		}
	}
	return 0, nil, ErrKeyNotFound
}

// Iterator returns an in-order (key, type, value) stream across every data
// block in the table, bypassing the block cache. Used only by compaction's
// k-way merge.
func (r *Reader) Iterator() (*Iterator, error) {
	return &Iterator{r: r}, nil
}

// Iterator walks a table's entries in ascending key order, one data block
// at a time.
type Iterator struct {
	r        *Reader
	blockIdx int
	br       *block.Reader
	cur      block.Entry
	valid    bool
	err      error
}

// Next advances to the next entry, returning false at end of table or on
// error (check Err).
func (it *Iterator) Next() bool {
	for {
		if it.br == nil {
			if it.blockIdx >= len(it.r.index) {
				it.valid = false
				return false
			}
			entry := it.r.index[it.blockIdx]
			data, err := it.r.readBlock(entry, nil, false)
			if err != nil {
				it.err = err
				it.valid = false
				return false
			}
			it.br = block.NewReader(data)
		}

		e, ok := it.br.Next()
		if !ok {
			it.br = nil
			it.blockIdx++
			continue
		}
		it.cur = e
		it.valid = true
		return true
	}
}

// Key returns the current entry's key.
func (it *Iterator) Key() []byte { return it.cur.Key }

// Value returns the current entry's value.
func (it *Iterator) Value() []byte { return it.cur.Value }

// Type returns the current entry's value type.
func (it *Iterator) Type() dbformat.ValueType { return it.cur.Type }

// Err returns the first error encountered during iteration, if any.
func (it *Iterator) Err() error { return it.err }

func (r *Reader) readBlock(entry block.IndexEntry, blockCache *cache.BlockCache, fillCache bool) ([]byte, error) {
	if blockCache != nil {
		key := cache.BlockKey{Path: r.path, Offset: entry.Offset}
		if data, ok := blockCache.Get(key); ok {
			return data, nil
		}
		data := make([]byte, entry.Size)
		if _, err := r.f.ReadAt(data, int64(entry.Offset)); err != nil {
			return nil, err
		}
		if fillCache {
			blockCache.Put(key, data)
		}
		return data, nil
	}

	data := make([]byte, entry.Size)
	if _, err := r.f.ReadAt(data, int64(entry.Offset)); err != nil {
		return nil, err
	}
	return data, nil
}
