// Package table implements the sorted-string-table (SST) file format:
// ordered data blocks, a sparse index, a Bloom filter, and a fixed footer,
// plus the open-table cache that wraps readers.
package table

import (
	"os"

	"github.com/dialtr/lsmkv/internal/block"
	"github.com/dialtr/lsmkv/internal/dbformat"
	"github.com/dialtr/lsmkv/internal/filter"
)

// Meta describes a just-written table file: its key range and total size,
// returned by Builder.Finish for the caller to register with the version
// set.
type Meta struct {
	Smallest []byte
	Largest  []byte
	FileSize uint64
}

// Builder writes one table file. Entries must be added in ascending key
// order; the builder does not re-sort.
type Builder struct {
	f          *os.File
	blockSize  int
	offset     uint64
	data       *block.Builder
	index      *block.IndexBuilder
	filterB    *filter.Builder
	pendingKey []byte
	smallest   []byte
	largest    []byte
}

// Create opens path for writing and returns a Builder targeting blockSize
// data blocks and bloomBitsPerKey for the table's filter.
func Create(path string, blockSize, bloomBitsPerKey int) (*Builder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Builder{
		f:         f,
		blockSize: blockSize,
		data:      block.NewBuilder(blockSize),
		index:     block.NewIndexBuilder(),
		filterB:   filter.NewBuilder(bloomBitsPerKey),
	}, nil
}

// Add appends one entry to the table.
func (b *Builder) Add(key, value []byte, typ dbformat.ValueType) error {
	if b.smallest == nil {
		b.smallest = append([]byte(nil), key...)
	}
	b.largest = append([]byte(nil), key...)

	if b.data.CurrentSize() == 0 {
		b.pendingKey = append([]byte(nil), key...)
	}

	b.data.Add(key, value, typ)
	b.filterB.AddKey(key)

	if b.data.ShouldFlush() {
		return b.flushBlock()
	}
	return nil
}

func (b *Builder) flushBlock() error {
	raw := b.data.Finish()
	if len(raw) == 0 {
		return nil
	}
	off := b.offset
	if _, err := b.f.Write(raw); err != nil {
		return err
	}
	b.offset += uint64(len(raw))
	b.index.Add(b.pendingKey, off, uint64(len(raw)))
	return nil
}

// Finish emits any open block, then the index, the filter, and the footer,
// and returns the table's key range and size.
func (b *Builder) Finish() (Meta, error) {
	if b.data.CurrentSize() > 0 {
		if err := b.flushBlock(); err != nil {
			return Meta{}, err
		}
	}

	indexData := b.index.Finish()
	indexOff := b.offset
	if _, err := b.f.Write(indexData); err != nil {
		return Meta{}, err
	}
	b.offset += uint64(len(indexData))

	filterData := b.filterB.Finish()
	filterOff := b.offset
	if _, err := b.f.Write(filterData); err != nil {
		return Meta{}, err
	}
	b.offset += uint64(len(filterData))

	footer := block.Footer{
		IndexOffset:  indexOff,
		IndexSize:    uint64(len(indexData)),
		FilterOffset: filterOff,
		FilterSize:   uint64(len(filterData)),
		Version:      block.Version,
	}
	footerBytes := footer.EncodeTo()
	if _, err := b.f.Write(footerBytes); err != nil {
		return Meta{}, err
	}
	b.offset += uint64(len(footerBytes))

	if err := b.f.Sync(); err != nil {
		return Meta{}, err
	}
	if err := b.f.Close(); err != nil {
		return Meta{}, err
	}

	return Meta{Smallest: b.smallest, Largest: b.largest, FileSize: b.offset}, nil
}
