package block

import (
	"bytes"

	"github.com/dialtr/lsmkv/internal/encoding"
)

// IndexEntry records the first key of one data block and its location in
// the table file.
type IndexEntry struct {
	Key    []byte
	Offset uint64
	Size   uint64
}

// IndexBuilder accumulates one IndexEntry per data block, in ascending key
// order, matching the order blocks are written.
type IndexBuilder struct {
	entries []IndexEntry
}

// NewIndexBuilder creates an empty index builder.
func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{}
}

// Add records the index entry for a just-finished data block.
func (b *IndexBuilder) Add(firstKey []byte, offset, size uint64) {
	b.entries = append(b.entries, IndexEntry{
		Key:    append([]byte(nil), firstKey...),
		Offset: offset,
		Size:   size,
	})
}

// Finish serializes the index block: for each entry, in order,
// varint(klen) | key | u64_le(offset) | u64_le(size).
func (b *IndexBuilder) Finish() []byte {
	var out []byte
	for _, e := range b.entries {
		out = encoding.AppendVarint64(out, uint64(len(e.Key)))
		out = append(out, e.Key...)
		out = encoding.PutFixed64(out, e.Offset)
		out = encoding.PutFixed64(out, e.Size)
	}
	return out
}

// DecodeIndex parses a serialized index block into its ordered entries.
func DecodeIndex(data []byte) ([]IndexEntry, error) {
	var entries []IndexEntry
	for len(data) > 0 {
		klen, n, err := encoding.GetVarint64(data)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		if uint64(len(data)) < klen+16 {
			return nil, encoding.ErrInvalidVarint
		}
		key := data[:klen]
		data = data[klen:]
		offset, _ := encoding.GetFixed64(data)
		data = data[8:]
		size, _ := encoding.GetFixed64(data)
		data = data[8:]
		entries = append(entries, IndexEntry{
			Key:    append([]byte(nil), key...),
			Offset: offset,
			Size:   size,
		})
	}
	return entries, nil
}

// FindBlock returns the index of the largest entry whose key is <= key, or
// -1 if every entry's key is greater than key.
func FindBlock(entries []IndexEntry, key []byte) int {
	lo, hi := 0, len(entries)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if bytes.Compare(entries[mid].Key, key) <= 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}
