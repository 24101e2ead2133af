// Package block implements the data-block and index-block formats of the
// table file, plus its fixed 48-byte footer.
//
// A data block entry is encoded as:
//
//	varint(klen) | varint(vlen+1) | key | type_byte | value
//
// The "+1" on the value length accounts for the leading type byte. Blocks
// are stored uncompressed.
package block

import (
	"github.com/dialtr/lsmkv/internal/dbformat"
	"github.com/dialtr/lsmkv/internal/encoding"
)

// Builder accumulates entries for a single data block until it reaches the
// configured target size (4 KiB by default).
type Builder struct {
	targetSize int
	buf        []byte
}

// NewBuilder creates a data block builder targeting the given size.
func NewBuilder(targetSize int) *Builder {
	return &Builder{targetSize: targetSize}
}

// Add appends one entry to the block. The caller must add keys in
// ascending order; the builder does not re-sort.
func (b *Builder) Add(key, value []byte, typ dbformat.ValueType) {
	b.buf = encoding.AppendVarint64(b.buf, uint64(len(key)))
	b.buf = encoding.AppendVarint64(b.buf, uint64(len(value))+1)
	b.buf = append(b.buf, key...)
	b.buf = append(b.buf, byte(typ))
	b.buf = append(b.buf, value...)
}

// CurrentSize returns the number of bytes accumulated so far.
func (b *Builder) CurrentSize() int {
	return len(b.buf)
}

// ShouldFlush reports whether the block has reached its target size and
// should be closed out.
func (b *Builder) ShouldFlush() bool {
	return len(b.buf) >= b.targetSize
}

// Finish returns the raw block bytes and resets the builder for the next
// block.
func (b *Builder) Finish() []byte {
	out := b.buf
	b.buf = nil
	return out
}

// Entry is one decoded data-block entry.
type Entry struct {
	Key   []byte
	Value []byte
	Type  dbformat.ValueType
}

// Reader iterates the entries of one decoded data block.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps raw data-block bytes for iteration.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Next decodes the next entry. It returns false once the block is
// exhausted or an entry is malformed.
func (r *Reader) Next() (Entry, bool) {
	if r.pos >= len(r.data) {
		return Entry{}, false
	}
	rest := r.data[r.pos:]

	klen, n, err := encoding.GetVarint64(rest)
	if err != nil {
		return Entry{}, false
	}
	rest = rest[n:]

	vlenPlus1, n, err := encoding.GetVarint64(rest)
	if err != nil || vlenPlus1 == 0 {
		return Entry{}, false
	}
	rest = rest[n:]
	vlen := vlenPlus1 - 1

	need := klen + 1 + vlen
	if uint64(len(rest)) < need {
		return Entry{}, false
	}
	key := rest[:klen]
	typ := dbformat.ValueType(rest[klen])
	value := rest[klen+1 : klen+1+vlen]

	r.pos = len(r.data) - len(rest) + int(need)
	return Entry{Key: key, Value: value, Type: typ}, true
}
