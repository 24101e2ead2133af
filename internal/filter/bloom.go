// Package filter implements the per-table Bloom filter: a bit array sized
// from bits-per-key, probed with two values derived from a single 64-bit
// FNV-1a hash of the key, with the hash-probe count stored as a trailing
// byte.
//
// The filter shape (Builder accumulates keys, Finish emits a
// self-describing byte string) is conventional, but the probe algorithm
// itself stays on plain FNV-1a double hashing rather than a SIMD-tuned
// variant like FastLocalBloom, since the one property that matters here —
// MayContain never returning false for a key that was added — falls
// straight out of this simpler construction.
package filter

import "github.com/dialtr/lsmkv/internal/checksum"

const (
	defaultBitsPerKey = 10
	minBits           = 64
)

// Builder accumulates keys and produces the serialized filter.
type Builder struct {
	bitsPerKey int
	keys       [][]byte
}

// NewBuilder creates a Builder targeting bitsPerKey bits of filter storage
// per key added (10 by default).
func NewBuilder(bitsPerKey int) *Builder {
	if bitsPerKey <= 0 {
		bitsPerKey = defaultBitsPerKey
	}
	return &Builder{bitsPerKey: bitsPerKey}
}

// AddKey records a key to be represented in the filter.
func (b *Builder) AddKey(key []byte) {
	b.keys = append(b.keys, append([]byte(nil), key...))
}

func numProbes(bitsPerKey int) int {
	k := int(float64(bitsPerKey) * 0.69)
	if k < 1 {
		k = 1
	}
	if k > 30 {
		k = 30
	}
	return k
}

// Finish serializes the filter: the bit array sized
// max(64, n*bitsPerKey) bits rounded up to a byte, followed by the
// hash-probe count k as a trailing byte.
func (b *Builder) Finish() []byte {
	n := len(b.keys)
	bits := n * b.bitsPerKey
	if bits < minBits {
		bits = minBits
	}
	nBytes := (bits + 7) / 8
	totalBits := nBytes * 8

	data := make([]byte, nBytes+1)
	k := numProbes(b.bitsPerKey)

	for _, key := range b.keys {
		h := checksum.Hash64(key)
		delta := checksum.RotateRight64(h, 17)
		for j := 0; j < k; j++ {
			bitpos := h % uint64(totalBits)
			data[bitpos/8] |= 1 << (bitpos % 8)
			h += delta
		}
	}
	data[nBytes] = byte(k)
	return data
}

// Reader answers membership queries against a serialized filter.
type Reader struct {
	bits []byte
	k    int
}

// NewReader wraps a serialized filter (as produced by Builder.Finish) for
// querying. A nil or too-short contents is treated as "always maybe match".
func NewReader(contents []byte) *Reader {
	if len(contents) < 1 {
		return &Reader{}
	}
	return &Reader{bits: contents[:len(contents)-1], k: int(contents[len(contents)-1])}
}

// MayContain replays the same probe sequence used at build time. A false
// return means the key is definitely absent; true means it may be present.
func (r *Reader) MayContain(key []byte) bool {
	if len(r.bits) == 0 || r.k == 0 {
		return true
	}
	totalBits := uint64(len(r.bits)) * 8
	h := checksum.Hash64(key)
	delta := checksum.RotateRight64(h, 17)
	for j := 0; j < r.k; j++ {
		bitpos := h % totalBits
		if r.bits[bitpos/8]&(1<<(bitpos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}
