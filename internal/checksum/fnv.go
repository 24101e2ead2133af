// Package checksum implements the single hash algorithm this repo's on-disk
// formats rely on: 64-bit FNV-1a. Both the WAL frame checksum (truncated to
// the low 32 bits) and the Bloom filter probes (full 64 bits, plus a
// rotate-derived stride) are built on it, so the two formats stay
// consistent with each other without needing a second hash dependency.
package checksum

// walSeed is the FNV-1a offset basis used for WAL frame checksums. It
// deliberately differs from the canonical FNV-1a offset basis so that WAL
// checksums cannot be confused with a generic hash of the same bytes.
const walSeed uint64 = 0x14650FB0739D0383

// FNVOffsetBasis64 is the canonical FNV-1a 64-bit offset basis, used to seed
// the Bloom filter's key hash (unlike the WAL checksum, it does not use a
// custom seed).
const FNVOffsetBasis64 uint64 = 0xcbf29ce484222325

const fnvPrime64 uint64 = 0x100000001b3

// FNV1a64 computes the 64-bit FNV-1a hash of data starting from seed.
func FNV1a64(seed uint64, data []byte) uint64 {
	h := seed
	for _, b := range data {
		h ^= uint64(b)
		h *= fnvPrime64
	}
	return h
}

// WALChecksum computes the 32-bit checksum stored after a WAL frame's
// payload: the low 32 bits of the 64-bit FNV-1a hash of the payload, seeded
// with walSeed.
func WALChecksum(payload []byte) uint32 {
	return uint32(FNV1a64(walSeed, payload))
}

// Hash64 computes the canonical 64-bit FNV-1a hash of key, used as the base
// probe value for the Bloom filter.
func Hash64(key []byte) uint64 {
	return FNV1a64(FNVOffsetBasis64, key)
}

// RotateRight64 performs a 64-bit bitwise right rotation by n bits.
func RotateRight64(x uint64, n uint) uint64 {
	n &= 63
	if n == 0 {
		return x
	}
	return (x >> n) | (x << (64 - n))
}
