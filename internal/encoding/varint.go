// Package encoding implements the little-endian varint and fixed-width
// integer coding used by the WAL frame format and the table file format.
//
// Reference: the variable-length integer layout is the standard LEB128-style
// base-128 encoding used throughout LSM implementations (LevelDB, RocksDB,
// and this repo's teacher all use the same scheme).
package encoding

import "errors"

// ErrInvalidVarint is returned when a varint cannot be decoded from the
// supplied buffer (truncated or malformed).
var ErrInvalidVarint = errors.New("encoding: invalid varint")

// AppendVarint64 appends the varint encoding of v to dst and returns the
// extended slice.
func AppendVarint64(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// VarintLength returns the number of bytes AppendVarint64 would emit for v.
func VarintLength(v uint64) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}

// GetVarint64 decodes a varint from the front of src, returning the value,
// the number of bytes consumed, and an error if the buffer is truncated or
// the varint is malformed (too long).
func GetVarint64(src []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, b := range src {
		if shift >= 64 {
			return 0, 0, ErrInvalidVarint
		}
		if b < 0x80 {
			result |= uint64(b) << shift
			return result, i + 1, nil
		}
		result |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, 0, ErrInvalidVarint
}

// PutFixed32 appends v to dst in little-endian order.
func PutFixed32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// GetFixed32 decodes a little-endian uint32 from the front of src.
func GetFixed32(src []byte) (uint32, error) {
	if len(src) < 4 {
		return 0, ErrInvalidVarint
	}
	return uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16 | uint32(src[3])<<24, nil
}

// PutFixed64 appends v to dst in little-endian order.
func PutFixed64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// GetFixed64 decodes a little-endian uint64 from the front of src.
func GetFixed64(src []byte) (uint64, error) {
	if len(src) < 8 {
		return 0, ErrInvalidVarint
	}
	v := uint64(src[0]) | uint64(src[1])<<8 | uint64(src[2])<<16 | uint64(src[3])<<24 |
		uint64(src[4])<<32 | uint64(src[5])<<40 | uint64(src[6])<<48 | uint64(src[7])<<56
	return v, nil
}
