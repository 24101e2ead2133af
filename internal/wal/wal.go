// Package wal implements the write-ahead log segment format: a sequence of
// length-prefixed, checksummed frames, each framing one (type, key, value)
// record.
//
// Frame layout, in order:
//
//	varint(payload length L)
//	L bytes of payload: varint(type) | varint(klen) | varint(vlen) | key | value
//	fixed 4-byte little-endian checksum of the payload
//
// The length-prefix-then-payload-then-checksum ordering is what makes a
// truncated tail recognizable: a crash mid-record leaves either a short
// length varint, a short payload, or a short checksum, all of which the
// reader detects and stops at.
package wal

import (
	"github.com/dialtr/lsmkv/internal/checksum"
	"github.com/dialtr/lsmkv/internal/dbformat"
	"github.com/dialtr/lsmkv/internal/encoding"
)

// encodeRecord builds the payload for one record: varint(type) |
// varint(klen) | varint(vlen) | key | value.
func encodeRecord(typ dbformat.ValueType, key, value []byte) []byte {
	payload := make([]byte, 0, 3+len(key)+len(value))
	payload = encoding.AppendVarint64(payload, uint64(typ))
	payload = encoding.AppendVarint64(payload, uint64(len(key)))
	payload = encoding.AppendVarint64(payload, uint64(len(value)))
	payload = append(payload, key...)
	payload = append(payload, value...)
	return payload
}

// decodeRecord parses a record payload back into its (type, key, value)
// fields. It returns false if the payload is malformed or truncated.
func decodeRecord(payload []byte) (typ dbformat.ValueType, key, value []byte, ok bool) {
	t, n, err := encoding.GetVarint64(payload)
	if err != nil {
		return 0, nil, nil, false
	}
	payload = payload[n:]

	klen, n, err := encoding.GetVarint64(payload)
	if err != nil {
		return 0, nil, nil, false
	}
	payload = payload[n:]

	vlen, n, err := encoding.GetVarint64(payload)
	if err != nil {
		return 0, nil, nil, false
	}
	payload = payload[n:]

	if uint64(len(payload)) < klen+vlen {
		return 0, nil, nil, false
	}
	key = payload[:klen]
	value = payload[klen : klen+vlen]
	return dbformat.ValueType(t), key, value, true
}

func frameChecksum(payload []byte) uint32 {
	return checksum.WALChecksum(payload)
}
