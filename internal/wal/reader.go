package wal

import (
	"bufio"
	"io"
	"os"

	"github.com/dialtr/lsmkv/internal/dbformat"
	"github.com/dialtr/lsmkv/internal/encoding"
)

// Record is one decoded WAL entry.
type Record struct {
	Type  dbformat.ValueType
	Key   []byte
	Value []byte
}

// Reader decodes the frame stream of one WAL segment.
type Reader struct {
	f *os.File
	r *bufio.Reader
}

// OpenReader opens the WAL segment at path for replay.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f, r: bufio.NewReader(f)}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// ReadAll decodes every well-formed record from the front of the segment,
// stopping at end of file or at the first malformed/truncated/
// checksum-failing frame — without failing the call. Already-decoded
// records are returned.
func (r *Reader) ReadAll() []Record {
	var out []Record
	for {
		rec, ok := r.readOne()
		if !ok {
			return out
		}
		out = append(out, rec)
	}
}

func (r *Reader) readOne() (Record, bool) {
	length, err := readVarint(r.r)
	if err != nil {
		return Record{}, false
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return Record{}, false
	}

	var csumBuf [4]byte
	if _, err := io.ReadFull(r.r, csumBuf[:]); err != nil {
		return Record{}, false
	}
	want, err := encoding.GetFixed32(csumBuf[:])
	if err != nil {
		return Record{}, false
	}
	if want != frameChecksum(payload) {
		return Record{}, false
	}

	typ, key, value, ok := decodeRecord(payload)
	if !ok {
		return Record{}, false
	}
	return Record{Type: typ, Key: key, Value: value}, true
}

// readVarint decodes a varint64 one byte at a time directly from r, since
// encoding.GetVarint64 operates on an in-memory buffer of known length.
func readVarint(r *bufio.Reader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift >= 64 {
			return 0, encoding.ErrInvalidVarint
		}
		if b < 0x80 {
			result |= uint64(b) << shift
			return result, nil
		}
		result |= uint64(b&0x7f) << shift
		shift += 7
	}
}
