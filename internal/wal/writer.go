package wal

import (
	"os"
	"sync"

	"github.com/dialtr/lsmkv/internal/dbformat"
	"github.com/dialtr/lsmkv/internal/encoding"
)

// Writer appends framed records to a single WAL segment file. Writes are
// expected to be serialized by the caller (the database façade holds its
// write lock across the call), but Writer guards its own file handle with
// a mutex so a stray concurrent call cannot corrupt a frame.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// Open creates (or appends to) the WAL segment at path.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, path: path}, nil
}

// Path returns the segment's file path, used for deletion once a flush
// that supersedes it has committed.
func (w *Writer) Path() string {
	return w.path
}

// AddRecord appends one framed record. When sync is true, the underlying
// file is fsynced after writing; otherwise the write call itself is all
// that's required, leaving durability up to the OS page cache.
func (w *Writer) AddRecord(typ dbformat.ValueType, key, value []byte, sync bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload := encodeRecord(typ, key, value)

	frame := make([]byte, 0, encoding.VarintLength(uint64(len(payload)))+len(payload)+4)
	frame = encoding.AppendVarint64(frame, uint64(len(payload)))
	frame = append(frame, payload...)
	frame = encoding.PutFixed32(frame, frameChecksum(payload))

	if _, err := w.f.Write(frame); err != nil {
		return err
	}
	if sync {
		return w.f.Sync()
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
