package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dialtr/lsmkv/internal/dbformat"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal-1.log")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.AddRecord(dbformat.TypeValue, []byte("foo"), []byte("bar"), false); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := w.AddRecord(dbformat.TypeDeletion, []byte("foo"), nil, true); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("Open for read: %v", err)
	}
	defer r.Close()

	records := r.ReadAll()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Type != dbformat.TypeValue || string(records[0].Key) != "foo" || string(records[0].Value) != "bar" {
		t.Fatalf("record 0 mismatch: %+v", records[0])
	}
	if records[1].Type != dbformat.TypeDeletion || string(records[1].Key) != "foo" {
		t.Fatalf("record 1 mismatch: %+v", records[1])
	}
}

func TestReaderStopsAtTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal-1.log")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.AddRecord(dbformat.TypeValue, []byte("a"), []byte("1"), false); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := w.AddRecord(dbformat.TypeValue, []byte("b"), []byte("2"), false); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := os.Truncate(path, info.Size()-1); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("Open for read: %v", err)
	}
	defer r.Close()

	records := r.ReadAll()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (partial tail dropped)", len(records))
	}
	if string(records[0].Key) != "a" {
		t.Fatalf("got key %q, want a", records[0].Key)
	}
}

func TestReaderStopsAtChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal-1.log")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.AddRecord(dbformat.TypeValue, []byte("a"), []byte("1"), false); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("Open for read: %v", err)
	}
	defer r.Close()

	records := r.ReadAll()
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0 after checksum corruption", len(records))
	}
}
