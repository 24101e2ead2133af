package memtable

import (
	"testing"

	"github.com/dialtr/lsmkv/internal/dbformat"
)

func TestMemTablePutGet(t *testing.T) {
	m := New()
	m.Add([]byte("k"), []byte("v1"), dbformat.TypeValue)
	m.Add([]byte("k"), []byte("v2"), dbformat.TypeValue)

	typ, value, ok := m.Get([]byte("k"))
	if !ok {
		t.Fatal("expected key to be found")
	}
	if typ != dbformat.TypeValue || string(value) != "v2" {
		t.Fatalf("got (%v, %q), want (TypeValue, v2)", typ, value)
	}
}

func TestMemTableDeleteTombstone(t *testing.T) {
	m := New()
	m.Add([]byte("k"), []byte("v1"), dbformat.TypeValue)
	m.Add([]byte("k"), nil, dbformat.TypeDeletion)

	typ, _, ok := m.Get([]byte("k"))
	if !ok {
		t.Fatal("expected tombstone to be found")
	}
	if typ != dbformat.TypeDeletion {
		t.Fatalf("got type %v, want TypeDeletion", typ)
	}
}

func TestMemTableMissingKey(t *testing.T) {
	m := New()
	if _, _, ok := m.Get([]byte("nope")); ok {
		t.Fatal("expected missing key to report not found")
	}
}

func TestMemTableEmptyKey(t *testing.T) {
	m := New()
	m.Add([]byte{}, []byte("v"), dbformat.TypeValue)
	typ, value, ok := m.Get([]byte{})
	if !ok || typ != dbformat.TypeValue || string(value) != "v" {
		t.Fatalf("empty key round-trip failed: ok=%v typ=%v value=%q", ok, typ, value)
	}
}

func TestMemTableSnapshotOrdered(t *testing.T) {
	m := New()
	for _, k := range []string{"c", "a", "b"} {
		m.Add([]byte(k), []byte(k+"v"), dbformat.TypeValue)
	}

	snap := m.SnapshotOrdered()
	if len(snap) != 3 {
		t.Fatalf("got %d entries, want 3", len(snap))
	}
	want := []string{"a", "b", "c"}
	for i, e := range snap {
		if string(e.Key) != want[i] {
			t.Fatalf("entry %d: got key %q, want %q", i, e.Key, want[i])
		}
	}

	// Mutating the table afterward must not affect the snapshot already taken.
	m.Add([]byte("d"), []byte("dv"), dbformat.TypeValue)
	if len(snap) != 3 {
		t.Fatalf("snapshot length changed after mutation: got %d", len(snap))
	}
}

func TestMemTableApproximateMemoryUsageGrows(t *testing.T) {
	m := New()
	if m.ApproximateMemoryUsage() != 0 {
		t.Fatalf("empty table should report zero usage")
	}
	m.Add([]byte("k"), []byte("v"), dbformat.TypeValue)
	afterInsert := m.ApproximateMemoryUsage()
	if afterInsert == 0 {
		t.Fatal("expected usage to grow after insert")
	}

	m.Add([]byte("k"), []byte("vv"), dbformat.TypeValue)
	afterOverwrite := m.ApproximateMemoryUsage()
	if afterOverwrite <= afterInsert {
		t.Fatalf("expected usage to grow further on overwrite: %d -> %d", afterInsert, afterOverwrite)
	}
}

func TestSkipListOrderedTraversal(t *testing.T) {
	s := NewSkipList(BytewiseComparator)
	keys := []string{"m", "a", "z", "b", "y"}
	for _, k := range keys {
		s.Put([]byte(k), k)
	}

	var got []string
	for it := s.NewIterator(); it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}

	want := []string{"a", "b", "m", "y", "z"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
