package table

import (
	"path/filepath"
	"testing"

	"github.com/dialtr/lsmkv/internal/dbformat"
)

func TestBuilderReaderGet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0-1.sst")

	b, err := Create(path, 4096, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	pairs := [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	for _, p := range pairs {
		if err := b.Add([]byte(p[0]), []byte(p[1]), dbformat.TypeValue); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	meta, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(meta.Smallest) != "a" || string(meta.Largest) != "c" {
		t.Fatalf("got range [%q,%q], want [a,c]", meta.Smallest, meta.Largest)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for _, p := range pairs {
		typ, value, err := r.Get([]byte(p[0]), nil, false)
		if err != nil {
			t.Fatalf("Get(%q): %v", p[0], err)
		}
		if typ != dbformat.TypeValue || string(value) != p[1] {
			t.Fatalf("Get(%q) = (%v,%q), want (TypeValue,%q)", p[0], typ, value, p[1])
		}
	}

	if _, _, err := r.Get([]byte("z"), nil, false); err != ErrKeyNotFound {
		t.Fatalf("Get(z) err = %v, want ErrKeyNotFound", err)
	}
}

func TestBuilderOneEntryPerBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0-2.sst")

	b, err := Create(path, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, p := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		if err := b.Add([]byte(p[0]), []byte(p[1]), dbformat.TypeValue); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if len(r.index) != 3 {
		t.Fatalf("got %d index entries, want 3", len(r.index))
	}
	wantKeys := []string{"a", "b", "c"}
	for i, e := range r.index {
		if string(e.Key) != wantKeys[i] {
			t.Fatalf("index entry %d key = %q, want %q", i, e.Key, wantKeys[i])
		}
	}

	typ, value, err := r.Get([]byte("b"), nil, false)
	if err != nil || typ != dbformat.TypeValue || string(value) != "2" {
		t.Fatalf("Get(b) = (%v,%q,%v), want (TypeValue,2,nil)", typ, value, err)
	}

	if _, _, err := r.Get([]byte("bb"), nil, false); err != ErrKeyNotFound {
		t.Fatalf("Get(bb) err = %v, want ErrKeyNotFound", err)
	}
}

func TestIteratorInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0-3.sst")

	b, err := Create(path, 4096, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	pairs := [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	for _, p := range pairs {
		if err := b.Add([]byte(p[0]), []byte(p[1]), dbformat.TypeValue); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	it, err := r.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var got [][2]string
	for it.Next() {
		got = append(got, [2]string{string(it.Key()), string(it.Value())})
	}
	if it.Err() != nil {
		t.Fatalf("iteration error: %v", it.Err())
	}
	if len(got) != len(pairs) {
		t.Fatalf("got %d entries, want %d", len(got), len(pairs))
	}
	for i := range pairs {
		if got[i] != pairs[i] {
			t.Fatalf("entry %d: got %v, want %v", i, got[i], pairs[i])
		}
	}
}

func TestCacheOpensAndReuses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0-4.sst")

	b, err := Create(path, 4096, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := b.Add([]byte("a"), []byte("1"), dbformat.TypeValue); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	c := NewCache(10)
	defer c.Close()

	r1, err := c.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	r2, err := c.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r1 != r2 {
		t.Fatal("expected cache to return the same reader instance")
	}

	c.Erase(path)
	r3, err := c.Get(path)
	if err != nil {
		t.Fatalf("Get after Erase: %v", err)
	}
	if r3 == r1 {
		t.Fatal("expected a fresh reader instance after Erase")
	}
}
