package block

import (
	"testing"

	"github.com/dialtr/lsmkv/internal/dbformat"
)

func TestBlockBuilderReaderRoundTrip(t *testing.T) {
	b := NewBuilder(4096)
	pairs := [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	for _, p := range pairs {
		b.Add([]byte(p[0]), []byte(p[1]), dbformat.TypeValue)
	}
	data := b.Finish()

	r := NewReader(data)
	for i, p := range pairs {
		e, ok := r.Next()
		if !ok {
			t.Fatalf("entry %d: expected more entries", i)
		}
		if string(e.Key) != p[0] || string(e.Value) != p[1] || e.Type != dbformat.TypeValue {
			t.Fatalf("entry %d: got (%q,%q,%v), want (%q,%q,TypeValue)", i, e.Key, e.Value, e.Type, p[0], p[1])
		}
	}
	if _, ok := r.Next(); ok {
		t.Fatal("expected no more entries")
	}
}

func TestBlockBuilderShouldFlush(t *testing.T) {
	b := NewBuilder(4)
	if b.ShouldFlush() {
		t.Fatal("empty block should not need flushing")
	}
	b.Add([]byte("key"), []byte("value"), dbformat.TypeValue)
	if !b.ShouldFlush() {
		t.Fatal("block past target size should need flushing")
	}
}

func TestIndexBuilderEncodeDecode(t *testing.T) {
	ib := NewIndexBuilder()
	ib.Add([]byte("a"), 0, 10)
	ib.Add([]byte("b"), 10, 8)
	ib.Add([]byte("c"), 18, 12)

	encoded := ib.Finish()
	entries, err := DecodeIndex(encoded)
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if string(entries[1].Key) != "b" || entries[1].Offset != 10 || entries[1].Size != 8 {
		t.Fatalf("entry 1 mismatch: %+v", entries[1])
	}
}

func TestFindBlock(t *testing.T) {
	entries := []IndexEntry{
		{Key: []byte("a")},
		{Key: []byte("m")},
		{Key: []byte("z")},
	}

	cases := []struct {
		key  string
		want int
	}{
		{"a", 0},
		{"c", 0},
		{"m", 1},
		{"n", 1},
		{"z", 2},
		{"zz", 2},
		{"", -1},
	}
	for _, c := range cases {
		got := FindBlock(entries, []byte(c.key))
		if got != c.want {
			t.Errorf("FindBlock(%q) = %d, want %d", c.key, got, c.want)
		}
	}
}

func TestFooterEncodeDecode(t *testing.T) {
	f := Footer{IndexOffset: 100, IndexSize: 20, FilterOffset: 120, FilterSize: 8, Version: Version}
	encoded := f.EncodeTo()
	if len(encoded) != FooterSize {
		t.Fatalf("got footer size %d, want %d", len(encoded), FooterSize)
	}

	decoded, err := DecodeFooter(encoded)
	if err != nil {
		t.Fatalf("DecodeFooter: %v", err)
	}
	if decoded != f {
		t.Fatalf("got %+v, want %+v", decoded, f)
	}
}

func TestFooterRejectsBadMagic(t *testing.T) {
	f := Footer{IndexOffset: 1, IndexSize: 2, FilterOffset: 3, FilterSize: 4, Version: Version}
	encoded := f.EncodeTo()
	encoded[len(encoded)-1] ^= 0xFF

	if _, err := DecodeFooter(encoded); err != ErrBadFooter {
		t.Fatalf("got err %v, want ErrBadFooter", err)
	}
}
