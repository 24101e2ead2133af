package version

import "testing"

func TestAddFileAndFiles(t *testing.T) {
	vs := New("", 7)
	vs.AddFile(&TableFile{Level: 0, Number: 1, Smallest: []byte("a"), Largest: []byte("m")})
	vs.AddFile(&TableFile{Level: 0, Number: 2, Smallest: []byte("b"), Largest: []byte("z")})

	files := vs.Files(0)
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if vs.NextFileNumber() != 3 {
		t.Fatalf("next file number should advance past the max seen number")
	}
}

func TestRemoveFile(t *testing.T) {
	vs := New("", 7)
	vs.AddFile(&TableFile{Level: 0, Number: 1})
	vs.AddFile(&TableFile{Level: 0, Number: 2})
	vs.RemoveFile(0, 1)

	files := vs.Files(0)
	if len(files) != 1 || files[0].Number != 2 {
		t.Fatalf("got %v, want only file 2", files)
	}
}

func TestLevelsAboveZeroStayDisjointAndSorted(t *testing.T) {
	vs := New("", 7)
	vs.AddFile(&TableFile{Level: 1, Number: 1, Smallest: []byte("m"), Largest: []byte("z")})
	vs.AddFile(&TableFile{Level: 1, Number: 2, Smallest: []byte("a"), Largest: []byte("l")})

	files := vs.Files(1)
	if string(files[0].Smallest) != "a" || string(files[1].Smallest) != "m" {
		t.Fatalf("expected ascending smallest-key order, got %v", files)
	}
}

func TestPickCompactionLevel(t *testing.T) {
	vs := New("", 7)
	for i := uint64(1); i <= 4; i++ {
		vs.AddFile(&TableFile{Level: 0, Number: i})
	}
	if _, ok := vs.PickCompactionLevel(); ok {
		t.Fatal("4 L0 files should not yet trigger compaction")
	}

	vs.AddFile(&TableFile{Level: 0, Number: 5})
	level, ok := vs.PickCompactionLevel()
	if !ok || level != 0 {
		t.Fatalf("got (%d,%v), want (0,true) once L0 exceeds 4 files", level, ok)
	}
}

func TestGetCandidateFilesOrdersL0NewestFirst(t *testing.T) {
	vs := New("", 7)
	vs.AddFile(&TableFile{Level: 0, Number: 1, Path: "f1", Smallest: []byte("a"), Largest: []byte("z")})
	vs.AddFile(&TableFile{Level: 0, Number: 2, Path: "f2", Smallest: []byte("a"), Largest: []byte("z")})

	candidates := vs.GetCandidateFiles([]byte("k"))
	if len(candidates) != 2 || candidates[0].Path != "f2" || candidates[1].Path != "f1" {
		t.Fatalf("expected newest-first order, got %v", candidates)
	}
}

func TestGetCandidateFilesDeepLevelSingleFile(t *testing.T) {
	vs := New("", 7)
	vs.AddFile(&TableFile{Level: 1, Number: 1, Path: "f1", Smallest: []byte("a"), Largest: []byte("m")})
	vs.AddFile(&TableFile{Level: 1, Number: 2, Path: "f2", Smallest: []byte("n"), Largest: []byte("z")})

	candidates := vs.GetCandidateFiles([]byte("b"))
	if len(candidates) != 1 || candidates[0].Path != "f1" {
		t.Fatalf("got %v, want only f1", candidates)
	}

	if candidates := vs.GetCandidateFiles([]byte("zz")); len(candidates) != 0 {
		t.Fatalf("key outside every range should yield no candidates, got %v", candidates)
	}
}

func TestOverlappingFiles(t *testing.T) {
	vs := New("", 7)
	vs.AddFile(&TableFile{Level: 1, Number: 1, Path: "f1", Smallest: []byte("a"), Largest: []byte("m")})
	vs.AddFile(&TableFile{Level: 1, Number: 2, Path: "f2", Smallest: []byte("n"), Largest: []byte("z")})

	overlaps := vs.OverlappingFiles(1, []byte("k"), []byte("o"))
	if len(overlaps) != 2 {
		t.Fatalf("got %d overlaps, want 2", len(overlaps))
	}
}
