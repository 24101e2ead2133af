// Package version tracks the set of table files that make up the database
// at each level of the LSM tree. Unlike a MANIFEST-backed version set,
// file membership here is derived entirely from the on-disk directory
// listing: table file names encode their own level and number, so there
// is no separate log of version edits to replay.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dialtr/lsmkv/internal/logging"
	"github.com/dialtr/lsmkv/internal/table"
)

// TableFile describes one table file registered in the version set.
type TableFile struct {
	Level    int
	Number   uint64
	Path     string
	Smallest []byte
	Largest  []byte
	Size     uint64
}

// FileName returns the canonical "L<level>-<number>.sst" name for a table
// file at the given level and number.
func FileName(dir string, level int, number uint64) string {
	return filepath.Join(dir, fmt.Sprintf("L%d-%d.sst", level, number))
}

// VersionSet tracks, per level, the table files currently live in the
// database. Level 0 files may have overlapping key ranges; every other
// level's files are disjoint and kept sorted by smallest key.
type VersionSet struct {
	mu            sync.Mutex
	dir           string
	numLevels     int
	levels        [][]*TableFile
	nextFileNum   uint64
	compactionPtr map[int][]byte // next compaction start key per level
	log           logging.Logger
}

// New creates an empty version set rooted at dir with the given number of
// levels.
func New(dir string, numLevels int) *VersionSet {
	return &VersionSet{
		dir:           dir,
		numLevels:     numLevels,
		levels:        make([][]*TableFile, numLevels),
		nextFileNum:   1,
		compactionPtr: make(map[int][]byte),
		log:           logging.Discard,
	}
}

// SetLogger installs the logger used to report recoverable load failures.
// A nil logger is ignored; by default a version set logs nowhere.
func (vs *VersionSet) SetLogger(log logging.Logger) {
	if log != nil {
		vs.log = log
	}
}

// NextFileNumber allocates and returns the next unused table file number.
func (vs *VersionSet) NextFileNumber() uint64 {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	n := vs.nextFileNum
	vs.nextFileNum++
	return n
}

// AddFile registers a newly written table file at level.
func (vs *VersionSet) AddFile(f *TableFile) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	vs.levels[f.Level] = append(vs.levels[f.Level], f)
	if f.Level > 0 {
		sort.Slice(vs.levels[f.Level], func(i, j int) bool {
			return string(vs.levels[f.Level][i].Smallest) < string(vs.levels[f.Level][j].Smallest)
		})
	} else {
		// L0 files overlap in key range, so ordering is by file number
		// (ascending here; readers walk it back-to-front for newest-first).
		sort.Slice(vs.levels[0], func(i, j int) bool {
			return vs.levels[0][i].Number < vs.levels[0][j].Number
		})
	}
	if f.Number >= vs.nextFileNum {
		vs.nextFileNum = f.Number + 1
	}
}

// RemoveFile removes a table file from level by its file number.
func (vs *VersionSet) RemoveFile(level int, number uint64) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	files := vs.levels[level]
	for i, f := range files {
		if f.Number == number {
			vs.levels[level] = append(files[:i], files[i+1:]...)
			return
		}
	}
}

// Files returns a snapshot of the table files at level, ordered as stored.
func (vs *VersionSet) Files(level int) []*TableFile {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	out := make([]*TableFile, len(vs.levels[level]))
	copy(out, vs.levels[level])
	return out
}

// NumLevels returns the number of levels this version set tracks.
func (vs *VersionSet) NumLevels() int {
	return vs.numLevels
}

// GetCandidateFiles returns, for a point lookup of key, the table files
// that might contain it: every level-0 file whose range covers key (newest
// first), then for each level below it the single file (if any) whose
// range covers key.
func (vs *VersionSet) GetCandidateFiles(key []byte) []*TableFile {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	var out []*TableFile
	l0 := vs.levels[0]
	for i := len(l0) - 1; i >= 0; i-- {
		f := l0[i]
		if keyInRange(f, key) {
			out = append(out, f)
		}
	}
	for level := 1; level < vs.numLevels; level++ {
		files := vs.levels[level]
		idx := sort.Search(len(files), func(i int) bool {
			return string(files[i].Largest) >= string(key)
		})
		if idx < len(files) && keyInRange(files[idx], key) {
			out = append(out, files[idx])
		}
	}
	return out
}

func keyInRange(f *TableFile, key []byte) bool {
	return string(key) >= string(f.Smallest) && string(key) <= string(f.Largest)
}

// PickCompactionLevel reports whether level 0 holds enough files to trigger
// a compaction: only L0 is ever picked, once it exceeds 4 files, returning
// (0, true) when so.
func (vs *VersionSet) PickCompactionLevel() (int, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if len(vs.levels[0]) > 4 {
		return 0, true
	}
	return 0, false
}

// PickCompactionInputs returns the files to compact out of level: every
// file currently in L0 if level is 0 (L0 ranges overlap, so all of them
// must be merged together), or a single file otherwise.
func (vs *VersionSet) PickCompactionInputs(level int) []*TableFile {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if level == 0 {
		out := make([]*TableFile, len(vs.levels[0]))
		copy(out, vs.levels[0])
		return out
	}
	if len(vs.levels[level]) == 0 {
		return nil
	}
	return []*TableFile{vs.levels[level][0]}
}

// OverlappingFiles returns the files in level whose key range intersects
// [smallest, largest], used to pick the next level's inputs for a
// compaction.
func (vs *VersionSet) OverlappingFiles(level int, smallest, largest []byte) []*TableFile {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	var out []*TableFile
	for _, f := range vs.levels[level] {
		if string(f.Smallest) <= string(largest) && string(f.Largest) >= string(smallest) {
			out = append(out, f)
		}
	}
	return out
}

// LoadFromDir scans dir for "L<level>-<number>.sst" files, opens each to
// recover its key range, and populates the version set from them. Used on
// Open to recover a database's table-file state without a separate
// manifest log.
func (vs *VersionSet) LoadFromDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var maxNumber uint64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		level, number, ok := parseTableName(entry.Name())
		if !ok {
			continue
		}
		if level >= vs.numLevels {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		r, err := table.Open(path)
		if err != nil {
			vs.log.Warnf("version: skipping unreadable table %s: %v", path, err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			r.Close()
			vs.log.Warnf("version: skipping unreadable table %s: %v", path, err)
			continue
		}

		it, err := r.Iterator()
		if err != nil {
			r.Close()
			vs.log.Warnf("version: skipping unreadable table %s: %v", path, err)
			continue
		}
		var smallest, largest []byte
		for it.Next() {
			if smallest == nil {
				smallest = append([]byte(nil), it.Key()...)
			}
			largest = append([]byte(nil), it.Key()...)
		}
		r.Close()

		f := &TableFile{
			Level:    level,
			Number:   number,
			Path:     path,
			Smallest: smallest,
			Largest:  largest,
			Size:     uint64(info.Size()),
		}
		vs.AddFile(f)
		if number > maxNumber {
			maxNumber = number
		}
	}

	vs.mu.Lock()
	if maxNumber+1 > vs.nextFileNum {
		vs.nextFileNum = maxNumber + 1
	}
	vs.mu.Unlock()
	return nil
}

func parseTableName(name string) (level int, number uint64, ok bool) {
	if !strings.HasSuffix(name, ".sst") || !strings.HasPrefix(name, "L") {
		return 0, 0, false
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "L"), ".sst")
	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lvl, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	num, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return lvl, num, true
}

// Stats reports the file count and total byte size per level, for
// diagnostics.
func (vs *VersionSet) Stats() []LevelStats {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	out := make([]LevelStats, vs.numLevels)
	for level := 0; level < vs.numLevels; level++ {
		var size uint64
		for _, f := range vs.levels[level] {
			size += f.Size
		}
		out[level] = LevelStats{Level: level, NumFiles: len(vs.levels[level]), Bytes: size}
	}
	return out
}

// LevelStats summarizes one level's table files.
type LevelStats struct {
	Level    int
	NumFiles int
	Bytes    uint64
}
