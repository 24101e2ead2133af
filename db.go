package lsmkv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dialtr/lsmkv/internal/cache"
	"github.com/dialtr/lsmkv/internal/compaction"
	"github.com/dialtr/lsmkv/internal/dbformat"
	"github.com/dialtr/lsmkv/internal/logging"
	"github.com/dialtr/lsmkv/internal/memtable"
	"github.com/dialtr/lsmkv/internal/table"
	"github.com/dialtr/lsmkv/internal/version"
	"github.com/dialtr/lsmkv/internal/wal"
)

// DB is the embedded ordered key/value store façade.
// It owns the active memtable, an optional immutable memtable pinned for
// flush, the active WAL writer, the table-file catalog, the two caches, and
// the single background worker.
type DB struct {
	opts Options
	log  logging.Logger

	// mu guards the (memtable, imm, walWriter) triple together.
	mu        sync.RWMutex
	mem       *memtable.MemTable
	imm       *memtable.MemTable
	walWriter *wal.Writer

	versions   *version.VersionSet
	blockCache *cache.BlockCache
	tableCache *table.Cache
	worker     *compaction.Worker
	closed     bool
}

// Open opens (and if necessary creates) a database rooted at opts.DBPath.
func Open(opts Options) (*DB, error) {
	opts = opts.withDefaults()
	if opts.DBPath == "" {
		return nil, ErrInvalidArgument
	}

	if _, err := os.Stat(opts.DBPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if !opts.CreateIfMissing {
			return nil, fmt.Errorf("%w: database does not exist", ErrInvalidArgument)
		}
		if err := os.MkdirAll(opts.DBPath, 0o755); err != nil {
			return nil, err
		}
	} else if opts.ErrorIfExists {
		return nil, fmt.Errorf("%w: database already exists", ErrInvalidArgument)
	}

	vs := version.New(opts.DBPath, opts.NumLevels)
	vs.SetLogger(opts.Logger)
	if err := vs.LoadFromDir(opts.DBPath); err != nil {
		return nil, err
	}

	db := &DB{
		opts:       opts,
		log:        opts.Logger,
		mem:        memtable.New(),
		versions:   vs,
		blockCache: cache.NewBlockCache(opts.BlockCacheCapacity),
		tableCache: table.NewCache(opts.MaxOpenFiles),
	}
	db.worker = compaction.NewWorker(64, db.logBackgroundError)

	if err := db.recoverWAL(); err != nil {
		db.worker.Close()
		return nil, err
	}

	num := vs.NextFileNumber()
	w, err := wal.Open(walPath(opts.DBPath, num))
	if err != nil {
		db.worker.Close()
		return nil, err
	}
	db.walWriter = w

	return db, nil
}

func walPath(dir string, number uint64) string {
	return filepath.Join(dir, fmt.Sprintf("wal-%d.log", number))
}

// recoverWAL replays every wal-<number>.log segment found in the database
// directory, in ascending number order, into the fresh memtable, then
// deletes each segment once fully consumed.
func (db *DB) recoverWAL() error {
	entries, err := os.ReadDir(db.opts.DBPath)
	if err != nil {
		return err
	}

	type seg struct {
		number uint64
		path   string
	}
	var segs []seg
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "wal-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, "wal-"), ".log")
		num, err := strconv.ParseUint(numStr, 10, 64)
		if err != nil {
			continue
		}
		segs = append(segs, seg{number: num, path: filepath.Join(db.opts.DBPath, name)})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].number < segs[j].number })

	for _, s := range segs {
		r, err := wal.OpenReader(s.path)
		if err != nil {
			db.log.Warnf(logging.NSRecovery+"skipping unreadable WAL segment %s: %v", s.path, err)
			continue
		}
		records := r.ReadAll()
		r.Close()

		for _, rec := range records {
			db.mem.Add(rec.Key, rec.Value, rec.Type)
		}
		if err := os.Remove(s.path); err != nil {
			db.log.Warnf(logging.NSRecovery+"could not remove replayed WAL segment %s: %v", s.path, err)
		}
	}
	return nil
}

// Put inserts or overwrites key with value.
func (db *DB) Put(wo WriteOptions, key, value []byte) error {
	return db.write(wo, dbformat.TypeValue, key, value)
}

// Delete records a tombstone for key.
func (db *DB) Delete(wo WriteOptions, key []byte) error {
	return db.write(wo, dbformat.TypeDeletion, key, nil)
}

func (db *DB) write(wo WriteOptions, typ dbformat.ValueType, key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	if err := db.walWriter.AddRecord(typ, key, value, wo.Sync); err != nil {
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}
	db.mem.Add(key, value, typ)

	if db.mem.ApproximateMemoryUsage() >= uint64(db.opts.WriteBufferSize) {
		return db.rotate()
	}
	return nil
}

// Get returns the live value for key, or a *NotFoundError distinguishing a
// tombstone hit from total absence.
func (db *DB) Get(ro ReadOptions, key []byte) ([]byte, error) {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return nil, ErrClosed
	}
	if typ, value, ok := db.mem.Get(key); ok {
		db.mu.RUnlock()
		return valueOrNotFound(key, typ, value)
	}
	if db.imm != nil {
		if typ, value, ok := db.imm.Get(key); ok {
			db.mu.RUnlock()
			return valueOrNotFound(key, typ, value)
		}
	}
	db.mu.RUnlock()

	candidates := db.versions.GetCandidateFiles(key)
	for _, f := range candidates {
		r, err := db.tableCache.Get(f.Path)
		if err != nil {
			db.log.Warnf(logging.NSDB+"skipping unreadable table %s: %v", f.Path, err)
			continue
		}
		typ, value, err := r.Get(key, db.blockCache, ro.FillCache)
		if err == nil {
			return valueOrNotFound(key, typ, value)
		}
		if errors.Is(err, table.ErrKeyNotFound) {
			continue
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrIOError, f.Path, err)
	}
	return nil, &NotFoundError{Key: key, Deleted: false}
}

func valueOrNotFound(key []byte, typ dbformat.ValueType, value []byte) ([]byte, error) {
	if typ == dbformat.TypeDeletion {
		return nil, &NotFoundError{Key: key, Deleted: true}
	}
	return value, nil
}

// Flush forces a memtable rotation and returns once the flush job has been
// enqueued, not once it has completed.
func (db *DB) Flush() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	return db.rotate()
}

// CompactRange is a best-effort trigger for the background compaction
// check. Its arguments are currently advisory: every call re-evaluates
// whether level 0 has grown past its trigger, regardless of begin/end.
func (db *DB) CompactRange(begin, end []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	db.maybeScheduleCompaction()
	return nil
}

// rotate swaps the active memtable for a fresh one, opens a new WAL
// segment, and schedules a flush job for the retired memtable. Caller must
// hold db.mu.
func (db *DB) rotate() error {
	if db.imm != nil {
		// Single-slot back-pressure: a rotation already in flight.
		return nil
	}

	db.imm = db.mem
	db.mem = memtable.New()

	oldWALPath := db.walWriter.Path()
	if err := db.walWriter.Close(); err != nil {
		db.log.Warnf(logging.NSWAL+"error closing superseded WAL segment: %v", err)
	}

	num := db.versions.NextFileNumber()
	w, err := wal.Open(walPath(db.opts.DBPath, num))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}
	db.walWriter = w

	snapshot := db.imm.SnapshotOrdered()
	tableNum := db.versions.NextFileNumber()

	db.worker.Schedule(func() error {
		return db.runFlushJob(snapshot, tableNum, oldWALPath)
	})

	db.imm = nil

	db.maybeScheduleCompaction()
	return nil
}

// runFlushJob builds an L0 table from snapshot, registers it, and deletes
// the WAL segment it superseded.
func (db *DB) runFlushJob(snapshot []dbformat.Entry, tableNum uint64, walToDelete string) error {
	path := version.FileName(db.opts.DBPath, 0, tableNum)
	b, err := table.Create(path, db.opts.BlockSize, db.opts.BloomBitsPerKey)
	if err != nil {
		return fmt.Errorf("%s%w: %v", logging.NSFlush, ErrIOError, err)
	}
	for _, e := range snapshot {
		if err := b.Add(e.Key, e.Value, e.Type); err != nil {
			return fmt.Errorf("%s%w: %v", logging.NSFlush, ErrIOError, err)
		}
	}
	meta, err := b.Finish()
	if err != nil {
		return fmt.Errorf("%s%w: %v", logging.NSFlush, ErrIOError, err)
	}

	db.versions.AddFile(&version.TableFile{
		Level:    0,
		Number:   tableNum,
		Path:     path,
		Smallest: meta.Smallest,
		Largest:  meta.Largest,
		Size:     meta.FileSize,
	})

	if err := os.Remove(walToDelete); err != nil {
		db.log.Warnf(logging.NSFlush+"could not remove superseded WAL segment %s: %v", walToDelete, err)
	}
	return nil
}

// maybeScheduleCompaction asks the version set whether level 0 has grown
// past its trigger and, if so, schedules a compaction job. Caller must
// hold db.mu.
func (db *DB) maybeScheduleCompaction() {
	level, ok := db.versions.PickCompactionLevel()
	if !ok {
		return
	}

	inputs := db.versions.PickCompactionInputs(level)
	if len(inputs) == 0 {
		return
	}

	smallest, largest := inputs[0].Smallest, inputs[0].Largest
	for _, f := range inputs[1:] {
		if string(f.Smallest) < string(smallest) {
			smallest = f.Smallest
		}
		if string(f.Largest) > string(largest) {
			largest = f.Largest
		}
	}
	overlaps := db.versions.OverlappingFiles(level+1, smallest, largest)
	outputNum := db.versions.NextFileNumber()

	db.worker.Schedule(func() error {
		return db.runCompactionJob(level, inputs, overlaps, outputNum)
	})
}

// runCompactionJob merges inputs and overlaps into a single new table at
// level+1, then atomically (from the version set's perspective) swaps the
// inputs for the output.
func (db *DB) runCompactionJob(level int, inputs, overlaps []*version.TableFile, outputNum uint64) error {
	all := append(append([]*version.TableFile(nil), inputs...), overlaps...)

	var sources []compaction.Source
	var readers []*table.Reader
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	for _, f := range all {
		r, err := table.Open(f.Path)
		if err != nil {
			return fmt.Errorf("%s%w: %v", logging.NSCompact, ErrIOError, err)
		}
		readers = append(readers, r)
		it, err := r.Iterator()
		if err != nil {
			return fmt.Errorf("%s%w: %v", logging.NSCompact, ErrIOError, err)
		}
		sources = append(sources, compaction.Source{Iterator: it, Level: f.Level, FileSeq: f.Number})
	}

	outPath := version.FileName(db.opts.DBPath, level+1, outputNum)
	b, err := table.Create(outPath, db.opts.BlockSize, db.opts.BloomBitsPerKey)
	if err != nil {
		return fmt.Errorf("%s%w: %v", logging.NSCompact, ErrIOError, err)
	}

	merger := compaction.NewKWayMerger(sources)
	var lastKey []byte
	haveLast := false
	wroteAny := false
	for {
		key, value, typ, ok := merger.Next()
		if !ok {
			break
		}
		// First emission of a key wins; the merger already drains other
		// sources at the same key, but a defensive check here protects
		// against two successive Next calls yielding an equal key if the
		// merger's heap ever produced one. Tombstones are written through
		// like any other value and are never elided, even at the bottom
		// level.
		if haveLast && string(key) == string(lastKey) {
			continue
		}
		if err := b.Add(key, value, typ); err != nil {
			return fmt.Errorf("%s%w: %v", logging.NSCompact, ErrIOError, err)
		}
		lastKey = key
		haveLast = true
		wroteAny = true
	}

	meta, err := b.Finish()
	if err != nil {
		return fmt.Errorf("%s%w: %v", logging.NSCompact, ErrIOError, err)
	}

	for _, r := range readers {
		r.Close()
	}
	readers = nil

	for _, f := range all {
		db.versions.RemoveFile(f.Level, f.Number)
		db.tableCache.Erase(f.Path)
	}
	if wroteAny {
		db.versions.AddFile(&version.TableFile{
			Level:    level + 1,
			Number:   outputNum,
			Path:     outPath,
			Smallest: meta.Smallest,
			Largest:  meta.Largest,
			Size:     meta.FileSize,
		})
	}

	for _, f := range all {
		if err := os.Remove(f.Path); err != nil {
			db.log.Warnf(logging.NSCompact+"could not remove compacted input %s: %v", f.Path, err)
		}
	}

	return nil
}

func (db *DB) logBackgroundError(err error) {
	db.log.Errorf(logging.NSDB+"background task failed: %v", err)
}

// Close stops the background worker and waits for it to exit (a task
// already dequeued runs to completion; tasks still queued are discarded),
// then releases the WAL writer, table cache, and open files.
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	w := db.walWriter
	db.mu.Unlock()

	db.worker.Close()

	var firstErr error
	if err := w.Close(); err != nil {
		firstErr = err
	}
	if err := db.tableCache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Stats reports the current file count and byte size per level.
func (db *DB) Stats() []version.LevelStats {
	return db.versions.Stats()
}
