package lsmkv

import "github.com/dialtr/lsmkv/internal/logging"

// Logger is an alias for the logging.Logger interface, so callers can
// supply their own logger without importing the internal package.
type Logger = logging.Logger

const (
	defaultWriteBufferSize  = 4 * 1024 * 1024
	defaultBlockSize        = 4 * 1024
	defaultBlockCacheBytes  = 64 * 1024 * 1024
	defaultBloomBitsPerKey  = 10
	defaultMaxOpenFiles     = 500
	defaultNumLevels        = 7
	defaultCompactionQDepth = 16
)

// Options configures a database at Open time.
type Options struct {
	// DBPath is the directory the database's files live in.
	DBPath string

	// WriteBufferSize is the memtable size, in bytes, that triggers a
	// rotation and background flush. Default 4 MiB.
	WriteBufferSize int

	// BlockSize is the target size, in bytes, of an uncompressed data
	// block within a table file. Default 4 KiB.
	BlockSize int

	// BlockCacheCapacity bounds the block cache's total cached bytes.
	// Default 64 MiB.
	BlockCacheCapacity uint64

	// BloomBitsPerKey controls the false-positive rate of each table's
	// Bloom filter. Default 10.
	BloomBitsPerKey int

	// MaxOpenFiles bounds how many table files may be held open at once.
	// Default 500.
	MaxOpenFiles int

	// NumLevels is the number of levels in the LSM tree. Default 7.
	NumLevels int

	// CreateIfMissing creates the database directory if it does not
	// already exist. Default true.
	CreateIfMissing bool

	// ErrorIfExists causes Open to fail if the database directory already
	// exists, whatever it contains. Default false.
	ErrorIfExists bool

	// Logger receives diagnostic output from flush, compaction, and
	// recovery. Defaults to a Discard logger if nil.
	Logger Logger
}

// DefaultOptions returns an Options with every field set to its documented
// default, rooted at dbPath.
func DefaultOptions(dbPath string) Options {
	return Options{
		DBPath:             dbPath,
		WriteBufferSize:    defaultWriteBufferSize,
		BlockSize:          defaultBlockSize,
		BlockCacheCapacity: defaultBlockCacheBytes,
		BloomBitsPerKey:    defaultBloomBitsPerKey,
		MaxOpenFiles:       defaultMaxOpenFiles,
		NumLevels:          defaultNumLevels,
		CreateIfMissing:    true,
		ErrorIfExists:      false,
		Logger:             logging.Discard,
	}
}

func (o Options) withDefaults() Options {
	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = defaultWriteBufferSize
	}
	if o.BlockSize <= 0 {
		o.BlockSize = defaultBlockSize
	}
	if o.BlockCacheCapacity == 0 {
		o.BlockCacheCapacity = defaultBlockCacheBytes
	}
	if o.BloomBitsPerKey <= 0 {
		o.BloomBitsPerKey = defaultBloomBitsPerKey
	}
	if o.MaxOpenFiles <= 0 {
		o.MaxOpenFiles = defaultMaxOpenFiles
	}
	if o.NumLevels <= 0 {
		o.NumLevels = defaultNumLevels
	}
	if o.Logger == nil {
		o.Logger = logging.Discard
	}
	return o
}

// WriteOptions controls the durability of a single write.
type WriteOptions struct {
	// Sync forces the write-ahead log record to be fsynced before the
	// write returns. Default false.
	Sync bool
}

// ReadOptions controls the caching behavior of a single read.
type ReadOptions struct {
	// FillCache controls whether a block-cache miss during this read
	// populates the cache. Default false, matching the zero value; pass
	// true explicitly for reads expected to recur.
	FillCache bool
}
