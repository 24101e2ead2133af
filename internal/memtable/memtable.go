package memtable

import (
	"sync"

	"github.com/dialtr/lsmkv/internal/dbformat"
)

// perEntryOverhead is an implementation-chosen constant added to a new
// entry's footprint estimate, approximating skip-list node bookkeeping
// (forward pointers, allocation rounding). The estimate only needs to be
// monotonic and usable as a rotation trigger, not exact.
const perEntryOverhead = 32

type memValue struct {
	value []byte
	typ   dbformat.ValueType
}

// MemTable is the thread-safe ordered write buffer: a mapping from key to
// (type, value) with ordered traversal, an approximate byte footprint, and
// an independent point-in-time snapshot.
type MemTable struct {
	mu      sync.RWMutex
	list    *SkipList
	memUsed uint64
}

// New creates an empty MemTable.
func New() *MemTable {
	return &MemTable{list: NewSkipList(BytewiseComparator)}
}

// Add inserts or overwrites key with (typ, value). On insert the footprint
// grows by key+value size plus a fixed per-entry overhead; on overwrite it
// grows only by the new value's size (the key is not re-stored).
func (m *MemTable) Add(key, value []byte, typ dbformat.ValueType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	inserted := m.list.Put(k, memValue{value: v, typ: typ})
	if inserted {
		m.memUsed += uint64(len(k)) + uint64(len(v)) + perEntryOverhead
	} else {
		m.memUsed += uint64(len(v))
	}
}

// Get returns the type and value recorded for key, if present.
func (m *MemTable) Get(key []byte) (typ dbformat.ValueType, value []byte, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, found := m.list.Get(key)
	if !found {
		return 0, nil, false
	}
	mv := v.(memValue)
	return mv.typ, mv.value, true
}

// SnapshotOrdered returns every (key, value, type) triple in ascending key
// order. The returned entries are independent copies; subsequent mutations
// of the MemTable do not affect them.
func (m *MemTable) SnapshotOrdered() []dbformat.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]dbformat.Entry, 0, m.list.Count())
	for it := m.list.NewIterator(); it.Valid(); it.Next() {
		mv := it.Value().(memValue)
		out = append(out, dbformat.Entry{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), mv.value...),
			Type:  mv.typ,
		})
	}
	return out
}

// ApproximateMemoryUsage returns the monotonic footprint estimate used to
// decide when to rotate the memtable.
func (m *MemTable) ApproximateMemoryUsage() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memUsed
}
