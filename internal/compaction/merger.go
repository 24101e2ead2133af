// Package compaction implements the k-way merge that folds overlapping
// table files into the next level, and the single background worker that
// runs flush and compaction jobs off the write path.
package compaction

import (
	"bytes"
	"container/heap"

	"github.com/dialtr/lsmkv/internal/dbformat"
)

// SourceIterator is the subset of table.Iterator the merger needs. The
// level and file number that decide precedence are supplied separately
// (see Source) so the merger never imports the concrete *table.Reader type.
type SourceIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Type() dbformat.ValueType
}

type heapItem struct {
	it      SourceIterator
	level   int
	fileSeq uint64 // higher file number wins within the same level (L0 tie-break)
	valid   bool
}

type mergeHeap []*heapItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	c := bytes.Compare(h[i].it.Key(), h[j].it.Key())
	if c != 0 {
		return c < 0
	}
	// Same key: lower level wins; within the same level, higher file
	// number (the more recently written file) wins.
	if h[i].level != h[j].level {
		return h[i].level < h[j].level
	}
	return h[i].fileSeq > h[j].fileSeq
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(*heapItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Source describes one input to the merge: an iterator plus the level and
// file number it came from, which together decide precedence on key ties.
type Source struct {
	Iterator SourceIterator
	Level    int
	FileSeq  uint64
}

// KWayMerger produces the ordered, deduplicated stream of entries that
// result from merging a set of table iterators. When multiple sources hold
// the same key, only the highest-precedence source's entry is emitted; the
// rest are silently dropped, including deletions. Tombstones are never
// elided at any level, even the bottom one: there is no notion of "this is
// the oldest level, so a deletion here can simply vanish".
type KWayMerger struct {
	h *mergeHeap
}

// NewKWayMerger builds a merger over sources, each already positioned
// before its first entry.
func NewKWayMerger(sources []Source) *KWayMerger {
	h := &mergeHeap{}
	heap.Init(h)
	for _, s := range sources {
		item := &heapItem{it: s.Iterator, level: s.Level, fileSeq: s.FileSeq}
		if item.it.Next() {
			item.valid = true
			heap.Push(h, item)
		}
	}
	return &KWayMerger{h: h}
}

// Next returns the next (key, value, type) in ascending key order with
// duplicates resolved by precedence, or ok=false when every source is
// exhausted.
func (m *KWayMerger) Next() (key, value []byte, typ dbformat.ValueType, ok bool) {
	if m.h.Len() == 0 {
		return nil, nil, 0, false
	}

	winner := heap.Pop(m.h).(*heapItem)
	key = append([]byte(nil), winner.it.Key()...)
	value = append([]byte(nil), winner.it.Value()...)
	typ = winner.it.Type()

	m.advance(winner)

	// Drain every other source currently positioned at the same key.
	for m.h.Len() > 0 && bytes.Equal((*m.h)[0].it.Key(), key) {
		loser := heap.Pop(m.h).(*heapItem)
		m.advance(loser)
	}

	return key, value, typ, true
}

func (m *KWayMerger) advance(item *heapItem) {
	if item.it.Next() {
		heap.Push(m.h, item)
	}
}
