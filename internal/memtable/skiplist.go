// Package memtable implements the in-memory ordered write buffer: a skip
// list keyed by raw bytes, wrapped in a MemTable that tracks an approximate
// byte footprint for rotation triggers.
//
// The skip list itself is unsynchronized: instead of the lock-free-read
// variant some LSM engines use, MemTable guards it with a single mutex,
// because the approximate byte footprint MemTable tracks is itself stateful
// and must be updated atomically with the insert.
package memtable

import (
	"bytes"
	"math/rand"
)

const maxHeight = 16

// Comparator compares two keys, returning <0, 0, or >0 the way bytes.Compare
// does.
type Comparator func(a, b []byte) int

// BytewiseComparator orders keys by unsigned byte comparison.
func BytewiseComparator(a, b []byte) int {
	return bytes.Compare(a, b)
}

type node struct {
	key   []byte
	value any
	next  []*node
}

func newNode(key []byte, value any, height int) *node {
	return &node{key: key, value: value, next: make([]*node, height)}
}

// SkipList is an ordered, byte-keyed container with randomized level
// selection (geometric, max 16 levels).
type SkipList struct {
	head    *node
	height  int
	compare Comparator
	rnd     *rand.Rand
	count   int
}

// NewSkipList creates an empty skip list using cmp for ordering.
func NewSkipList(cmp Comparator) *SkipList {
	return &SkipList{
		head:    newNode(nil, nil, maxHeight),
		height:  1,
		compare: cmp,
		rnd:     rand.New(rand.NewSource(0xdeadbeef)),
	}
}

func (s *SkipList) randomHeight() int {
	h := 1
	for h < maxHeight && s.rnd.Int31()&3 == 0 {
		h++
	}
	return h
}

// findPredecessors walks down from the top level, filling update with the
// last node at each level whose key is strictly less than key.
func (s *SkipList) findPredecessors(key []byte, update []*node) *node {
	x := s.head
	for i := s.height - 1; i >= 0; i-- {
		for x.next[i] != nil && s.compare(x.next[i].key, key) < 0 {
			x = x.next[i]
		}
		update[i] = x
	}
	return x
}

// Put inserts key with value, or overwrites the value of an existing key.
// It reports whether the key was newly inserted.
func (s *SkipList) Put(key []byte, value any) (inserted bool) {
	var update [maxHeight]*node
	s.findPredecessors(key, update[:s.height])
	candidate := update[0].next[0]
	if candidate != nil && s.compare(candidate.key, key) == 0 {
		candidate.value = value
		return false
	}

	h := s.randomHeight()
	if h > s.height {
		for i := s.height; i < h; i++ {
			update[i] = s.head
		}
		s.height = h
	}
	n := newNode(key, value, h)
	for i := 0; i < h; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.count++
	return true
}

// Get returns the value stored for key, if present.
func (s *SkipList) Get(key []byte) (value any, ok bool) {
	x := s.head
	for i := s.height - 1; i >= 0; i-- {
		for x.next[i] != nil && s.compare(x.next[i].key, key) < 0 {
			x = x.next[i]
		}
	}
	x = x.next[0]
	if x != nil && s.compare(x.key, key) == 0 {
		return x.value, true
	}
	return nil, false
}

// Count returns the number of distinct keys stored.
func (s *SkipList) Count() int {
	return s.count
}

// Iterator walks the skip list in ascending key order.
type Iterator struct {
	n *node
}

// NewIterator returns an iterator positioned at the first entry (not valid
// if the list is empty).
func (s *SkipList) NewIterator() *Iterator {
	return &Iterator{n: s.head.next[0]}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool { return it.n != nil }

// Key returns the current entry's key. Valid must be true.
func (it *Iterator) Key() []byte { return it.n.key }

// Value returns the current entry's value. Valid must be true.
func (it *Iterator) Value() any { return it.n.value }

// Next advances the iterator.
func (it *Iterator) Next() { it.n = it.n.next[0] }
