// Package orderedset implements a sorted set of unique keys on top of a B-tree.
//
// A Set is not safe for concurrent use; see package syncset for a set guarded
// by a readers-writer lock. Keys are ordered by a caller-supplied less function,
// or by cmp.Less for ordered types. Two keys a and b are equal when neither
// less(a, b) nor less(b, a) holds, so a set never contains both.
//
// Lookups return copies of the stored keys rather than references into the
// tree. A Position is likewise a key value, not a pointer, so it stays safe to
// use after the set has been modified: it simply locates by key again.
package orderedset

import (
	"cmp"
	"fmt"
	"iter"

	"github.com/google/btree"
)

// DefaultDegree is the B-tree degree used unless NewWithFreeList is given
// another.
const DefaultDegree = 32

// FreeList is a pool of B-tree nodes that may be shared by several sets to
// reduce allocations. It is safe for concurrent use.
type FreeList[K any] = btree.FreeListG[K]

// NewFreeList returns a FreeList that retains at most size spare nodes.
func NewFreeList[K any](size int) *FreeList[K] {
	return btree.NewFreeListG[K](size)
}

// Set is an ordered set of unique keys.
//
// A Set must be created with one of the constructors; the zero Set is not
// usable.
type Set[K any] struct {
	tree *btree.BTreeG[K]
	less func(a, b K) bool
}

// New returns an empty set of naturally ordered keys.
func New[K cmp.Ordered]() *Set[K] {
	return NewFunc(cmp.Less[K])
}

// NewFunc returns an empty set ordered by less, which must be a strict weak
// ordering.
func NewFunc[K any](less func(a, b K) bool) *Set[K] {
	return NewWithFreeList(less, DefaultDegree, nil)
}

// NewWithFreeList returns an empty set ordered by less whose B-tree has the
// given degree and draws its nodes from fl. A degree below 2 selects
// DefaultDegree; a nil fl gives the set a private free list.
func NewWithFreeList[K any](less func(a, b K) bool, degree int, fl *FreeList[K]) *Set[K] {
	if degree < 2 {
		degree = DefaultDegree
	}
	if fl == nil {
		fl = btree.NewFreeListG[K](btree.DefaultFreeListSize)
	}
	return &Set[K]{
		tree: btree.NewWithFreeListG[K](degree, less, fl),
		less: less,
	}
}

// Of returns a set holding the given keys.
func Of[K cmp.Ordered](keys ...K) *Set[K] {
	return OfFunc(cmp.Less[K], keys...)
}

// OfFunc returns a set ordered by less holding the given keys.
func OfFunc[K any](less func(a, b K) bool, keys ...K) *Set[K] {
	s := NewFunc(less)
	s.InsertKeys(keys...)
	return s
}

// Collect returns a set holding the keys yielded by seq.
func Collect[K cmp.Ordered](seq iter.Seq[K]) *Set[K] {
	return CollectFunc(cmp.Less[K], seq)
}

// CollectFunc returns a set ordered by less holding the keys yielded by seq.
func CollectFunc[K any](less func(a, b K) bool, seq iter.Seq[K]) *Set[K] {
	s := NewFunc(less)
	s.InsertAll(seq)
	return s
}

// Less returns the ordering of s.
func (s *Set[K]) Less() func(a, b K) bool { return s.less }

// Len returns the number of keys in s.
func (s *Set[K]) Len() int { return s.tree.Len() }

// Empty reports whether s has no keys.
func (s *Set[K]) Empty() bool { return s.tree.Len() == 0 }

// Find returns the stored key equal to k.
func (s *Set[K]) Find(k K) (K, bool) { return s.tree.Get(k) }

// Contains reports whether s holds a key equal to k.
func (s *Set[K]) Contains(k K) bool { return s.tree.Has(k) }

// Count returns the number of keys equal to k: 0 or 1.
func (s *Set[K]) Count(k K) int {
	if s.tree.Has(k) {
		return 1
	}
	return 0
}

// LowerBound returns the first key that is not less than k.
func (s *Set[K]) LowerBound(k K) (key K, ok bool) {
	s.tree.AscendGreaterOrEqual(k, func(item K) bool {
		key, ok = item, true
		return false
	})
	return key, ok
}

// UpperBound returns the first key that is greater than k.
func (s *Set[K]) UpperBound(k K) (key K, ok bool) {
	s.tree.AscendGreaterOrEqual(k, func(item K) bool {
		if !s.less(k, item) {
			return true
		}
		key, ok = item, true
		return false
	})
	return key, ok
}

// Min returns the smallest key.
func (s *Set[K]) Min() (K, bool) { return s.tree.Min() }

// Max returns the largest key.
func (s *Set[K]) Max() (K, bool) { return s.tree.Max() }

// Insert adds k unless an equal key is already present. It returns the key now
// stored in s and whether k was inserted; an existing key is never replaced.
func (s *Set[K]) Insert(k K) (K, bool) {
	if old, ok := s.tree.Get(k); ok {
		return old, false
	}
	s.tree.ReplaceOrInsert(k)
	return k, true
}

// InsertKeys inserts every key and returns how many were new.
func (s *Set[K]) InsertKeys(keys ...K) int {
	n := 0
	for _, k := range keys {
		if _, ok := s.Insert(k); ok {
			n++
		}
	}
	return n
}

// InsertAll inserts every key yielded by seq and returns how many were new.
func (s *Set[K]) InsertAll(seq iter.Seq[K]) int {
	n := 0
	for k := range seq {
		if _, ok := s.Insert(k); ok {
			n++
		}
	}
	return n
}

// Erase removes the key equal to k and returns the number of keys removed: 0
// or 1.
func (s *Set[K]) Erase(k K) int {
	if _, ok := s.tree.Delete(k); ok {
		return 1
	}
	return 0
}

// Clear removes all keys. Freed nodes are returned to the free list.
func (s *Set[K]) Clear() {
	s.tree.Clear(true)
}

// Reset replaces the contents of s with keys.
func (s *Set[K]) Reset(keys ...K) {
	s.tree.Clear(true)
	s.InsertKeys(keys...)
}

// Assign makes s a copy of other, including its ordering.
func (s *Set[K]) Assign(other *Set[K]) {
	if s == other {
		return
	}
	s.tree = other.tree.Clone()
	s.less = other.less
}

// Swap exchanges the contents and orderings of s and other.
func (s *Set[K]) Swap(other *Set[K]) {
	*s, *other = *other, *s
}

// Clone returns a copy of s in constant time. The copies share nodes until
// either is modified. Clone updates bookkeeping inside s, so it must not run
// concurrently with any other use of s.
func (s *Set[K]) Clone() *Set[K] {
	return &Set[K]{tree: s.tree.Clone(), less: s.less}
}

// Copy returns a copy of s built key by key. Unlike Clone it only reads s and
// may run concurrently with other reads.
func (s *Set[K]) Copy() *Set[K] {
	c := NewFunc(s.less)
	s.tree.Ascend(func(item K) bool {
		c.tree.ReplaceOrInsert(item)
		return true
	})
	return c
}

// All returns an iterator over the keys of s in ascending order. The set must
// not be modified during iteration.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.tree.Ascend(btree.ItemIteratorG[K](yield))
	}
}

// Backward returns an iterator over the keys of s in descending order.
func (s *Set[K]) Backward() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.tree.Descend(btree.ItemIteratorG[K](yield))
	}
}

// AscendFrom returns an iterator over the keys not less than k, in ascending
// order.
func (s *Set[K]) AscendFrom(k K) iter.Seq[K] {
	return func(yield func(K) bool) {
		s.tree.AscendGreaterOrEqual(k, btree.ItemIteratorG[K](yield))
	}
}

// Keys returns the keys of s in ascending order.
func (s *Set[K]) Keys() []K {
	keys := make([]K, 0, s.tree.Len())
	for k := range s.All() {
		keys = append(keys, k)
	}
	return keys
}

// Equal reports whether s and other hold equal keys under the ordering of s.
func (s *Set[K]) Equal(other *Set[K]) bool {
	if s.Len() != other.Len() {
		return false
	}
	next, stop := iter.Pull(other.All())
	defer stop()
	for k := range s.All() {
		o, ok := next()
		if !ok || s.less(k, o) || s.less(o, k) {
			return false
		}
	}
	return true
}

func (s *Set[K]) String() string {
	return fmt.Sprint(s.Keys())
}
