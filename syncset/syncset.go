package syncset

import (
	"cmp"
	"iter"
	"sync/atomic"

	"github.com/notorious-go/rwset/orderedset"
	"github.com/notorious-go/rwset/rwlock"
)

// ids hands out the identities that order lock acquisition across sets.
var ids atomic.Uint64

// Set is an ordered set of unique keys guarded by a readers-writer lock.
//
// A Set must be created with one of the constructors and must not be copied.
// The zero Set has no ordering and is not usable. This also applies to
// decoding: a *Set field of a struct passed to json.Unmarshal must already hold
// a Set made by a constructor, or UnmarshalJSON fails with ErrUninitialized.
type Set[K any] struct {
	id   uint64
	mu   rwlock.RWLock
	keys *orderedset.Set[K]
}

func newSet[K any](keys *orderedset.Set[K]) *Set[K] {
	return &Set[K]{id: ids.Add(1), keys: keys}
}

// New returns a set of naturally ordered keys holding the given keys.
func New[K cmp.Ordered](keys ...K) *Set[K] {
	return newSet(orderedset.Of(keys...))
}

// NewFunc returns a set ordered by less holding the given keys.
func NewFunc[K any](less func(a, b K) bool, keys ...K) *Set[K] {
	return newSet(orderedset.OfFunc(less, keys...))
}

// NewWithFreeList returns an empty set ordered by less whose storage has the
// given B-tree degree and allocates from fl. See orderedset.NewWithFreeList.
func NewWithFreeList[K any](less func(a, b K) bool, degree int, fl *orderedset.FreeList[K]) *Set[K] {
	return newSet(orderedset.NewWithFreeList(less, degree, fl))
}

// Collect returns a set holding the keys yielded by seq.
func Collect[K cmp.Ordered](seq iter.Seq[K]) *Set[K] {
	return newSet(orderedset.Collect(seq))
}

// CollectFunc returns a set ordered by less holding the keys yielded by seq.
func CollectFunc[K any](less func(a, b K) bool, seq iter.Seq[K]) *Set[K] {
	return newSet(orderedset.CollectFunc(less, seq))
}

// From returns a set holding a copy of the keys and ordering of s.
func From[K any](s *orderedset.Set[K]) *Set[K] {
	return newSet(s.Copy())
}

// Adopt returns a set that takes ownership of s without copying it. The caller
// must not use s afterwards.
func Adopt[K any](s *orderedset.Set[K]) *Set[K] {
	return newSet(s)
}

// Clone returns an independent copy of s with a fresh, unheld lock.
func (s *Set[K]) Clone() *Set[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newSet(s.keys.Copy())
}

// Snapshot returns a plain copy of the keys of s, taken under a single read
// hold.
func (s *Set[K]) Snapshot() *orderedset.Set[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Copy()
}

// Len returns the number of keys in s.
func (s *Set[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Len()
}

// Empty reports whether s has no keys.
func (s *Set[K]) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Empty()
}

// Find returns the stored key equal to k.
func (s *Set[K]) Find(k K) (K, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Find(k)
}

// Contains reports whether s holds a key equal to k.
func (s *Set[K]) Contains(k K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Contains(k)
}

// Count returns the number of keys equal to k: 0 or 1.
func (s *Set[K]) Count(k K) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Count(k)
}

// LowerBound returns the first key not less than k.
func (s *Set[K]) LowerBound(k K) (K, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.LowerBound(k)
}

// UpperBound returns the first key greater than k.
func (s *Set[K]) UpperBound(k K) (K, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.UpperBound(k)
}

// EqualRange returns the half-open range of positions holding keys equal to k,
// both taken from the same state of s.
func (s *Set[K]) EqualRange(k K) (lo, hi orderedset.Position[K]) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.EqualRange(k)
}

// Seek returns the position of the first key not less than k.
func (s *Set[K]) Seek(k K) orderedset.Position[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Seek(k)
}

// Begin returns the position of the smallest key.
func (s *Set[K]) Begin() orderedset.Position[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Begin()
}

// Next returns the position of the first key greater than the key at p.
func (s *Set[K]) Next(p orderedset.Position[K]) orderedset.Position[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Next(p)
}

// Min returns the smallest key.
func (s *Set[K]) Min() (K, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Min()
}

// Max returns the largest key.
func (s *Set[K]) Max() (K, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Max()
}

// Keys returns the keys of s in ascending order.
func (s *Set[K]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Keys()
}

// All returns an iterator over the keys of s in ascending order. The read role
// is held for the whole iteration, so the loop body must not call methods of s:
// a nested read may queue behind a waiting writer and deadlock. Collect the keys
// with Keys first, or use View or Update.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for k := range s.keys.All() {
			if !yield(k) {
				return
			}
		}
	}
}

func (s *Set[K]) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.String()
}

// Insert adds k unless an equal key is present, and returns the stored key and
// whether k was inserted.
func (s *Set[K]) Insert(k K) (K, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.Insert(k)
}

// InsertHint inserts k like Insert and returns the stored key. The hint is a
// suggestion only; it is never trusted to describe the current state of s.
func (s *Set[K]) InsertHint(hint orderedset.Position[K], k K) K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.InsertHint(hint, k)
}

// InsertKeys inserts every key under one write hold and returns how many were
// new.
func (s *Set[K]) InsertKeys(keys ...K) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.InsertKeys(keys...)
}

// InsertAll inserts every key yielded by seq under one write hold and returns
// how many were new. The sequence must not use s.
func (s *Set[K]) InsertAll(seq iter.Seq[K]) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.InsertAll(seq)
}

// Erase removes the key equal to k and returns the number removed: 0 or 1.
func (s *Set[K]) Erase(k K) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.Erase(k)
}

// EraseAt removes the key at p and returns the position that followed it.
func (s *Set[K]) EraseAt(p orderedset.Position[K]) orderedset.Position[K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.EraseAt(p)
}

// EraseRange removes the keys in [lo, hi) under one write hold and returns how
// many were removed.
func (s *Set[K]) EraseRange(lo, hi orderedset.Position[K]) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.EraseRange(lo, hi)
}

// Clear removes all keys.
func (s *Set[K]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys.Clear()
}

// Reset replaces the contents of s with keys.
func (s *Set[K]) Reset(keys ...K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys.Reset(keys...)
}

// Assign replaces the contents and ordering of s with a copy of plain.
func (s *Set[K]) Assign(plain *orderedset.Set[K]) {
	c := plain.Copy()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = c
}

// Replace makes s take ownership of plain, discarding its previous contents.
// The caller must not use plain afterwards.
func (s *Set[K]) Replace(plain *orderedset.Set[K]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = plain
}

// Swap exchanges the contents of s with those of plain. Only s is locked; plain
// must not be in concurrent use.
func (s *Set[K]) Swap(plain *orderedset.Set[K]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys.Swap(plain)
}

// RLock acquires the read role of the set's lock.
func (s *Set[K]) RLock() { s.mu.RLock() }

// RUnlock releases the read role of the set's lock.
func (s *Set[K]) RUnlock() { s.mu.RUnlock() }

// Lock acquires the write role of the set's lock.
func (s *Set[K]) Lock() { s.mu.Lock() }

// Unlock releases the write role of the set's lock.
func (s *Set[K]) Unlock() { s.mu.Unlock() }

// SetLockStyle changes the admission policy of the set's lock. It reports false
// if style is not valid.
func (s *Set[K]) SetLockStyle(style rwlock.Style) bool {
	return s.mu.SetStyle(style)
}

// LockStyle returns the admission policy of the set's lock.
func (s *Set[K]) LockStyle() rwlock.Style {
	return s.mu.Style()
}

// LockStats returns a snapshot of the state of the set's lock.
func (s *Set[K]) LockStats() rwlock.Stats {
	return s.mu.Stats()
}
