package syncset

import (
	"errors"
	"iter"

	"github.com/notorious-go/rwset/orderedset"
)

// ErrTxnReleased is the panic value raised when a transaction is used after its
// lock was released.
var ErrTxnReleased = errors.New("syncset: transaction used after release")

// A ReadTxn is a handle to a set whose read role is held on the caller's
// behalf. Any number of ReadTxns may be open on a set at once.
//
// A ReadTxn belongs to the goroutine that opened it and must be released
// exactly once. Every method panics with ErrTxnReleased after Release.
type ReadTxn[K any] struct {
	set      *Set[K]
	write    bool
	released bool
}

// A WriteTxn is a handle to a set whose write role is held on the caller's
// behalf. It offers the methods of ReadTxn plus mutations, all applied without
// releasing the role in between.
type WriteTxn[K any] struct {
	ReadTxn[K]
}

// Read acquires the read role of s and returns a handle to it. The caller must
// call Release on the handle.
func (s *Set[K]) Read() *ReadTxn[K] {
	s.mu.RLock()
	return &ReadTxn[K]{set: s}
}

// Write acquires the write role of s and returns a handle to it. The caller
// must call Release on the handle.
func (s *Set[K]) Write() *WriteTxn[K] {
	s.mu.Lock()
	return &WriteTxn[K]{ReadTxn[K]{set: s, write: true}}
}

// View calls fn with the read role of s held and returns its error. The role is
// released when fn returns or panics.
func (s *Set[K]) View(fn func(tx *ReadTxn[K]) error) error {
	tx := s.Read()
	defer tx.Release()
	return fn(tx)
}

// Update calls fn with the write role of s held and returns its error. The role
// is released when fn returns or panics. Changes made by fn before an error or
// panic are kept.
func (s *Set[K]) Update(fn func(tx *WriteTxn[K]) error) error {
	tx := s.Write()
	defer tx.Release()
	return fn(tx)
}

// Release gives up the role held by tx. Further calls do nothing.
func (tx *ReadTxn[K]) Release() {
	if tx.released {
		return
	}
	tx.released = true
	tx.set.unlockRole(tx.write)
}

// keys returns the protected set, or panics if the role was released.
func (tx *ReadTxn[K]) keys() *orderedset.Set[K] {
	if tx.released {
		panic(ErrTxnReleased)
	}
	return tx.set.keys
}

func (tx *ReadTxn[K]) Len() int                 { return tx.keys().Len() }
func (tx *ReadTxn[K]) Empty() bool              { return tx.keys().Empty() }
func (tx *ReadTxn[K]) Find(k K) (K, bool)       { return tx.keys().Find(k) }
func (tx *ReadTxn[K]) Contains(k K) bool        { return tx.keys().Contains(k) }
func (tx *ReadTxn[K]) Count(k K) int            { return tx.keys().Count(k) }
func (tx *ReadTxn[K]) LowerBound(k K) (K, bool) { return tx.keys().LowerBound(k) }
func (tx *ReadTxn[K]) UpperBound(k K) (K, bool) { return tx.keys().UpperBound(k) }
func (tx *ReadTxn[K]) Min() (K, bool)           { return tx.keys().Min() }
func (tx *ReadTxn[K]) Max() (K, bool)           { return tx.keys().Max() }
func (tx *ReadTxn[K]) Keys() []K                { return tx.keys().Keys() }

func (tx *ReadTxn[K]) EqualRange(k K) (lo, hi orderedset.Position[K]) {
	return tx.keys().EqualRange(k)
}

func (tx *ReadTxn[K]) Seek(k K) orderedset.Position[K] { return tx.keys().Seek(k) }
func (tx *ReadTxn[K]) Begin() orderedset.Position[K]   { return tx.keys().Begin() }

func (tx *ReadTxn[K]) Next(p orderedset.Position[K]) orderedset.Position[K] {
	return tx.keys().Next(p)
}

// All returns an iterator over the keys in ascending order. It panics if the
// transaction is released before or during the iteration. The set must not be
// modified while iterating.
func (tx *ReadTxn[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range tx.keys().All() {
			if !yield(k) {
				return
			}
			tx.keys()
		}
	}
}

func (tx *WriteTxn[K]) Insert(k K) (K, bool)          { return tx.keys().Insert(k) }
func (tx *WriteTxn[K]) InsertKeys(keys ...K) int      { return tx.keys().InsertKeys(keys...) }
func (tx *WriteTxn[K]) InsertAll(seq iter.Seq[K]) int { return tx.keys().InsertAll(seq) }
func (tx *WriteTxn[K]) Erase(k K) int                 { return tx.keys().Erase(k) }
func (tx *WriteTxn[K]) Clear()                        { tx.keys().Clear() }
func (tx *WriteTxn[K]) Reset(keys ...K)               { tx.keys().Reset(keys...) }

func (tx *WriteTxn[K]) InsertHint(hint orderedset.Position[K], k K) K {
	return tx.keys().InsertHint(hint, k)
}

func (tx *WriteTxn[K]) EraseAt(p orderedset.Position[K]) orderedset.Position[K] {
	return tx.keys().EraseAt(p)
}

func (tx *WriteTxn[K]) EraseRange(lo, hi orderedset.Position[K]) int {
	return tx.keys().EraseRange(lo, hi)
}
