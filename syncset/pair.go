package syncset

import "github.com/notorious-go/rwset/orderedset"

// lockPair acquires the requested roles on two distinct sets and returns a
// function that releases both.
//
// The lock of the set with the smaller identity is always taken first. Since
// every multi-set operation follows the same order, no two goroutines can each
// hold one of the locks while waiting for the other.
func lockPair[K any](a *Set[K], aWrite bool, b *Set[K], bWrite bool) (unlock func()) {
	if b.id < a.id {
		a, aWrite, b, bWrite = b, bWrite, a, aWrite
	}
	a.lockRole(aWrite)
	b.lockRole(bWrite)
	return func() {
		b.unlockRole(bWrite)
		a.unlockRole(aWrite)
	}
}

func (s *Set[K]) lockRole(write bool) {
	if write {
		s.mu.Lock()
	} else {
		s.mu.RLock()
	}
}

func (s *Set[K]) unlockRole(write bool) {
	if write {
		s.mu.Unlock()
	} else {
		s.mu.RUnlock()
	}
}

// SwapSet exchanges the contents of s and other. Both write roles are held for
// the duration, so a concurrent reader of either set observes the contents from
// before or after the swap, never a mixture. Swapping a set with itself does
// nothing.
func (s *Set[K]) SwapSet(other *Set[K]) {
	if s == other {
		return
	}
	defer lockPair(s, true, other, true)()
	s.keys, other.keys = other.keys, s.keys
}

// AssignSet replaces the contents and ordering of s with a copy of other.
func (s *Set[K]) AssignSet(other *Set[K]) {
	if s == other {
		return
	}
	defer lockPair(s, true, other, false)()
	s.keys = other.keys.Copy()
}

// MoveFrom transfers the contents of other to s without copying them, leaving
// other empty with the same ordering.
func (s *Set[K]) MoveFrom(other *Set[K]) {
	if s == other {
		return
	}
	defer lockPair(s, true, other, true)()
	s.keys = other.keys
	other.keys = orderedset.NewFunc(s.keys.Less())
}

// Equal reports whether s and other hold equal keys, comparing one consistent
// state of each under the ordering of s.
func (s *Set[K]) Equal(other *Set[K]) bool {
	if s == other {
		return true
	}
	defer lockPair(s, false, other, false)()
	return s.keys.Equal(other.keys)
}
