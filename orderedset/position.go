package orderedset

import "fmt"

// A Position locates a key within a Set, or the end of the Set.
//
// A Position holds a copy of the key rather than a reference into the tree, so
// it never dangles: after the set changes, a Position still names the same key
// and operations taking a Position re-locate it. The zero Position is End.
type Position[K any] struct {
	key   K
	valid bool
}

// At returns the Position of key k. The key need not be present in any set.
func At[K any](k K) Position[K] {
	return Position[K]{key: k, valid: true}
}

// End returns the Position past the largest key of any set.
func End[K any]() Position[K] {
	return Position[K]{}
}

// Key returns the key at p, or false if p is End.
func (p Position[K]) Key() (K, bool) {
	return p.key, p.valid
}

// IsEnd reports whether p is End.
func (p Position[K]) IsEnd() bool {
	return !p.valid
}

func (p Position[K]) String() string {
	if !p.valid {
		return "End"
	}
	return fmt.Sprintf("At(%v)", p.key)
}

func position[K any](k K, ok bool) Position[K] {
	if !ok {
		return End[K]()
	}
	return At(k)
}

// Seek returns the Position of the first key not less than k.
func (s *Set[K]) Seek(k K) Position[K] {
	return position(s.LowerBound(k))
}

// Begin returns the Position of the smallest key, or End if s is empty.
func (s *Set[K]) Begin() Position[K] {
	return position(s.tree.Min())
}

// Next returns the Position of the first key greater than the key at p. The
// key at p need not be present. Next of End is End.
func (s *Set[K]) Next(p Position[K]) Position[K] {
	if !p.valid {
		return p
	}
	return position(s.UpperBound(p.key))
}

// EqualRange returns the half-open range of positions holding keys equal to k.
// The range is empty, with lo equal to hi, when k is absent.
func (s *Set[K]) EqualRange(k K) (lo, hi Position[K]) {
	return s.Seek(k), position(s.UpperBound(k))
}

// InsertHint inserts k like Insert and returns the key now stored in s.
//
// The hint names where the caller expects k to go. It only ever serves as a
// suggestion: k is placed by the ordering whether the hint is right, wrong, or
// End.
func (s *Set[K]) InsertHint(hint Position[K], k K) K {
	stored, _ := s.Insert(k)
	return stored
}

// EraseAt removes the key at p, if present, and returns the Position of the
// key that followed it.
func (s *Set[K]) EraseAt(p Position[K]) Position[K] {
	if !p.valid {
		return p
	}
	s.tree.Delete(p.key)
	return s.Next(p)
}

// EraseRange removes the keys in the half-open range [lo, hi) and returns how
// many were removed. An End hi extends the range to the largest key.
func (s *Set[K]) EraseRange(lo, hi Position[K]) int {
	if !lo.valid {
		return 0
	}
	var doomed []K
	collect := func(item K) bool {
		doomed = append(doomed, item)
		return true
	}
	if hi.valid {
		if !s.less(lo.key, hi.key) {
			return 0
		}
		s.tree.AscendRange(lo.key, hi.key, collect)
	} else {
		s.tree.AscendGreaterOrEqual(lo.key, collect)
	}
	for _, k := range doomed {
		s.tree.Delete(k)
	}
	return len(doomed)
}
