package syncset_test

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notorious-go/rwset/internal/locktest"
	"github.com/notorious-go/rwset/orderedset"
	"github.com/notorious-go/rwset/rwlock"
	"github.com/notorious-go/rwset/syncset"
)

func TestScenario(t *testing.T) {
	s := syncset.New[int]()
	for _, k := range []int{3, 1, 2} {
		s.Insert(k)
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if _, ok := s.Find(2); !ok {
		t.Error("Find(2) reported absent")
	}
	if _, ok := s.Find(5); ok {
		t.Error("Find(5) reported present")
	}
	if k, ok := s.LowerBound(2); !ok || k != 2 {
		t.Errorf("LowerBound(2) = %d, %v; want 2, true", k, ok)
	}
	if n := s.Erase(2); n != 1 {
		t.Errorf("Erase(2) = %d, want 1", n)
	}
	if _, ok := s.Find(2); ok {
		t.Error("Find(2) after Erase reported present")
	}
	if s.Empty() {
		t.Error("Empty() = true with two keys")
	}
	if k, ok := s.UpperBound(1); !ok || k != 3 {
		t.Errorf("UpperBound(1) = %d, %v; want 3, true", k, ok)
	}
	if lo, hi := s.EqualRange(3); lo != orderedset.At(3) || !hi.IsEnd() {
		t.Errorf("EqualRange(3) = %v, %v; want At(3), End", lo, hi)
	}
	if s.Count(1) != 1 || s.Count(2) != 0 || !s.Contains(1) {
		t.Error("Count/Contains disagree with the contents")
	}
	if k, ok := s.Min(); !ok || k != 1 {
		t.Errorf("Min() = %d, %v", k, ok)
	}
	if k, ok := s.Max(); !ok || k != 3 {
		t.Errorf("Max() = %d, %v", k, ok)
	}
}

func TestConstruction(t *testing.T) {
	plain := orderedset.Of(3, 1, 2)

	copied := syncset.From(plain)
	plain.Insert(4)
	if copied.Contains(4) {
		t.Error("From shares storage with its source")
	}

	adopted := syncset.Adopt(orderedset.Of(7, 8))
	if got := adopted.Keys(); !slices.Equal(got, []int{7, 8}) {
		t.Errorf("Adopt: Keys() = %v", got)
	}

	collected := syncset.Collect(slices.Values([]int{5, 5, 4}))
	if got := collected.Keys(); !slices.Equal(got, []int{4, 5}) {
		t.Errorf("Collect: Keys() = %v", got)
	}

	desc := syncset.NewFunc(func(a, b int) bool { return a > b }, 1, 2, 3)
	if got := desc.Keys(); !slices.Equal(got, []int{3, 2, 1}) {
		t.Errorf("NewFunc: Keys() = %v", got)
	}
	descSeq := syncset.CollectFunc(func(a, b int) bool { return a > b }, slices.Values([]int{1, 2}))
	if got := descSeq.String(); got != "[2 1]" {
		t.Errorf("CollectFunc: String() = %q", got)
	}

	pooled := syncset.NewWithFreeList(func(a, b int) bool { return a < b }, 4, orderedset.NewFreeList[int](16))
	pooled.InsertKeys(2, 1)
	if got := pooled.String(); got != "[1 2]" {
		t.Errorf("NewWithFreeList: String() = %q", got)
	}

	// A clone gets its own contents and a fresh lock at the default style.
	original := syncset.New(1, 2)
	original.SetLockStyle(rwlock.Fair)
	clone := original.Clone()
	original.Insert(3)
	if clone.Contains(3) {
		t.Error("Clone shares storage with its source")
	}
	if got := clone.LockStyle(); got != rwlock.WriterPreferring {
		t.Errorf("clone LockStyle() = %v, want %v", got, rwlock.WriterPreferring)
	}
}

func TestAssignment(t *testing.T) {
	s := syncset.New(1, 2)

	plain := orderedset.Of(5, 6)
	s.Assign(plain)
	plain.Insert(7)
	if got := s.Keys(); !slices.Equal(got, []int{5, 6}) {
		t.Errorf("after Assign, Keys() = %v", got)
	}

	other := syncset.New(8, 9)
	s.AssignSet(other)
	other.Insert(10)
	if got := s.Keys(); !slices.Equal(got, []int{8, 9}) {
		t.Errorf("after AssignSet, Keys() = %v", got)
	}
	s.AssignSet(s)
	if got := s.Len(); got != 2 {
		t.Errorf("self-AssignSet changed Len() to %d", got)
	}

	s.Reset(4, 3, 4)
	if got := s.Keys(); !slices.Equal(got, []int{3, 4}) {
		t.Errorf("after Reset, Keys() = %v", got)
	}

	s.Replace(orderedset.Of(11))
	if got := s.Keys(); !slices.Equal(got, []int{11}) {
		t.Errorf("after Replace, Keys() = %v", got)
	}

	s.MoveFrom(other)
	if got := s.Keys(); !slices.Equal(got, []int{8, 9, 10}) {
		t.Errorf("after MoveFrom, Keys() = %v", got)
	}
	if !other.Empty() {
		t.Errorf("MoveFrom left %v in its source", other)
	}
	other.Insert(1)
	if s.Contains(1) {
		t.Error("MoveFrom source still shares storage")
	}
	s.MoveFrom(s)
	if got := s.Len(); got != 3 {
		t.Errorf("self-MoveFrom changed Len() to %d", got)
	}

	s.Clear()
	if !s.Empty() {
		t.Error("Empty() = false after Clear")
	}
}

func TestSwap(t *testing.T) {
	a := syncset.New(1, 2)
	b := syncset.New(3, 4, 5)
	a.SwapSet(b)
	if got := a.Keys(); !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("a = %v, want [3 4 5]", got)
	}
	if got := b.Keys(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("b = %v, want [1 2]", got)
	}
	a.SwapSet(a)
	if got := a.Len(); got != 3 {
		t.Errorf("self-SwapSet changed Len() to %d", got)
	}

	plain := orderedset.Of(9)
	a.Swap(plain)
	if got := a.Keys(); !slices.Equal(got, []int{9}) {
		t.Errorf("after Swap, a = %v, want [9]", got)
	}
	if got := plain.Keys(); !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("after Swap, plain = %v, want [3 4 5]", got)
	}
}

func TestEqual(t *testing.T) {
	a := syncset.New(1, 2, 3)
	b := syncset.New(3, 2, 1)
	if !a.Equal(b) || !b.Equal(a) || !a.Equal(a) {
		t.Error("equal sets compare unequal")
	}
	b.Erase(2)
	if a.Equal(b) {
		t.Error("different sets compare equal")
	}
}

func TestInsertHint(t *testing.T) {
	// Positions go stale as soon as the lock is released. A stale hint must
	// still produce a correctly ordered set.
	s := syncset.New(10, 20, 30)
	lo, _ := s.EqualRange(20)
	s.Erase(20)
	s.InsertHint(lo, 25)
	s.InsertHint(orderedset.End[int](), 5)
	if got := s.InsertHint(orderedset.At(10), 10); got != 10 {
		t.Errorf("InsertHint of a present key = %d", got)
	}
	if got := s.Keys(); !slices.Equal(got, []int{5, 10, 25, 30}) {
		t.Errorf("Keys() = %v", got)
	}
	next := s.EraseAt(orderedset.At(10))
	if next != orderedset.At(25) {
		t.Errorf("EraseAt(At(10)) = %v, want At(25)", next)
	}
	if n := s.EraseRange(next, orderedset.End[int]()); n != 2 {
		t.Errorf("EraseRange = %d, want 2", n)
	}
}

func TestJSON(t *testing.T) {
	s := syncset.New(2, 1)
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1,2]" {
		t.Errorf("Marshal = %s, want [1,2]", data)
	}

	if err := json.Unmarshal([]byte("[5,3,5]"), s); err != nil {
		t.Fatal(err)
	}
	if got := s.Keys(); !slices.Equal(got, []int{3, 5}) {
		t.Errorf("after Unmarshal, Keys() = %v", got)
	}

	if err := json.Unmarshal([]byte(`["x"]`), s); err == nil {
		t.Error("Unmarshal of strings into a Set[int] succeeded")
	}
	if got := s.Keys(); !slices.Equal(got, []int{3, 5}) {
		t.Errorf("failed Unmarshal changed Keys() to %v", got)
	}

	var zero syncset.Set[int]
	if err := zero.UnmarshalJSON([]byte("[1]")); !errors.Is(err, syncset.ErrUninitialized) {
		t.Errorf("UnmarshalJSON into a zero Set = %v, want %v", err, syncset.ErrUninitialized)
	}
}

func TestJSONField(t *testing.T) {
	type doc struct {
		Tags *syncset.Set[string] `json:"tags"`
	}

	// A field left nil is allocated by the decoder as a zero Set.
	var bare doc
	err := json.Unmarshal([]byte(`{"tags": ["b", "a"]}`), &bare)
	if !errors.Is(err, syncset.ErrUninitialized) {
		t.Errorf("Unmarshal into a nil field = %v, want %v", err, syncset.ErrUninitialized)
	}

	ready := doc{Tags: syncset.New[string]()}
	if err := json.Unmarshal([]byte(`{"tags": ["b", "a", "b"]}`), &ready); err != nil {
		t.Fatal(err)
	}
	if got := ready.Tags.Keys(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Tags = %v, want [a b]", got)
	}
}

func TestLockStyle(t *testing.T) {
	s := syncset.New[int]()
	if got := s.LockStyle(); got != rwlock.WriterPreferring {
		t.Errorf("default LockStyle() = %v", got)
	}
	if !s.SetLockStyle(rwlock.Fair) {
		t.Error("SetLockStyle(Fair) = false")
	}
	if s.SetLockStyle(rwlock.Style(200)) {
		t.Error("SetLockStyle of an invalid style = true")
	}
	if got := s.LockStats().Style; got != rwlock.Fair {
		t.Errorf("LockStats().Style = %v, want %v", got, rwlock.Fair)
	}
}

// TestRoundTrip applies the same random operations to a Set and to a plain
// orderedset.Set and expects identical results.
func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	s := syncset.New[int]()
	ref := orderedset.New[int]()
	for range 3000 {
		k := rng.IntN(300)
		switch rng.IntN(4) {
		case 0:
			if got, want := s.Erase(k), ref.Erase(k); got != want {
				t.Fatalf("Erase(%d) = %d, want %d", k, got, want)
			}
		case 1:
			hi := k + rng.IntN(20)
			got := s.EraseRange(orderedset.At(k), orderedset.At(hi))
			want := ref.EraseRange(orderedset.At(k), orderedset.At(hi))
			if got != want {
				t.Fatalf("EraseRange(%d, %d) = %d, want %d", k, hi, got, want)
			}
		default:
			_, got := s.Insert(k)
			_, want := ref.Insert(k)
			if got != want {
				t.Fatalf("Insert(%d) = %v, want %v", k, got, want)
			}
		}
	}
	if got, want := s.Keys(), ref.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if !s.Snapshot().Equal(ref) {
		t.Error("Snapshot() differs from the reference")
	}
}

func TestExternalLock(t *testing.T) {
	// The re-exposed lock obeys the same exclusion as the set's own operations,
	// under every style.
	for _, style := range rwlock.Styles {
		t.Run(style.String(), func(t *testing.T) {
			s := syncset.New[int]()
			s.SetLockStyle(style)
			locktest.Test(t, s, locktest.Workload{Readers: 6, Writers: 3, Iterations: 200})
		})
	}
}

func TestAll(t *testing.T) {
	s := syncset.New(3, 1, 2)
	if got := slices.Collect(s.All()); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("All() = %v", got)
	}
	for k := range s.All() {
		if k == 2 {
			break
		}
	}
	// Breaking out of the loop must have released the read role.
	if st := s.LockStats(); st.Readers != 0 {
		t.Errorf("%d readers still hold the lock after iteration", st.Readers)
	}
}

// waitOrDeadlock fails the test if wg does not finish in time.
func waitOrDeadlock(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(20 * time.Second):
		t.Fatal("goroutines did not finish: deadlock")
	}
}

func TestCrossSwapDeadlockFreedom(t *testing.T) {
	for _, style := range rwlock.Styles {
		t.Run(style.String(), func(t *testing.T) {
			a := syncset.New(1, 2)
			b := syncset.New(3, 4, 5)
			a.SetLockStyle(style)
			b.SetLockStyle(style)

			const rounds = 500
			var wg sync.WaitGroup
			wg.Add(4)
			go func() {
				defer wg.Done()
				for range rounds {
					a.SwapSet(b)
				}
			}()
			go func() {
				defer wg.Done()
				for range rounds {
					b.SwapSet(a)
				}
			}()
			// Mixed read/write pairs follow the same ordering.
			go func() {
				defer wg.Done()
				for range rounds {
					a.Equal(b)
				}
			}()
			go func() {
				defer wg.Done()
				for range rounds {
					b.Equal(a)
				}
			}()
			waitOrDeadlock(t, &wg)

			// An even number of swaps restores the original contents.
			if got := a.Keys(); !slices.Equal(got, []int{1, 2}) {
				t.Errorf("a = %v, want [1 2]", got)
			}
			if got := b.Keys(); !slices.Equal(got, []int{3, 4, 5}) {
				t.Errorf("b = %v, want [3 4 5]", got)
			}
		})
	}
}

func TestSwapVisibility(t *testing.T) {
	// Readers racing with swaps must see one whole side or the other.
	a := syncset.New(1, 2)
	b := syncset.New(3, 4, 5)

	var stop atomic.Bool
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				if n := a.Len(); n != 2 && n != 3 {
					t.Errorf("Len() = %d mid-swap", n)
					return
				}
				keys := a.Keys()
				if !slices.Equal(keys, []int{1, 2}) && !slices.Equal(keys, []int{3, 4, 5}) {
					t.Errorf("Keys() = %v mid-swap", keys)
					return
				}
			}
		}()
	}
	for range 2000 {
		a.SwapSet(b)
	}
	stop.Store(true)
	waitOrDeadlock(t, &wg)
}

func TestBulkAtomicity(t *testing.T) {
	for _, style := range rwlock.Styles {
		t.Run(style.String(), func(t *testing.T) {
			const n = 100
			batch := make([]int, n)
			for i := range batch {
				batch[i] = i
			}
			s := syncset.New[int]()
			s.SetLockStyle(style)

			// Readers stop after a bounded number of rounds: under ReaderPreferring
			// their overlapping holds may keep the writer out until they are done.
			const readRounds = 500
			var stop atomic.Bool
			var wg sync.WaitGroup
			for range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < readRounds && !stop.Load(); i++ {
						if l := s.Len(); l != 0 && l != n {
							t.Errorf("Len() = %d, want 0 or %d", l, n)
							return
						}
						err := s.View(func(tx *syncset.ReadTxn[int]) error {
							seen := 0
							for _, k := range batch {
								seen += tx.Count(k)
							}
							if seen != 0 && seen != n {
								return errors.New("partial bulk mutation observed")
							}
							return nil
						})
						if err != nil {
							t.Error(err)
							return
						}
					}
				}()
			}
			for i := range 300 {
				if i%2 == 0 {
					s.InsertKeys(batch...)
				} else {
					s.InsertAll(slices.Values(batch))
				}
				s.EraseRange(s.Seek(0), orderedset.End[int]())
			}
			stop.Store(true)
			waitOrDeadlock(t, &wg)
		})
	}
}

func TestDisjointConcurrentInserts(t *testing.T) {
	s := syncset.New[int]()
	s.SetLockStyle(rwlock.WriterPreferring)

	const perWriter = 1000
	var wg sync.WaitGroup
	for w := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				s.Insert(w*perWriter + i)
			}
		}()
	}
	// A reader keeps the writers contending with the read role.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range perWriter {
			s.Contains(perWriter)
		}
	}()
	waitOrDeadlock(t, &wg)

	if got := s.Len(); got != 2*perWriter {
		t.Errorf("Len() = %d, want %d", got, 2*perWriter)
	}
}

func TestSnapshotConsistency(t *testing.T) {
	// A reader that starts after a mutation returned sees exactly its effect.
	s := syncset.New[int]()
	for i := range 200 {
		s.Insert(i)
		done := make(chan bool)
		go func() { done <- s.Contains(i) && s.Len() == i+1 }()
		if !<-done {
			t.Fatalf("reader missed the insert of %d", i)
		}
	}
}
