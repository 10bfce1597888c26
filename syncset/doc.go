// Package syncset provides an ordered set of unique keys that is safe for
// concurrent use by multiple goroutines.
//
// A Set composes a private orderedset.Set with a private rwlock.RWLock. Every
// method acquires the lock in the role it needs: lookups take the shared read
// role and may run in parallel, while mutations take the exclusive write role
// and are serialized with respect to everything else. The raw container is
// never handed out, so no caller can reach it without holding the lock.
//
// # Atomicity
//
// Each method call is atomic. In particular, bulk mutations such as InsertAll,
// EraseRange, Reset and Assign run under a single write hold: a concurrent
// reader observes either none or all of their effect.
//
// A sequence of calls is not atomic, because the lock is released between
// them. To read and then conditionally modify the set as one unit, use the
// scoped accessors:
//
//	err := set.Update(func(tx *syncset.WriteTxn[int]) error {
//		if tx.Contains(42) {
//			tx.Erase(42)
//		}
//		return nil
//	})
//
// View and Update release the lock on every exit path, including a panic in
// the callback. Read and Write return explicit handles for callers that cannot
// use a callback; every handle must be released exactly once, and using it
// after Release panics with ErrTxnReleased.
//
// # Results
//
// Lookups return copies of the stored keys, and positions are
// orderedset.Position values that hold a key rather than a reference into the
// set. No result can therefore be used to reach the shared structure after the
// lock has been released.
//
// # Operations on Two Sets
//
// SwapSet, AssignSet, MoveFrom and Equal involve two sets and hold both locks
// at once. Every Set carries a process-unique identity, and the two locks are
// always acquired in ascending identity order, whatever the order of the
// arguments. Two goroutines calling a.SwapSet(b) and b.SwapSet(a) therefore
// cannot deadlock. Operations on a set and itself take a single lock, or none.
//
// # Lock Policy
//
// The set's lock prefers writers by default. SetLockStyle switches it to
// reader-preferring or fair (FIFO) admission at any time; see package rwlock.
// RLock, RUnlock, Lock and Unlock expose the lock itself to callers that need
// to hold it across work outside the set. The lock is not reentrant: while it
// is held, the holder must not call the set's own methods, which would acquire
// it again. Use View and Update to combine set operations instead.
package syncset
