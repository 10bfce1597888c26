// Package rwlock provides a readers-writer lock whose priority policy can be
// changed at run time without touching call sites.
//
// An RWLock may be held by any number of readers or by exactly one writer,
// never both. Where sync.RWMutex bakes in a single policy, RWLock lets the
// caller choose how waiting readers and writers are prioritized when both are
// queued:
//
//   - WriterPreferring: a queued writer blocks newly arriving readers, and on
//     release a waiting writer is served before waiting readers. This is the
//     zero value and the behaviour of sync.RWMutex.
//   - ReaderPreferring: readers are admitted whenever no writer holds the lock.
//     Best throughput for read-mostly workloads; writers may starve.
//   - Fair: strict arrival order. Consecutive readers at the head of the line
//     are admitted together, and a writer waits only for those ahead of it.
//
// # Usage
//
// The zero RWLock is unlocked and ready to use:
//
//	var mu rwlock.RWLock
//	mu.SetStyle(rwlock.Fair)
//
//	mu.RLock()
//	defer mu.RUnlock()
//	// ... read shared state ...
//
// Every acquisition must be paired with exactly one release of the same role;
// pair them with defer so that the role is released on every exit path. A
// release without a matching acquisition panics.
//
// # Changing the Style
//
// SetStyle may be called at any time, including while the lock is held or
// contended. Goroutines that are already waiting are re-evaluated under the new
// style immediately; none of them is lost or granted twice.
//
// # Cancellation
//
// RLock and Lock block indefinitely. RLockContext and LockContext give up when
// the context is done, withdrawing the waiter from the queue so that it is never
// granted the role after returning an error.
//
// # Implementation
//
// Waiting goroutines park on a private channel and are admitted by hand-off:
// the releasing goroutine updates the lock state on the waiter's behalf and
// then closes the channel. The waiter therefore owns the role the moment it
// wakes up, and no style can let a late arrival barge past a granted waiter.
package rwlock
