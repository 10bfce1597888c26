package rwlock

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"
)

// An RWLock is a readers-writer mutual exclusion lock with a configurable
// priority Style. The lock can be held by an arbitrary number of readers or a
// single writer.
//
// The zero RWLock is unlocked and uses the WriterPreferring style.
//
// An RWLock must not be copied after first use. Like sync.RWMutex, a held
// RWLock is not associated with a particular goroutine; one goroutine may
// acquire it and arrange for another to release it.
type RWLock struct {
	// mu guards every field below. It is only ever held for a handful of
	// instructions; blocking happens on the waiters' channels.
	mu      sync.Mutex
	style   Style
	readers int
	writer  bool
	// seq stamps waiters in arrival order across both queues.
	seq    uint64
	readq  *queue.Queue
	writeq *queue.Queue
	_      cpu.CacheLinePad
}

// A waiter is a goroutine parked until it is granted its role.
type waiter struct {
	seq uint64
	// The ready channel is closed after the role has been granted on the waiter's
	// behalf.
	ready chan struct{}
	// Cancelled waiters stay in their queue until they reach its front, where
	// prune discards them.
	cancelled bool
}

// Stats is a point-in-time view of an RWLock's state.
type Stats struct {
	Style          Style
	Readers        int
	Writer         bool
	WaitingReaders int
	WaitingWriters int
}

// init makes the zero RWLock usable. It must be called with mu held.
func (rw *RWLock) init() {
	if rw.readq == nil {
		rw.readq = queue.New()
		rw.writeq = queue.New()
	}
}

// RLock locks rw for reading, blocking until the read role can be granted under
// the current style.
func (rw *RWLock) RLock() {
	_ = rw.acquire(context.Background(), false)
}

// RUnlock undoes a single RLock call. It panics if rw is not locked for reading.
func (rw *RWLock) RUnlock() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.readers == 0 {
		panic(errors.New("rwlock: RUnlock of unlocked RWLock"))
	}
	rw.readers--
	rw.dispatch()
}

// Lock locks rw for writing, blocking until no other reader or writer holds it.
func (rw *RWLock) Lock() {
	_ = rw.acquire(context.Background(), true)
}

// Unlock unlocks rw for writing. It panics if rw is not locked for writing.
func (rw *RWLock) Unlock() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if !rw.writer {
		panic(errors.New("rwlock: Unlock of unlocked RWLock"))
	}
	rw.writer = false
	rw.dispatch()
}

// RLockContext is like RLock but gives up when ctx is done, returning ctx.Err().
// On error the read role is not held. If ctx is done at the same time the role
// is granted, the acquisition succeeds and the caller must call RUnlock.
func (rw *RWLock) RLockContext(ctx context.Context) error {
	return rw.acquire(ctx, false)
}

// LockContext is like Lock but gives up when ctx is done, returning ctx.Err().
// On error the write role is not held. If ctx is done at the same time the role
// is granted, the acquisition succeeds and the caller must call Unlock.
func (rw *RWLock) LockContext(ctx context.Context) error {
	return rw.acquire(ctx, true)
}

// TryRLock tries to lock rw for reading without blocking and reports whether
// it succeeded. It fails whenever RLock would have to wait.
func (rw *RWLock) TryRLock() bool {
	return rw.try(false)
}

// TryLock tries to lock rw for writing without blocking and reports whether it
// succeeded.
func (rw *RWLock) TryLock() bool {
	return rw.try(true)
}

// SetStyle changes the policy used to prioritize waiting readers and writers.
// It reports false, leaving the style unchanged, if s is not a valid Style.
//
// The style may be changed at any time. Goroutines already waiting are
// re-evaluated under the new style, and any that it admits are woken up.
func (rw *RWLock) SetStyle(s Style) bool {
	if !s.Valid() {
		return false
	}
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.init()
	rw.style = s
	rw.dispatch()
	return true
}

// Style returns the current style.
func (rw *RWLock) Style() Style {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.style
}

// Stats returns a snapshot of the lock's state. The waiting counts may include
// goroutines whose context-bound acquisition was abandoned but not yet reaped.
func (rw *RWLock) Stats() Stats {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.init()
	rw.prune()
	return Stats{
		Style:          rw.style,
		Readers:        rw.readers,
		Writer:         rw.writer,
		WaitingReaders: rw.readq.Length(),
		WaitingWriters: rw.writeq.Length(),
	}
}

// RLocker returns a sync.Locker that implements Lock and Unlock by calling
// rw.RLock and rw.RUnlock.
func (rw *RWLock) RLocker() sync.Locker {
	return (*rlocker)(rw)
}

type rlocker RWLock

func (r *rlocker) Lock()   { (*RWLock)(r).RLock() }
func (r *rlocker) Unlock() { (*RWLock)(r).RUnlock() }

func (rw *RWLock) try(write bool) bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.init()
	if !rw.admit(write) {
		return false
	}
	rw.take(write)
	return true
}

func (rw *RWLock) acquire(ctx context.Context, write bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rw.mu.Lock()
	rw.init()
	if rw.admit(write) {
		rw.take(write)
		rw.mu.Unlock()
		return nil
	}
	w := rw.enqueue(write)
	rw.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()
	select {
	case <-w.ready:
		// The role was handed over while we were giving up; it is ours now.
		return nil
	default:
	}
	w.cancelled = true
	// The withdrawn waiter may have been holding back the ones behind it.
	rw.dispatch()
	return ctx.Err()
}

// admit reports whether a new arrival can take the role immediately.
func (rw *RWLock) admit(write bool) bool {
	rw.prune()
	if rw.writer {
		return false
	}
	if write {
		return rw.readers == 0 && rw.readq.Length() == 0 && rw.writeq.Length() == 0
	}
	switch rw.style {
	case ReaderPreferring:
		return true
	case Fair:
		return rw.readq.Length() == 0 && rw.writeq.Length() == 0
	default:
		return rw.writeq.Length() == 0
	}
}

func (rw *RWLock) take(write bool) {
	if write {
		rw.writer = true
	} else {
		rw.readers++
	}
}

func (rw *RWLock) enqueue(write bool) *waiter {
	rw.seq++
	w := &waiter{seq: rw.seq, ready: make(chan struct{})}
	if write {
		rw.writeq.Add(w)
	} else {
		rw.readq.Add(w)
	}
	return w
}

// dispatch hands the lock to as many waiters as the style allows. It must be
// called with mu held after every change to the state or the style.
func (rw *RWLock) dispatch() {
	for !rw.writer {
		rw.prune()
		r, w := front(rw.readq), front(rw.writeq)
		if r == nil && w == nil {
			return
		}
		if rw.writerNext(r, w) {
			if rw.readers > 0 {
				return
			}
			rw.writeq.Remove()
			rw.writer = true
			close(w.ready)
			return
		}
		rw.admitReaders(w)
	}
}

// writerNext reports whether the writer w goes before the reader r. Both are
// the live fronts of their queues, and either may be nil.
func (rw *RWLock) writerNext(r, w *waiter) bool {
	switch {
	case w == nil:
		return false
	case r == nil:
		return true
	}
	switch rw.style {
	case ReaderPreferring:
		return false
	case Fair:
		return w.seq < r.seq
	default:
		return true
	}
}

// admitReaders grants the read role to waiting readers. Under Fair only those
// that arrived before the waiting writer w are admitted.
func (rw *RWLock) admitReaders(w *waiter) {
	for rw.readq.Length() > 0 {
		r := rw.readq.Peek().(*waiter)
		if rw.style == Fair && w != nil && r.seq > w.seq {
			return
		}
		rw.readq.Remove()
		if r.cancelled {
			continue
		}
		rw.readers++
		close(r.ready)
	}
}

// prune discards cancelled waiters from the fronts of both queues.
func (rw *RWLock) prune() {
	for _, q := range [...]*queue.Queue{rw.readq, rw.writeq} {
		for q.Length() > 0 && q.Peek().(*waiter).cancelled {
			q.Remove()
		}
	}
}

func front(q *queue.Queue) *waiter {
	if q.Length() == 0 {
		return nil
	}
	return q.Peek().(*waiter)
}
