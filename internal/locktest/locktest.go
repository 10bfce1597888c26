// Package locktest provides utilities for testing readers-writer locks and the
// containers built on them. The package drives a lock from many goroutines and
// verifies that no write hold ever overlaps another hold.
//
// # Overview
//
// The primary function [Test] runs a [Workload] of concurrent readers and
// writers against a [Locker] and reports any mutual exclusion violation that
// its [Recorder] observed.
//
// # Example Usage
//
//	var mu rwlock.RWLock
//	mu.SetStyle(rwlock.Fair)
//	locktest.Test(t, &mu, locktest.Workload{Readers: 8, Writers: 2, Iterations: 100})
//
// The Read and Write hooks of a Workload run inside the hold, which lets tests
// of a container check its contents while the role is held.
package locktest

import (
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
)

// Locker is the readers-writer lock contract exercised by Test.
type Locker interface {
	RLock()
	RUnlock()
	Lock()
	Unlock()
}

// Workload describes the goroutines spawned by Test.
type Workload struct {
	// Readers and Writers are the numbers of goroutines taking each role.
	Readers int
	Writers int

	// Iterations is the number of holds taken by every goroutine.
	Iterations int

	// Read and Write, when set, run while the corresponding role is held. They
	// receive the goroutine's index within its role and the iteration number.
	Read  func(worker, iteration int)
	Write func(worker, iteration int)
}

// Test runs the workload against l and fails t if any write hold overlapped
// another hold. Goroutines are spawned writers first and in reverse order so
// that the late spawns contend with holds that are already in progress.
//
// The returned Recorder may be inspected for further assertions.
func Test(t *testing.T, l Locker, w Workload) *Recorder {
	t.Helper()

	type worker struct {
		write bool
		index int
	}
	var workers []worker
	for i := range w.Readers {
		workers = append(workers, worker{write: false, index: i})
	}
	for i := range w.Writers {
		workers = append(workers, worker{write: true, index: i})
	}

	rec := new(Recorder)
	var wg sync.WaitGroup
	for _, wk := range slices.Backward(workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range w.Iterations {
				if wk.write {
					l.Lock()
					rec.EnterWrite()
					if w.Write != nil {
						w.Write(wk.index, i)
					}
					runtime.Gosched()
					rec.ExitWrite()
					l.Unlock()
				} else {
					l.RLock()
					rec.EnterRead()
					if w.Read != nil {
						w.Read(wk.index, i)
					}
					runtime.Gosched()
					rec.ExitRead()
					l.RUnlock()
				}
			}
		}()
	}
	wg.Wait()

	rec.Check(t)
	t.Logf("%d holds, at most %d concurrent readers", rec.Holds(), rec.MaxReaders())
	return rec
}

// A Recorder tracks the holds that are currently in progress and counts every
// moment a write hold coincides with another hold.
//
// Callers must enter after acquiring the role and exit before releasing it.
// The zero Recorder is ready to use and safe for concurrent use.
type Recorder struct {
	readers    atomic.Int64
	writers    atomic.Int64
	maxReaders atomic.Int64
	holds      atomic.Int64
	violations atomic.Int64
}

// EnterRead records the start of a read hold.
func (r *Recorder) EnterRead() {
	r.holds.Add(1)
	n := r.readers.Add(1)
	if r.writers.Load() != 0 {
		r.violations.Add(1)
	}
	for {
		m := r.maxReaders.Load()
		if n <= m || r.maxReaders.CompareAndSwap(m, n) {
			break
		}
	}
}

// ExitRead records the end of a read hold.
func (r *Recorder) ExitRead() {
	r.readers.Add(-1)
}

// EnterWrite records the start of a write hold.
func (r *Recorder) EnterWrite() {
	r.holds.Add(1)
	if r.writers.Add(1) != 1 || r.readers.Load() != 0 {
		r.violations.Add(1)
	}
}

// ExitWrite records the end of a write hold.
func (r *Recorder) ExitWrite() {
	r.writers.Add(-1)
}

// Violations returns the number of overlaps observed so far.
func (r *Recorder) Violations() int64 { return r.violations.Load() }

// Holds returns the number of holds recorded so far.
func (r *Recorder) Holds() int64 { return r.holds.Load() }

// MaxReaders returns the largest number of simultaneous read holds observed.
func (r *Recorder) MaxReaders() int64 { return r.maxReaders.Load() }

// Check fails t if any overlap was observed or a hold is still in progress.
func (r *Recorder) Check(t *testing.T) {
	t.Helper()
	if v := r.Violations(); v != 0 {
		t.Errorf("observed %d overlapping holds", v)
	}
	if n := r.readers.Load(); n != 0 {
		t.Errorf("%d read holds were never exited", n)
	}
	if n := r.writers.Load(); n != 0 {
		t.Errorf("%d write holds were never exited", n)
	}
}
