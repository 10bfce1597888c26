package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/notorious-go/rwset/orderedset"
	"github.com/notorious-go/rwset/rwlock"
	"github.com/notorious-go/rwset/syncset"
)

// sampleEvery is how often the lock queues are sampled during a run.
const sampleEvery = 100 * time.Microsecond

// Result summarizes one benchmark run under one lock style.
type Result struct {
	Style   rwlock.Style
	Elapsed time.Duration
	Reads   int64
	Writes  int64

	// Largest queue lengths seen by the sampler.
	MaxWaitingReaders int
	MaxWaitingWriters int

	// Len is the size of the set at the end of the run.
	Len int
}

// Throughput returns the completed operations per second.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Reads+r.Writes) / r.Elapsed.Seconds()
}

type opKind uint8

const (
	opInsert opKind = iota
	opEraseRange
	opErase
)

// op is one write performed by a writer, kept for the replay.
type op struct {
	kind opKind
	keys []int // opInsert: the keys; opEraseRange: lo, hi; opErase: the key.
}

func (o op) apply(s *orderedset.Set[int]) {
	switch o.kind {
	case opInsert:
		s.InsertKeys(o.keys...)
	case opEraseRange:
		s.EraseRange(orderedset.At(o.keys[0]), orderedset.At(o.keys[1]))
	case opErase:
		s.Erase(o.keys[0])
	}
}

// stripe returns the half-open key range written only by writer w.
func stripe(cfg *Config, w int) (lo, hi int) {
	span := cfg.Keys / cfg.Writers
	lo = w * span
	hi = lo + span
	if w == cfg.Writers-1 {
		hi = cfg.Keys
	}
	return lo, hi
}

// prefill returns the initial contents of the set: every even key.
func prefill(cfg *Config) *orderedset.Set[int] {
	s := orderedset.New[int]()
	for k := 0; k < cfg.Keys; k += 2 {
		s.Insert(k)
	}
	return s
}

// Bench runs the workload described by cfg against a set using style, and
// verifies the final contents against a sequential replay of the writes.
func Bench(ctx context.Context, cfg *Config, style rwlock.Style, logger *slog.Logger) (Result, error) {
	res := Result{Style: style}
	set := syncset.From(prefill(cfg))
	if !set.SetLockStyle(style) {
		return res, fmt.Errorf("invalid lock style %v", style)
	}
	logger.Debug("starting run", "style", style, "readers", cfg.Readers, "writers", cfg.Writers, "ops", cfg.Ops)

	logs := make([][]op, cfg.Writers)
	var reads, writes atomic.Int64

	done := make(chan struct{})
	sampled := make(chan rwlock.Stats)
	go sample(set, done, sampled)

	// With a limit set, g.Go blocks until a running worker returns.
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Parallel > 0 {
		g.SetLimit(cfg.Parallel)
	}
	start := time.Now()
	for w := range cfg.Writers {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(w)))
			lo, hi := stripe(cfg, w)
			for i := range cfg.Ops {
				if i%64 == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				o := writeOnce(set, rng, cfg.Batch, lo, hi)
				logs[w] = append(logs[w], o)
				writes.Add(1)
			}
			return nil
		})
	}
	for r := range cfg.Readers {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(cfg.Writers+r)))
			for i := range cfg.Ops {
				if i%64 == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				k := rng.IntN(cfg.Keys)
				if i%2 == 0 {
					set.Contains(k)
				} else {
					set.LowerBound(k)
				}
				reads.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	res.Elapsed = time.Since(start)
	close(done)
	peak := <-sampled
	if err != nil {
		return res, err
	}

	res.Reads = reads.Load()
	res.Writes = writes.Load()
	res.MaxWaitingReaders = peak.WaitingReaders
	res.MaxWaitingWriters = peak.WaitingWriters
	res.Len = set.Len()

	if err := verify(cfg, set, logs); err != nil {
		return res, fmt.Errorf("style %v: %w", style, err)
	}
	logger.Debug("finished run", "style", style, "elapsed", res.Elapsed, "len", res.Len)
	return res, nil
}

// writeOnce performs one random write confined to the keys [lo, hi).
func writeOnce(set *syncset.Set[int], rng *rand.Rand, batch, lo, hi int) op {
	span := hi - lo
	switch rng.IntN(3) {
	case 0:
		keys := make([]int, batch)
		for i := range keys {
			keys[i] = lo + rng.IntN(span)
		}
		set.InsertKeys(keys...)
		return op{kind: opInsert, keys: keys}
	case 1:
		from := lo + rng.IntN(span)
		to := min(from+batch, hi)
		set.EraseRange(orderedset.At(from), orderedset.At(to))
		return op{kind: opEraseRange, keys: []int{from, to}}
	default:
		// Check and erase under one write hold.
		k := lo + rng.IntN(span)
		_ = set.Update(func(tx *syncset.WriteTxn[int]) error {
			if tx.Contains(k) {
				tx.Erase(k)
			}
			return nil
		})
		return op{kind: opErase, keys: []int{k}}
	}
}

// sample records the longest lock queues seen until done is closed, then sends
// them on out.
func sample(set *syncset.Set[int], done <-chan struct{}, out chan<- rwlock.Stats) {
	var peak rwlock.Stats
	ticker := time.NewTicker(sampleEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			out <- peak
			return
		case <-ticker.C:
			st := set.LockStats()
			peak.WaitingReaders = max(peak.WaitingReaders, st.WaitingReaders)
			peak.WaitingWriters = max(peak.WaitingWriters, st.WaitingWriters)
		}
	}
}

// verify replays the logged writes on a plain set. Writers own disjoint key
// ranges, so their logs commute and the replay must match exactly.
func verify(cfg *Config, set *syncset.Set[int], logs [][]op) error {
	want := prefill(cfg)
	for _, log := range logs {
		for _, o := range log {
			o.apply(want)
		}
	}
	got := set.Snapshot()
	if !got.Equal(want) {
		return fmt.Errorf("final set has %d keys, replay has %d; first keys %v vs %v",
			got.Len(), want.Len(), head(got.Keys()), head(want.Keys()))
	}
	return nil
}

func head(keys []int) []int {
	return slices.Clip(keys[:min(len(keys), 8)])
}
