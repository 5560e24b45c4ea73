// pkg/barrier/barrier.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package barrier provides a reusable N-party rendezvous point for the
// sampler's worker goroutines.
package barrier

import "sync"

// Barrier is a generation-counted barrier for exactly n parties. Unlike
// sync.WaitGroup it can be waited on repeatedly: once all n parties have
// called Wait, it resets automatically and is ready for the next round.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	n          int
	count      int
	generation uint64
}

// New returns a Barrier for n parties. n must be >= 1.
func New(n int) *Barrier {
	if n < 1 {
		panic("barrier: n must be >= 1")
	}
	b := &Barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all n parties have called Wait for the current
// generation, then returns. The last caller to arrive wakes the others
// and advances the generation so the barrier can be reused immediately.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.count++
	if b.count == b.n {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}
