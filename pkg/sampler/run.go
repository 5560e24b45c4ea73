// pkg/sampler/run.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"sync"
	"time"

	"github.com/mpharr/dnest/pkg/level"
	"github.com/mpharr/dnest/pkg/likelihood"
)

// Abort signals every worker to stop at the next phase-A boundary. It
// is safe to call from a signal handler or embedding runtime; no
// signal handling lives in this package itself.
func (s *Sampler[M]) Abort() {
	s.shouldStop.Store(true)
}

// Run launches numThreads worker goroutines sharing the sampler's
// barrier and drives them through barrier-separated phases until
// max_num_saves is reached (0 meaning unbounded) or Abort is called.
// thin controls how often a progress line is logged, once every thin
// saves; thin <= 0 logs every save.
func (s *Sampler[M]) Run(thin int) {
	s.saveToDisk = true
	var stopDecision bool

	var wg sync.WaitGroup
	wg.Add(s.numThreads)
	for k := 0; k < s.numThreads; k++ {
		go func(k int) {
			defer wg.Done()
			s.workerLoop(k, &stopDecision, thin)
		}(k)
	}

	s.coordinatorPoll()
	wg.Wait()
}

// coordinatorPoll blocks until every worker has marked itself done,
// checking once per second; it gives the caller a single point to
// await full shutdown without busy-waiting on the worker goroutines
// directly.
func (s *Sampler[M]) coordinatorPoll() {
	for {
		s.doneMu.Lock(s.lg)
		allDone := true
		for _, d := range s.done {
			if !d {
				allDone = false
				break
			}
		}
		s.doneMu.Unlock(s.lg)
		if allDone {
			return
		}
		time.Sleep(time.Second)
	}
}

// workerLoop is the body run by each of the numThreads worker
// goroutines. stopDecision is written only by thread 0 during phase C
// and only read by every thread immediately after the barrier that
// follows phase C, so the barrier's own synchronization guarantees
// every thread observes the same decision for the same round; no
// thread ever reads should_stop independently mid-round.
func (s *Sampler[M]) workerLoop(k int, stopDecision *bool, thin int) {
	lo, hi := s.threadRange(k)
	ctx := &threadContext{rng: s.rngs[k]}

	for {
		if *stopDecision {
			break
		}

		// Phase A: thread 0 snapshots the master ladder into every
		// thread's private copy; everyone else only reads the master
		// here, never writes it.
		if k == 0 {
			s.phaseASnapshot()
		}
		s.barrier.Wait()

		ctx.levels = s.copiesOfLevels[k]
		ctx.complete = s.ladderComplete()
		ctx.workRatio = s.workRatio
		ctx.lambda = s.opts.Lambda
		ctx.above = s.above[k][:0]

		// Phase B: thread_steps MCMC moves against the disjoint slice
		// this thread owns.
		for step := 0; step < s.opts.ThreadSteps; step++ {
			i := lo + ctx.rng.Intn(hi-lo)
			s.updateParticle(ctx, i)
		}
		s.copiesOfLevels[k] = ctx.levels
		s.above[k] = ctx.above
		s.barrier.Wait()

		// Phase C: thread 0 merges counter diffs, maybe grows the
		// ladder, recomputes log-masses, and maybe saves.
		if k == 0 {
			s.phaseCBookkeep(thin)
			*stopDecision = s.shouldStop.Load() || s.terminationReached()
		}
		s.barrier.Wait()
	}

	s.doneMu.Lock(s.lg)
	s.done[k] = true
	s.doneMu.Unlock(s.lg)
}

// phaseASnapshot copies the master ladder into every thread's working
// copy and frozen baseline. The baseline is what diffMerge compares
// against at phase C; the working copy is what phase B mutates.
func (s *Sampler[M]) phaseASnapshot() {
	for k := 0; k < s.numThreads; k++ {
		s.copiesOfLevels[k] = append(make([]level.Level, 0, len(s.levels)), s.levels...)
		s.levelSnapshots[k] = append(make([]level.Level, 0, len(s.levels)), s.levels...)
		if s.above[k] == nil {
			s.above[k] = make([]likelihood.Value, 0, 64)
		}
	}
}

func (s *Sampler[M]) phaseCBookkeep(thin int) {
	ctxs := make([]*threadContext, s.numThreads)
	for k := 0; k < s.numThreads; k++ {
		ctxs[k] = &threadContext{levels: s.copiesOfLevels[k], above: s.above[k]}
	}
	savesBefore := s.countSaves
	s.bookkeep(s.levelSnapshots, ctxs)
	for k := 0; k < s.numThreads; k++ {
		s.above[k] = ctxs[k].above
	}

	if s.countSaves > savesBefore && (thin <= 0 || s.countSaves%int64(thin) == 0) {
		s.lg.Infof("progress: save %d, %d levels, difficulty=%g work_ratio=%g",
			s.countSaves, len(s.levels), s.difficulty, s.workRatio)
	}
}

// terminationReached reports whether the save-count budget has been
// exhausted. max_num_saves == 0 means unbounded.
func (s *Sampler[M]) terminationReached() bool {
	return s.opts.MaxNumSaves > 0 && s.countSaves >= int64(s.opts.MaxNumSaves)
}
