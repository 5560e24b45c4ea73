// pkg/sampler/sampler.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sampler implements the diffusive nested sampling driver: a
// fixed-size particle ensemble advanced by T worker goroutines in
// barrier-synchronized phases, an adaptively growing level ladder, and
// checkpointing for exact restart.
package sampler

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/mpharr/dnest/pkg/barrier"
	"github.com/mpharr/dnest/pkg/level"
	"github.com/mpharr/dnest/pkg/likelihood"
	"github.com/mpharr/dnest/pkg/log"
	"github.com/mpharr/dnest/pkg/model"
	"github.com/mpharr/dnest/pkg/options"
	"github.com/mpharr/dnest/pkg/rand"
	"github.com/mpharr/dnest/pkg/util"
)

// Particle is the constraint a model type must satisfy to be driven by
// the sampler: the model.Model contract plus the ability to clone
// itself, so the sampler can give each particle an independent copy
// and so a rejected perturbation can be discarded by simply dropping
// the clone it was tried on.
type Particle[M any] interface {
	model.Model
	model.Cloner[M]
}

// Sampler drives the nested sampling MCMC for model type M. M is
// typically a pointer type (e.g. *gaussian.Model) satisfying
// Particle[M]; the sampler is monomorphized per concrete M so the MCMC
// inner loop never goes through an interface vtable for the hot path.
type Sampler[M Particle[M]] struct {
	opts options.Options
	lg   *log.Logger

	numThreads int

	// Particle ensemble, sized NumParticles*numThreads. Thread k owns
	// the slice [k*NumParticles : (k+1)*NumParticles) of every one of
	// these parallel sequences, and touches no other thread's region.
	particles   []M
	logL        []likelihood.Value
	assignments []int

	// Master level ladder and the quantile-accumulation buffer, both
	// written only by thread 0 during phase C and read by all threads
	// only during phase A.
	levels   []level.Level
	allAbove []likelihood.Value

	// Per-thread snapshots and staging. Thread 0 fills the level copies
	// in phase A and reads everything back in phase C; during phase B
	// each entry is touched only by its owning thread.
	copiesOfLevels [][]level.Level
	levelSnapshots [][]level.Level
	above          [][]likelihood.Value
	rngs           []*rand.Rand

	barrier *barrier.Barrier

	difficulty float64
	workRatio  float64

	mcmcStepsSinceLastSave int64
	countSaves             int64
	saveToDisk             bool

	bestEver         likelihood.Value
	bestEverSet      bool
	bestEverParticle M

	replacements int64

	sampleFileStarted     bool
	sampleInfoFileStarted bool

	shouldStop atomic.Bool
	done       []bool
	doneMu     util.LoggingMutex

	newParticle func() M
}

// New constructs a Sampler. newParticle must return a freshly
// constructed, zero-value particle of type M each time it's called;
// the sampler uses it to populate the ensemble, both in Initialise and
// when restoring from a checkpoint.
func New[M Particle[M]](opts options.Options, numThreads int, lg *log.Logger, newParticle func() M) *Sampler[M] {
	if numThreads < 1 {
		panic("sampler: numThreads must be >= 1")
	}
	p := opts.NumParticles * numThreads
	s := &Sampler[M]{
		opts:           opts,
		lg:             lg,
		numThreads:     numThreads,
		particles:      make([]M, p),
		logL:           make([]likelihood.Value, p),
		assignments:    make([]int, p),
		levels:         []level.Level{level.NewLevel(likelihood.NegativeInfinity)},
		copiesOfLevels: make([][]level.Level, numThreads),
		levelSnapshots: make([][]level.Level, numThreads),
		above:          make([][]likelihood.Value, numThreads),
		rngs:           make([]*rand.Rand, numThreads),
		barrier:        barrier.New(numThreads),
		workRatio:      1.0,
		done:           make([]bool, numThreads),
		newParticle:    newParticle,
	}
	for k := 0; k < numThreads; k++ {
		s.rngs[k] = rand.New()
	}
	return s
}

// threadRange returns the disjoint particle index range owned by
// thread k.
func (s *Sampler[M]) threadRange(k int) (lo, hi int) {
	n := s.opts.NumParticles
	return k * n, (k + 1) * n
}

// ladderComplete reports whether the level ladder has stopped growing:
// either it has hit a fixed cap, or auto-detection has declared it
// sufficient (see enoughLevels).
func (s *Sampler[M]) ladderComplete() bool {
	if s.opts.MaxNumLevels > 0 {
		return len(s.levels) >= s.opts.MaxNumLevels
	}
	return s.enoughLevels()
}

// enoughLevels implements the auto-detection termination criterion:
// declared complete once the last n adjacent-threshold log-likelihood
// gaps are both small on average and individually bounded, where n
// grows with the ladder's current size.
func (s *Sampler[M]) enoughLevels() bool {
	n := int(math.Floor(30 * math.Sqrt(0.02*float64(len(s.levels)))))
	if n < 30 || len(s.levels) <= n {
		return false
	}

	var sum, max float64
	for j := len(s.levels) - n; j < len(s.levels); j++ {
		gap := s.levels[j].Threshold.V - s.levels[j-1].Threshold.V
		sum += gap
		if gap > max {
			max = gap
		}
	}
	mean := sum / float64(n)
	return mean < 0.75 && max < 1.0
}

func (s *Sampler[M]) workRatioMax() float64 {
	return s.opts.WorkRatioMax()
}

func (s *Sampler[M]) String() string {
	return fmt.Sprintf("sampler(levels=%d, particles=%d, saves=%d)", len(s.levels), len(s.particles), s.countSaves)
}
