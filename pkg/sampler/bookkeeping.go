// pkg/sampler/bookkeeping.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"math"
	"sort"

	"github.com/mpharr/dnest/pkg/level"
	"github.com/mpharr/dnest/pkg/likelihood"
	dnestmath "github.com/mpharr/dnest/pkg/math"
)

// bookkeep runs thread 0's phase-C work for one iteration: merging
// counter diffs from the per-thread snapshots, draining staged
// above-threshold observations, possibly creating a new level,
// recomputing log-masses, adapting the work ratio, and saving output
// when due.
func (s *Sampler[M]) bookkeep(snapshots [][]level.Level, ctxs []*threadContext) {
	s.diffMerge(snapshots, ctxs)
	s.drainAbove(ctxs)

	wasComplete := s.ladderComplete()
	if !wasComplete && len(s.allAbove) >= s.opts.NewLevelInterval {
		s.createLevel()
		if s.ladderComplete() {
			level.RenormaliseVisits(s.levels, float64(s.opts.NewLevelInterval)*math.Sqrt(s.opts.Lambda))
			s.allAbove = s.allAbove[:0]
		} else {
			s.killLaggingParticles()
		}
	}

	level.RecalculateLogX(s.levels, s.opts.Compression, float64(s.opts.NewLevelInterval)*math.Sqrt(s.opts.Lambda))

	if !s.ladderComplete() {
		s.adaptWorkRatio()
	}

	s.mcmcStepsSinceLastSave += int64(s.numThreads) * int64(s.opts.ThreadSteps)
	if s.mcmcStepsSinceLastSave >= int64(s.opts.SaveInterval) {
		s.mcmcStepsSinceLastSave = 0
		s.countSaves++
		s.save()
	}
}

// diffMerge adds (post-phase-B copy - phase-A snapshot) for every
// counter on every level, summed across thread copies, into the
// master ladder. The phase-A snapshot is what makes this correct even
// though each thread's copy was mutated concurrently and independently
// during phase B.
func (s *Sampler[M]) diffMerge(snapshots [][]level.Level, ctxs []*threadContext) {
	for k := 0; k < s.numThreads; k++ {
		snap := snapshots[k]
		work := ctxs[k].levels
		for j := range snap {
			s.levels[j].Accepts += work[j].Accepts - snap[j].Accepts
			s.levels[j].Tries += work[j].Tries - snap[j].Tries
			s.levels[j].Visits += work[j].Visits - snap[j].Visits
			s.levels[j].Exceeds += work[j].Exceeds - snap[j].Exceeds
		}
	}
}

func (s *Sampler[M]) drainAbove(ctxs []*threadContext) {
	for k := 0; k < s.numThreads; k++ {
		s.allAbove = append(s.allAbove, ctxs[k].above...)
		ctxs[k].above = ctxs[k].above[:0]
	}
}

// createLevel places a new level at a quantile of the accumulated
// above-threshold observations, then discards everything at or below
// that quantile index (the spec's "erase-below-plus-equal" rule);
// observations strictly above it remain pending for the next level.
func (s *Sampler[M]) createLevel() {
	sort.Slice(s.allAbove, func(i, j int) bool { return s.allAbove[i].Less(s.allAbove[j]) })

	k := int(math.Floor((1 - 1/s.opts.Compression) * float64(len(s.allAbove))))
	if k >= len(s.allAbove) {
		k = len(s.allAbove) - 1
	}
	threshold := s.allAbove[k]
	s.levels = append(s.levels, level.NewLevel(threshold))
	s.allAbove = append([]likelihood.Value(nil), s.allAbove[k+1:]...)

	s.lg.Debugf("created level %d at threshold %s", len(s.levels)-1, threshold)
}

// adaptWorkRatio recomputes difficulty from the current log_X gaps and
// maps it onto work_ratio: untroubled ladders (difficulty below 0.02)
// run with work_ratio=1; beyond 0.1 the ladder is backtracking hard
// enough to warrant the maximum work_ratio; in between it ramps
// linearly.
func (s *Sampler[M]) adaptWorkRatio() {
	n := len(s.levels)
	if n < 2 {
		s.difficulty = 0
		s.workRatio = 1
		return
	}

	logC := math.Log(s.opts.Compression)
	var num, den float64
	for i := 1; i < n; i++ {
		gap := (s.levels[i-1].LogX - s.levels[i].LogX) - logC
		w := math.Exp(float64(i-n) / 3.0)
		num += w * dnestmath.Abs(gap) / logC
		den += w
	}
	difficulty := 0.0
	if den > 0 {
		difficulty = num / den
	}
	s.difficulty = difficulty

	max := s.workRatioMax()
	switch {
	case difficulty < 0.02:
		s.workRatio = 1
	case difficulty >= 0.1:
		s.workRatio = max
	default:
		frac := (difficulty - 0.02) / (0.1 - 0.02)
		s.workRatio = 1 + frac*(max-1)
	}
}
