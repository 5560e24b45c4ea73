// pkg/sampler/mcmc.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"math"

	"github.com/mpharr/dnest/pkg/level"
	"github.com/mpharr/dnest/pkg/likelihood"
	dnestmath "github.com/mpharr/dnest/pkg/math"
	"github.com/mpharr/dnest/pkg/rand"
)

// threadContext bundles everything one worker needs to run thread_steps
// MCMC moves against its own disjoint slice of the ensemble: its
// private snapshot of the level ladder (taken at phase A, mutated only
// locally, diff-merged back at phase C), whether the ladder was
// complete as of that snapshot, its own RNG, and its own above[]
// staging buffer.
type threadContext struct {
	levels    []level.Level
	complete  bool
	rng       *rand.Rand
	above     []likelihood.Value
	workRatio float64
	lambda    float64
}

// logPush is the soft bias toward the top of a still-growing ladder.
// It is zero once the ladder is complete.
func (c *threadContext) logPush(j int) float64 {
	if c.complete {
		return 0
	}
	return level.LogPush(j, len(c.levels), c.workRatio, c.lambda)
}

// updateParticle runs one MCMC move for particle index i, which must
// lie in the calling thread's owned range. With equal probability it
// perturbs the particle then the level assignment, or the reverse,
// removing any bias from couplings between the two moves.
func (s *Sampler[M]) updateParticle(ctx *threadContext, i int) {
	if ctx.rng.Intn(2) == 0 {
		s.perturbParticle(ctx, i)
		s.perturbLevelAssignment(ctx, i)
	} else {
		s.perturbLevelAssignment(ctx, i)
		s.perturbParticle(ctx, i)
	}
}

func (s *Sampler[M]) perturbParticle(ctx *threadContext, i int) {
	assigned := s.assignments[i]
	threshold := ctx.levels[assigned].Threshold

	clone := s.particles[i].Clone()
	logH := dnestmath.Min(clone.Perturb(ctx.rng), 0)

	proposal := likelihood.Value{V: clone.ProposalLogLikelihood(), T: s.logL[i].T}
	proposal = proposal.Perturb(ctx.rng)

	ctx.levels[assigned].IncrementTries()

	accept := ctx.rng.Float64() <= math.Exp(logH) && proposal.Compare(threshold) > 0
	if accept {
		clone.AcceptPerturbation()
		s.particles[i] = clone
		s.logL[i] = proposal
		ctx.levels[assigned].IncrementAccepts()
	}

	s.accountTransit(ctx, i)
	s.recordAbove(ctx, i)
}

// accountTransit walks upward from the particle's assigned level,
// recording a visit at each level it has passed through and an exceed
// where its current likelihood clears the next threshold, stopping at
// the first level it doesn't clear or at the top of the ladder.
func (s *Sampler[M]) accountTransit(ctx *threadContext, i int) {
	top := len(ctx.levels) - 1
	for j := s.assignments[i]; j < top; j++ {
		ctx.levels[j].IncrementVisits()
		if ctx.levels[j+1].Threshold.Compare(s.logL[i]) < 0 {
			ctx.levels[j].IncrementExceeds()
			continue
		}
		break
	}
}

// recordAbove stages an observation of the particle's current
// likelihood for potential new-level placement, if it's above the
// current top threshold and the ladder is still growing.
func (s *Sampler[M]) recordAbove(ctx *threadContext, i int) {
	if ctx.complete {
		return
	}
	top := ctx.levels[len(ctx.levels)-1]
	if s.logL[i].Compare(top.Threshold) > 0 {
		ctx.above = append(ctx.above, s.logL[i])
	}
}

func (s *Sampler[M]) perturbLevelAssignment(ctx *threadContext, i int) {
	assigned := s.assignments[i]
	numLevels := len(ctx.levels)

	delta := int(math.Floor(math.Pow(10, 2*ctx.rng.Float64()) * ctx.rng.NormFloat64()))
	if delta == 0 {
		if ctx.rng.Intn(2) == 0 {
			delta = 1
		} else {
			delta = -1
		}
	}
	p := dnestmath.Mod(assigned+delta, numLevels)

	logA := ctx.levels[assigned].LogX - ctx.levels[p].LogX + ctx.logPush(p) - ctx.logPush(assigned)
	if ctx.complete {
		logA += s.opts.Beta * math.Log((float64(ctx.levels[assigned].Tries)+1)/(float64(ctx.levels[p].Tries)+1))
	}
	logA = dnestmath.Min(logA, 0)

	if ctx.rng.Float64() <= math.Exp(logA) && ctx.levels[p].Threshold.Compare(s.logL[i]) < 0 {
		s.assignments[i] = p
	}
}
