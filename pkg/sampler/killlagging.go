// pkg/sampler/killlagging.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"math"

	"github.com/mpharr/dnest/pkg/level"
	dnestmath "github.com/mpharr/dnest/pkg/math"
	"github.com/mpharr/dnest/pkg/rand"
)

// killLaggingParticles probabilistically replaces particles whose
// log_push is far below the current maximum with a resampled copy of a
// "good" donor, recovering exploration after a new level is created
// but before the ladder is complete. It's a no-op if every particle
// happens to be marked bad, since then there would be no donor to
// resample from.
func (s *Sampler[M]) killLaggingParticles() {
	n := len(s.particles)
	logPush := make([]float64, n)
	bad := make([]bool, n)

	maxLogPush := math.Inf(-1)
	for i := range s.particles {
		lp := level.LogPush(s.assignments[i], len(s.levels), s.workRatio, s.opts.Lambda)
		logPush[i] = lp
		if lp > maxLogPush {
			maxLogPush = lp
		}
	}

	rng := s.rngs[0]
	allBad := true
	for i := range s.particles {
		p := math.Pow(1-dnestmath.Sigmoid(logPush[i]+4), 3)
		bad[i] = rng.Float64() < p
		if !bad[i] {
			allBad = false
		}
	}
	if allBad {
		return
	}

	for i := range s.particles {
		if !bad[i] {
			continue
		}
		donor := s.sampleGoodDonor(rng, bad, logPush, maxLogPush)
		s.particles[i] = s.particles[donor].Clone()
		s.logL[i] = s.logL[donor]
		s.assignments[i] = s.assignments[donor]
		s.replacements++
	}
	s.lg.Debugf("kill_lagging_particles: replaced %d particles (total %d)",
		countTrue(bad), s.replacements)
}

// sampleGoodDonor repeatedly picks a uniformly random non-bad particle
// until one is accepted with probability exp(log_push(donor) -
// maxLogPush), i.e. rejection sampling weighted toward particles near
// the current maximum push.
func (s *Sampler[M]) sampleGoodDonor(rng *rand.Rand, bad []bool, logPush []float64, maxLogPush float64) int {
	n := len(bad)
	for {
		j := rng.Intn(n)
		if bad[j] {
			continue
		}
		if rng.Float64() <= math.Exp(logPush[j]-maxLogPush) {
			return j
		}
	}
}

func countTrue(bs []bool) int {
	c := 0
	for _, b := range bs {
		if b {
			c++
		}
	}
	return c
}
