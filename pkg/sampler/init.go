// pkg/sampler/init.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"fmt"
	"os"

	"github.com/mpharr/dnest/pkg/likelihood"
)

// Initialise prepares the sampler to run: either it draws every
// particle from the model's prior with a per-thread seed stream
// derived from firstSeed, or, if continueFromCheckpoint is true, it
// restores the full sampler state (including RNG streams) from
// opts.CheckpointFile. A checkpoint read failure at this stage is
// fatal: the caller should exit with a non-zero status.
func (s *Sampler[M]) Initialise(firstSeed uint64, continueFromCheckpoint bool) error {
	if continueFromCheckpoint {
		if err := s.readCheckpoint(); err != nil {
			fmt.Fprintf(os.Stderr, "dnest: failed to read checkpoint %q: %v\n", s.opts.CheckpointFile, err)
			return err
		}
		s.lg.Infof("restored sampler from checkpoint %q", s.opts.CheckpointFile)
		return nil
	}

	for k := 0; k < s.numThreads; k++ {
		s.rngs[k].SetSeed(firstSeed + uint64(k))
		s.above[k] = nil
		s.copiesOfLevels[k] = nil
	}

	for i := range s.particles {
		k := i / s.opts.NumParticles
		p := s.newParticle()
		p.FromPrior(s.rngs[k])
		s.particles[i] = p
		s.logL[i] = likelihood.Value{V: p.LogLikelihood(), T: s.rngs[k].Float64()}
		s.assignments[i] = 0
	}

	s.updateBestEver()
	s.lg.Infof("initialised %d particles across %d threads", len(s.particles), s.numThreads)
	return nil
}

func (s *Sampler[M]) updateBestEver() {
	for i, l := range s.logL {
		if !s.bestEverSet || l.Compare(s.bestEver) > 0 {
			s.bestEver = l
			s.bestEverSet = true
			s.bestEverParticle = s.particles[i].Clone()
		}
	}
}
