// pkg/sampler/output.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"bufio"
	"fmt"
	"os"
)

// save writes everything one save boundary produces: the overwritten
// levels file, one appended sample (and its sample-info line), a
// checkpoint, and, if the best-ever likelihood has improved, an
// appended record to the best-particle and best-likelihood files.
// Every file is opened, written, and closed within this call, so its
// descriptor is never held across iterations.
func (s *Sampler[M]) save() {
	s.writeLevelsFile()

	idx := s.rngs[0].Intn(len(s.particles))
	s.writeSample(idx)

	improved := !s.bestEverSet || s.logL[idx].Compare(s.bestEver) > 0
	for i := range s.logL {
		if !s.bestEverSet || s.logL[i].Compare(s.bestEver) > 0 {
			s.bestEver = s.logL[i]
			s.bestEverSet = true
			s.bestEverParticle = s.particles[i].Clone()
			improved = true
		}
	}
	if improved {
		s.writeBestEver()
	}

	s.writeCheckpoint()
	s.lg.Infof("save %d: %d levels, best logL=%g", s.countSaves, len(s.levels), s.bestEver.V)
}

func (s *Sampler[M]) writeLevelsFile() {
	f, err := os.Create(s.opts.LevelsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dnest: levels file: %v\n", err)
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# log_X log_likelihood tiebreaker accepts tries exceeds visits")
	for _, lv := range s.levels {
		fmt.Fprintf(w, "%g %g %g %d %d %d %d\n",
			lv.LogX, lv.Threshold.V, lv.Threshold.T, lv.Accepts, lv.Tries, lv.Exceeds, lv.Visits)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "dnest: levels file: %v\n", err)
	}
}

func (s *Sampler[M]) writeSample(idx int) {
	sf, err := os.OpenFile(s.opts.SampleFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dnest: sample file: %v\n", err)
		return
	}
	defer sf.Close()
	w := bufio.NewWriter(sf)
	if !s.sampleFileStarted {
		fmt.Fprintf(w, "# %s\n", s.particles[idx].Description())
		s.sampleFileStarted = true
	}
	s.particles[idx].Print(w)
	fmt.Fprintln(w)
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "dnest: sample file: %v\n", err)
	}

	inf, err := os.OpenFile(s.opts.SampleInfoFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dnest: sample info file: %v\n", err)
		return
	}
	defer inf.Close()
	wi := bufio.NewWriter(inf)
	if !s.sampleInfoFileStarted {
		fmt.Fprintln(wi, "# level_assignment log_likelihood tiebreaker particle_index")
		s.sampleInfoFileStarted = true
	}
	fmt.Fprintf(wi, "%d %g %g %d\n", s.assignments[idx], s.logL[idx].V, s.logL[idx].T, idx)
	if err := wi.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "dnest: sample info file: %v\n", err)
	}
}

func (s *Sampler[M]) writeBestEver() {
	bf, err := os.OpenFile(s.opts.BestParticleFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dnest: best particle file: %v\n", err)
	} else {
		defer bf.Close()
		w := bufio.NewWriter(bf)
		s.bestEverParticle.Print(w)
		fmt.Fprintln(w)
		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "dnest: best particle file: %v\n", err)
		}
	}

	lf, err := os.OpenFile(s.opts.BestLikelihoodFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dnest: best likelihood file: %v\n", err)
		return
	}
	defer lf.Close()
	w := bufio.NewWriter(lf)
	fmt.Fprintf(w, "%g %g\n", s.bestEver.V, s.bestEver.T)
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "dnest: best likelihood file: %v\n", err)
	}
}
