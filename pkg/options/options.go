// pkg/options/options.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package options holds the sampler's run configuration: the knobs that
// control the level ladder's growth rate, the particle ensemble's
// shape, and where output is written.
package options

import (
	"fmt"
	"math"

	"github.com/mpharr/dnest/pkg/util"
)

// Options collects every setting the sampler reads at construction
// time. The CLI (an external collaborator) is responsible for
// populating one of these from flags or a config file and handing it
// to the sampler.
type Options struct {
	NumParticles     int     // particles per thread
	NewLevelInterval int     // all_above size that triggers a new level
	SaveInterval     int     // MCMC steps between saves
	ThreadSteps      int     // MCMC steps per thread per iteration
	MaxNumLevels     int     // cap; 0 = auto-detect
	Lambda           float64 // backtracking scale in log_push
	Beta             float64 // uniform-exploration weight once ladder is complete
	Compression      float64 // target mass ratio between adjacent levels
	MaxNumSaves      int     // termination after this many saves; 0 = unbounded

	SampleFile          string
	SampleInfoFile      string
	LevelsFile          string
	BestParticleFile    string
	BestLikelihoodFile  string
	CheckpointFile      string
	WriteExactRepresentation bool // checkpoint floats as lossless hex instead of scientific with 16 digits after the point; other output files always use %g
}

// DefaultOptions returns the options used by the reference DNest4
// artifact set: T=1-friendly defaults suitable for a single-thread
// smoke run against an unfamiliar model.
func DefaultOptions() Options {
	return Options{
		NumParticles:     1,
		NewLevelInterval: 10000,
		SaveInterval:     10000,
		ThreadSteps:      100,
		MaxNumLevels:     0,
		Lambda:           10.0,
		Beta:             100.0,
		Compression:      math.E,
		MaxNumSaves:      0,

		SampleFile:               "sample.txt",
		SampleInfoFile:           "sample_info.txt",
		LevelsFile:               "levels.txt",
		BestParticleFile:         "best_particle.txt",
		BestLikelihoodFile:       "best_likelihood.txt",
		CheckpointFile:           "checkpoint.txt",
		WriteExactRepresentation: false,
	}
}

// WorkRatioMax returns the adaptive ceiling on work_ratio for this
// option set, 20/sqrt(lambda).
func (o Options) WorkRatioMax() float64 {
	return 20.0 / math.Sqrt(o.Lambda)
}

// Validate range-checks the numeric options and checks the one fatal
// configuration error the spec defines: a fixed-size ladder (MaxNumLevels != 0) is the only context in which
// Compression may differ from e; auto-detection (MaxNumLevels == 0)
// requires Compression == e to be internally consistent.
func (o Options) Validate(e *util.ErrorLogger) {
	e.Push("options")
	defer e.Pop()

	if o.NumParticles < 1 {
		e.ErrorString("num_particles must be >= 1, got %d", o.NumParticles)
	}
	if o.NewLevelInterval < 1 {
		e.ErrorString("new_level_interval must be >= 1, got %d", o.NewLevelInterval)
	}
	if o.SaveInterval < 1 {
		e.ErrorString("save_interval must be >= 1, got %d", o.SaveInterval)
	}
	if o.ThreadSteps < 1 {
		e.ErrorString("thread_steps must be >= 1, got %d", o.ThreadSteps)
	}
	if o.MaxNumLevels < 0 {
		e.ErrorString("max_num_levels must be >= 0, got %d", o.MaxNumLevels)
	}
	if o.Lambda <= 0 {
		e.ErrorString("lambda must be > 0, got %g", o.Lambda)
	}
	if o.MaxNumSaves < 0 {
		e.ErrorString("max_num_saves must be >= 0, got %d", o.MaxNumSaves)
	}
	if o.MaxNumLevels == 0 && o.Compression != math.E {
		e.ErrorString("max_num_levels=0 (auto-detect) requires compression == e, got %g", o.Compression)
	}
}

// IncreaseMaxNumSaves raises MaxNumSaves by delta, which must be
// strictly positive. It returns an error, leaving MaxNumSaves
// unchanged, if delta is non-positive or the sum would overflow an
// int.
func (o *Options) IncreaseMaxNumSaves(delta int) error {
	if delta <= 0 {
		return fmt.Errorf("options: increase must be positive, got %d", delta)
	}
	sum := o.MaxNumSaves + delta
	if sum < o.MaxNumSaves {
		return fmt.Errorf("options: max_num_saves increase by %d overflows current value %d", delta, o.MaxNumSaves)
	}
	o.MaxNumSaves = sum
	return nil
}
