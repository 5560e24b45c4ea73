// pkg/sampler/sampler_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpharr/dnest/pkg/examples/gaussian"
	"github.com/mpharr/dnest/pkg/level"
	"github.com/mpharr/dnest/pkg/likelihood"
	"github.com/mpharr/dnest/pkg/log"
	"github.com/mpharr/dnest/pkg/options"
)

func testOptions(t *testing.T, dir string) options.Options {
	t.Helper()
	o := options.DefaultOptions()
	o.NumParticles = 5
	o.NewLevelInterval = 50
	o.SaveInterval = 50
	o.ThreadSteps = 20
	o.MaxNumLevels = 0
	o.Lambda = 10
	o.Beta = 100
	o.MaxNumSaves = 3

	o.SampleFile = filepath.Join(dir, "sample.txt")
	o.SampleInfoFile = filepath.Join(dir, "sample_info.txt")
	o.LevelsFile = filepath.Join(dir, "levels.txt")
	o.BestParticleFile = filepath.Join(dir, "best_particle.txt")
	o.BestLikelihoodFile = filepath.Join(dir, "best_likelihood.txt")
	o.CheckpointFile = filepath.Join(dir, "checkpoint.txt")
	return o
}

func newGaussianSampler(t *testing.T, numThreads int, dir string) *Sampler[*gaussian.Model] {
	t.Helper()
	opts := testOptions(t, dir)
	lg := log.New("error", dir)
	return New[*gaussian.Model](opts, numThreads, lg, gaussian.New)
}

func TestInitialiseFillsEnsemble(t *testing.T) {
	dir := t.TempDir()
	s := newGaussianSampler(t, 2, dir)
	if err := s.Initialise(1, false); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	want := s.opts.NumParticles * 2
	if len(s.particles) != want || len(s.logL) != want || len(s.assignments) != want {
		t.Fatalf("ensemble size mismatch, want %d", want)
	}
	for _, a := range s.assignments {
		if a != 0 {
			t.Fatalf("expected all particles assigned to level 0 initially, got %d", a)
		}
	}
	if len(s.levels) != 1 || s.levels[0].Threshold.Compare(s.levels[0].Threshold) != 0 {
		t.Fatalf("expected single initial level")
	}
}

func TestRunProducesLevelsAndTerminates(t *testing.T) {
	dir := t.TempDir()
	s := newGaussianSampler(t, 2, dir)
	if err := s.Initialise(7, false); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	s.Run(0)

	if s.countSaves != int64(s.opts.MaxNumSaves) {
		t.Errorf("countSaves = %d, want %d", s.countSaves, s.opts.MaxNumSaves)
	}
	if len(s.levels) < 1 {
		t.Errorf("expected at least the initial level")
	}
	for j := 1; j < len(s.levels); j++ {
		if !s.levels[j-1].Threshold.Less(s.levels[j].Threshold) {
			t.Fatalf("level thresholds not strictly increasing at %d", j)
		}
	}
	for _, a := range s.assignments {
		if a < 0 || a >= len(s.levels) {
			t.Fatalf("assignment %d out of range [0,%d)", a, len(s.levels))
		}
	}
	for _, lv := range s.levels {
		if lv.Accepts > lv.Tries {
			t.Errorf("accepts %d > tries %d", lv.Accepts, lv.Tries)
		}
		if lv.Exceeds > lv.Visits {
			t.Errorf("exceeds %d > visits %d", lv.Exceeds, lv.Visits)
		}
	}
	if _, err := os.Stat(s.opts.CheckpointFile); err != nil {
		t.Errorf("expected checkpoint file to exist: %v", err)
	}
	if _, err := os.Stat(s.opts.CheckpointFile + ".next"); !os.IsNotExist(err) {
		t.Errorf("expected no leftover .next checkpoint file")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newGaussianSampler(t, 1, dir)
	if err := s.Initialise(42, false); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	s.Run(0)

	r := newGaussianSampler(t, 1, dir)
	if err := r.Initialise(0, true); err != nil {
		t.Fatalf("restore from checkpoint: %v", err)
	}

	if len(r.levels) != len(s.levels) {
		t.Fatalf("restored level count %d, want %d", len(r.levels), len(s.levels))
	}
	for j := range s.levels {
		if r.levels[j].Threshold.Compare(s.levels[j].Threshold) != 0 {
			t.Errorf("level %d threshold mismatch", j)
		}
		if r.levels[j].Accepts != s.levels[j].Accepts || r.levels[j].Tries != s.levels[j].Tries {
			t.Errorf("level %d counters mismatch", j)
		}
	}
	if len(r.particles) != len(s.particles) {
		t.Fatalf("restored particle count %d, want %d", len(r.particles), len(s.particles))
	}
	for i := range s.particles {
		if r.particles[i].X0 != s.particles[i].X0 || r.particles[i].X1 != s.particles[i].X1 {
			t.Errorf("particle %d state mismatch", i)
		}
		if r.logL[i].Compare(s.logL[i]) != 0 {
			t.Errorf("particle %d likelihood mismatch", i)
		}
	}
	for k := range s.rngs {
		if r.rngs[k].Serialize() != s.rngs[k].Serialize() {
			t.Errorf("rng %d state mismatch after restore", k)
		}
	}
	if r.countSaves != s.countSaves || r.difficulty != s.difficulty || r.workRatio != s.workRatio {
		t.Errorf("scalar bookkeeping state mismatch after restore")
	}
}

func TestAbortStopsPromptly(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(t, dir)
	opts.MaxNumSaves = 0 // unbounded; only Abort should stop it
	opts.ThreadSteps = 5
	lg := log.New("error", dir)
	s := New[*gaussian.Model](opts, 2, lg, gaussian.New)
	if err := s.Initialise(3, false); err != nil {
		t.Fatalf("Initialise: %v", err)
	}

	s.Abort()
	done := make(chan struct{})
	go func() {
		s.Run(0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return promptly after Abort")
	}
}

func TestWorkRatioMaxOption(t *testing.T) {
	dir := t.TempDir()
	s := newGaussianSampler(t, 1, dir)
	if got := s.workRatioMax(); got != s.opts.WorkRatioMax() {
		t.Errorf("workRatioMax() = %v, want %v", got, s.opts.WorkRatioMax())
	}
}

// TestKillLaggingReplacesBadParticles forces part of the ensemble to the
// ladder's top level, where log_push is at its maximum (0) and the
// badness probability (1-sigmoid(log_push+4))^3 is about 6e-6, and
// leaves the rest at the bottom level, where lambda=0.1 makes log_push
// -40 and badness effectively 1. That guarantees both a non-empty bad
// set and a non-empty donor pool, so kill_lagging_particles takes its
// replacement branch rather than its all-bad no-op.
func TestKillLaggingReplacesBadParticles(t *testing.T) {
	dir := t.TempDir()
	s := newGaussianSampler(t, 1, dir)
	if err := s.Initialise(1, false); err != nil {
		t.Fatalf("Initialise: %v", err)
	}

	const numLevels = 5
	s.levels = make([]level.Level, numLevels)
	for j := range s.levels {
		s.levels[j] = level.NewLevel(likelihood.Value{V: float64(j), T: 0})
	}
	s.workRatio = 1
	s.opts.Lambda = 0.1

	n := len(s.particles)
	if n < 4 {
		t.Fatalf("need at least 4 particles to split into bad/good halves, got %d", n)
	}
	half := n / 2
	for i := 0; i < n; i++ {
		if i < half {
			s.assignments[i] = numLevels - 1 // top: near-certain goodness, donor pool
		} else {
			s.assignments[i] = 0 // bottom: lagging, near-certain badness
		}
		s.particles[i].X0 = float64(i)
		s.particles[i].X1 = float64(-i)
		s.logL[i] = likelihood.Value{V: float64(i), T: 0}
	}

	before := s.replacements
	s.killLaggingParticles()

	if s.replacements <= before {
		t.Fatalf("expected kill_lagging_particles to replace at least one particle, replacements went %d -> %d",
			before, s.replacements)
	}
	for i, a := range s.assignments {
		if a != 0 && a != numLevels-1 {
			t.Fatalf("particle %d has unexpected level assignment %d after replacement", i, a)
		}
	}
	for i, lv := range s.levels {
		if lv.Accepts > lv.Tries {
			t.Errorf("level %d: accepts %d > tries %d after kill_lagging_particles", i, lv.Accepts, lv.Tries)
		}
	}
}
