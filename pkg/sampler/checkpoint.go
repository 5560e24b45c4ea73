// pkg/sampler/checkpoint.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mpharr/dnest/pkg/level"
	"github.com/mpharr/dnest/pkg/likelihood"
	"github.com/mpharr/dnest/pkg/rand"
	"github.com/mpharr/dnest/pkg/util"
)

// writeCheckpoint serializes the full sampler state to opts.CheckpointFile
// using write-then-rename semantics: the new content lands at
// checkpoint_file+".next", is flushed and closed, and only then is
// renamed over checkpoint_file, so a crash mid-write never leaves a
// truncated checkpoint at the live path. A write failure is reported
// but does not stop sampling.
func (s *Sampler[M]) writeCheckpoint() {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	exact := s.opts.WriteExactRepresentation

	fmt.Fprintf(w, "num_threads %d\n", s.numThreads)
	fmt.Fprintf(w, "count_saves %d\n", s.countSaves)
	fmt.Fprintf(w, "mcmc_steps_since_last_save %d\n", s.mcmcStepsSinceLastSave)
	fmt.Fprintf(w, "difficulty %s\n", formatFloat(s.difficulty, exact))
	fmt.Fprintf(w, "work_ratio %s\n", formatFloat(s.workRatio, exact))
	fmt.Fprintf(w, "save_to_disk %d\n", boolToInt(s.saveToDisk))
	fmt.Fprintf(w, "compression %s\n", formatFloat(s.opts.Compression, exact))
	fmt.Fprintf(w, "replacements %d\n", s.replacements)

	fmt.Fprintf(w, "best_ever_set %d\n", boolToInt(s.bestEverSet))
	if s.bestEverSet {
		fmt.Fprintf(w, "best_ever %s %s\n", formatFloat(s.bestEver.V, exact), formatFloat(s.bestEver.T, exact))
		s.bestEverParticle.Print(w)
		fmt.Fprintln(w)
		s.bestEverParticle.PrintInternal(w)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "num_levels %d\n", len(s.levels))
	for _, lv := range s.levels {
		fmt.Fprintf(w, "level %s %s %s %d %d %d %d\n",
			formatFloat(lv.Threshold.V, exact), formatFloat(lv.Threshold.T, exact), formatFloat(lv.LogX, exact),
			lv.Accepts, lv.Tries, lv.Visits, lv.Exceeds)
	}

	fmt.Fprintf(w, "num_all_above %d\n", len(s.allAbove))
	for _, v := range s.allAbove {
		fmt.Fprintf(w, "above %s %s\n", formatFloat(v.V, exact), formatFloat(v.T, exact))
	}

	fmt.Fprintf(w, "num_particles %d\n", len(s.particles))
	for i, p := range s.particles {
		fmt.Fprintf(w, "particle %d %s %s\n", s.assignments[i],
			formatFloat(s.logL[i].V, exact), formatFloat(s.logL[i].T, exact))
		p.Print(w)
		fmt.Fprintln(w)
		p.PrintInternal(w)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "num_rngs %d\n", len(s.rngs))
	for k, rng := range s.rngs {
		fmt.Fprintf(w, "rng %d %s\n", k, rng.Serialize())
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "dnest: checkpoint write failed: %v\n", err)
		return
	}
	if err := util.WriteFileAtomic(s.opts.CheckpointFile, buf.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "dnest: checkpoint write failed: %v\n", err)
	}
}

// checkpointReader walks a checkpoint's lines, giving each consumer a
// flat sequence of already-split fields rather than re-parsing with
// fmt.Sscanf, whose verbs don't line up cleanly with a mix of our own
// structured fields and a model's free-form Print output.
type checkpointReader struct {
	sc  *bufio.Scanner
	err error
}

func newCheckpointReader(data []byte) *checkpointReader {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &checkpointReader{sc: sc}
}

func (r *checkpointReader) line() string {
	if r.err != nil {
		return ""
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			r.err = err
		} else {
			r.err = fmt.Errorf("checkpoint: unexpected end of file")
		}
		return ""
	}
	return r.sc.Text()
}

// keyed reads a line, checks its first field equals key, and returns
// the remaining whitespace-separated fields.
func (r *checkpointReader) keyed(key string) []string {
	line := r.line()
	if r.err != nil {
		return nil
	}
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != key {
		r.err = fmt.Errorf("checkpoint: expected %q line, got %q", key, line)
		return nil
	}
	return fields[1:]
}

func (r *checkpointReader) keyedInt(key string) int64 {
	fields := r.keyed(key)
	if r.err != nil || len(fields) != 1 {
		if r.err == nil {
			r.err = fmt.Errorf("checkpoint: %s: expected one field", key)
		}
		return 0
	}
	v, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		r.err = fmt.Errorf("checkpoint: %s: %w", key, err)
	}
	return v
}

func (r *checkpointReader) keyedFloat(key string) float64 {
	fields := r.keyed(key)
	if r.err != nil || len(fields) != 1 {
		if r.err == nil {
			r.err = fmt.Errorf("checkpoint: %s: expected one field", key)
		}
		return 0
	}
	v, err := parseFloat(fields[0])
	if err != nil {
		r.err = fmt.Errorf("checkpoint: %s: %w", key, err)
	}
	return v
}

func (r *checkpointReader) keyedValue(key string) likelihood.Value {
	fields := r.keyed(key)
	if r.err != nil {
		return likelihood.Value{}
	}
	if len(fields) != 2 {
		r.err = fmt.Errorf("checkpoint: %s: expected two fields, got %v", key, fields)
		return likelihood.Value{}
	}
	v, err := parseFloat(fields[0])
	if err != nil {
		r.err = err
		return likelihood.Value{}
	}
	t, err := parseFloat(fields[1])
	if err != nil {
		r.err = err
		return likelihood.Value{}
	}
	return likelihood.Value{V: v, T: t}
}

// readCheckpoint restores the full sampler state previously written by
// writeCheckpoint. It does not touch s.opts: the caller's own options
// remain in effect, letting an operator e.g. raise max_num_saves on a
// resumed run. A malformed checkpoint returns an error; the caller
// treats that as fatal at startup.
func (s *Sampler[M]) readCheckpoint() error {
	data, err := os.ReadFile(s.opts.CheckpointFile)
	if err != nil {
		return err
	}
	r := newCheckpointReader(data)

	checkpointThreads := int(r.keyedInt("num_threads"))
	s.countSaves = r.keyedInt("count_saves")
	s.mcmcStepsSinceLastSave = r.keyedInt("mcmc_steps_since_last_save")
	s.difficulty = r.keyedFloat("difficulty")
	s.workRatio = r.keyedFloat("work_ratio")
	s.saveToDisk = r.keyedInt("save_to_disk") != 0
	r.keyedFloat("compression") // consumed only; the caller's Compression stays in effect
	s.replacements = r.keyedInt("replacements")

	s.bestEverSet = r.keyedInt("best_ever_set") != 0
	if s.bestEverSet {
		s.bestEver = r.keyedValue("best_ever")
		p := s.newParticle()
		if err := p.Read(strings.NewReader(r.line())); r.err == nil && err != nil {
			r.err = fmt.Errorf("checkpoint: best-ever particle: %w", err)
		}
		if err := p.ReadInternal(strings.NewReader(r.line())); r.err == nil && err != nil {
			r.err = fmt.Errorf("checkpoint: best-ever particle internal: %w", err)
		}
		s.bestEverParticle = p
	}

	numLevels := int(r.keyedInt("num_levels"))
	s.levels = make([]level.Level, numLevels)
	for i := 0; i < numLevels && r.err == nil; i++ {
		fields := r.keyed("level")
		if r.err != nil {
			break
		}
		if len(fields) != 7 {
			r.err = fmt.Errorf("checkpoint: level %d: expected 7 fields, got %d", i, len(fields))
			break
		}
		tv, _ := parseFloat(fields[0])
		tt, _ := parseFloat(fields[1])
		logX, _ := parseFloat(fields[2])
		acc, _ := strconv.ParseInt(fields[3], 10, 64)
		tries, _ := strconv.ParseInt(fields[4], 10, 64)
		visits, _ := strconv.ParseInt(fields[5], 10, 64)
		exceeds, _ := strconv.ParseInt(fields[6], 10, 64)
		s.levels[i] = level.Level{
			Threshold: likelihood.Value{V: tv, T: tt},
			LogX:      logX,
			Accepts:   acc, Tries: tries, Visits: visits, Exceeds: exceeds,
		}
	}

	numAbove := int(r.keyedInt("num_all_above"))
	s.allAbove = make([]likelihood.Value, numAbove)
	for i := 0; i < numAbove && r.err == nil; i++ {
		s.allAbove[i] = r.keyedValue("above")
	}

	numParticles := int(r.keyedInt("num_particles"))
	s.particles = make([]M, numParticles)
	s.logL = make([]likelihood.Value, numParticles)
	s.assignments = make([]int, numParticles)
	for i := 0; i < numParticles && r.err == nil; i++ {
		fields := r.keyed("particle")
		if r.err != nil {
			break
		}
		if len(fields) != 3 {
			r.err = fmt.Errorf("checkpoint: particle %d: expected 3 fields, got %d", i, len(fields))
			break
		}
		assigned, _ := strconv.Atoi(fields[0])
		v, _ := parseFloat(fields[1])
		t, _ := parseFloat(fields[2])
		s.assignments[i] = assigned
		s.logL[i] = likelihood.Value{V: v, T: t}

		p := s.newParticle()
		if err := p.Read(strings.NewReader(r.line())); r.err == nil && err != nil {
			r.err = fmt.Errorf("checkpoint: particle %d: %w", i, err)
		}
		if err := p.ReadInternal(strings.NewReader(r.line())); r.err == nil && err != nil {
			r.err = fmt.Errorf("checkpoint: particle %d internal: %w", i, err)
		}
		s.particles[i] = p
	}

	numRNGs := int(r.keyedInt("num_rngs"))
	s.rngs = make([]*rand.Rand, numRNGs)
	for k := 0; k < numRNGs && r.err == nil; k++ {
		fields := r.keyed("rng")
		if r.err != nil {
			break
		}
		if len(fields) != 3 {
			r.err = fmt.Errorf("checkpoint: rng %d: expected 3 fields, got %d", k, len(fields))
			break
		}
		rng := rand.New()
		if err := rng.Deserialize(fields[1] + " " + fields[2]); err != nil {
			r.err = fmt.Errorf("checkpoint: rng %d: %w", k, err)
			break
		}
		s.rngs[k] = rng
	}

	if r.err == nil && checkpointThreads != s.numThreads {
		r.err = fmt.Errorf("checkpoint: built for %d threads, sampler constructed with %d", checkpointThreads, s.numThreads)
	}
	return r.err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
