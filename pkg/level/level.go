// pkg/level/level.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package level implements the nested sampling level ladder: an
// immutable threshold plus mutable MCMC bookkeeping counters, and the
// derived log-mass recalculation shared across all levels.
package level

import (
	"fmt"
	"math"

	"github.com/mpharr/dnest/pkg/likelihood"
	dnestmath "github.com/mpharr/dnest/pkg/math"
)

// Level is one rung of the ladder: a fixed likelihood threshold plus
// counters accumulated from MCMC moves assigned to it. LogX is derived
// from the counters by RecalculateLogX and is not an independently
// settable field.
type Level struct {
	Threshold likelihood.Value
	LogX      float64

	Accepts int64
	Tries   int64
	Visits  int64
	Exceeds int64
}

// NewLevel returns a level at the given threshold with zeroed counters
// and LogX left at the caller's responsibility to set via
// RecalculateLogX.
func NewLevel(threshold likelihood.Value) Level {
	return Level{Threshold: threshold}
}

// IncrementAccepts records an accepted MCMC perturbation at this level.
func (l *Level) IncrementAccepts() { l.Accepts++ }

// IncrementTries records an attempted MCMC perturbation at this level.
func (l *Level) IncrementTries() { l.Tries++ }

// IncrementVisits records a particle transiting through this level.
func (l *Level) IncrementVisits() { l.Visits++ }

// IncrementExceeds records a visit that crossed the next-higher threshold.
func (l *Level) IncrementExceeds() { l.Exceeds++ }

// RenormaliseVisits scales every level's visit/exceed counters down by
// regularisation/(regularisation+maxVisits), where maxVisits is the
// largest visit count across all levels. It damps noise in the
// visit/exceed statistics once the ladder is complete and no further
// levels will accumulate fresh data.
func RenormaliseVisits(levels []Level, regularisation float64) {
	if len(levels) == 0 {
		return
	}
	var maxVisits int64
	for _, lv := range levels {
		maxVisits = dnestmath.Max(maxVisits, lv.Visits)
	}
	factor := regularisation / (regularisation + float64(maxVisits))
	for i := range levels {
		levels[i].Accepts = int64(float64(levels[i].Accepts) * factor)
		levels[i].Tries = int64(float64(levels[i].Tries) * factor)
		levels[i].Visits = int64(float64(levels[i].Visits) * factor)
		levels[i].Exceeds = int64(float64(levels[i].Exceeds) * factor)
	}
}

// RecalculateLogX recomputes every level's LogX from its current
// visit/exceed counters: log_X[0] = 0, and for j >= 1, a
// Laplace-smoothed empirical estimate of the mass ratio between
// adjacent levels.
func RecalculateLogX(levels []Level, compression, regularisation float64) {
	if len(levels) == 0 {
		return
	}
	levels[0].LogX = 0
	for j := 1; j < len(levels); j++ {
		prev := levels[j-1]
		ratio := (float64(prev.Exceeds) + regularisation/compression) / (float64(prev.Visits) + regularisation)
		levels[j].LogX = levels[j-1].LogX + math.Log(ratio)
	}
}

// LogPush returns the soft bias toward the top of a still-growing
// ladder for a particle assigned to level index j out of numLevels
// total levels, given the current work ratio and lambda. The value is 0
// at the top level and negative below it. It does not check whether the
// ladder is complete; callers that need the push to vanish once growth
// has stopped return 0 themselves.
func LogPush(j, numLevels int, workRatio, lambda float64) float64 {
	return float64(j-(numLevels-1)) / (workRatio * lambda)
}

func (l Level) String() string {
	return fmt.Sprintf("%g %s %d %d %d %d", l.LogX, l.Threshold, l.Accepts, l.Tries, l.Exceeds, l.Visits)
}
