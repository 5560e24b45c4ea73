// pkg/likelihood/likelihood.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package likelihood defines the ordered likelihood value used throughout
// the sampler to compare particles and levels.
package likelihood

import (
	"fmt"

	"github.com/mpharr/dnest/pkg/rand"
)

// Value is a likelihood together with a tiebreaker in [0,1). Ties in the
// raw value (expected to be rare, except at the initial -infinity level)
// are broken by comparing the tiebreaker.
type Value struct {
	V float64 // log-likelihood
	T float64 // tiebreaker, in [0,1)
}

// NegativeInfinity is the threshold of the first level: every other
// likelihood value compares greater than it.
var NegativeInfinity = Value{V: negInf, T: 0}

const negInf = -1e300 // avoid math.Inf so Value remains comparable/printable without special-casing

// Compare returns -1, 0, or 1 as v sorts before, equal to, or after other.
func (v Value) Compare(other Value) int {
	if v.V < other.V {
		return -1
	}
	if v.V > other.V {
		return 1
	}
	if v.T < other.T {
		return -1
	}
	if v.T > other.T {
		return 1
	}
	return 0
}

// Less reports whether v sorts strictly before other.
func (v Value) Less(other Value) bool {
	return v.Compare(other) < 0
}

// Perturb updates the tiebreaker by a reflecting random walk step,
// leaving V unchanged. This is the only path by which ties between
// otherwise-equal likelihood values are broken.
func (v Value) Perturb(r *rand.Rand) Value {
	v.T = reflect(v.T+r.Randh(), 0, 1)
	return v
}

// reflect folds x back into [lo, hi) by repeated reflection off the
// boundaries, as used for the tiebreaker's random-walk proposal.
func reflect(x, lo, hi float64) float64 {
	for x < lo || x >= hi {
		if x < lo {
			x = 2*lo - x
		}
		if x >= hi {
			x = 2*hi - x
		}
	}
	return x
}

func (v Value) String() string {
	return fmt.Sprintf("%g %g", v.V, v.T)
}
