// pkg/math/core.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package math collects small numeric helpers shared by the sampler and
// its supporting packages. Generic so that both the float64 quantities
// the sampler works in and the occasional integer count can share one
// implementation.
package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

// Sigmoid returns the logistic function 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1 / (1 + gomath.Exp(-x))
}

// Mod returns the non-negative remainder of a/b, unlike gomath.Mod which
// preserves the sign of a.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

