// pkg/likelihood/likelihood_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package likelihood

import (
	"testing"

	"github.com/mpharr/dnest/pkg/rand"
)

func TestCompareValueFirst(t *testing.T) {
	a := Value{V: 1, T: 0.9}
	b := Value{V: 2, T: 0.1}
	if !a.Less(b) {
		t.Errorf("expected %v < %v on value alone", a, b)
	}
}

func TestCompareTiebreak(t *testing.T) {
	a := Value{V: 1, T: 0.1}
	b := Value{V: 1, T: 0.2}
	if !a.Less(b) {
		t.Errorf("expected %v < %v by tiebreaker", a, b)
	}
	if a.Compare(a) != 0 {
		t.Errorf("expected equal value to compare 0")
	}
}

func TestPerturbStaysInRange(t *testing.T) {
	r := rand.New()
	r.SetSeed(42)
	v := Value{V: 3.5, T: 0.5}
	for i := 0; i < 10000; i++ {
		v = v.Perturb(r)
		if v.V != 3.5 {
			t.Fatalf("Perturb must not change V, got %v", v.V)
		}
		if v.T < 0 || v.T >= 1 {
			t.Fatalf("tiebreaker %v out of [0,1) after reflect", v.T)
		}
	}
}

func TestReflectBoundaries(t *testing.T) {
	cases := []struct{ x, want float64 }{
		{0.5, 0.5},
		{-0.1, 0.1},
		{1.1, 0.9},
		{-1.5, 0.5},
	}
	for _, c := range cases {
		got := reflect(c.x, 0, 1)
		if got < 0 || got >= 1 {
			t.Fatalf("reflect(%v) = %v out of range", c.x, got)
		}
		if diff := got - c.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("reflect(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}
