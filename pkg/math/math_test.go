// math_test.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"math"
	"testing"
)

func TestMinMax(t *testing.T) {
	if Min(3, 7) != 3 || Max(3, 7) != 7 {
		t.Errorf("Min/Max disagree with expected ordering")
	}
}

func TestAbs(t *testing.T) {
	if Abs(-3.5) != 3.5 || Abs(3.5) != 3.5 {
		t.Errorf("Abs should be sign-independent")
	}
}

func TestSqr(t *testing.T) {
	if Sqr(4.0) != 16.0 || Sqr(-4.0) != 16.0 {
		t.Errorf("Sqr should ignore sign")
	}
}

func TestSigmoid(t *testing.T) {
	if math.Abs(Sigmoid(0)-0.5) > 1e-9 {
		t.Errorf("Sigmoid(0) should be 0.5, got %f", Sigmoid(0))
	}
	if Sigmoid(-100) > 1e-9 {
		t.Errorf("Sigmoid(-100) should be ~0, got %f", Sigmoid(-100))
	}
	if Sigmoid(100) < 1-1e-9 {
		t.Errorf("Sigmoid(100) should be ~1, got %f", Sigmoid(100))
	}
}

func TestModNonNegative(t *testing.T) {
	for _, test := range []struct{ a, b, result int }{
		{a: 5, b: 3, result: 2},
		{a: -1, b: 3, result: 2},
		{a: -4, b: 3, result: 2},
		{a: 0, b: 3, result: 0},
	} {
		if g := Mod(test.a, test.b); g != test.result {
			t.Errorf("Mod(%d,%d): wanted %d, got %d", test.a, test.b, test.result, g)
		}
	}
}

