// pkg/options/options_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package options

import (
	"math"
	"testing"

	"github.com/mpharr/dnest/pkg/util"
)

func TestDefaultOptionsValidates(t *testing.T) {
	o := DefaultOptions()
	var e util.ErrorLogger
	o.Validate(&e)
	if e.HaveErrors() {
		t.Fatalf("default options should validate, got: %s", e.String())
	}
}

func TestAutoDetectRequiresCompressionE(t *testing.T) {
	o := DefaultOptions()
	o.MaxNumLevels = 0
	o.Compression = 3.0
	var e util.ErrorLogger
	o.Validate(&e)
	if !e.HaveErrors() {
		t.Fatal("expected validation error for compression != e with auto-detect")
	}
}

func TestFixedLadderAllowsOtherCompression(t *testing.T) {
	o := DefaultOptions()
	o.MaxNumLevels = 50
	o.Compression = 3.0
	var e util.ErrorLogger
	o.Validate(&e)
	if e.HaveErrors() {
		t.Fatalf("fixed-size ladder should allow compression != e, got: %s", e.String())
	}
}

func TestWorkRatioMax(t *testing.T) {
	o := DefaultOptions()
	o.Lambda = 4.0
	if got, want := o.WorkRatioMax(), 10.0; got != want {
		t.Errorf("WorkRatioMax() = %v, want %v", got, want)
	}
}

func TestIncreaseMaxNumSaves(t *testing.T) {
	o := DefaultOptions()
	o.MaxNumSaves = 100
	if err := o.IncreaseMaxNumSaves(50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.MaxNumSaves != 150 {
		t.Errorf("MaxNumSaves = %d, want 150", o.MaxNumSaves)
	}
}

func TestIncreaseMaxNumSavesOverflow(t *testing.T) {
	o := DefaultOptions()
	o.MaxNumSaves = math.MaxInt
	before := o.MaxNumSaves
	if err := o.IncreaseMaxNumSaves(1); err == nil {
		t.Fatal("expected overflow error")
	}
	if o.MaxNumSaves != before {
		t.Errorf("MaxNumSaves changed despite overflow error: %d != %d", o.MaxNumSaves, before)
	}
}

func TestIncreaseMaxNumSavesNonPositive(t *testing.T) {
	o := DefaultOptions()
	if err := o.IncreaseMaxNumSaves(0); err == nil {
		t.Fatal("expected error for zero increase")
	}
	if err := o.IncreaseMaxNumSaves(-5); err == nil {
		t.Fatal("expected error for negative increase")
	}
}
