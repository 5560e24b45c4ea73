// pkg/examples/straightline/straightline_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package straightline

import (
	"strings"
	"testing"

	"github.com/mpharr/dnest/pkg/rand"
)

func testData() *Data {
	r := rand.New()
	r.SetSeed(99)
	return GenerateData(r, 20, 2.0, 5.0, 1.0)
}

func TestGenerateDataLength(t *testing.T) {
	d := testData()
	if len(d.X) != 20 || len(d.Y) != 20 || len(d.Sigma) != 20 {
		t.Fatalf("expected 20 points, got X=%d Y=%d Sigma=%d", len(d.X), len(d.Y), len(d.Sigma))
	}
}

func TestFromPriorInRange(t *testing.T) {
	r := rand.New()
	r.SetSeed(5)
	m := New(testData())
	for i := 0; i < 500; i++ {
		m.FromPrior(r)
		if m.Slope < slopeMin || m.Slope > slopeMax {
			t.Fatalf("slope out of range: %v", m.Slope)
		}
		if m.Intercept < interceptMin || m.Intercept > interceptMax {
			t.Fatalf("intercept out of range: %v", m.Intercept)
		}
	}
}

func TestLogLikelihoodBetterNearTruth(t *testing.T) {
	m := New(testData())
	near := m.logLikelihoodAt(2.0, 5.0)
	far := m.logLikelihoodAt(-8.0, 90.0)
	if near <= far {
		t.Errorf("expected likelihood near truth (%v) to exceed likelihood far away (%v)", near, far)
	}
}

func TestPerturbOnlyChangesOneParameter(t *testing.T) {
	r := rand.New()
	r.SetSeed(17)
	m := New(testData())
	m.FromPrior(r)
	s0, b0 := m.Slope, m.Intercept

	m.Perturb(r)
	if m.proposalM == s0 && m.proposalB == b0 {
		t.Fatal("Perturb should change exactly one of slope/intercept, changed neither")
	}
	if m.proposalM != s0 && m.proposalB != b0 {
		t.Fatal("Perturb should change exactly one of slope/intercept, changed both")
	}
}

func TestPrintReadRoundTrip(t *testing.T) {
	m := New(testData())
	m.Slope, m.Intercept = 1.5, -4.25
	var sb strings.Builder
	if err := m.Print(&sb); err != nil {
		t.Fatalf("Print: %v", err)
	}

	m2 := New(testData())
	if err := m2.Read(strings.NewReader(sb.String())); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if m2.Slope != m.Slope || m2.Intercept != m.Intercept {
		t.Errorf("round trip mismatch: got (%v,%v) want (%v,%v)", m2.Slope, m2.Intercept, m.Slope, m.Intercept)
	}
}
