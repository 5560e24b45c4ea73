// pkg/examples/straightline/straightline.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package straightline implements a two-parameter linear regression
// model: a slope and an intercept with compact priors, fit against a
// fixed noisy data set with known measurement sigma. It's the
// checkpoint-restart reference scenario: two runs seeded identically
// and interrupted/resumed at a save boundary must land on the same
// particle and level state.
package straightline

import (
	"fmt"
	"io"
	"math"

	dnestmath "github.com/mpharr/dnest/pkg/math"
	"github.com/mpharr/dnest/pkg/rand"
)

// Data is the fixed observation set a Model is fit against: x, y, and
// a known per-point measurement sigma.
type Data struct {
	X     []float64
	Y     []float64
	Sigma []float64
}

const (
	slopeMin, slopeMax         = -10.0, 10.0
	interceptMin, interceptMax = -100.0, 100.0
)

// Model is a straight line y = slope*x + intercept fit to Data under
// Gaussian measurement noise of known sigma.
type Model struct {
	data *Data

	Slope     float64
	Intercept float64

	logL         float64
	proposalLogL float64
	proposalM    float64
	proposalB    float64
}

// New returns a Model that will be fit against data. data is shared,
// not copied; callers must not mutate it once sampling has started.
func New(data *Data) *Model {
	return &Model{data: data}
}

func (m *Model) Clone() *Model {
	c := *m
	return &c
}

func (m *Model) FromPrior(rng *rand.Rand) {
	m.Slope = slopeMin + (slopeMax-slopeMin)*rng.Float64()
	m.Intercept = interceptMin + (interceptMax-interceptMin)*rng.Float64()
	m.logL = m.logLikelihoodAt(m.Slope, m.Intercept)
}

func (m *Model) Perturb(rng *rand.Rand) float64 {
	logH := 0.0

	// With equal probability perturb one of the two parameters by a
	// heavy-tailed step, reflected back into its compact prior range.
	if rng.Intn(2) == 0 {
		m.proposalM = reflect(m.Slope+(slopeMax-slopeMin)*rng.Randh(), slopeMin, slopeMax)
		m.proposalB = m.Intercept
	} else {
		m.proposalM = m.Slope
		m.proposalB = reflect(m.Intercept+(interceptMax-interceptMin)*rng.Randh(), interceptMin, interceptMax)
	}

	m.proposalLogL = m.logLikelihoodAt(m.proposalM, m.proposalB)
	return logH
}

func (m *Model) LogLikelihood() float64 { return m.logL }

func (m *Model) ProposalLogLikelihood() float64 { return m.proposalLogL }

func (m *Model) AcceptPerturbation() {
	m.Slope, m.Intercept = m.proposalM, m.proposalB
	m.logL = m.proposalLogL
}

func (m *Model) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s ", formatFloat(m.Slope), formatFloat(m.Intercept))
	return err
}

func (m *Model) Read(r io.Reader) error {
	_, err := fmt.Fscanf(r, "%g %g", &m.Slope, &m.Intercept)
	return err
}

func (m *Model) PrintInternal(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s", formatFloat(m.logL))
	return err
}

func (m *Model) ReadInternal(r io.Reader) error {
	_, err := fmt.Fscanf(r, "%g", &m.logL)
	return err
}

func (m *Model) Description() string { return "slope, intercept" }

func (m *Model) logLikelihoodAt(slope, intercept float64) float64 {
	logL := 0.0
	for i, x := range m.data.X {
		resid := m.data.Y[i] - (slope*x + intercept)
		sigma := m.data.Sigma[i]
		logL += -0.5*math.Log(2*math.Pi*dnestmath.Sqr(sigma)) - 0.5*dnestmath.Sqr(resid)/dnestmath.Sqr(sigma)
	}
	return logL
}

func reflect(x, lo, hi float64) float64 {
	for x < lo || x > hi {
		if x < lo {
			x = 2*lo - x
		}
		if x > hi {
			x = 2*hi - x
		}
	}
	return x
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.17g", v)
}

// GenerateData produces a synthetic n-point data set scattered around
// a known line, for use in the checkpoint-restart test scenario.
func GenerateData(rng *rand.Rand, n int, trueSlope, trueIntercept, sigma float64) *Data {
	d := &Data{X: make([]float64, n), Y: make([]float64, n), Sigma: make([]float64, n)}
	for i := 0; i < n; i++ {
		x := float64(i) - float64(n)/2
		d.X[i] = x
		d.Sigma[i] = sigma
		d.Y[i] = trueSlope*x + trueIntercept + sigma*rng.NormFloat64()
	}
	return d
}
