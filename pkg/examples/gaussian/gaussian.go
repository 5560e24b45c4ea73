// pkg/examples/gaussian/gaussian.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package gaussian implements a simple 2-D Gaussian target: a uniform
// prior on [-scale, scale]^2 and a standard bivariate normal
// likelihood centered at the origin. It's the reference sanity-check
// model for the sampler: the ladder should grow to the tens of levels
// and the top level's log_X should land close to the analytic mass of
// the unit-density region.
package gaussian

import (
	"fmt"
	"io"
	"math"

	dnestmath "github.com/mpharr/dnest/pkg/math"
	"github.com/mpharr/dnest/pkg/rand"
)

const scale = 10.0

// Model is a 2-D point with a uniform prior over [-scale, scale]^2 and
// an independent unit-variance Gaussian likelihood centered at the
// origin.
type Model struct {
	X0, X1 float64

	logL         float64
	proposalLogL float64
	proposalX0   float64
	proposalX1   float64
}

func New() *Model {
	return &Model{}
}

func (m *Model) Clone() *Model {
	c := *m
	return &c
}

func (m *Model) FromPrior(rng *rand.Rand) {
	m.X0 = -scale + 2*scale*rng.Float64()
	m.X1 = -scale + 2*scale*rng.Float64()
	m.logL = logLikelihoodAt(m.X0, m.X1)
}

func (m *Model) Perturb(rng *rand.Rand) float64 {
	m.proposalX0 = wrap(m.X0+scale*rng.Randh(), -scale, scale)
	m.proposalX1 = wrap(m.X1+scale*rng.Randh(), -scale, scale)
	m.proposalLogL = logLikelihoodAt(m.proposalX0, m.proposalX1)
	return 0.0
}

func (m *Model) LogLikelihood() float64 { return m.logL }

func (m *Model) ProposalLogLikelihood() float64 { return m.proposalLogL }

func (m *Model) AcceptPerturbation() {
	m.X0, m.X1 = m.proposalX0, m.proposalX1
	m.logL = m.proposalLogL
}

func (m *Model) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s ", formatFloat(m.X0), formatFloat(m.X1))
	return err
}

func (m *Model) Read(r io.Reader) error {
	_, err := fmt.Fscanf(r, "%g %g", &m.X0, &m.X1)
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

func (m *Model) Description() string { return "x0, x1" }

func logLikelihoodAt(x0, x1 float64) float64 {
	const variance = 1.0
	return -math.Log(2*math.Pi*variance) - 0.5*(dnestmath.Sqr(x0)+dnestmath.Sqr(x1))/variance
}

// wrap folds x back into [lo, hi) periodically, matching the reference
// model's torus-shaped compact prior: a proposal that walks off one
// edge reappears at the other, rather than reflecting.
func wrap(x, lo, hi float64) float64 {
	width := hi - lo
	x = math.Mod(x-lo, width)
	if x < 0 {
		x += width
	}
	return x + lo
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.17g", v)
}
