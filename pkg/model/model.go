// pkg/model/model.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package model defines the contract every user-supplied model must
// satisfy to be driven by the sampler. It is the only external
// collaborator interface the core depends on for the scientific
// content of a run; everything else (RNG, options, output sink) is
// infrastructure.
package model

import (
	"io"

	"github.com/mpharr/dnest/pkg/rand"
)

// Model is implemented by every nested-sampling target. The sampler is
// generic over Model so that the MCMC inner loop is monomorphized per
// concrete model type instead of going through an interface vtable on
// every perturbation.
//
// A Model instance is mutated in place by Perturb and AcceptPerturbation;
// the sampler is responsible for cloning a particle before proposing a
// perturbation to it so that rejection can simply discard the clone.
type Model interface {
	// FromPrior draws an initial state from the prior, using rng as the
	// only source of randomness.
	FromPrior(rng *rand.Rand)

	// Perturb proposes an in-place change to the model's state and
	// returns the log of the Hastings ratio adjustment for the move
	// (typically <= 0, and the caller clamps it regardless).
	Perturb(rng *rand.Rand) float64

	// LogLikelihood returns the log-likelihood of the current,
	// already-accepted state.
	LogLikelihood() float64

	// ProposalLogLikelihood returns the log-likelihood of the state as
	// it stands immediately after a Perturb call, before the caller has
	// decided whether to accept it.
	ProposalLogLikelihood() float64

	// AcceptPerturbation commits the state produced by the most recent
	// Perturb call. Models that mutate in place only need this to
	// update any cached log-likelihood; models that keep a separate
	// proposal buffer copy it into the live state here.
	AcceptPerturbation()

	// Print writes the human-readable sampleable state to w.
	Print(w io.Writer) error

	// Read parses the sampleable state previously written by Print.
	Read(r io.Reader) error

	// PrintInternal writes any auxiliary state needed for exact restart
	// (state not part of the reported sample, e.g. cached proposal
	// values) that isn't already covered by Print.
	PrintInternal(w io.Writer) error

	// ReadInternal parses auxiliary state written by PrintInternal.
	ReadInternal(r io.Reader) error

	// Description returns the column header for the sample file.
	Description() string
}

// Cloner is implemented by models whose state can be duplicated without
// re-running FromPrior. The sampler uses it to try a perturbation on a
// copy of a particle, to copy donors in kill_lagging_particles, and to
// keep the best-ever particle.
type Cloner[M any] interface {
	Clone() M
}
