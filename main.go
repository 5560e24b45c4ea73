// main.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function, which
// builds an Options from flags, constructs a Sampler for the requested
// built-in model, and runs it to completion or until interrupted.

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mpharr/dnest/pkg/examples/gaussian"
	"github.com/mpharr/dnest/pkg/examples/straightline"
	"github.com/mpharr/dnest/pkg/log"
	"github.com/mpharr/dnest/pkg/options"
	"github.com/mpharr/dnest/pkg/rand"
	"github.com/mpharr/dnest/pkg/sampler"
	"github.com/mpharr/dnest/pkg/util"
)

var (
	logLevel = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir   = flag.String("logdir", ".", "log file directory")

	model = flag.String("model", "gaussian", "built-in model to sample: gaussian, straightline")

	numThreads       = flag.Int("threads", 1, "number of worker threads")
	numParticles     = flag.Int("numParticles", 1, "particles per thread")
	newLevelInterval = flag.Int("newLevelInterval", 10000, "all_above size that triggers a new level")
	saveInterval     = flag.Int("saveInterval", 10000, "MCMC steps between saves")
	threadSteps      = flag.Int("threadSteps", 100, "MCMC steps per thread per iteration")
	maxNumLevels     = flag.Int("maxNumLevels", 0, "cap on level count; 0 = auto-detect")
	lambda           = flag.Float64("lambda", 10.0, "backtracking scale in log_push")
	beta             = flag.Float64("beta", 100.0, "uniform-exploration weight once ladder is complete")
	maxNumSaves      = flag.Int("maxNumSaves", 0, "stop after this many saves; 0 = unbounded")
	thin             = flag.Int("thin", 1, "log a progress line every this many saves")

	seed            = flag.Uint64("seed", 0, "first-thread RNG seed")
	continueFromCkp = flag.Bool("continue", false, "resume from the checkpoint file instead of starting fresh")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)

	opts := options.DefaultOptions()
	opts.NumParticles = *numParticles
	opts.NewLevelInterval = *newLevelInterval
	opts.SaveInterval = *saveInterval
	opts.ThreadSteps = *threadSteps
	opts.MaxNumLevels = *maxNumLevels
	opts.Lambda = *lambda
	opts.Beta = *beta
	opts.MaxNumSaves = *maxNumSaves

	var el util.ErrorLogger
	opts.Validate(&el)
	if el.HaveErrors() {
		el.PrintErrors(lg)
		os.Exit(1)
	}

	if err := util.EnsureDir(*logDir); err != nil {
		fmt.Fprintf(os.Stderr, "dnest: %v\n", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	switch *model {
	case "gaussian":
		runModel(opts, lg, sig, gaussian.New)
	case "straightline":
		data := straightline.GenerateData(rand.New(), 20, 2.0, 5.0, 1.0)
		runModel(opts, lg, sig, func() *straightline.Model { return straightline.New(data) })
	default:
		fmt.Fprintf(os.Stderr, "dnest: unknown model %q (want gaussian or straightline)\n", *model)
		os.Exit(1)
	}
}

func runModel[M sampler.Particle[M]](opts options.Options, lg *log.Logger, sig <-chan os.Signal, newParticle func() M) {
	s := sampler.New[M](opts, *numThreads, lg, newParticle)

	if err := s.Initialise(*seed, *continueFromCkp); err != nil {
		os.Exit(1)
	}

	go func() {
		<-sig
		lg.Info("received interrupt, stopping at next phase boundary")
		s.Abort()
	}()

	s.Run(*thin)
}
